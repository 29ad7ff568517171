// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/truthfinder/internal/archive"
	"github.com/pdiddy/truthfinder/internal/httputil"
	"github.com/pdiddy/truthfinder/internal/logging"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// maxInputChars bounds the text sent for inference.
const maxInputChars = 500

// Messages shown when no reading is available.
const (
	msgUnavailable = "AI analysis temporarily unavailable"
	msgErrorPrefix = "Analysis error: "
)

// Sentiment is one reading of a document. When Available is false, Message
// explains why and the other fields are zero.
type Sentiment struct {
	Available bool    `json:"available" yaml:"available"`
	Label     string  `json:"label,omitempty" yaml:"label,omitempty"`
	Score     float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Message   string  `json:"message,omitempty" yaml:"message,omitempty"`
}

// ResearchValue is "High" above 0.8 confidence, else "Medium".
func (s Sentiment) ResearchValue() string {
	if s.Score > 0.8 {
		return "High"
	}
	return "Medium"
}

// Significance is "Potentially significant" above 0.7 confidence.
func (s Sentiment) Significance() string {
	if s.Score > 0.7 {
		return "Potentially significant"
	}
	return "Standard document"
}

// String renders the reading for display.
func (s Sentiment) String() string {
	if !s.Available {
		return s.Message
	}
	var b strings.Builder
	b.WriteString("AI Analysis:\n")
	fmt.Fprintf(&b, "- Document Sentiment: %s\n", s.Label)
	fmt.Fprintf(&b, "- Confidence: %.2f\n", s.Score)
	fmt.Fprintf(&b, "- Research Value: %s\n", s.ResearchValue())
	fmt.Fprintf(&b, "- Status: %s", s.Significance())
	return b.String()
}

// Analyzer reads the sentiment of a document. Implementations never fail;
// problems come back as an unavailable Sentiment.
type Analyzer interface {
	Analyze(ctx context.Context, doc types.Document) Sentiment
}

// HuggingFaceAnalyzer calls a hosted text-classification model.
type HuggingFaceAnalyzer struct {
	client    *http.Client
	endpoint  string
	token     string
	userAgent string
	log       logrus.FieldLogger
}

// NewHuggingFace returns an analyzer for cfg.
func NewHuggingFace(cfg types.AnalysisConfig, log logrus.FieldLogger) *HuggingFaceAnalyzer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logging.Discard()
	}
	return &HuggingFaceAnalyzer{
		client:    &http.Client{Timeout: timeout},
		endpoint:  cfg.Endpoint,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Analyze classifies the cleaned title and description of doc.
func (a *HuggingFaceAnalyzer) Analyze(ctx context.Context, doc types.Document) Sentiment {
	if a.endpoint == "" {
		return Sentiment{Message: msgUnavailable}
	}

	body, err := json.Marshal(map[string]string{"inputs": inputText(doc)})
	if err != nil {
		return failed(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(string(body)))
	if err != nil {
		return failed(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := httputil.RetryPolicy{MaxRetries: 1, Log: a.log}.Do(ctx, a.client, req)
	if err != nil {
		a.log.WithError(err).Debug("sentiment request failed")
		return failed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.log.WithField("status", resp.StatusCode).Debug("sentiment service unavailable")
		return Sentiment{Message: msgUnavailable}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return failed(err)
	}
	top, ok := topClassification(raw)
	if !ok {
		return Sentiment{Message: msgUnavailable}
	}
	if top.Label == "" {
		top.Label = "NEUTRAL"
	}
	return Sentiment{Available: true, Label: top.Label, Score: min(max(top.Score, 0), 1)}
}

// topClassification accepts both the flat [{label,score}] and the nested
// [[{label,score}, ...]] response shapes and returns the highest score.
func topClassification(raw json.RawMessage) (classification, bool) {
	var nested [][]classification
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return best(nested[0])
	}
	var flat []classification
	if err := json.Unmarshal(raw, &flat); err == nil {
		return best(flat)
	}
	return classification{}, false
}

func best(cs []classification) (classification, bool) {
	if len(cs) == 0 {
		return classification{}, false
	}
	top := cs[0]
	for _, c := range cs[1:] {
		if c.Score > top.Score {
			top = c
		}
	}
	return top, true
}

func inputText(doc types.Document) string {
	text := clean(doc.Title) + " " + clean(doc.Description)
	r := []rune(strings.TrimSpace(text))
	if len(r) > maxInputChars {
		r = r[:maxInputChars]
	}
	return string(r)
}

// clean applies query sanitization to a metadata field, cutting it to the
// query length limit first so long descriptions are shortened, not dropped.
func clean(s string) string {
	r := []rune(s)
	if len(r) > archive.MaxQueryLength {
		r = r[:archive.MaxQueryLength]
	}
	return archive.Sanitize(string(r))
}

func failed(err error) Sentiment {
	return Sentiment{Message: msgErrorPrefix + errorKind(err)}
}

// errorKind names the class of failure without leaking details to users.
func errorKind(err error) string {
	var (
		netErr    net.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "invalid response"
	default:
		return "network"
	}
}
