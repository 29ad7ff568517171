// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive queries the public document archive (archive.org advanced
// search) and cleans user queries before they reach it.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/truthfinder/internal/httputil"
	"github.com/pdiddy/truthfinder/internal/metrics"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// DefaultEndpoint is the archive advanced search URL. Declared as a var so
// tests can substitute an httptest server.
var DefaultEndpoint = "https://archive.org/advancedsearch.php"

// mediaFilter restricts hits to text and data items.
const mediaFilter = " AND mediatype:(texts OR data)"

var returnedFields = []string{"identifier", "title", "date", "description"}

// Searcher runs archive searches. The research service depends on this
// rather than on *Client.
type Searcher interface {
	Search(ctx context.Context, query string, rows int) ([]types.Document, error)
}

// Client is the archive search client.
type Client struct {
	http      *http.Client
	endpoint  string
	userAgent string
	limiter   *rate.Limiter
	retry     httputil.RetryPolicy
	metrics   *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records request durations on m.
func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithLogger logs retries on log.
func WithLogger(log logrus.FieldLogger) Option { return func(c *Client) { c.retry.Log = log } }

// New returns a Client for cfg. Requests are paced at cfg.RequestsPerSecond;
// zero or negative disables pacing.
func New(cfg types.SearchConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	c := &Client{
		http:      &http.Client{Timeout: timeout},
		endpoint:  endpoint,
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		retry:     httputil.RetryPolicy{MaxRetries: 2},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse is the subset of the advanced search JSON we read.
type searchResponse struct {
	Response struct {
		NumFound int      `json:"numFound"`
		Docs     []rawDoc `json:"docs"`
	} `json:"response"`
}

type rawDoc struct {
	Identifier  flexString `json:"identifier"`
	Title       flexString `json:"title"`
	Date        flexString `json:"date"`
	Description flexString `json:"description"`
}

// Search returns up to rows documents matching query, oldest first. Any
// transport failure, non-200 status or undecodable body is an error; the
// caller must not count such a search against the user.
func (c *Client) Search(ctx context.Context, query string, rows int) ([]types.Document, error) {
	if query == "" {
		return nil, fmt.Errorf("empty archive query")
	}
	if rows <= 0 {
		rows = types.TierFree.RowLimit()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for archive rate limiter: %w", err)
	}

	start := time.Now()
	docs, err := c.search(ctx, query, rows)
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.ObserveArchiveRequest(result, time.Since(start).Seconds())
	return docs, err
}

func (c *Client) search(ctx context.Context, query string, rows int) ([]types.Document, error) {
	params := url.Values{
		"q":      {query + mediaFilter},
		"output": {"json"},
		"rows":   {strconv.Itoa(rows)},
		"sort[]": {"date asc"},
		"fl[]":   returnedFields,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.retry.Do(ctx, c.http, req)
	if err != nil {
		return nil, fmt.Errorf("archive search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("archive search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding archive response: %w", err)
	}

	docs := make([]types.Document, 0, len(sr.Response.Docs))
	for _, d := range sr.Response.Docs {
		docs = append(docs, types.Document{
			Identifier:  string(d.Identifier),
			Title:       string(d.Title),
			Date:        string(d.Date),
			Description: string(d.Description),
		})
	}
	if len(docs) > rows {
		docs = docs[:rows]
	}
	return docs, nil
}

// flexString decodes a JSON string, number, array of strings or null into a
// single string. Archive metadata fields are multi-valued on some items.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var list []flexString
	if err := json.Unmarshal(data, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, p := range list {
			if p != "" {
				parts = append(parts, string(p))
			}
		}
		*f = flexString(strings.Join(parts, "; "))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("unsupported archive field value %s", data)
}
