// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs one user search end to end: it cleans the query,
// asks the policy facade for a decision, queries the archive, records the
// search and assembles the tier-dependent result.
package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/truthfinder/internal/analysis"
	"github.com/pdiddy/truthfinder/internal/archive"
	"github.com/pdiddy/truthfinder/internal/logging"
	"github.com/pdiddy/truthfinder/internal/report"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// Sentinel errors.
var (
	ErrInvalidQuery      = errors.New("research: invalid search query")
	ErrSearchUnavailable = errors.New("research: search unavailable")
)

// Gate is the part of the policy facade a search run needs.
type Gate interface {
	AuthorizeSearch(ctx context.Context, id types.Identity) types.Decision
	RecordSearch(ctx context.Context, id types.Identity, tier types.Tier, query string, resultCount int) error
}

// Result is everything shown for one search. Premium-only fields are nil on
// the free tier.
type Result struct {
	Query        string               `json:"query"`
	Decision     types.Decision       `json:"decision"`
	TotalResults int                  `json:"total_results"`
	Documents    []types.Document     `json:"documents"`
	Timeline     []analysis.YearCount `json:"timeline"`
	Analytics    *analysis.Summary    `json:"analytics,omitempty"`
	Sentiment    *analysis.Sentiment  `json:"sentiment,omitempty"`
	Report       *report.Report       `json:"report,omitempty"`
	Sources      []types.Link         `json:"sources"`
}

// Denied reports whether the policy refused the search.
func (r Result) Denied() bool { return !r.Decision.Allowed }

// Service runs searches.
type Service struct {
	gate     Gate
	searcher archive.Searcher
	analyzer analysis.Analyzer
	log      logrus.FieldLogger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAnalyzer enables sentiment readings for premium results.
func WithAnalyzer(a analysis.Analyzer) Option { return func(s *Service) { s.analyzer = a } }

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option { return func(s *Service) { s.log = log } }

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New returns a Service.
func New(gate Gate, searcher archive.Searcher, opts ...Option) *Service {
	s := &Service{gate: gate, searcher: searcher, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	return s
}

// Run performs one search for id. A query that is empty after cleaning
// returns ErrInvalidQuery and touches nothing. A denied search returns a
// Result with Denied() true and a nil error. When the archive fails the
// search is not recorded and ErrSearchUnavailable is returned along with a
// Result carrying the decision and additional sources.
func (s *Service) Run(ctx context.Context, id types.Identity, rawQuery string) (Result, error) {
	query := archive.Sanitize(rawQuery)
	if query == "" {
		return Result{}, ErrInvalidQuery
	}

	d := s.gate.AuthorizeSearch(ctx, id)
	res := Result{
		Query:    query,
		Decision: d,
		Sources:  archive.AdditionalSources(query),
	}
	log := s.log.WithFields(logrus.Fields{"identity": id.Short(), "tier": d.Tier})
	if !d.Allowed {
		log.WithField("reason", d.Reason).Info("search denied")
		return res, nil
	}

	docs, err := s.searcher.Search(ctx, query, d.RowLimit)
	if err != nil {
		log.WithError(err).Warn("archive search failed")
		return res, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	if err := s.gate.RecordSearch(ctx, id, d.Tier, query, len(docs)); err != nil {
		// The user already has results; losing one ledger row only makes the
		// cap more lenient.
		log.WithError(err).Warn("could not record search")
	}

	res.TotalResults = len(docs)
	res.Documents = docs
	if len(docs) > d.DisplayLimit {
		res.Documents = docs[:d.DisplayLimit]
	}
	res.Timeline = analysis.Timeline(docs)

	if d.Tier.IsPremium() {
		summary := analysis.Summarize(docs)
		res.Analytics = &summary
		if s.analyzer != nil && len(docs) > 0 {
			reading := s.analyzer.Analyze(ctx, docs[0])
			res.Sentiment = &reading
		}
		rep := report.Build(query, id, docs, s.now())
		res.Report = &rep
	}

	log.WithField("results", len(docs)).Info("search completed")
	return res, nil
}
