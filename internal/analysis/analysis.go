// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis computes the presentation-only enrichments shown next to
// search results: the suppression index, the date range, the government
// source count, the timeline and an optional sentiment reading of the top
// document. None of it affects access decisions.
package analysis

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/truthfinder/pkg/types"
)

// MaxSuppressionIndex is the top of the suppression scale.
const MaxSuppressionIndex = 10

// Suppression index weights.
const (
	govKeywordWeight = 2
	govKeywordCap    = 6
	oldDocWeight     = 3
	oldDocCap        = 4
	oldDocBefore     = 1980
)

var govKeywords = []string{"classified", "fbi", "cia", "government", "secret", "redacted"}

var govSourceTerms = []string{"government", "fbi", "cia"}

// SuppressionIndex scores docs from 0 to 10. Titles mentioning government or
// secrecy keywords add 2 each (up to 6) and documents dated before 1980 add
// 3 each (up to 4).
func SuppressionIndex(docs []types.Document) int {
	if len(docs) == 0 {
		return 0
	}

	var gov, old int
	for _, d := range docs {
		if titleContainsAny(d, govKeywords) {
			gov++
		}
		if y, ok := year(d); ok && y < oldDocBefore {
			old++
		}
	}

	score := min(gov*govKeywordWeight, govKeywordCap) + min(old*oldDocWeight, oldDocCap)
	return min(score, MaxSuppressionIndex)
}

// GovSourceCount returns how many titles mention government, FBI or CIA.
func GovSourceCount(docs []types.Document) int {
	n := 0
	for _, d := range docs {
		if titleContainsAny(d, govSourceTerms) {
			n++
		}
	}
	return n
}

// DateRange is the earliest and latest year among dated documents.
type DateRange struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

func (r DateRange) String() string {
	return strconv.Itoa(r.From) + " - " + strconv.Itoa(r.To)
}

// YearRange returns the span of years in docs. ok is false when no document
// carries a year.
func YearRange(docs []types.Document) (r DateRange, ok bool) {
	for _, d := range docs {
		y, has := year(d)
		if !has {
			continue
		}
		if !ok {
			r = DateRange{From: y, To: y}
			ok = true
			continue
		}
		r.From = min(r.From, y)
		r.To = max(r.To, y)
	}
	return r, ok
}

// YearCount is one timeline bucket.
type YearCount struct {
	Year  int `json:"year" yaml:"year"`
	Count int `json:"count" yaml:"count"`
}

// Timeline counts documents per year, oldest first. Undated documents are
// skipped.
func Timeline(docs []types.Document) []YearCount {
	counts := make(map[int]int)
	for _, d := range docs {
		if y, ok := year(d); ok {
			counts[y]++
		}
	}

	out := make([]YearCount, 0, len(counts))
	for y, c := range counts {
		out = append(out, YearCount{Year: y, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Summary bundles the premium analytics for one result set.
type Summary struct {
	SuppressionIndex int        `json:"suppression_index" yaml:"suppression_index"`
	DateRange        *DateRange `json:"date_range,omitempty" yaml:"date_range,omitempty"`
	GovSources       int        `json:"gov_sources" yaml:"gov_sources"`
}

// Summarize computes the premium analytics for docs.
func Summarize(docs []types.Document) Summary {
	s := Summary{
		SuppressionIndex: SuppressionIndex(docs),
		GovSources:       GovSourceCount(docs),
	}
	if r, ok := YearRange(docs); ok {
		s.DateRange = &r
	}
	return s
}

func year(d types.Document) (int, bool) {
	y := d.Year()
	if y == "" {
		return 0, false
	}
	n, err := strconv.Atoi(y)
	return n, err == nil
}

func titleContainsAny(d types.Document, terms []string) bool {
	title := strings.ToLower(d.Title)
	for _, t := range terms {
		if strings.Contains(title, t) {
			return true
		}
	}
	return false
}
