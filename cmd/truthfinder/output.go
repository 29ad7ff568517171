// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/truthfinder/internal/ratelimit"
	"github.com/pdiddy/truthfinder/internal/research"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// remainingText renders the remaining allowance of a decision.
func remainingText(d types.Decision) string {
	if d.Remaining == ratelimit.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", d.Remaining)
}

func printStatus(w io.Writer, st types.Status) {
	d := st.Decision
	fmt.Fprintf(w, "Identity:  %s\n", st.Identity.Short())
	fmt.Fprintf(w, "Tier:      %s\n", d.Tier)
	fmt.Fprintf(w, "Remaining: %s\n", remainingText(d))
	if !st.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Expires:   %s\n", st.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if d.Degraded {
		fmt.Fprintln(w, "Note:      entitlement or usage store unavailable; showing free tier")
	}
}

func printDenied(w io.Writer, res research.Result) {
	fmt.Fprintln(w, "Daily limit reached. Upgrade for unlimited access.")
	printSources(w, res.Sources)
}

func printSources(w io.Writer, links []types.Link) {
	if len(links) == 0 {
		return
	}
	fmt.Fprintln(w, "\nAdditional sources:")
	for _, l := range links {
		fmt.Fprintf(w, "  [%s] %s: %s\n", l.Group, l.Label, l.URL)
	}
}

// printResult writes a human-readable search result.
func printResult(w io.Writer, res research.Result) {
	if res.Denied() {
		printDenied(w, res)
		return
	}

	fmt.Fprintf(w, "Found %d documents for %q (%s tier, %s searches left)\n",
		res.TotalResults, res.Query, res.Decision.Tier, remainingText(res.Decision))
	if res.TotalResults > len(res.Documents) {
		fmt.Fprintf(w, "Showing %d of %d.\n", len(res.Documents), res.TotalResults)
	}
	fmt.Fprintln(w)

	for i, d := range res.Documents {
		date := d.Date
		if date == "" {
			date = "undated"
		}
		fmt.Fprintf(w, "%2d. %s (%s)\n", i+1, d.Title, date)
		if u := d.URL(); u != "" {
			fmt.Fprintf(w, "    %s\n", u)
		}
	}

	if len(res.Timeline) > 0 {
		fmt.Fprintln(w, "\nTimeline:")
		for _, yc := range res.Timeline {
			fmt.Fprintf(w, "  %d %s\n", yc.Year, strings.Repeat("#", yc.Count))
		}
	}

	if a := res.Analytics; a != nil {
		fmt.Fprintln(w, "\nAnalytics:")
		fmt.Fprintf(w, "  Suppression index:  %d/10\n", a.SuppressionIndex)
		if a.DateRange != nil {
			fmt.Fprintf(w, "  Date range:         %s\n", a.DateRange)
		}
		fmt.Fprintf(w, "  Government sources: %d\n", a.GovSources)
	}
	if s := res.Sentiment; s != nil {
		fmt.Fprintf(w, "\n%s\n", s)
	}

	printSources(w, res.Sources)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
