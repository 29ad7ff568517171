// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report builds the downloadable research report premium users can
// export after a search.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/truthfinder/pkg/types"
)

// MaxDocuments is the number of documents included in a report.
const MaxDocuments = 10

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want json or yaml)", s)
}

// Report is the exported summary of one search.
type Report struct {
	Query        string  `json:"query" yaml:"query"`
	Timestamp    string  `json:"timestamp" yaml:"timestamp"`
	TotalResults int     `json:"total_results" yaml:"total_results"`
	UserHash     string  `json:"user_hash" yaml:"user_hash"`
	Documents    []Entry `json:"documents" yaml:"documents"`
}

// Entry is one document in a report. URL is null when the document has no
// linkable identifier.
type Entry struct {
	Title string  `json:"title" yaml:"title"`
	Date  string  `json:"date" yaml:"date"`
	URL   *string `json:"url" yaml:"url"`
}

// Build assembles a report. Only the identity prefix is included.
func Build(query string, id types.Identity, docs []types.Document, now time.Time) Report {
	r := Report{
		Query:        query,
		Timestamp:    now.UTC().Format(time.RFC3339),
		TotalResults: len(docs),
		UserHash:     id.Short(),
		Documents:    make([]Entry, 0, min(len(docs), MaxDocuments)),
	}
	for _, d := range docs {
		if len(r.Documents) == MaxDocuments {
			break
		}
		e := Entry{Title: d.Title, Date: d.Date}
		if u := d.URL(); u != "" {
			e.URL = &u
		}
		r.Documents = append(r.Documents, e)
	}
	return r
}

// Marshal encodes r in format f. JSON output is indented.
func (r Report) Marshal(f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshaling YAML: %w", err)
		}
		return data, nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling JSON: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unknown report format %q", f)
}

// FileName returns research_<query>.<ext> with whitespace runs turned into
// underscores.
func FileName(query string, f Format) string {
	if f == "" {
		f = FormatJSON
	}
	return "research_" + strings.Join(strings.Fields(query), "_") + "." + string(f)
}

// Write encodes r into dir and returns the path written.
func Write(dir string, r Report, f Format) (string, error) {
	data, err := r.Marshal(f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(r.Query, f))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	return path, nil
}
