// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "regexp"

// archiveDetailsBase is the public landing page prefix for archive items.
const archiveDetailsBase = "https://archive.org/details/"

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Document is one search hit returned by the archive search provider.
type Document struct {
	// Identifier is the archive item identifier (e.g. "jfk-assassination-records").
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the item title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Date is the raw item date string (usually ISO 8601, sometimes only a year).
	Date string `json:"date" yaml:"date"`

	// Description is the item description or abstract.
	Description string `json:"description" yaml:"description"`
}

// Year returns the leading four-digit year of Date, or "" when Date does not
// start with one.
func (d Document) Year() string {
	if len(d.Date) < 4 {
		return ""
	}
	y := d.Date[:4]
	for _, c := range y {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return y
}

// URL returns the archive landing page for the document. Identifiers that do
// not match [A-Za-z0-9_-]+ yield "" so they are never turned into links.
func (d Document) URL() string {
	if !identifierPattern.MatchString(d.Identifier) {
		return ""
	}
	return archiveDetailsBase + d.Identifier
}

// Link is a labeled external URL shown next to results.
type Link struct {
	Group string `json:"group" yaml:"group"`
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}
