// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength is the longest raw query accepted, in characters.
const MaxQueryLength = 200

var disallowedQueryChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// Sanitize cleans a user-typed query. It returns "" when the input is empty,
// longer than MaxQueryLength, or has nothing left after cleaning; callers
// treat "" as invalid. Only letters, digits, underscores, whitespace and
// hyphens survive.
func Sanitize(raw string) string {
	if raw == "" || utf8.RuneCountInString(raw) > MaxQueryLength {
		return ""
	}
	cleaned := disallowedQueryChars.ReplaceAllString(strings.TrimSpace(raw), "")
	return strings.TrimSpace(cleaned)
}
