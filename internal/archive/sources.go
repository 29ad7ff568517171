// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"net/url"

	"github.com/pdiddy/truthfinder/pkg/types"
)

// Link groups shown under additional sources.
const (
	GroupGovernment  = "Government Archives"
	GroupNews        = "Historical News"
	GroupAlternative = "Alternative Sources"
)

// AdditionalSources returns search links on other archives for a sanitized
// query. An empty query yields no links.
func AdditionalSources(query string) []types.Link {
	if query == "" {
		return nil
	}
	q := url.PathEscape(query)
	return []types.Link{
		{Group: GroupGovernment, Label: "CIA Reading Room", URL: "https://www.cia.gov/readingroom/search/site/" + q},
		{Group: GroupGovernment, Label: "FBI Records", URL: "https://vault.fbi.gov/search?SearchableText=" + q},
		{Group: GroupNews, Label: "Chronicling America", URL: "https://chroniclingamerica.loc.gov/search/pages/results/?andtext=" + q},
		{Group: GroupAlternative, Label: "WikiLeaks", URL: "https://search.wikileaks.org/advanced?q=" + q},
	}
}
