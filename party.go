package pollgrid

import (
	"net/url"
	"strings"
)

// PartyProfile carries the classification metadata scraped for a
// single party's page.
type PartyProfile struct {
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	Ideology string `json:"ideology,omitempty"`
	URL      string `json:"url,omitempty"`
}

// EntityName converts a page link or link segment into a display
// name: the last path segment, percent-escapes decoded, underscores
// turned back into spaces. Plain segments pass through unchanged.
func EntityName(id string) string {
	name := id
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return strings.ReplaceAll(name, "_", " ")
}
