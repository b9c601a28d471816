// Package classify looks up the political profile behind a party link:
// the position and ideology rows of the party page's infobox. Lookups
// go through an injected cache so repeated runs stop refetching pages.
package classify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/avosseberg/pollgrid"
	"github.com/avosseberg/pollgrid/fetch"
	"github.com/avosseberg/pollgrid/wikitable"
)

// ErrNoProfile marks a page without a recognizable infobox.
var ErrNoProfile = errors.New("no infobox on page")

// DefaultBaseURL resolves the relative links found in table headers.
const DefaultBaseURL = "https://en.wikipedia.org"

// Cache stores classified profiles between runs. Reads miss with
// ok=false; both directions may fail independently of the lookup.
type Cache interface {
	Profile(link string) (pollgrid.PartyProfile, bool, error)
	SaveProfile(link string, p pollgrid.PartyProfile) error
}

// MapCache is an in-memory Cache for tests and single runs.
type MapCache map[string]pollgrid.PartyProfile

// Profile returns the cached profile for link.
func (m MapCache) Profile(link string) (pollgrid.PartyProfile, bool, error) {
	p, ok := m[link]
	return p, ok, nil
}

// SaveProfile stores the profile for link.
func (m MapCache) SaveProfile(link string, p pollgrid.PartyProfile) error {
	m[link] = p
	return nil
}

// Classifier resolves party links to profiles.
type Classifier struct {
	client *fetch.Client
	cache  Cache
	base   string
	log    *zap.Logger
}

// NewClassifier builds a classifier. An empty base falls back to
// DefaultBaseURL, a nil cache to a fresh MapCache, a nil logger to a
// silent one.
func NewClassifier(client *fetch.Client, cache Cache, base string, log *zap.Logger) *Classifier {
	if base == "" {
		base = DefaultBaseURL
	}
	if cache == nil {
		cache = MapCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{client: client, cache: cache, base: base, log: log}
}

// Profile returns the profile behind a party link, from the cache when
// possible. Only successful lookups are cached, so a page that grows
// an infobox later is not remembered as empty.
func (c *Classifier) Profile(ctx context.Context, link string) (pollgrid.PartyProfile, error) {
	pageURL := c.resolve(link)

	if cached, ok, err := c.cache.Profile(pageURL); err != nil {
		c.log.Warn("profile cache read failed", zap.String("url", pageURL), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	page, err := c.client.Get(ctx, pageURL)
	if err != nil {
		return pollgrid.PartyProfile{}, fmt.Errorf("failed to fetch party page: %w", err)
	}

	profile, ok := parseInfobox(page.Document())
	if !ok {
		return pollgrid.PartyProfile{}, fmt.Errorf("%w: %s", ErrNoProfile, pageURL)
	}
	profile.Name = pollgrid.EntityName(link)
	profile.URL = pageURL

	if err := c.cache.SaveProfile(pageURL, profile); err != nil {
		c.log.Warn("profile cache write failed", zap.String("url", pageURL), zap.Error(err))
	}
	return profile, nil
}

func (c *Classifier) resolve(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return strings.TrimSuffix(c.base, "/") + "/" + strings.TrimPrefix(link, "/")
}

// parseInfobox reads position and ideology out of the page's infobox,
// preferring the vcard variant party pages use.
func parseInfobox(doc *goquery.Document) (pollgrid.PartyProfile, bool) {
	box := doc.Find("table.infobox.vcard").First()
	if box.Length() == 0 {
		box = doc.Find("table.infobox").First()
	}
	if box.Length() == 0 {
		return pollgrid.PartyProfile{}, false
	}

	var profile pollgrid.PartyProfile
	box.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		th := tr.Find("th").First()
		td := tr.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(th.Text()))
		switch {
		case strings.HasPrefix(label, "political"):
			profile.Position = cleanDescription(td)
		case strings.HasPrefix(label, "ideology"):
			profile.Ideology = cleanDescription(td)
		}
	})
	return profile, true
}

var bracketedRef = regexp.MustCompile(`\[\s*\w+\s*\]`)

// descriptionCuts mark where an infobox cell stops describing the
// present: anything after them is history.
var descriptionCuts = []string{"Formerly:", "Historical"}

func cleanDescription(td *goquery.Selection) string {
	text := wikitable.CleanText(td.Get(0))
	text = bracketedRef.ReplaceAllString(text, "")
	for _, cut := range descriptionCuts {
		if i := strings.Index(text, cut); i >= 0 {
			text = text[:i]
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// Matches reports whether the profile falls into any of the wanted
// categories. Category names are hyphenated, so the profile text is
// normalized the same way before the substring test.
func Matches(p pollgrid.PartyProfile, categories []string) bool {
	position := normalize(p.Position)
	ideology := normalize(p.Ideology)
	for _, cat := range categories {
		want := normalize(cat)
		if want == "" {
			continue
		}
		if strings.Contains(position, want) || strings.Contains(ideology, want) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
