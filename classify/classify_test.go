package classify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avosseberg/pollgrid"
	"github.com/avosseberg/pollgrid/fetch"
)

const partyPage = `<html><body>
<table class="infobox vcard">
<tr><th>Leader</th><td>Somebody</td></tr>
<tr><th>Political position</th><td>Right-wing<sup>[1]</sup> to far-right<sup>[2]</sup></td></tr>
<tr><th>Ideology</th><td>National conservatism<br>Right-wing populism[3]</td></tr>
</table>
</body></html>`

func newTestClassifier(t *testing.T, handler http.HandlerFunc) (*Classifier, *httptest.Server, MapCache) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cache := MapCache{}
	return NewClassifier(fetch.NewClient(fetch.Config{}, nil), cache, server.URL, nil), server, cache
}

// TestProfile_ParsesInfobox verifies the full lookup: relative link
// resolution, infobox row scanning, reference stripping, and the
// name derived from the link.
func TestProfile_ParsesInfobox(t *testing.T) {
	c, server, _ := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(partyPage))
	})

	profile, err := c.Profile(context.Background(), "/wiki/Party_A")
	require.NoError(t, err)

	assert.Equal(t, "Party A", profile.Name)
	assert.Equal(t, "Right-wing to far-right", profile.Position)
	assert.Equal(t, "National conservatism Right-wing populism", profile.Ideology)
	assert.Equal(t, server.URL+"/wiki/Party_A", profile.URL)
}

// TestProfile_CachesSuccess verifies that a second lookup is served
// from the cache without another request.
func TestProfile_CachesSuccess(t *testing.T) {
	hits := 0
	c, server, cache := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(partyPage))
	})

	first, err := c.Profile(context.Background(), "/wiki/Party_A")
	require.NoError(t, err)
	second, err := c.Profile(context.Background(), "/wiki/Party_A")
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "the second lookup must not refetch")
	assert.Equal(t, first, second)
	assert.Contains(t, cache, server.URL+"/wiki/Party_A")
}

// TestProfile_NoInfobox verifies that pages without an infobox fail
// with ErrNoProfile and are not cached as empty.
func TestProfile_NoInfobox(t *testing.T) {
	hits := 0
	c, _, cache := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<html><body><p>Just prose.</p></body></html>`))
	})

	_, err := c.Profile(context.Background(), "/wiki/Party_B")
	assert.ErrorIs(t, err, ErrNoProfile)
	assert.Empty(t, cache, "failed lookups must not be cached")

	_, err = c.Profile(context.Background(), "/wiki/Party_B")
	assert.ErrorIs(t, err, ErrNoProfile)
	assert.Equal(t, 2, hits, "each failed lookup tries the page again")
}

// TestProfile_PlainInfoboxFallback verifies the lookup still works
// when the infobox lacks the vcard class.
func TestProfile_PlainInfoboxFallback(t *testing.T) {
	c, _, _ := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<table class="infobox">
<tr><th>Ideology</th><td>Social democracy</td></tr>
</table>
</body></html>`))
	})

	profile, err := c.Profile(context.Background(), "/wiki/Party_C")
	require.NoError(t, err)
	assert.Equal(t, "Social democracy", profile.Ideology)
	assert.Empty(t, profile.Position)
}

// TestProfile_AbsoluteLinks verifies that already absolute links skip
// base resolution.
func TestProfile_AbsoluteLinks(t *testing.T) {
	c, server, _ := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(partyPage))
	})

	profile, err := c.Profile(context.Background(), server.URL+"/wiki/Party_A")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/wiki/Party_A", profile.URL)
}

// TestParseInfobox_CutsHistoricalTails verifies that descriptions stop
// at markers introducing former positions.
func TestParseInfobox_CutsHistoricalTails(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>
<table class="infobox vcard">
<tr><th>Political position</th><td>Centre-left Formerly: Far-left</td></tr>
<tr><th>Ideology</th><td>Social democracy[1] Historical Communism</td></tr>
</table>
</body></html>`))
	require.NoError(t, err)

	profile, ok := parseInfobox(doc)
	require.True(t, ok)
	assert.Equal(t, "Centre-left", profile.Position)
	assert.Equal(t, "Social democracy", profile.Ideology)
}

// TestMatches covers the category test on both profile fields.
func TestMatches(t *testing.T) {
	profile := pollgrid.PartyProfile{
		Position: "Right-wing to far-right",
		Ideology: "National conservatism",
	}

	assert.True(t, Matches(profile, []string{"far-right"}), "position should match")
	assert.True(t, Matches(profile, []string{"national-conservatism"}), "ideology should match after hyphenation")
	assert.True(t, Matches(profile, []string{"Far-Right"}), "matching is case-insensitive")
	assert.False(t, Matches(profile, []string{"centrism"}))
	assert.False(t, Matches(profile, nil))
	assert.False(t, Matches(pollgrid.PartyProfile{}, []string{"far-right"}))
}
