package fetch

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/avosseberg/pollgrid/extract"
	"github.com/avosseberg/pollgrid/wikitable"
)

// Page is one retrieved document.
type Page struct {
	URL string
	doc *goquery.Document
}

// NewPage wraps an already parsed document, for offline inputs and
// tests.
func NewPage(url string, doc *goquery.Document) *Page {
	return &Page{URL: url, doc: doc}
}

// Document exposes the underlying document.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// SectionTables locates the page's tables and keys each by the heading
// it sits under. A table is kept when any of its enclosing headings,
// h1 through h4, matches an entry of accept, case-insensitively; its
// key is the innermost heading, which for polling pages is usually a
// year and doubles as a date hint. Tables under an excluded heading
// are dropped. When accept matches nothing on the whole page, every
// table is returned with an empty key so an unexpectedly sectioned
// source still yields data.
func (p *Page) SectionTables(accept, exclude []string) []extract.SectionTable {
	var matched, all []extract.SectionTable
	var stack headingStack

	p.doc.Find("h1, h2, h3, h4, table").Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("table").Length() > 0 {
			return
		}
		node := sel.Get(0)
		if node.Data != "table" {
			stack.set(int(node.Data[1]-'0'), headingText(sel))
			return
		}

		headings := stack.active()
		if matchesAny(headings, exclude) {
			return
		}
		table := wikitable.ParseTable(sel)
		if table.Empty() {
			return
		}
		all = append(all, extract.SectionTable{Table: table})
		if section, ok := acceptedSection(headings, accept); ok {
			matched = append(matched, extract.SectionTable{Section: section, Table: table})
		}
	})

	if len(matched) == 0 && len(accept) > 0 {
		return all
	}
	return matched
}

// DefaultSections returns the headings tried when a source configures
// none: the current year and the one before, matching how polling
// pages are sectioned.
func DefaultSections(now time.Time) []string {
	year := now.Year()
	return []string{strconv.Itoa(year), strconv.Itoa(year - 1)}
}

var yearInURL = regexp.MustCompile(`(19|20)\d{2}`)

// EmbeddedYear returns the first four-digit year found in a source
// address, or false when the address names none.
func EmbeddedYear(rawurl string) (int, bool) {
	m := yearInURL.FindString(rawurl)
	if m == "" {
		return 0, false
	}
	y, _ := strconv.Atoi(m)
	return y, true
}

// headingStack tracks the open heading at each level; setting a level
// closes everything beneath it.
type headingStack [5]string

func (h *headingStack) set(level int, text string) {
	if level < 1 || level >= len(h) {
		return
	}
	h[level] = text
	for l := level + 1; l < len(h); l++ {
		h[l] = ""
	}
}

func (h *headingStack) active() []string {
	var out []string
	for _, text := range h[1:] {
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

// headingText extracts the display text of a heading, preferring the
// headline span so navigation chrome like edit links is dropped.
func headingText(sel *goquery.Selection) string {
	if headline := sel.Find("span.mw-headline").First(); headline.Length() > 0 {
		return strings.TrimSpace(headline.Text())
	}
	text := strings.TrimSpace(sel.Text())
	return strings.TrimSpace(strings.TrimSuffix(text, "[edit]"))
}

func acceptedSection(headings, accept []string) (string, bool) {
	innermost := ""
	if len(headings) > 0 {
		innermost = headings[len(headings)-1]
	}
	if len(accept) == 0 {
		return innermost, true
	}
	if matchesAny(headings, accept) {
		return innermost, true
	}
	return "", false
}

func matchesAny(headings, wanted []string) bool {
	for _, h := range headings {
		lower := strings.ToLower(h)
		for _, w := range wanted {
			if w != "" && strings.Contains(lower, strings.ToLower(w)) {
				return true
			}
		}
	}
	return false
}
