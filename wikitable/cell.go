// Package wikitable extracts structured columns and positioned values
// from wiki-markup tables whose headers use row- and column-spanning
// layouts.
package wikitable

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Cell is one physical table cell as authored in the markup. Spans are
// sanitized to at least 1 on extraction.
type Cell struct {
	Text    string
	Link    string
	ColSpan int
	RowSpan int
	Header  bool
}

// Label is the text and optional link target a header cell contributes
// to a column descriptor.
type Label struct {
	Text string
	Link string
}

func (c Cell) substantive() bool { return c.Text != "" || c.Link != "" }

func (c Cell) label() Label { return Label{Text: c.Text, Link: c.Link} }

// extractCell reads one th/td selection into a Cell.
func extractCell(sel *goquery.Selection) Cell {
	node := sel.Get(0)
	cell := Cell{
		Text:    CleanText(node),
		ColSpan: spanAttr(sel, "colspan"),
		RowSpan: spanAttr(sel, "rowspan"),
		Header:  node.Data == "th",
	}
	cell.Link = firstLink(sel)
	return cell
}

// firstLink returns the first anchor target in the cell, skipping
// in-page fragments such as citation markers.
func firstLink(sel *goquery.Selection) string {
	link := ""
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		link = href
		return false
	})
	return link
}

// spanAttr parses a span attribute, treating anything missing,
// unparseable, or below 1 as 1.
func spanAttr(sel *goquery.Selection, name string) int {
	raw, ok := sel.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// CleanText collects the visible text under a node, skipping
// reference superscripts and embedded style/script content, and
// collapsing all whitespace runs to single spaces. Line breaks count
// as spaces so stacked entries stay separated.
func CleanText(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "sup", "style", "script":
				return
			case "br":
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(strings.Fields(b.String()), " ")
}
