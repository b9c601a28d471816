// Package extract turns parsed wiki tables into per-entity observation
// series. It locates the date column, walks data rows bottom-up so the
// running date context sees reverse-chronological tables in ascending
// order, groups duplicate column descriptors into aggregates, and
// normalizes every surviving figure.
package extract

import (
	"strings"
	"time"

	"github.com/avosseberg/pollgrid"
	"github.com/avosseberg/pollgrid/dates"
	"github.com/avosseberg/pollgrid/percent"
	"github.com/avosseberg/pollgrid/wikitable"
)

// SectionTable pairs a parsed table with the heading it sits under.
// The heading doubles as a year hint for dates lacking one.
type SectionTable struct {
	Section string
	Table   wikitable.Table
}

// Options tune one extraction run.
type Options struct {
	// SourceYear is the year embedded in the source address, 0 when
	// unknown. It seeds the date parser and anchors the cutoff.
	SourceYear int
	// LinkedOnly keeps only columns whose header carries a page link.
	LinkedOnly bool
	// Bounds bound acceptable values; the zero value means
	// percent.DefaultBounds.
	Bounds percent.Bounds
	// DateOpts configure the range heuristics of the date parser.
	DateOpts dates.Options
	// Now supplies the clock; nil means time.Now.
	Now func() time.Time
}

// Entity is an entity found in a value column header: the resolved
// name plus the page link it came from, empty for plain-text headers.
type Entity struct {
	Name string
	Link string
}

// Skipped counts the inputs an extraction dropped: tables without a
// recognizable date column, rows whose date failed to resolve, and
// values that failed normalization.
type Skipped struct {
	Tables int
	Rows   int
	Values int
}

// Result is the outcome of one extraction run.
type Result struct {
	Series   pollgrid.SeriesSet
	Entities []Entity
	Skipped  Skipped
}

// Run extracts one source's observations from its section tables. Each
// table carries its own date context; entities accumulate across all
// tables in first-seen order.
func Run(tables []SectionTable, opts Options) Result {
	bounds := opts.Bounds
	if bounds == (percent.Bounds{}) {
		bounds = percent.DefaultBounds
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	r := &runner{
		parser: dates.Parser{SourceYear: opts.SourceYear, Opts: opts.DateOpts, Now: opts.Now},
		bounds: bounds,
		linked: opts.LinkedOnly,
		cutoff: dates.CutoffFor(opts.SourceYear, now()),
		series: pollgrid.SeriesSet{},
		seen:   map[string]bool{},
	}
	for _, st := range tables {
		r.table(st)
	}
	return Result{Series: r.series, Entities: r.entities, Skipped: r.skipped}
}

type runner struct {
	parser   dates.Parser
	bounds   percent.Bounds
	linked   bool
	cutoff   time.Time
	series   pollgrid.SeriesSet
	entities []Entity
	seen     map[string]bool
	skipped  Skipped
}

func (r *runner) table(st SectionTable) {
	cols := st.Table.Columns
	dateIdx := dateColumn(cols)
	if dateIdx < 0 {
		r.skipped.Tables++
		return
	}
	dateKey := cols[dateIdx]
	groups, order := groupColumns(cols)

	ctx := dates.NewContext(r.cutoff)
	for i := len(st.Table.Rows) - 1; i >= 0; i-- {
		r.row(st.Table.Rows[i], st.Section, dateIdx, dateKey, groups, order, ctx)
	}

	for _, key := range order {
		if key != dateKey {
			r.noteEntity(key)
		}
	}
}

func (r *runner) row(row []wikitable.Positioned, section string, dateIdx int, dateKey wikitable.Column, groups map[wikitable.Column][]int, order []wikitable.Column, ctx *dates.Context) {
	if len(row) == 0 {
		return
	}
	// summary rows repeating an election result are markers, not polls
	if strings.Contains(strings.ToLower(row[0].Value.FirstText()), "election") {
		return
	}

	token := row[dateIdx].Value.FirstText()
	if token == "" {
		return
	}
	parsed, err := r.parser.Parse(token, section, ctx)
	if err != nil {
		r.skipped.Rows++
		return
	}
	ctx.Observe(parsed)

	for _, key := range order {
		if key == dateKey {
			continue
		}
		id, link := entityKey(key)
		if id == "" {
			continue
		}
		if r.linked && link == "" {
			continue
		}
		value := groupValue(row, groups[key])
		if percent.Missing(value) {
			continue
		}
		v, ok := percent.Normalize(value, r.bounds)
		if !ok {
			r.skipped.Values++
			continue
		}
		r.series[id] = append(r.series[id], pollgrid.Observation{Date: parsed.Date, Value: v})
	}
}

func (r *runner) noteEntity(col wikitable.Column) {
	id, link := entityKey(col)
	if id == "" {
		return
	}
	if r.linked && link == "" {
		return
	}
	if r.seen[id] {
		return
	}
	r.seen[id] = true
	r.entities = append(r.entities, Entity{Name: id, Link: link})
}

var dateMarkers = []string{"date", "fieldwork", "conducted"}

// dateColumn returns the index of the first column whose header names
// the polling period, or -1 when the table has none.
func dateColumn(cols []wikitable.Column) int {
	for i, col := range cols {
		text := strings.ToLower(col.Parent.Text + " " + col.Child.Text)
		for _, marker := range dateMarkers {
			if strings.Contains(text, marker) {
				return i
			}
		}
	}
	return -1
}

// groupColumns gathers the indices sharing each descriptor, preserving
// first-seen order. Duplicate descriptors arise from spanned headers
// that tile several physical columns with one label.
func groupColumns(cols []wikitable.Column) (map[wikitable.Column][]int, []wikitable.Column) {
	groups := make(map[wikitable.Column][]int, len(cols))
	order := make([]wikitable.Column, 0, len(cols))
	for i, col := range cols {
		if _, ok := groups[col]; !ok {
			order = append(order, col)
		}
		groups[col] = append(groups[col], i)
	}
	return groups, order
}

// groupValue assembles the value of one descriptor group from the
// row's cells at the group's indices. Empty cells contribute nothing,
// so a figure spanning its group's columns is counted once.
func groupValue(row []wikitable.Positioned, idxs []int) wikitable.Value {
	var parts []wikitable.Scalar
	for _, i := range idxs {
		if i >= len(row) {
			continue
		}
		v := row[i].Value
		switch v.Kind {
		case wikitable.ValueScalar:
			parts = append(parts, v.Scalar)
		case wikitable.ValueAggregate:
			parts = append(parts, v.Parts...)
		}
	}
	return wikitable.AggregateValue(parts)
}

// entityKey resolves the entity a column reports on. Linked headers
// win, the parent link first since spanning cells carry the party
// name, and the link's last path segment becomes the id. Unlinked
// headers fall back to their trimmed parent text.
func entityKey(col wikitable.Column) (id, link string) {
	if col.Parent.Link != "" {
		return pollgrid.EntityName(col.Parent.Link), col.Parent.Link
	}
	if col.Child.Link != "" {
		return pollgrid.EntityName(col.Child.Link), col.Child.Link
	}
	return strings.TrimSpace(col.Parent.Text), ""
}
