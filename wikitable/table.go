package wikitable

import (
	"github.com/PuerkitoBio/goquery"
)

// Table is the structured result of parsing one table fragment.
type Table struct {
	Caption string
	Columns []Column
	Rows    [][]Positioned
}

// Empty reports whether parsing produced no usable columns.
func (t Table) Empty() bool { return len(t.Columns) == 0 }

// ParseTable extracts one <table> selection into column descriptors
// and positioned row values. The header block is the leading run of
// rows whose cells are all header cells; when the table authors no
// such row, the first row serves as the header. Tables without a
// substantive header come back empty rather than failing.
func ParseTable(sel *goquery.Selection) Table {
	if sel == nil || sel.Length() == 0 {
		return Table{}
	}
	table := Table{Caption: captionOf(sel)}

	rows := ownRows(sel)
	if len(rows) == 0 {
		return table
	}

	split := 0
	for split < len(rows) && allHeader(rows[split]) {
		split++
	}
	if split == 0 {
		split = 1
	}

	grid := Resolve(rows[:split])
	table.Columns = BuildColumns(grid)
	if len(table.Columns) == 0 {
		return table
	}

	for _, cells := range rows[split:] {
		table.Rows = append(table.Rows, MapRow(cells, table.Columns))
	}
	return table
}

// ownRows collects the cell rows belonging to this table, ignoring
// rows of any nested table.
func ownRows(sel *goquery.Selection) [][]Cell {
	tableNode := sel.Get(0)
	var rows [][]Cell

	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if closest := tr.Closest("table"); closest.Length() == 0 || closest.Get(0) != tableNode {
			return
		}
		var cells []Cell
		tr.ChildrenFiltered("th, td").Each(func(_ int, cellSel *goquery.Selection) {
			cells = append(cells, extractCell(cellSel))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}

func allHeader(cells []Cell) bool {
	for _, c := range cells {
		if !c.Header {
			return false
		}
	}
	return len(cells) > 0
}

func captionOf(sel *goquery.Selection) string {
	caption := sel.ChildrenFiltered("caption").First()
	if caption.Length() == 0 {
		return ""
	}
	return CleanText(caption.Get(0))
}
