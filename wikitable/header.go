package wikitable

// ColumnKind tags the two column descriptor shapes.
type ColumnKind int

const (
	// ColumnFlat is a column governed by a single label.
	ColumnFlat ColumnKind = iota
	// ColumnHierarchical is a column governed by a wide ancestor
	// heading and a narrower label directly above the data.
	ColumnHierarchical
)

// Column describes one final table column. Child is meaningful only
// when Kind is ColumnHierarchical. Columns are comparable, so equal
// descriptors identify duplicate columns.
type Column struct {
	Kind   ColumnKind
	Parent Label
	Child  Label
}

// FlatColumn builds a single-level column descriptor.
func FlatColumn(parent Label) Column {
	return Column{Kind: ColumnFlat, Parent: parent}
}

// HierarchicalColumn builds a two-level column descriptor.
func HierarchicalColumn(parent, child Label) Column {
	return Column{Kind: ColumnHierarchical, Parent: parent, Child: child}
}

// BuildColumns derives one descriptor per grid column. The primary
// label comes from the last substantive row, walking upward when the
// covering cell there is blank. An earlier cell is accepted as the
// governing ancestor only when it is authored wider than one column,
// its span stops short of the last header row, and its text differs
// from the primary's. The topmost qualifying ancestor wins.
//
// A grid with no substantive row yields no columns.
func BuildColumns(g *Grid) []Column {
	last := lastSubstantiveRow(g)
	if last < 0 {
		return nil
	}

	cols := make([]Column, 0, g.Width())
	for c := 0; c < g.Width(); c++ {
		cols = append(cols, columnAt(g, c, last))
	}
	return cols
}

// lastSubstantiveRow returns the index of the last row that authors at
// least one cell bearing text or a link, or -1 when none does.
func lastSubstantiveRow(g *Grid) int {
	for r := g.Rows() - 1; r >= 0; r-- {
		for c := 0; c < g.Width(); c++ {
			pos := g.rows[r][c]
			if pos.Origin && pos.Cell.substantive() {
				return r
			}
		}
	}
	return -1
}

func columnAt(g *Grid, col, last int) Column {
	var primary Label
	primaryRow := -1
	for r := last; r >= 0; r-- {
		pos := g.rows[r][col]
		if pos.Cell.substantive() {
			primary = pos.Cell.label()
			primaryRow = pos.OriginRow
			break
		}
	}
	if primaryRow < 0 {
		return FlatColumn(Label{})
	}

	for r := 0; r < primaryRow; r++ {
		pos := g.rows[r][col]
		if pos.Cell.ColSpan <= 1 {
			continue
		}
		if reachesLastRow(g, pos) {
			continue
		}
		if pos.Cell.Text == primary.Text {
			continue
		}
		return HierarchicalColumn(pos.Cell.label(), primary)
	}
	return FlatColumn(primary)
}

// reachesLastRow reports whether the covering cell's span extends to
// the grid's final row, counting clipped spans at their effective
// height.
func reachesLastRow(g *Grid, pos Position) bool {
	span := pos.Cell.RowSpan
	if max := g.Rows() - pos.OriginRow; span > max {
		span = max
	}
	return pos.OriginRow+span-1 >= g.Rows()-1
}
