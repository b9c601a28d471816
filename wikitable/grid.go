package wikitable

// Position is one slot of a resolved grid: the cell covering it plus
// the coordinates where that cell originates. Origin is true only at
// the covering cell's top-left corner.
type Position struct {
	Cell      Cell
	Origin    bool
	OriginRow int
	OriginCol int
}

// Grid is the dense resolution of a table's header rows. Every
// (row, column) position is covered by exactly one cell; synthetic
// placeholder cells fill the gaps malformed spans leave behind.
type Grid struct {
	rows  [][]Position
	width int
}

// Rows returns the number of header rows in the grid.
func (g *Grid) Rows() int { return len(g.rows) }

// Width returns the uniform column count of the grid.
func (g *Grid) Width() int { return g.width }

// At returns the position at (row, col); ok is false outside the grid.
func (g *Grid) At(row, col int) (Position, bool) {
	if row < 0 || row >= len(g.rows) || col < 0 || col >= g.width {
		return Position{}, false
	}
	return g.rows[row][col], true
}

// Resolve lays the header rows out into a dense grid. It walks rows
// top to bottom tracking the positions reserved by earlier rowspans,
// advances past reservations before placing each authored cell, and
// flushes trailing reservations at row end. Rowspans that would exceed
// the remaining rows are clipped. Resolve never fails: malformed span
// combinations produce placeholders, not errors.
func Resolve(rows [][]Cell) *Grid {
	type reservation struct {
		cell      Cell
		originRow int
		originCol int
		remaining int
	}
	reserved := make(map[int]*reservation)

	grid := make([][]Position, len(rows))
	width := 0

	for r, cells := range rows {
		var line []Position
		col := 0

		// emit continuations for every consecutively reserved column
		// starting at the cursor
		emitReserved := func() {
			for {
				res, ok := reserved[col]
				if !ok {
					return
				}
				line = append(line, Position{
					Cell:      res.cell,
					OriginRow: res.originRow,
					OriginCol: res.originCol,
				})
				res.remaining--
				if res.remaining == 0 {
					delete(reserved, col)
				}
				col++
			}
		}

		for _, cell := range cells {
			emitReserved()

			rowSpan := cell.RowSpan
			if max := len(rows) - r; rowSpan > max {
				rowSpan = max
			}
			origin := col
			for span := 0; span < cell.ColSpan; span++ {
				line = append(line, Position{
					Cell:      cell,
					Origin:    span == 0,
					OriginRow: r,
					OriginCol: origin,
				})
				if rowSpan > 1 {
					reserved[col] = &reservation{
						cell:      cell,
						originRow: r,
						originCol: origin,
						remaining: rowSpan - 1,
					}
				}
				col++
			}
		}

		// flush trailing reservations, bridging any uncovered columns
		// between them with placeholders
		maxReserved := -1
		for c := range reserved {
			if c > maxReserved {
				maxReserved = c
			}
		}
		for col <= maxReserved {
			if res, ok := reserved[col]; ok {
				line = append(line, Position{
					Cell:      res.cell,
					OriginRow: res.originRow,
					OriginCol: res.originCol,
				})
				res.remaining--
				if res.remaining == 0 {
					delete(reserved, col)
				}
			} else {
				line = append(line, placeholderAt(r, col))
			}
			col++
		}

		if len(line) > width {
			width = len(line)
		}
		grid[r] = line
	}

	// pad short rows so the grid is rectangular
	for r := range grid {
		for len(grid[r]) < width {
			grid[r] = append(grid[r], placeholderAt(r, len(grid[r])))
		}
	}

	return &Grid{rows: grid, width: width}
}

// placeholderAt makes a synthetic empty cell covering one position.
func placeholderAt(row, col int) Position {
	return Position{
		Cell:      Cell{ColSpan: 1, RowSpan: 1},
		Origin:    true,
		OriginRow: row,
		OriginCol: col,
	}
}
