package wikitable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: build a header cell with explicit spans
func hcell(text string, colSpan, rowSpan int) Cell {
	return Cell{Text: text, ColSpan: colSpan, RowSpan: rowSpan, Header: true}
}

// TestResolve_DenseCoverage verifies every position is covered exactly once
func TestResolve_DenseCoverage(t *testing.T) {
	g := Resolve([][]Cell{
		{hcell("Pollster", 1, 2), hcell("Date", 1, 2), hcell("Party A", 2, 1)},
		{hcell("Est.", 1, 1), hcell("Margin", 1, 1)},
	})

	require.Equal(t, 2, g.Rows())
	require.Equal(t, 4, g.Width(), "width should follow the widest reach")

	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Width(); c++ {
			_, ok := g.At(r, c)
			assert.True(t, ok, "position (%d,%d) should be covered", r, c)
		}
	}
}

// TestResolve_RowspanContinuation verifies rowspans reserve their columns in later rows
func TestResolve_RowspanContinuation(t *testing.T) {
	g := Resolve([][]Cell{
		{hcell("Pollster", 1, 2), hcell("Party A", 2, 1)},
		{hcell("Est.", 1, 1), hcell("Margin", 1, 1)},
	})

	pos, ok := g.At(1, 0)
	require.True(t, ok)
	assert.Equal(t, "Pollster", pos.Cell.Text, "row 1 col 0 should be covered by the rowspan")
	assert.False(t, pos.Origin, "continuation positions are not origins")
	assert.Equal(t, 0, pos.OriginRow)
	assert.Equal(t, 0, pos.OriginCol)

	pos, ok = g.At(1, 1)
	require.True(t, ok)
	assert.Equal(t, "Est.", pos.Cell.Text, "authored cells should land after the reservation")
	assert.True(t, pos.Origin)
}

// TestResolve_ColspanTiling verifies a wide cell covers its span with one origin
func TestResolve_ColspanTiling(t *testing.T) {
	g := Resolve([][]Cell{
		{hcell("Date", 1, 1), hcell("Party A", 2, 1)},
	})

	first, _ := g.At(0, 1)
	second, _ := g.At(0, 2)
	assert.True(t, first.Origin)
	assert.False(t, second.Origin)
	assert.Equal(t, first.Cell, second.Cell, "both positions share the covering cell")
	assert.Equal(t, 1, second.OriginCol)
}

// TestResolve_ClipsOverlongRowspan verifies spans past the last row are clipped
func TestResolve_ClipsOverlongRowspan(t *testing.T) {
	g := Resolve([][]Cell{
		{hcell("Pollster", 1, 99), hcell("Date", 1, 1)},
		{hcell("Sub", 1, 1)},
	})

	require.Equal(t, 2, g.Rows())
	pos, ok := g.At(1, 0)
	require.True(t, ok)
	assert.Equal(t, "Pollster", pos.Cell.Text)
}

// TestResolve_PadsShortRows verifies uncovered trailing positions become placeholders
func TestResolve_PadsShortRows(t *testing.T) {
	g := Resolve([][]Cell{
		{hcell("A", 1, 1), hcell("B", 1, 1), hcell("C", 1, 1)},
		{hcell("only", 1, 1)},
	})

	require.Equal(t, 3, g.Width())
	pos, ok := g.At(1, 2)
	require.True(t, ok)
	assert.Equal(t, "", pos.Cell.Text, "padding should be an empty placeholder")
	assert.True(t, pos.Origin)
}

// TestResolve_EmptyInput verifies an empty header resolves to an empty grid
func TestResolve_EmptyInput(t *testing.T) {
	g := Resolve(nil)
	assert.Equal(t, 0, g.Rows())
	assert.Equal(t, 0, g.Width())

	_, ok := g.At(0, 0)
	assert.False(t, ok)
}
