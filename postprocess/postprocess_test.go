package postprocess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avosseberg/pollgrid"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obs(y int, m time.Month, d int, v float64) pollgrid.Observation {
	return pollgrid.Observation{Date: day(y, m, d), Value: v}
}

func values(s pollgrid.Series) []float64 {
	out := make([]float64, 0, len(s))
	for _, o := range s {
		out = append(out, o.Value)
	}
	return out
}

func TestDropBefore(t *testing.T) {
	s := pollgrid.Series{
		obs(2008, time.June, 1, 10),
		obs(2009, time.December, 31, 11),
		obs(2010, time.January, 1, 12),
		obs(2012, time.March, 15, 13),
	}

	got := DropBefore(s, 2010)

	require.Len(t, got, 2, "Observations before the cutoff year should be dropped")
	assert.Equal(t, []float64{12, 13}, values(got), "January 1 of the cutoff year itself should survive")
}

func TestDropBefore_Empty(t *testing.T) {
	assert.Empty(t, DropBefore(pollgrid.Series{}, 2010))
}

func TestRemoveIsolated_DropsLonePoints(t *testing.T) {
	s := pollgrid.Series{
		obs(2018, time.May, 1, 40),
		obs(2024, time.January, 5, 20),
		obs(2024, time.January, 12, 21),
		obs(2024, time.February, 2, 22),
	}

	got := RemoveIsolated(s, 2, 1)

	require.Len(t, got, 3, "A point years away from the rest should be dropped")
	assert.Equal(t, []float64{20, 21, 22}, values(got))
}

func TestRemoveIsolated_KeepsDenseSeries(t *testing.T) {
	s := pollgrid.Series{
		obs(2024, time.January, 5, 20),
		obs(2024, time.March, 12, 21),
		obs(2024, time.June, 2, 22),
	}

	got := RemoveIsolated(s, 2, 1)

	assert.Len(t, got, 3, "Points inside a dense cluster should all survive")
}

func TestRemoveIsolated_ZeroMinimumKeepsEverything(t *testing.T) {
	s := pollgrid.Series{obs(2024, time.January, 5, 20)}

	got := RemoveIsolated(s, 0, 1)

	assert.Equal(t, s, got)
}

func TestRemoveAnomalous_DropsOutlier(t *testing.T) {
	s := pollgrid.Series{
		obs(2024, time.January, 5, 20),
		obs(2024, time.January, 12, 21),
		obs(2024, time.January, 19, 22),
		obs(2024, time.January, 26, 55),
		obs(2024, time.February, 2, 21),
	}

	got := RemoveAnomalous(s, 10, 1)

	require.Len(t, got, 4, "A value far from its neighbours' median should be dropped")
	assert.NotContains(t, values(got), 55.0)
}

func TestRemoveAnomalous_KeepsWithinThreshold(t *testing.T) {
	s := pollgrid.Series{
		obs(2024, time.January, 5, 20),
		obs(2024, time.January, 12, 28),
		obs(2024, time.January, 19, 22),
	}

	got := RemoveAnomalous(s, 10, 1)

	assert.Len(t, got, 3, "Deviation inside the threshold is not an anomaly")
}

func TestRemoveAnomalous_SparseSeriesUntouched(t *testing.T) {
	s := pollgrid.Series{
		obs(2024, time.January, 5, 2),
		obs(2024, time.January, 12, 60),
	}

	got := RemoveAnomalous(s, 10, 1)

	assert.Len(t, got, 2, "With one neighbour there is no median worth trusting")
}

func TestRemoveAnomalous_WindowLimitsNeighbours(t *testing.T) {
	s := pollgrid.Series{
		obs(2015, time.January, 5, 20),
		obs(2015, time.January, 12, 21),
		obs(2024, time.June, 1, 55),
		obs(2024, time.June, 8, 2),
	}

	got := RemoveAnomalous(s, 10, 1)

	assert.Len(t, got, 4, "Neighbours outside the window should not vote on a point")
}
