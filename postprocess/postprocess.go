// Package postprocess cleans extracted polling series before they are
// published. Observations that predate the period of interest, lone
// points far from the rest of a series, and values wildly off their
// neighbours are usually extraction accidents rather than polls.
package postprocess

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/avosseberg/pollgrid"
)

// DropBefore removes observations dated before January 1 of year.
func DropBefore(s pollgrid.Series, year int) pollgrid.Series {
	cutoff := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make(pollgrid.Series, 0, len(s))
	for _, obs := range s {
		if obs.Date.Before(cutoff) {
			continue
		}
		out = append(out, obs)
	}
	return out
}

// RemoveIsolated drops observations with fewer than minNeighbors other
// observations dated within windowYears of them.
func RemoveIsolated(s pollgrid.Series, minNeighbors, windowYears int) pollgrid.Series {
	if minNeighbors <= 0 {
		return s
	}
	out := make(pollgrid.Series, 0, len(s))
	for i, obs := range s {
		if len(neighbors(s, i, windowYears)) >= minNeighbors {
			out = append(out, obs)
		}
	}
	return out
}

// RemoveAnomalous drops observations further than threshold percentage
// points from the median of their neighbours within windowYears.
// Observations with fewer than two neighbours are kept: there is
// nothing trustworthy to compare them against.
func RemoveAnomalous(s pollgrid.Series, threshold float64, windowYears int) pollgrid.Series {
	out := make(pollgrid.Series, 0, len(s))
	for i, obs := range s {
		values := neighbors(s, i, windowYears)
		if len(values) < 2 {
			out = append(out, obs)
			continue
		}
		sort.Float64s(values)
		median := stat.Quantile(0.5, stat.Empirical, values, nil)
		if math.Abs(obs.Value-median) > threshold {
			continue
		}
		out = append(out, obs)
	}
	return out
}

// neighbors collects the values of every other observation dated
// within windowYears of s[i], inclusive on both ends.
func neighbors(s pollgrid.Series, i, windowYears int) []float64 {
	lo := s[i].Date.AddDate(-windowYears, 0, 0)
	hi := s[i].Date.AddDate(windowYears, 0, 0)

	var values []float64
	for j, obs := range s {
		if j == i {
			continue
		}
		if obs.Date.Before(lo) || obs.Date.After(hi) {
			continue
		}
		values = append(values, obs.Value)
	}
	return values
}
