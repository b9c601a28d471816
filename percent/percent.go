// Package percent normalizes percentage-like cell text into float
// measurements.
package percent

import (
	"strconv"
	"strings"

	"github.com/avosseberg/pollgrid/wikitable"
)

// Bounds is the inclusive range of acceptable values.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds accepts the full percentage scale.
var DefaultBounds = Bounds{Min: 0, Max: 100}

func (b Bounds) contains(v float64) bool { return v >= b.Min && v <= b.Max }

// dashRunes are the dash variants accepted as the missing-value
// sentinel.
const dashRunes = "-–—−‐"

// Missing reports whether a value is absent rather than malformed: an
// empty value, or one whose every part is the dash sentinel.
func Missing(v wikitable.Value) bool {
	switch v.Kind {
	case wikitable.ValueEmpty:
		return true
	case wikitable.ValueScalar:
		return isDash(v.Scalar.Text)
	case wikitable.ValueAggregate:
		for _, p := range v.Parts {
			if !isDash(p.Text) {
				return false
			}
		}
		return true
	}
	return false
}

// Normalize converts a cell value into a measurement. A scalar parses
// directly; an aggregate parses every part, collapses identical parts
// to the shared figure, and sums differing parts. The second return is
// false for missing sentinels, unparseable text, aggregates with any
// bad part, and results outside the bounds.
func Normalize(v wikitable.Value, b Bounds) (float64, bool) {
	switch v.Kind {
	case wikitable.ValueScalar:
		f, ok := parseScalar(v.Scalar.Text)
		if !ok || !b.contains(f) {
			return 0, false
		}
		return f, true

	case wikitable.ValueAggregate:
		parsed := make([]float64, 0, len(v.Parts))
		for _, p := range v.Parts {
			f, ok := parseScalar(p.Text)
			if !ok {
				return 0, false
			}
			parsed = append(parsed, f)
		}
		if len(parsed) == 0 {
			return 0, false
		}

		identical := true
		for _, f := range parsed[1:] {
			if f != parsed[0] {
				identical = false
				break
			}
		}
		total := parsed[0]
		if !identical {
			total = 0
			for _, f := range parsed {
				total += f
			}
		}
		if !b.contains(total) {
			return 0, false
		}
		return total, true
	}
	return 0, false
}

// parseScalar applies the normalization sequence: strip one trailing
// percent sign, decimal comma to point, trim, keep the first
// whitespace token, parse as float.
func parseScalar(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" || isDash(s) {
		return 0, false
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", ".")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// isDash reports whether the trimmed text is a single dash character.
func isDash(s string) bool {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	return len(runes) == 1 && strings.ContainsRune(dashRunes, runes[0])
}
