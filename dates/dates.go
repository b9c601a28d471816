// Package dates resolves loosely formatted, locale-ambiguous date
// tokens into absolute calendar dates. Tokens may be ranges, partial
// dates lacking a year, or dates relative to the preceding row; a
// per-table Context carries the running state that disambiguates them.
package dates

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnparseable marks a token no heuristic could resolve.
	ErrUnparseable = errors.New("unparseable date token")
	// ErrBeyondCutoff marks a parse landing after the context cutoff.
	ErrBeyondCutoff = errors.New("date beyond cutoff")
)

// Context is the running state of one table traversal. It is owned by
// a single traversal and never shared.
type Context struct {
	Previous     time.Time
	HasPrevious  bool
	YearExplicit bool
	Cutoff       time.Time
}

// NewContext returns a context bounded by cutoff. A zero cutoff
// disables the bound.
func NewContext(cutoff time.Time) *Context {
	return &Context{Cutoff: cutoff}
}

// Observe records a successful parse as the new previous date. Failed
// parses must not be observed, so a skipped row leaves the running
// state untouched.
func (c *Context) Observe(r Result) {
	c.Previous = r.Date
	c.HasPrevious = true
	c.YearExplicit = r.YearExplicit
}

// Result is a resolved date plus whether its token carried a
// four-digit year.
type Result struct {
	Date         time.Time
	YearExplicit bool
}

// Options tune the range heuristics. They follow observed markup
// quirks, not any fixed law, so they stay configurable.
type Options struct {
	// KeepRangeStart keeps the part before the separator of a range
	// instead of the part after it.
	KeepRangeStart bool
}

// Parser resolves date tokens for one source. The zero value works:
// no embedded year, default options, wall clock.
type Parser struct {
	// SourceYear is the year embedded in the source address, 0 when
	// unknown. It seeds the relative base for the first yearless row
	// and anchors the default cutoff.
	SourceYear int
	Opts       Options
	// Now supplies the clock; nil means time.Now.
	Now func() time.Time
}

// CutoffFor derives the latest acceptable date for a source: the end
// of the embedded year when one is known, otherwise now.
func CutoffFor(sourceYear int, now time.Time) time.Time {
	if sourceYear > 0 {
		return time.Date(sourceYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return now
}

var (
	separators  = strings.NewReplacer("‐", "-", "‑", "-", "–", "-", "—", "-", "−", "-", "/", "-")
	yearPattern = regexp.MustCompile(`\b\d{4}\b`)
	numericDate = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})(?:-(\d{4}))?$`)
)

// Parse resolves one token against the running context. It reads the
// context but never mutates it; callers record successes with Observe.
// sectionHint is the heading the token's table sits under; when the
// hint is itself a four-digit year it supplies the year for tokens
// lacking one.
func (p Parser) Parse(token, sectionHint string, ctx *Context) (Result, error) {
	tok := strings.TrimSpace(token)
	if tok == "" {
		return Result{}, ErrUnparseable
	}

	// A single separator signals a range: keep one side. Two or more
	// signal an already-canonical form, left whole.
	tok = separators.Replace(tok)
	if strings.Count(tok, "-") == 1 {
		before, after, _ := strings.Cut(tok, "-")
		if p.Opts.KeepRangeStart {
			tok = strings.TrimSpace(before)
		} else {
			tok = strings.TrimSpace(after)
		}
	}

	if y, ok := asYear(tok); ok {
		return p.finish(time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true, ctx)
	}
	if d, ok := parseCanonical(tok); ok {
		return p.finish(d, true, ctx)
	}

	if !containsYear(tok) {
		if hint := strings.TrimSpace(sectionHint); hint != "" {
			if _, ok := asYear(hint); ok {
				tok += " " + hint
			}
		}
	}

	// a percent sign means a value column leaked into the date slot
	if strings.Contains(tok, "%") {
		return Result{}, ErrUnparseable
	}

	hasYear := containsYear(tok)

	var base time.Time
	switch {
	case ctx.HasPrevious:
		base = ctx.Previous
	case !hasYear && p.SourceYear > 0:
		base = time.Date(p.SourceYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		base = time.Date(p.now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	// reverse-chronological traversal crosses into the next year when a
	// January token follows a December base
	if !hasYear && base.Month() == time.December && firstMonthIn(tok) == time.January {
		base = time.Date(base.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	d, ok := parseDayMonth(tok, base)
	if !ok {
		return Result{}, ErrUnparseable
	}

	if ctx.HasPrevious && d.Before(ctx.Previous) && ctx.YearExplicit &&
		!strings.Contains(tok, strconv.Itoa(ctx.Previous.Year())) {
		d = d.AddDate(1, 0, 0)
	}

	return p.finish(d, hasYear, ctx)
}

func (p Parser) finish(d time.Time, explicit bool, ctx *Context) (Result, error) {
	if !ctx.Cutoff.IsZero() && d.After(ctx.Cutoff) {
		return Result{}, ErrBeyondCutoff
	}
	return Result{Date: d, YearExplicit: explicit}, nil
}

func (p Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// parseDayMonth resolves a textual token with day-before-month
// convention, filling missing parts from the base: a missing year
// takes the base year, a missing month the base month, a missing day
// the first of the month.
func parseDayMonth(tok string, base time.Time) (time.Time, bool) {
	if m := numericDate.FindStringSubmatch(tok); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := base.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		return civil(year, time.Month(month), day)
	}

	day, year := 0, 0
	var month time.Month

	for _, f := range splitFields(tok) {
		if y, ok := asYear(f); ok && year == 0 {
			year = y
			continue
		}
		if m, ok := monthByName(f); ok && month == 0 {
			month = m
			continue
		}
		if m, ok := asNumericMonth(f); ok && month == 0 && day != 0 {
			month = m
			continue
		}
		if d, ok := asDay(f); ok && day == 0 {
			day = d
			continue
		}
		return time.Time{}, false
	}

	if month == 0 && day == 0 {
		return time.Time{}, false
	}
	if year == 0 {
		year = base.Year()
	}
	if month == 0 {
		month = base.Month()
	}
	if day == 0 {
		day = 1
	}
	return civil(year, month, day)
}

// civil builds a UTC midnight date, rejecting combinations the
// calendar would normalize away, such as 31 February.
func civil(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func parseCanonical(tok string) (time.Time, bool) {
	d, err := time.Parse("2006-1-2", tok)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func splitFields(tok string) []string {
	raw := strings.FieldsFunc(tok, func(r rune) bool {
		return r == ' ' || r == ',' || r == '(' || r == ')'
	})
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimSuffix(f, ".")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

var monthNames = [...]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// monthByName matches full month names and abbreviations of at least
// three letters.
func monthByName(s string) (time.Month, bool) {
	s = strings.ToLower(s)
	if len(s) < 3 {
		return 0, false
	}
	for i, name := range monthNames {
		if strings.HasPrefix(name, s) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

func firstMonthIn(tok string) time.Month {
	for _, f := range splitFields(tok) {
		if m, ok := monthByName(f); ok {
			return m
		}
	}
	return 0
}

func asYear(s string) (int, bool) {
	if len(s) != 4 || !allDigits(s) {
		return 0, false
	}
	n, _ := strconv.Atoi(s)
	return n, true
}

func asNumericMonth(s string) (time.Month, bool) {
	if len(s) == 0 || len(s) > 2 || !allDigits(s) {
		return 0, false
	}
	n, _ := strconv.Atoi(s)
	if n < 1 || n > 12 {
		return 0, false
	}
	return time.Month(n), true
}

func asDay(s string) (int, bool) {
	lower := strings.ToLower(s)
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix) {
			if trimmed := lower[:len(lower)-len(suffix)]; allDigits(trimmed) {
				s = trimmed
				break
			}
		}
	}
	if len(s) == 0 || len(s) > 2 || !allDigits(s) {
		return 0, false
	}
	n, _ := strconv.Atoi(s)
	if n < 1 || n > 31 {
		return 0, false
	}
	return n, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func containsYear(s string) bool {
	return yearPattern.MatchString(s)
}
