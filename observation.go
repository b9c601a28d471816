package pollgrid

import (
	"encoding/json"
	"sort"
	"time"
)

// DateLayout is the calendar-day format observations are published
// with; polling data has no finer resolution.
const DateLayout = "2006-01-02"

// Observation is a single dated measurement for one entity, expressed
// in percentage points.
type Observation struct {
	Date  time.Time
	Value float64
}

// MarshalJSON writes the observation with a calendar date instead of a
// full timestamp.
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}{Date: o.Date.Format(DateLayout), Value: o.Value})
}

// UnmarshalJSON reads the calendar-date form written by MarshalJSON.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var aux struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	date, err := time.Parse(DateLayout, aux.Date)
	if err != nil {
		return err
	}
	o.Date = date
	o.Value = aux.Value
	return nil
}

// Series is the ordered list of observations for one entity. The
// extraction pipeline appends oldest-first; after merging several
// sources the order is per-source concatenation, so consumers that
// need chronology should call Sorted.
type Series []Observation

// SeriesSet maps an entity id to its series.
type SeriesSet map[string]Series

// Latest returns the most recent observation in the series. When two
// observations share the most recent date, the later element wins.
func (s Series) Latest() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}

	latest := s[0]
	for _, obs := range s[1:] {
		if !obs.Date.Before(latest.Date) {
			latest = obs
		}
	}
	return latest, true
}

// Sorted returns a copy of the series ordered by ascending date. The
// sort is stable, so same-date observations keep their append order.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Entities returns the entity ids in the set in sorted order.
func (ss SeriesSet) Entities() []string {
	ids := make([]string, 0, len(ss))
	for id := range ss {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
