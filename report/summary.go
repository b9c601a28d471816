package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/avosseberg/pollgrid"
	"github.com/avosseberg/pollgrid/classify"
)

// CountrySummary is the published per-country JSON payload.
type CountrySummary struct {
	Country       string                     `json:"country"`
	ISO2          string                     `json:"iso2"`
	Parties       []string                   `json:"parties"`
	ActiveParties []string                   `json:"activeParties"`
	LatestSupport float64                    `json:"latestSupport"`
	SeriesByParty map[string]pollgrid.Series `json:"seriesByParty"`
	LatestUpdate  string                     `json:"latestUpdate"`
	Sources       []string                   `json:"sources"`
}

// CountryBrief is the trimmed entry summary.json carries per country.
type CountryBrief struct {
	Country       string   `json:"country"`
	ISO2          string   `json:"iso2"`
	Parties       []string `json:"parties"`
	ActiveParties []string `json:"activeParties"`
	LatestSupport float64  `json:"latestSupport"`
}

// Summary is the cross-country index file, keyed by ISO2 code.
type Summary struct {
	Countries map[string]CountryBrief `json:"countries"`
	UpdatedAt string                  `json:"updatedAt"`
}

// ReadCountry loads one country's published files and assembles its
// summary payload, keeping only parties whose profile matches one of
// the categories. An empty category list keeps every party. A country
// with no files on disk yields (nil, nil).
func (d *Dataset) ReadCountry(iso2 string, categories []string) (*CountrySummary, error) {
	dir := d.CountryDir(iso2)

	meta, err := readMetadata(dir)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, nil
	}

	profiles, order, err := readParties(dir)
	if err != nil {
		return nil, err
	}
	set, err := readPollingData(dir)
	if err != nil {
		return nil, err
	}

	var selected []string
	for _, party := range order {
		if len(categories) == 0 || classify.Matches(profiles[party], categories) {
			selected = append(selected, party)
		}
	}

	series := make(map[string]pollgrid.Series, len(selected))
	var latestUpdate time.Time
	for _, party := range selected {
		s := set[party]
		if len(s) == 0 {
			continue
		}
		series[party] = s
		if last := s[len(s)-1].Date; last.After(latestUpdate) {
			latestUpdate = last
		}
	}

	support, active := pollgrid.LatestWithParties(set, selected)

	cs := &CountrySummary{
		Country:       meta.Country,
		ISO2:          meta.ISO2,
		Parties:       selected,
		ActiveParties: active,
		LatestSupport: round2(support),
		SeriesByParty: series,
		Sources:       meta.Sources,
	}
	if !latestUpdate.IsZero() {
		cs.LatestUpdate = latestUpdate.Format(pollgrid.DateLayout)
	}
	return cs, nil
}

// RebuildSummary regenerates every <iso2>.json and summary.json from
// the country directories on disk.
func (d *Dataset) RebuildSummary(categories []string) error {
	entries, err := os.ReadDir(filepath.Join(d.root, "countries"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to list countries: %w", err)
	}

	summary := Summary{
		Countries: map[string]CountryBrief{},
		UpdatedAt: Timestamp(d.now()),
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		cs, err := d.ReadCountry(entry.Name(), categories)
		if err != nil {
			return err
		}
		if cs == nil {
			continue
		}

		data, err := json.MarshalIndent(cs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal %s summary: %w", cs.ISO2, err)
		}
		name := strings.ToLower(cs.ISO2) + ".json"
		if err := os.WriteFile(filepath.Join(d.root, name), data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}

		summary.Countries[cs.ISO2] = CountryBrief{
			Country:       cs.Country,
			ISO2:          cs.ISO2,
			Parties:       cs.Parties,
			ActiveParties: cs.ActiveParties,
			LatestSupport: cs.LatestSupport,
		}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.root, "summary.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary.json: %w", err)
	}
	return nil
}

func readMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata.json: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata.json: %w", err)
	}
	return &meta, nil
}

// readParties returns profiles keyed by party, plus file order.
func readParties(dir string) (map[string]pollgrid.PartyProfile, []string, error) {
	records, cols, err := readCSV(filepath.Join(dir, "parties.csv"))
	if err != nil || records == nil {
		return nil, nil, err
	}

	profiles := make(map[string]pollgrid.PartyProfile, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		party := field(rec, cols, "party")
		if party == "" {
			continue
		}
		if _, ok := profiles[party]; !ok {
			order = append(order, party)
		}
		profiles[party] = pollgrid.PartyProfile{
			Name:     field(rec, cols, "party_display_name"),
			Position: field(rec, cols, "political_position"),
			Ideology: field(rec, cols, "ideology"),
			URL:      field(rec, cols, "wikipedia_url"),
		}
	}
	return profiles, order, nil
}

// readPollingData loads the observation rows and folds same-date
// values for a party into their mean. Candidate rows land on the party
// they were aliased to when written.
func readPollingData(dir string) (pollgrid.SeriesSet, error) {
	records, cols, err := readCSV(filepath.Join(dir, "polling_data.csv"))
	if err != nil || records == nil {
		return pollgrid.SeriesSet{}, err
	}

	byDate := map[string]map[time.Time][]float64{}
	for _, rec := range records {
		party := field(rec, cols, "party")
		if party == "" {
			continue
		}
		date, err := time.Parse(pollgrid.DateLayout, field(rec, cols, "date"))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(field(rec, cols, "polling_value"), 64)
		if err != nil {
			continue
		}
		if byDate[party] == nil {
			byDate[party] = map[time.Time][]float64{}
		}
		byDate[party][date] = append(byDate[party][date], value)
	}

	set := make(pollgrid.SeriesSet, len(byDate))
	for party, dates := range byDate {
		s := make(pollgrid.Series, 0, len(dates))
		for date, values := range dates {
			s = append(s, pollgrid.Observation{Date: date, Value: round2(stat.Mean(values, nil))})
		}
		set[party] = s.Sorted()
	}
	return set, nil
}

// readCSV returns a file's records and a header-name index, or nil
// records when the file is missing.
func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[name] = i
	}
	return rows[1:], cols, nil
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
