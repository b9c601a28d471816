// Package report publishes the assembled datasets: per-country CSV and
// metadata files, plus the per-country JSON payloads and cross-country
// summary that downstream consumers read.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avosseberg/pollgrid"
)

// Dataset is the on-disk layout of the published data directory:
// countries/<iso2>/ for the raw files, <iso2>.json and summary.json at
// the root.
type Dataset struct {
	root string
	// Now supplies timestamps; nil means time.Now.
	Now func() time.Time
}

// New opens the dataset rooted at dir, creating the layout when
// missing.
func New(dir string) (*Dataset, error) {
	if err := os.MkdirAll(filepath.Join(dir, "countries"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Dataset{root: dir}, nil
}

// Country is one country's assembled data, ready to publish. Series
// and Profiles are keyed by entity id; Aliases maps candidate ids onto
// the party they stand for.
type Country struct {
	Name      string
	ISO2      string
	Sources   []string
	Series    pollgrid.SeriesSet
	Profiles  map[string]pollgrid.PartyProfile
	Aliases   map[string]string
	Latest    *float64
	UpdatedAt string
}

// Metadata is the per-country metadata file.
type Metadata struct {
	Country     string   `json:"country"`
	ISO2        string   `json:"iso2"`
	Sources     []string `json:"sources"`
	UpdatedAt   string   `json:"updatedAt"`
	LatestTotal *float64 `json:"latestTotal,omitempty"`
}

// Timestamp renders t the way the dataset's JSON files carry times.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// CountryDir returns the directory holding one country's files.
func (d *Dataset) CountryDir(iso2 string) string {
	return filepath.Join(d.root, "countries", strings.ToLower(iso2))
}

// WriteCountry publishes one country's polling data, party list and
// metadata.
func (d *Dataset) WriteCountry(c Country) error {
	dir := d.CountryDir(c.ISO2)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create country directory: %w", err)
	}
	if c.UpdatedAt == "" {
		c.UpdatedAt = Timestamp(d.now())
	}

	if err := writePollingData(dir, c); err != nil {
		return err
	}
	if err := writeParties(dir, c); err != nil {
		return err
	}
	return writeMetadata(dir, c)
}

func (d *Dataset) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// partyFor resolves the party an entity's observations belong to: the
// alias target for candidates, the entity itself otherwise.
func (c Country) partyFor(id string) (party, candidate string) {
	if mapped, ok := c.Aliases[id]; ok && mapped != "" {
		return mapped, id
	}
	return id, ""
}

// profileFor finds the profile published for a party, falling back to
// the profile of any entity aliased onto it.
func (c Country) profileFor(party string) pollgrid.PartyProfile {
	if p, ok := c.Profiles[party]; ok {
		return p
	}
	for _, id := range c.Series.Entities() {
		if c.Aliases[id] == party {
			if p, ok := c.Profiles[id]; ok {
				return p
			}
		}
	}
	return pollgrid.PartyProfile{}
}

func writePollingData(dir string, c Country) error {
	f, err := os.Create(filepath.Join(dir, "polling_data.csv"))
	if err != nil {
		return fmt.Errorf("failed to create polling_data.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"date", "party", "candidate", "polling_value", "political_position", "ideology", "wikipedia_url"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write polling_data.csv: %w", err)
	}

	for _, id := range c.Series.Entities() {
		party, candidate := c.partyFor(id)
		profile := c.Profiles[id]
		for _, obs := range c.Series[id].Sorted() {
			record := []string{
				obs.Date.Format(pollgrid.DateLayout),
				party,
				candidate,
				strconv.FormatFloat(obs.Value, 'f', -1, 64),
				profile.Position,
				profile.Ideology,
				profile.URL,
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write polling_data.csv: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write polling_data.csv: %w", err)
	}
	return nil
}

func writeParties(dir string, c Country) error {
	f, err := os.Create(filepath.Join(dir, "parties.csv"))
	if err != nil {
		return fmt.Errorf("failed to create parties.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"party", "political_position", "ideology", "wikipedia_url", "party_display_name"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write parties.csv: %w", err)
	}

	seen := map[string]bool{}
	for _, id := range c.Series.Entities() {
		party, _ := c.partyFor(id)
		if seen[party] {
			continue
		}
		seen[party] = true
		profile := c.profileFor(party)
		record := []string{party, profile.Position, profile.Ideology, profile.URL, pollgrid.EntityName(party)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write parties.csv: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write parties.csv: %w", err)
	}
	return nil
}

func writeMetadata(dir string, c Country) error {
	meta := Metadata{
		Country:     c.Name,
		ISO2:        c.ISO2,
		Sources:     c.Sources,
		UpdatedAt:   c.UpdatedAt,
		LatestTotal: c.Latest,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata.json: %w", err)
	}
	return nil
}
