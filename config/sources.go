package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source represents one configured country: the pages to scrape and
// how to read them. Aliases map candidate names onto the party they
// stand for, for countries that poll people rather than parties.
type Source struct {
	Country         string            `yaml:"country"`
	ISO2            string            `yaml:"iso2"`
	URLs            []string          `yaml:"urls"`
	SectionHeaders  []string          `yaml:"section_headers"`
	ExcludedHeaders []string          `yaml:"excluded_headers"`
	Aliases         map[string]string `yaml:"aliases"`
	AnomalyFilter   bool              `yaml:"anomaly_filter"`
}

// Catalogue represents the full sources.yaml document.
type Catalogue struct {
	Sources []Source `yaml:"sources"`
}

// LoadCatalogue loads the catalogue from path. Returns an empty
// catalogue if the file doesn't exist (not an error). Returns error if
// the file exists but cannot be parsed.
func LoadCatalogue(path string) (*Catalogue, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Catalogue{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	return &cat, nil
}

// ByCountry finds a source by country name or ISO2 code, ignoring
// case.
func (c *Catalogue) ByCountry(name string) (Source, bool) {
	for _, s := range c.Sources {
		if strings.EqualFold(s.Country, name) || strings.EqualFold(s.ISO2, name) {
			return s, true
		}
	}
	return Source{}, false
}
