package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalogue_NoFile(t *testing.T) {
	cat, err := LoadCatalogue(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err, "A missing catalogue is not an error")
	require.NotNil(t, cat)
	assert.Empty(t, cat.Sources)
}

func TestLoadCatalogue_Valid(t *testing.T) {
	path := writeSources(t, `
sources:
  - country: Hungary
    iso2: HU
    urls:
      - https://en.wikipedia.org/wiki/Opinion_polling_Hungarian_2026
    section_headers:
      - "2025"
      - "2024"
    excluded_headers:
      - Graphical summary
    anomaly_filter: true
  - country: France
    iso2: FR
    urls:
      - https://en.wikipedia.org/wiki/Opinion_polling_French_2027
    aliases:
      Marine Le Pen: National Rally
`)

	cat, err := LoadCatalogue(path)
	require.NoError(t, err, "A well-formed catalogue should parse")
	require.Len(t, cat.Sources, 2)

	hu := cat.Sources[0]
	assert.Equal(t, "Hungary", hu.Country)
	assert.Equal(t, "HU", hu.ISO2)
	assert.Equal(t, []string{"2025", "2024"}, hu.SectionHeaders)
	assert.Equal(t, []string{"Graphical summary"}, hu.ExcludedHeaders)
	assert.True(t, hu.AnomalyFilter)

	fr := cat.Sources[1]
	assert.Equal(t, "National Rally", fr.Aliases["Marine Le Pen"])
	assert.False(t, fr.AnomalyFilter)
}

func TestLoadCatalogue_InvalidYAML(t *testing.T) {
	path := writeSources(t, "sources: [unclosed")

	_, err := LoadCatalogue(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse sources file")
}

func TestByCountry(t *testing.T) {
	cat := &Catalogue{Sources: []Source{
		{Country: "Hungary", ISO2: "HU"},
		{Country: "France", ISO2: "FR"},
	}}

	src, ok := cat.ByCountry("hungary")
	require.True(t, ok, "Country names should match ignoring case")
	assert.Equal(t, "HU", src.ISO2)

	src, ok = cat.ByCountry("fr")
	require.True(t, ok, "ISO2 codes should match ignoring case")
	assert.Equal(t, "France", src.Country)

	_, ok = cat.ByCountry("Spain")
	assert.False(t, ok)
}
