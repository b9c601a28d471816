package pollgrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: build an observation at midnight UTC
func obs(year int, month time.Month, day int, value float64) Observation {
	return Observation{
		Date:  time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		Value: value,
	}
}

// TestMerge_AppendsSeries verifies that Merge concatenates series per entity
func TestMerge_AppendsSeries(t *testing.T) {
	dst := SeriesSet{
		"alpha": {obs(2023, time.March, 1, 10)},
	}
	src := SeriesSet{
		"alpha": {obs(2023, time.April, 1, 12)},
		"beta":  {obs(2023, time.March, 15, 5)},
	}

	merged := Merge(dst, src)

	require.Len(t, merged["alpha"], 2, "alpha should hold both observations")
	assert.Equal(t, 10.0, merged["alpha"][0].Value)
	assert.Equal(t, 12.0, merged["alpha"][1].Value)
	require.Len(t, merged["beta"], 1, "beta should be copied over")
}

// TestMerge_NilDestination verifies merging into a nil set allocates one
func TestMerge_NilDestination(t *testing.T) {
	src := SeriesSet{"alpha": {obs(2024, time.January, 3, 25)}}

	merged := Merge(nil, src)

	require.NotNil(t, merged)
	assert.Len(t, merged["alpha"], 1)
}

// TestMerge_OrderIndependentTotals verifies merge order does not change totals
func TestMerge_OrderIndependentTotals(t *testing.T) {
	a := SeriesSet{"alpha": {obs(2023, time.March, 1, 10), obs(2023, time.May, 1, 11)}}
	b := SeriesSet{"alpha": {obs(2023, time.April, 1, 12)}}

	ab := Merge(Merge(SeriesSet{}, a), b)
	ba := Merge(Merge(SeriesSet{}, b), a)

	assert.Equal(t, LatestTotal(ab, []string{"alpha"}), LatestTotal(ba, []string{"alpha"}),
		"latest total should not depend on merge order")
	assert.Len(t, ab["alpha"], 3)
	assert.Len(t, ba["alpha"], 3)
}

// TestLatest_PicksMostRecentDate verifies Latest scans for the max date
func TestLatest_PicksMostRecentDate(t *testing.T) {
	s := Series{
		obs(2023, time.June, 1, 20),
		obs(2023, time.February, 1, 18),
	}

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 20.0, latest.Value, "June observation is the most recent")
}

// TestLatest_EmptySeries verifies Latest reports absence on empty series
func TestLatest_EmptySeries(t *testing.T) {
	_, ok := Series{}.Latest()
	assert.False(t, ok)
}

// TestSorted_OrdersByDate verifies Sorted returns a chronological copy
func TestSorted_OrdersByDate(t *testing.T) {
	s := Series{
		obs(2023, time.June, 1, 3),
		obs(2023, time.January, 1, 1),
		obs(2023, time.March, 1, 2),
	}

	sorted := s.Sorted()

	require.Len(t, sorted, 3)
	assert.Equal(t, 1.0, sorted[0].Value)
	assert.Equal(t, 2.0, sorted[1].Value)
	assert.Equal(t, 3.0, sorted[2].Value)
	assert.Equal(t, 3.0, s[0].Value, "original series should be untouched")
}

// TestLatestWithParties_SumsSelected verifies only selected entities with data contribute
func TestLatestWithParties_SumsSelected(t *testing.T) {
	set := SeriesSet{
		"alpha": {obs(2024, time.January, 3, 25)},
		"beta":  {obs(2024, time.January, 3, 10)},
		"gamma": {},
	}

	total, parties := LatestWithParties(set, []string{"alpha", "gamma", "missing", "beta"})

	assert.Equal(t, 35.0, total)
	assert.Equal(t, []string{"alpha", "beta"}, parties,
		"empty and missing entities should not contribute")
}

// TestMergeProfiles_LastWriterWins verifies later profiles overwrite earlier ones
func TestMergeProfiles_LastWriterWins(t *testing.T) {
	dst := map[string]PartyProfile{
		"alpha": {Name: "Alpha", Position: "old"},
	}
	src := map[string]PartyProfile{
		"alpha": {Name: "Alpha", Position: "new"},
	}

	merged := MergeProfiles(dst, src)

	assert.Equal(t, "new", merged["alpha"].Position)
}

// TestEntityName_DecodesLinkSegment verifies escape and underscore handling
func TestEntityName_DecodesLinkSegment(t *testing.T) {
	assert.Equal(t, "National Rally (France)", EntityName("National_Rally_(France)"))
	assert.Equal(t, "Law and Justice", EntityName("Law_and_Justice"))
	assert.Equal(t, "Fidesz–KDNP", EntityName("Fidesz%E2%80%93KDNP"))
	assert.Equal(t, "Party A", EntityName("/wiki/Party_A"), "full links should reduce to their last segment")
	assert.Equal(t, "plain text", EntityName("plain text"))
}
