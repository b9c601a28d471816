package pollgrid

// Merge appends every series in src onto the matching series in dst
// and returns dst. Observations are never dropped or deduplicated, so
// merging a group of sets in any order yields the same multiset of
// observations per entity.
func Merge(dst, src SeriesSet) SeriesSet {
	if dst == nil {
		dst = make(SeriesSet, len(src))
	}
	for id, series := range src {
		dst[id] = append(dst[id], series...)
	}
	return dst
}

// MergeProfiles folds src into dst with last-writer-wins semantics
// and returns dst.
func MergeProfiles(dst, src map[string]PartyProfile) map[string]PartyProfile {
	if dst == nil {
		dst = make(map[string]PartyProfile, len(src))
	}
	for id, profile := range src {
		dst[id] = profile
	}
	return dst
}

// LatestTotal sums the most recent observed value of each selected
// entity. Entities absent from the set, and entities with empty
// series, contribute nothing.
func LatestTotal(set SeriesSet, selected []string) float64 {
	total, _ := LatestWithParties(set, selected)
	return total
}

// LatestWithParties is LatestTotal plus the list of entity ids that
// actually contributed to the sum, in input order.
func LatestWithParties(set SeriesSet, selected []string) (float64, []string) {
	var total float64
	var contributing []string

	for _, id := range selected {
		latest, ok := set[id].Latest()
		if !ok {
			continue
		}
		total += latest.Value
		contributing = append(contributing, id)
	}
	return total, contributing
}
