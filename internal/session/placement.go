package session

import "sort"

// Placement is one row of the final ranking.
type Placement struct {
	UID         string
	DisplayName string
	Score       int
	Alive       bool
	Rank        int
}

// rankPlacements orders entries: survivors first, then by score descending.
// Ties keep uid order so every client computes the identical ranking from
// the same records.
func rankPlacements(entries []Placement) []Placement {
	out := make([]Placement, len(entries))
	copy(out, entries)

	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Alive != out[j].Alive {
			return out[i].Alive
		}
		return out[i].Score > out[j].Score
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
