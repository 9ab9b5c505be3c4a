package spatial

import (
	"sort"

	"github.com/poiesic/geostack/core"
)

// finalize sorts the combined spatialmatches and deduplicates by feature
// and stacking direction: per leading tmpid, at most one ascending, one
// descending and one single-layer result survive. sets records the best
// cover per tmpid across every cover of every spatialmatch.
func finalize(matches []*core.Spatialmatch) ([]*core.Spatialmatch, map[uint32]*core.Cover) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Relev != b.Relev {
			return a.Relev > b.Relev
		}
		if a.Scoredist != b.Scoredist {
			return a.Scoredist > b.Scoredist
		}
		if a.Covers[0].Idx != b.Covers[0].Idx {
			return a.Covers[0].Idx < b.Covers[0].Idx
		}
		aAddr := a.Address != ""
		bAddr := b.Address != ""
		if aAddr != bAddr {
			return aAddr
		}
		return false
	})

	doneAscending := make(map[uint32]bool)
	doneDescending := make(map[uint32]bool)
	doneSingle := make(map[uint32]bool)
	sets := make(map[uint32]*core.Cover)

	results := make([]*core.Spatialmatch, 0, len(matches))
	for _, sm := range matches {
		for _, cover := range sm.Covers {
			if best, ok := sets[cover.TmpID]; !ok || cover.Relev > best.Relev {
				sets[cover.TmpID] = cover
			}
		}

		key := sm.Covers[0].TmpID
		switch {
		case len(sm.Covers) > 1 && sm.Covers[0].Idx > sm.Covers[1].Idx && !doneDescending[key]:
			results = append(results, sm)
			doneDescending[key] = true
		case len(sm.Covers) > 1 && sm.Covers[0].Idx < sm.Covers[1].Idx && !doneAscending[key]:
			results = append(results, sm)
			doneAscending[key] = true
		case len(sm.Covers) == 1 && !doneAscending[key] && !doneDescending[key] && !doneSingle[key]:
			results = append(results, sm)
			doneSingle[key] = true
		}
	}

	return results, sets
}
