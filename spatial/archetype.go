package spatial

import "github.com/poiesic/geostack/core"

// lowConfidencePenalty dampens one-token, prefix-scanned archetypes that
// collapse more than two exemplars.
const lowConfidencePenalty = 0.99

// archetype is an equivalence class of phrasematches with identical
// stacking behavior. The embedded Phrasematch carries the shared scoring
// fields; exemplars are the originals, expanded back out after stacking.
type archetype struct {
	core.Phrasematch
	exemplars []*core.Phrasematch
}

// level is one phrasematch result with its candidates folded into
// archetypes, as consumed by the stack enumerator.
type level struct {
	idx           uint16
	nmask         uint32
	bmask         uint64
	phrasematches []*archetype
}

type archetypeKey struct {
	mask           uint32
	weight         float64
	editMultiplier float64
	prefix         core.PrefixScan
}

// collapse folds duplicate phrasematches per result into archetypes,
// preserving first-seen order within each result.
func collapse(results []*core.PhrasematchResult) []*level {
	levels := make([]*level, 0, len(results))
	for _, result := range results {
		lv := &level{
			idx:   result.Idx,
			nmask: result.NMask,
			bmask: result.BMask,
		}

		groups := make(map[archetypeKey]*archetype)
		for _, pm := range result.Phrasematches {
			key := archetypeKey{
				mask:           pm.Mask,
				weight:         pm.Weight,
				editMultiplier: pm.EditMultiplier,
				prefix:         pm.Prefix,
			}
			if arch, ok := groups[key]; ok {
				arch.exemplars = append(arch.exemplars, pm)
				continue
			}
			arch := &archetype{
				Phrasematch: *pm,
				exemplars:   []*core.Phrasematch{pm},
			}
			groups[key] = arch
			lv.phrasematches = append(lv.phrasematches, arch)
		}

		for _, arch := range lv.phrasematches {
			if len(arch.exemplars[0].Subquery) == 1 &&
				arch.EditDistance == 0 &&
				arch.Prefix != core.PrefixDisabled &&
				len(arch.exemplars) > 2 {
				// Applied once, to the archetype; expansion never compounds it.
				arch.EditMultiplier *= lowConfidencePenalty
			}
		}

		levels = append(levels, lv)
	}
	return levels
}

// expand produces the cartesian product of each stack's archetype
// exemplars, in stack order, preserving the stack's relev and adjRelev.
// Emission stops once maxOut stacks have been produced.
func expand(stacks []*archStack, maxOut int) []*Stack {
	out := make([]*Stack, 0, len(stacks))
	for _, s := range stacks {
		if len(out) >= maxOut {
			break
		}
		out = expandStack(s, out, maxOut)
	}
	return out
}

// expandStack walks the exemplar product depth-first, position by position.
func expandStack(s *archStack, out []*Stack, maxOut int) []*Stack {
	scratch := make([]*core.Phrasematch, len(s.elements))

	var walk func(pos int) bool
	walk = func(pos int) bool {
		if pos == len(s.elements) {
			elements := make([]*core.Phrasematch, len(scratch))
			copy(elements, scratch)
			out = append(out, &Stack{
				Elements: elements,
				Relev:    s.relev,
				AdjRelev: s.adjRelev,
			})
			return len(out) < maxOut
		}
		for _, exemplar := range s.elements[pos].exemplars {
			scratch[pos] = exemplar
			if !walk(pos + 1) {
				return false
			}
		}
		return true
	}
	walk(0)
	return out
}
