package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/geostack/core"
)

func pm(idx uint16, mask uint32, weight float64, opts ...func(*core.Phrasematch)) *core.Phrasematch {
	p := &core.Phrasematch{
		Idx:            idx,
		Mask:           mask,
		NMask:          mask,
		Weight:         weight,
		EditMultiplier: 1,
		Zoom:           6,
		Scorefactor:    1,
		Subquery:       []string{"token"},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func result(idx uint16, nmask uint32, bmask uint64, pms ...*core.Phrasematch) *core.PhrasematchResult {
	for _, p := range pms {
		p.NMask = nmask
		p.BMask = bmask
	}
	return &core.PhrasematchResult{Idx: idx, NMask: nmask, BMask: bmask, Phrasematches: pms}
}

func enumerate(limit int, results ...*core.PhrasematchResult) []*archStack {
	return stackable(collapse(results), limit)
}

func TestStackableSinglePhrasematch(t *testing.T) {
	stacks := enumerate(10, result(0, 0b1, 0, pm(0, 0b1, 1)))

	require.Len(t, stacks, 1)
	assert.Len(t, stacks[0].elements, 1)
	assert.Equal(t, 1.0, stacks[0].relev)
	// Length penalty at one element: 0.9 + 0.1/1 = 1.0.
	assert.Equal(t, 1.0, stacks[0].adjRelev)
}

func TestStackableTwoLayers(t *testing.T) {
	stacks := enumerate(10,
		result(0, 0b01, 0, pm(0, 0b01, 0.5)),
		result(1, 0b10, 0, pm(1, 0b10, 0.5)),
	)

	var lengths []int
	for _, s := range stacks {
		lengths = append(lengths, len(s.elements))
	}
	assert.Contains(t, lengths, 2, "disjoint masks across indexes must stack")

	for _, s := range stacks {
		if len(s.elements) == 2 {
			assert.Equal(t, 1.0, s.relev)
			// Length penalty at two elements: 0.9 + 0.05.
			assert.InDelta(t, 0.95, s.adjRelev, 1e-9)
		}
	}
}

func TestStackableMaskConflict(t *testing.T) {
	stacks := enumerate(10,
		result(0, 0b11, 0, pm(0, 0b11, 1)),
		result(1, 0b11, 0, pm(1, 0b11, 1)),
	)

	// Identical masks conflict twice over (nmask and mask): only
	// single-element stacks emerge.
	require.NotEmpty(t, stacks)
	for _, s := range stacks {
		assert.Len(t, s.elements, 1)
	}
}

func TestStackableMaskConflictDistinctNmask(t *testing.T) {
	// Same token coverage but distinct subquery nmasks: the mask gate alone
	// must reject the pair.
	stacks := enumerate(10,
		result(0, 0b0100, 0, pm(0, 0b11, 1)),
		result(1, 0b1000, 0, pm(1, 0b11, 1)),
	)

	for _, s := range stacks {
		assert.Len(t, s.elements, 1)
	}
}

func TestStackableBmaskExclusion(t *testing.T) {
	// Index 0 declares index 1 incompatible.
	stacks := enumerate(10,
		result(0, 0b01, 1<<1, pm(0, 0b01, 1)),
		result(1, 0b10, 0, pm(1, 0b10, 1)),
	)

	require.NotEmpty(t, stacks)
	for _, s := range stacks {
		seen := make(map[uint16]bool)
		for _, el := range s.elements {
			seen[el.Idx] = true
		}
		assert.False(t, seen[0] && seen[1], "bmask-excluded pair stacked")
	}
}

func TestStackableAcceptanceGate(t *testing.T) {
	stacks := enumerate(10, result(0, 0b1, 0, pm(0, 0b1, 0.4)))
	assert.Empty(t, stacks, "relev below 0.5 must not be admitted")
}

func TestStackableHeadHasSmallestMask(t *testing.T) {
	stacks := enumerate(50,
		result(0, 0b100, 0, pm(3, 0b100, 0.5)),
		result(1, 0b001, 0, pm(1, 0b001, 0.5)),
		result(2, 0b010, 0, pm(2, 0b010, 0.5)),
	)

	require.NotEmpty(t, stacks)
	for _, s := range stacks {
		min := s.elements[0].Mask
		for _, el := range s.elements {
			assert.GreaterOrEqual(t, el.Mask, min, "head must carry the smallest mask")
		}
	}
}

func TestStackableInvariants(t *testing.T) {
	// A wider lattice; every emitted stack must satisfy the pairwise
	// invariants regardless of admission order.
	stacks := enumerate(20,
		result(0, 0b0011, 0, pm(0, 0b0001, 0.3), pm(0, 0b0011, 0.6)),
		result(1, 0b0100, 1<<3, pm(1, 0b0100, 0.4)),
		result(2, 0b1000, 0, pm(2, 0b1000, 0.4)),
		result(3, 0b0100, 0, pm(3, 0b0100, 0.5)),
	)

	for _, s := range stacks {
		var mask, nmask uint32
		seenIdx := make(map[uint16]bool)
		for _, el := range s.elements {
			assert.Zero(t, mask&el.Mask, "pairwise mask overlap")
			assert.Zero(t, nmask&el.NMask, "pairwise nmask overlap")
			assert.False(t, seenIdx[el.Idx], "duplicate idx in stack")
			mask |= el.Mask
			nmask |= el.NMask
			seenIdx[el.Idx] = true
		}
		for _, a := range s.elements {
			for _, b := range s.elements {
				if a != b {
					assert.False(t, core.Excluded(a.BMask, b.Idx), "bmask violation")
				}
			}
		}
	}
}

func TestStackableLengthPenaltyMonotonic(t *testing.T) {
	one := 0.9 + 0.1/1.0
	two := 0.9 + 0.1/2.0
	three := 0.9 + 0.1/3.0
	assert.Greater(t, one, two)
	assert.Greater(t, two, three)
}

func TestStackableLimit(t *testing.T) {
	// Many mutually incompatible candidates; the below-max cohort must not
	// exceed the limit.
	results := make([]*core.PhrasematchResult, 0, 8)
	for i := 0; i < 8; i++ {
		results = append(results, result(uint16(i), 0b1, 0, pm(uint16(i), 0b1, 1)))
	}
	stacks := enumerate(3, results...)
	assert.NotEmpty(t, stacks)
	assert.LessOrEqual(t, len(stacks), 3+8, "stacks plus max cohort stay bounded")
}
