package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/geostack/core"
)

func TestCollapseGroupsByKey(t *testing.T) {
	a := pm(0, 0b1, 0.5)
	b := pm(0, 0b1, 0.5) // same key as a
	c := pm(0, 0b1, 0.7) // different weight

	levels := collapse([]*core.PhrasematchResult{result(0, 0b1, 0, a, b, c)})

	require.Len(t, levels, 1)
	require.Len(t, levels[0].phrasematches, 2)

	arch := levels[0].phrasematches[0]
	assert.Len(t, arch.exemplars, 2)
	assert.Equal(t, 0.5, arch.Weight)
	assert.Len(t, levels[0].phrasematches[1].exemplars, 1)
}

func TestCollapseKeyIncludesPrefix(t *testing.T) {
	a := pm(0, 0b1, 0.5)
	b := pm(0, 0b1, 0.5, func(p *core.Phrasematch) { p.Prefix = core.PrefixEnabled })

	levels := collapse([]*core.PhrasematchResult{result(0, 0b1, 0, a, b)})
	assert.Len(t, levels[0].phrasematches, 2)
}

func TestCollapseLowConfidencePenalty(t *testing.T) {
	mk := func() *core.Phrasematch {
		return pm(0, 0b1, 1, func(p *core.Phrasematch) {
			p.Prefix = core.PrefixEnabled
			p.Subquery = []string{"spr"}
		})
	}

	t.Run("three exemplars get the penalty", func(t *testing.T) {
		levels := collapse([]*core.PhrasematchResult{result(0, 0b1, 0, mk(), mk(), mk())})
		require.Len(t, levels[0].phrasematches, 1)
		arch := levels[0].phrasematches[0]
		assert.InDelta(t, 0.99, arch.EditMultiplier, 1e-12)
		// Exemplars keep their original multiplier; the penalty never
		// compounds through expansion.
		assert.Equal(t, 1.0, arch.exemplars[0].EditMultiplier)
	})

	t.Run("two exemplars do not", func(t *testing.T) {
		levels := collapse([]*core.PhrasematchResult{result(0, 0b1, 0, mk(), mk())})
		assert.Equal(t, 1.0, levels[0].phrasematches[0].EditMultiplier)
	})

	t.Run("edit distance disables it", func(t *testing.T) {
		withEdit := func() *core.Phrasematch {
			p := mk()
			p.EditDistance = 1
			return p
		}
		levels := collapse([]*core.PhrasematchResult{result(0, 0b1, 0, withEdit(), withEdit(), withEdit())})
		assert.Equal(t, 1.0, levels[0].phrasematches[0].EditMultiplier)
	})

	t.Run("prefix disabled disables it", func(t *testing.T) {
		plain := func() *core.Phrasematch {
			p := mk()
			p.Prefix = core.PrefixDisabled
			return p
		}
		levels := collapse([]*core.PhrasematchResult{result(0, 0b1, 0, plain(), plain(), plain())})
		assert.Equal(t, 1.0, levels[0].phrasematches[0].EditMultiplier)
	})
}

func TestExpandCartesianProduct(t *testing.T) {
	a1, a2 := pm(0, 0b01, 0.5), pm(0, 0b01, 0.5)
	b1, b2, b3 := pm(1, 0b10, 0.5), pm(1, 0b10, 0.5), pm(1, 0b10, 0.5)

	levels := collapse([]*core.PhrasematchResult{
		result(0, 0b01, 0, a1, a2),
		result(1, 0b10, 0, b1, b2, b3),
	})
	require.Len(t, levels[0].phrasematches, 1)
	require.Len(t, levels[1].phrasematches, 1)

	s := &archStack{
		elements: []*archetype{levels[0].phrasematches[0], levels[1].phrasematches[0]},
		relev:    1,
		adjRelev: 0.95,
	}

	stacks := expand([]*archStack{s}, 100)
	// |expand(collapse(R))| == product of exemplar counts.
	require.Len(t, stacks, 6)

	seen := make(map[[2]*core.Phrasematch]bool)
	for _, st := range stacks {
		require.Len(t, st.Elements, 2)
		assert.Equal(t, 1.0, st.Relev)
		assert.Equal(t, 0.95, st.AdjRelev)
		key := [2]*core.Phrasematch{st.Elements[0], st.Elements[1]}
		assert.False(t, seen[key], "duplicate expansion")
		seen[key] = true
	}
}

func TestExpandRespectsMaxOut(t *testing.T) {
	exemplars := []*core.Phrasematch{pm(0, 0b1, 1), pm(0, 0b1, 1), pm(0, 0b1, 1)}
	levels := collapse([]*core.PhrasematchResult{result(0, 0b1, 0, exemplars...)})
	s := &archStack{elements: []*archetype{levels[0].phrasematches[0]}, relev: 1, adjRelev: 1}

	stacks := expand([]*archStack{s, s}, 4)
	assert.Len(t, stacks, 4)
}
