package spatial

import (
	"math"

	"github.com/poiesic/geostack/core"
)

// acceptanceThreshold is the minimum relevance a candidate stack must
// reach before it is admitted to the memo.
const acceptanceThreshold = 0.5

// Stack is an ordered sequence of phrasematches from distinct indexes,
// carrying its accumulated and edit-adjusted relevance.
type Stack struct {
	Elements []*core.Phrasematch
	Relev    float64
	AdjRelev float64
}

// archStack is a stack of archetypes, pre-expansion.
type archStack struct {
	elements []*archetype
	relev    float64
	adjRelev float64
}

// memo accumulates admitted stacks across the enumeration. maxStacks holds
// the current best-relevance cohort; stacks holds earlier admissions.
type memo struct {
	stacks    []*archStack
	maxStacks []*archStack
	maxRelev  float64
}

// stackable enumerates the combinatorially valid stacks across levels.
// A lower-relevance stack is retained only while fewer than limit are held
// below the best-relevance cohort; a displaced cohort of limit or more is
// moved below in full, so that count can exceed limit. The returned stacks
// carry the length penalty on adjRelev.
func stackable(levels []*level, limit int) []*archStack {
	m := &memo{}
	if len(levels) > 0 {
		stackLevel(levels, m, 0, 0, 0, nil, 0, 0, limit)
	}

	out := make([]*archStack, 0, len(m.stacks)+len(m.maxStacks))
	out = append(out, m.stacks...)
	out = append(out, m.maxStacks...)

	for _, s := range out {
		lengthPenalty := 0.9 + 0.1/math.Max(float64(len(s.elements)), 1)
		s.adjRelev *= lengthPenalty
	}
	return out
}

// stackLevel recurses over levels, first skipping the current one, then
// attempting to include each of its phrasematches.
func stackLevel(levels []*level, m *memo, idx int, mask, nmask uint32, stack []*archetype, relev, adjRelev float64, limit int) {
	if idx+1 < len(levels) {
		stackLevel(levels, m, idx+1, mask, nmask, stack, relev, adjRelev, limit)
	}

	lv := levels[idx]

	// Subquery token collision with anything already stacked.
	if core.TokenCollision(nmask, lv.nmask) {
		return
	}
	// geocoder_stack compatibility against every stacked element. The
	// exclusion binds whichever side declares it.
	for _, s := range stack {
		if core.Excluded(lv.bmask, s.Idx) || core.Excluded(s.BMask, lv.idx) {
			return
		}
	}

	for _, next := range lv.phrasematches {
		if core.Conflicts(mask, next.Mask) {
			continue
		}
		// Direction gate: once the head index outranks the candidate, only
		// lower-mask candidates may still join.
		if len(stack) > 0 && stack[0].Idx >= next.Idx && mask != 0 && mask < next.Mask {
			continue
		}

		// The smallest mask stays at the head.
		target := make([]*archetype, 0, len(stack)+1)
		if len(stack) > 0 && next.Mask < stack[0].Mask {
			target = append(target, next)
			target = append(target, stack...)
		} else {
			target = append(target, stack...)
			target = append(target, next)
		}
		targetRelev := relev + next.Weight
		targetAdjRelev := adjRelev + next.Weight*next.EditMultiplier

		if targetRelev > acceptanceThreshold {
			ts := &archStack{elements: target, relev: targetRelev, adjRelev: targetAdjRelev}
			switch {
			case targetRelev > m.maxRelev:
				if len(m.maxStacks) >= limit {
					m.stacks = append(m.stacks, m.maxStacks...)
					m.maxStacks = []*archStack{ts}
				} else {
					m.maxStacks = append(m.maxStacks, ts)
				}
				m.maxRelev = targetRelev
			case targetRelev == m.maxRelev:
				m.maxStacks = append(m.maxStacks, ts)
			case len(m.stacks) < limit:
				m.stacks = append(m.stacks, ts)
			}
		}

		if idx+1 < len(levels) {
			stackLevel(levels, m, idx+1, mask|next.Mask, nmask|lv.nmask, target, targetRelev, targetAdjRelev, limit)
		}
	}
}
