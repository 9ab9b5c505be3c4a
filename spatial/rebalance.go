package spatial

import (
	"math"

	"github.com/poiesic/geostack/core"
)

// rebalance recomputes per-cover weights so that longer stacks neither
// gain nor lose relevance unfairly. The returned stack owns cloned
// elements; mutating them does not alias the input.
func rebalance(queryLen int, s *Stack) *Stack {
	var stackMask uint32
	for _, pm := range s.Elements {
		stackMask |= pm.Mask
	}

	// One garbage slot when the stack leaves query tokens uncovered.
	garbage := 1.0
	if core.CoveredTokens(stackMask) == queryLen {
		garbage = 0
	}

	slots := garbage + float64(len(s.Elements))
	totalLengthBonus := 0.01 * slots
	weightPerMatch := 1/slots - 0.01

	out := &Stack{
		Elements: make([]*core.Phrasematch, len(s.Elements)),
		AdjRelev: s.AdjRelev,
	}

	sum := 0.0
	for i, pm := range s.Elements {
		clone := *pm
		clone.Weight = core.Round8((weightPerMatch + totalLengthBonus*pm.Weight) * pm.EditMultiplier)
		sum += clone.Weight
		out.Elements[i] = &clone
	}
	out.Relev = math.Min(core.Round8(sum), 1)

	return out
}
