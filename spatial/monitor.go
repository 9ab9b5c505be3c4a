package spatial

import "github.com/poiesic/geostack/core"

// Monitor provides hooks to observe the match pipeline.
// Implement this interface to track intermediate stage sizes during a match.
type Monitor interface {
	Start(query []string)
	AfterCollapse(levels int, archetypes int)
	AfterStackable(stacks int)
	AfterSort(stacks int)
	AfterExpand(stacks []*Stack)
	StackCoalesced(stack *Stack, matches int)
	Finish(results []*core.Spatialmatch)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ []string)                   {}
func (n *noopMonitor) AfterCollapse(_ int, _ int)         {}
func (n *noopMonitor) AfterStackable(_ int)               {}
func (n *noopMonitor) AfterSort(_ int)                    {}
func (n *noopMonitor) AfterExpand(_ []*Stack)             {}
func (n *noopMonitor) StackCoalesced(_ *Stack, _ int)     {}
func (n *noopMonitor) Finish(_ []*core.Spatialmatch)      {}
