package spatial

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/storage"
	"github.com/poiesic/geostack/tile"
)

const (
	// DefaultStackableLimit caps stacks retained during enumeration.
	DefaultStackableLimit = 100

	// DefaultStackLimit caps stacks carried past expansion into coalesce.
	DefaultStackLimit = 50
)

// Options control a single match.
type Options struct {
	// Proximity is a [lon, lat] bias point. Enables proximity ranking.
	Proximity *[2]float64

	// BBox restricts coalesce to intersecting tiles.
	BBox *tile.BBox

	// AllowedIdx filters stacks by their highest index ordinal.
	// Nil admits everything.
	AllowedIdx map[uint16]bool

	// StackableLimit caps enumeration. Zero means DefaultStackableLimit.
	StackableLimit int

	// StackLimit caps stacks post-expansion. Zero means DefaultStackLimit.
	StackLimit int
}

// Result is the output of a match.
type Result struct {
	Results []*core.Spatialmatch
	Sets    map[uint32]*core.Cover
	Waste   [][]uint16
}

// SpatialMatcher stacks phrasematch candidates across indexes and
// coalesces them into spatial results.
type SpatialMatcher struct {
	coalescer storage.Coalescer
	logger    *slog.Logger
}

// Option configures a SpatialMatcher.
type Option func(*SpatialMatcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *SpatialMatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewSpatialMatcher creates a new matcher over a coalesce primitive.
func NewSpatialMatcher(coalescer storage.Coalescer, opts ...Option) (*SpatialMatcher, error) {
	if coalescer == nil {
		return nil, ErrCoalescerRequired
	}

	m := &SpatialMatcher{
		coalescer: coalescer,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Match runs the full pipeline for one query.
func (m *SpatialMatcher) Match(ctx context.Context, query []string, phrasematchResults []*core.PhrasematchResult, opts Options) (*Result, error) {
	return m.MatchWithMonitor(ctx, query, phrasematchResults, opts, nil)
}

// MatchWithMonitor runs the full pipeline for one query with monitoring.
// The monitor receives callbacks after each pipeline stage.
func (m *SpatialMatcher) MatchWithMonitor(ctx context.Context, query []string, phrasematchResults []*core.PhrasematchResult, opts Options, monitor Monitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if len(query) > core.MaxTokens {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, ErrQueryTooLong)
	}
	for _, result := range phrasematchResults {
		if result.Idx >= core.MaxIndexes {
			return nil, fmt.Errorf("%w: idx %d", core.ErrIndexOutOfRange, result.Idx)
		}
		for _, pm := range result.Phrasematches {
			if err := core.ValidatePhrasematch(pm); err != nil {
				return nil, err
			}
		}
	}

	stackableLimit := opts.StackableLimit
	if stackableLimit <= 0 {
		stackableLimit = DefaultStackableLimit
	}
	stackLimit := opts.StackLimit
	if stackLimit <= 0 {
		stackLimit = DefaultStackLimit
	}

	monitor.Start(query)

	// 1. Fold duplicate phrasematches into archetypes.
	levels := collapse(phrasematchResults)
	archetypes := 0
	for _, lv := range levels {
		archetypes += len(lv.phrasematches)
	}
	monitor.AfterCollapse(len(levels), archetypes)

	// 2. Enumerate valid stacks.
	stacks := stackable(levels, stackableLimit)
	monitor.AfterStackable(len(stacks))

	// 3. Filter, order, truncate.
	stacks = allowedStacks(stacks, opts.AllowedIdx)
	for _, s := range stacks {
		sortByZoomIdx(s)
	}
	sortByRelevLengthIdx(stacks)
	if len(stacks) > stackLimit {
		stacks = stacks[:stackLimit]
	}
	monitor.AfterSort(len(stacks))

	// 4. Expand archetypes back out.
	expanded := expand(stacks, stackLimit)
	monitor.AfterExpand(expanded)

	// 5. Rebalance and translate options per stack.
	jobs := make([]*coalesceJob, 0, len(expanded))
	for _, s := range expanded {
		job, err := buildJob(rebalance(len(query), s), &opts)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	// 6. Coalesce in parallel.
	perStack, err := m.runCoalesce(ctx, jobs)
	if err != nil {
		m.logger.Error("coalesce fan-out failed", "stacks", len(jobs), "err", err)
		return nil, err
	}

	all := make([]*core.Spatialmatch, 0, len(jobs))
	waste := make([][]uint16, 0)
	for i, job := range jobs {
		monitor.StackCoalesced(job.stack, len(perStack[i]))
		if len(perStack[i]) == 0 {
			waste = append(waste, job.idxSet())
			continue
		}
		all = append(all, perStack[i]...)
	}

	// 7. Deduplicate and assemble.
	results, sets := finalize(all)
	monitor.Finish(results)

	return &Result{Results: results, Sets: sets, Waste: waste}, nil
}
