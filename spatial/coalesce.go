package spatial

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/storage"
	"github.com/poiesic/geostack/tile"
)

const (
	// DefaultProximityRadius is used when the stack's last (deepest) layer
	// does not carry its own proximity radius.
	DefaultProximityRadius = 200.0

	// maxConcurrentCoalesce caps outstanding coalesce calls per match.
	maxConcurrentCoalesce = 500

	// partialNumberBoost scales scoredist for partial house-number stacks.
	// Empirical; do not retune without re-ranking fixtures.
	partialNumberBoost = 300.0
)

// coalesceJob is the per-stack state captured by value before the parallel
// fan-out. No job shares mutable state with another.
type coalesceJob struct {
	stack      *Stack
	stackByIdx map[uint16]*core.Phrasematch
	partial    bool
	address    string
	opts       storage.CoalesceOptions
	skip       bool // empty bbox intersection, stack yields nothing
}

// buildJob translates user proximity/bbox options into tile coordinates
// for one rebalanced stack.
func buildJob(stack *Stack, opts *Options) (*coalesceJob, error) {
	job := &coalesceJob{
		stack:      stack,
		stackByIdx: make(map[uint16]*core.Phrasematch, len(stack.Elements)),
	}
	for _, pm := range stack.Elements {
		job.stackByIdx[pm.Idx] = pm
		if job.address == "" && pm.Address != "" {
			job.address = pm.Address
		}
	}

	last := stack.Elements[len(stack.Elements)-1]
	job.partial = last.PartialNumber

	if opts.Proximity != nil {
		maxZoom := stack.Elements[0].Zoom
		for _, pm := range stack.Elements[1:] {
			if pm.Zoom > maxZoom {
				maxZoom = pm.Zoom
			}
		}
		center, err := tile.ProjectToTileXY(opts.Proximity[0], opts.Proximity[1], maxZoom)
		if err != nil {
			return nil, err
		}
		job.opts.CenterZXY = &center
		job.opts.Radius = last.Radius
		if job.opts.Radius == 0 {
			job.opts.Radius = DefaultProximityRadius
		}
	}

	bboxZoom := stack.Elements[0].Zoom
	switch {
	case job.partial && opts.Proximity != nil:
		pnBBox := tile.PartialNumberBBox(opts.Proximity[0], opts.Proximity[1])
		if opts.BBox != nil {
			clipped, ok := tile.Intersection(pnBBox, *opts.BBox)
			if !ok {
				job.skip = true
				return job, nil
			}
			pnBBox = clipped
		}
		r, err := tile.InsideTile(pnBBox, bboxZoom)
		if err != nil {
			return nil, err
		}
		job.opts.BBoxZXY = &r
	case opts.BBox != nil:
		r, err := tile.InsideTile(*opts.BBox, bboxZoom)
		if err != nil {
			return nil, err
		}
		job.opts.BBoxZXY = &r
	}

	return job, nil
}

// layers projects a job's stack into the shape the coalesce primitive
// consumes, in stack (zoom-ascending) order.
func (j *coalesceJob) layers() []storage.CoalesceLayer {
	out := make([]storage.CoalesceLayer, len(j.stack.Elements))
	for i, pm := range j.stack.Elements {
		out[i] = storage.CoalesceLayer{
			Idx:      pm.Idx,
			PhraseID: pm.PhraseID,
			Zoom:     pm.Zoom,
			Weight:   pm.Weight,
			Mask:     pm.Mask,
		}
	}
	return out
}

// idxSet lists the job's index ordinals, for the waste report.
func (j *coalesceJob) idxSet() []uint16 {
	out := make([]uint16, len(j.stack.Elements))
	for i, pm := range j.stack.Elements {
		out[i] = pm.Idx
	}
	return out
}

// runCoalesce fans the jobs out over a bounded worker pool and waits for
// all of them. The first error observed wins; remaining results are
// discarded. Per-job result order mirrors job order.
func (m *SpatialMatcher) runCoalesce(ctx context.Context, jobs []*coalesceJob) ([][]*core.Spatialmatch, error) {
	results := make([][]*core.Spatialmatch, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	size := len(jobs)
	if size > maxConcurrentCoalesce {
		size = maxConcurrentCoalesce
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() { firstErr = err })
	}

	for i, job := range jobs {
		if job.skip {
			continue
		}
		i, job := i, job
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			matches, err := m.coalescer.Coalesce(ctx, job.layers(), job.opts)
			if err != nil {
				fail(fmt.Errorf("%w: %w", ErrCoalesceFailure, err))
				return
			}
			results[i] = wrapMatches(job, matches)
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// wrapMatches lifts cache spatialmatches into result objects, attaching
// per-layer covers from the stack by index id.
func wrapMatches(job *coalesceJob, matches []core.CacheSpatialmatch) []*core.Spatialmatch {
	out := make([]*core.Spatialmatch, 0, len(matches))
	for _, cm := range matches {
		covers := make([]*core.Cover, 0, len(cm.Covers))
		for _, cc := range cm.Covers {
			pm, ok := job.stackByIdx[cc.Idx]
			if !ok {
				continue
			}
			covers = append(covers, newCover(cc, pm))
		}
		if len(covers) == 0 {
			continue
		}

		sm := &core.Spatialmatch{
			Relev:         cm.Relev,
			Covers:        covers,
			PartialNumber: job.partial,
			Address:       job.address,
			Scoredist:     covers[0].Scoredist,
		}
		if sm.PartialNumber {
			sm.Scoredist *= partialNumberBoost
		}
		out = append(out, sm)
	}
	return out
}

// newCover enriches a cache cover with decoded scores and phrasematch
// context.
func newCover(cc core.CacheCover, pm *core.Phrasematch) *core.Cover {
	return &core.Cover{
		X:               cc.X,
		Y:               cc.Y,
		Idx:             cc.Idx,
		ID:              cc.ID,
		TmpID:           cc.TmpID,
		Relev:           cc.Relev,
		Distance:        cc.Distance,
		Score:           core.DecodeScore(float64(cc.Score), pm.Scorefactor),
		Scoredist:       core.DecodeScoredist(cc.Scoredist, pm.Scorefactor),
		MatchesLanguage: cc.MatchesLanguage,
		Text:            subqueryText(pm.Subquery),
		Zoom:            pm.Zoom,
		Prefix:          pm.Prefix,
		Mask:            pm.Mask,
	}
}

func subqueryText(subquery []string) string {
	switch len(subquery) {
	case 0:
		return ""
	case 1:
		return subquery[0]
	}
	text := subquery[0]
	for _, token := range subquery[1:] {
		text += " " + token
	}
	return text
}
