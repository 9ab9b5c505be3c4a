package badger

import (
	"context"
	"sort"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/storage"
	"github.com/poiesic/geostack/tile"
)

// coalesceTruncate caps results returned per coalesce call.
const coalesceTruncate = 40

var _ storage.Coalescer = (*GridRepository)(nil)

// Coalesce intersects tile covers across the layers of a stack. Layers are
// expected in zoom-ascending order; the deepest layer anchors the
// intersection. Results come back sorted by relev desc, scoredist desc.
func (r *GridRepository) Coalesce(ctx context.Context, layers []storage.CoalesceLayer, opts storage.CoalesceOptions) ([]core.CacheSpatialmatch, error) {
	if len(layers) == 0 {
		return nil, nil
	}
	if len(layers) == 1 {
		return r.coalesceSingle(ctx, layers[0], opts)
	}
	return r.coalesceMulti(ctx, layers, opts)
}

func (r *GridRepository) coalesceSingle(ctx context.Context, layer storage.CoalesceLayer, opts storage.CoalesceOptions) ([]core.CacheSpatialmatch, error) {
	entries, err := r.GetGridEntries(ctx, layer.Idx, layer.PhraseID)
	if err != nil {
		return nil, err
	}

	covers := make([]core.CacheCover, 0, len(entries))
	for _, e := range entries {
		cover, ok := makeCover(layer, e, opts)
		if !ok {
			continue
		}
		covers = append(covers, cover)
	}
	sortCovers(covers)
	if len(covers) > coalesceTruncate {
		covers = covers[:coalesceTruncate]
	}

	out := make([]core.CacheSpatialmatch, len(covers))
	for i, cover := range covers {
		out[i] = core.CacheSpatialmatch{Relev: cover.Relev, Covers: []core.CacheCover{cover}}
	}
	return out, nil
}

func (r *GridRepository) coalesceMulti(ctx context.Context, layers []storage.CoalesceLayer, opts storage.CoalesceOptions) ([]core.CacheSpatialmatch, error) {
	// The deepest layer anchors the intersection.
	anchor := 0
	for i, layer := range layers {
		if layer.Zoom > layers[anchor].Zoom {
			anchor = i
		}
	}

	entriesByLayer := make([][]core.GridEntry, len(layers))
	for i, layer := range layers {
		entries, err := r.GetGridEntries(ctx, layer.Idx, layer.PhraseID)
		if err != nil {
			return nil, err
		}
		entriesByLayer[i] = entries
	}

	var out []core.CacheSpatialmatch
	for _, e := range entriesByLayer[anchor] {
		anchorCover, ok := makeCover(layers[anchor], e, opts)
		if !ok {
			continue
		}

		covers := []core.CacheCover{anchorCover}
		relev := anchorCover.Relev
		matched := true
		for i, layer := range layers {
			if i == anchor {
				continue
			}
			parent, ok := matchParent(layers[anchor].Zoom, e.X, e.Y, layer, entriesByLayer[i])
			if !ok {
				matched = false
				break
			}
			cover, ok := makeCover(layer, parent, opts)
			if !ok {
				matched = false
				break
			}
			covers = append(covers, cover)
			relev += cover.Relev
		}
		if !matched {
			continue
		}

		// Deepest layer leads; the rest follow by zoom descending.
		rest := covers[1:]
		sort.SliceStable(rest, func(i, j int) bool {
			if az, bz := layerZoom(layers, rest[i].Idx), layerZoom(layers, rest[j].Idx); az != bz {
				return az > bz
			}
			return rest[i].Idx > rest[j].Idx
		})

		out = append(out, core.CacheSpatialmatch{Relev: relev, Covers: covers})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Relev != b.Relev {
			return a.Relev > b.Relev
		}
		return a.Covers[0].Scoredist > b.Covers[0].Scoredist
	})
	if len(out) > coalesceTruncate {
		out = out[:coalesceTruncate]
	}
	return out, nil
}

// sortCovers orders single-layer covers best-first with a deterministic
// final ID tiebreak.
func sortCovers(covers []core.CacheCover) {
	sort.SliceStable(covers, func(i, j int) bool {
		a, b := covers[i], covers[j]
		if a.Relev != b.Relev {
			return a.Relev > b.Relev
		}
		if a.Scoredist != b.Scoredist {
			return a.Scoredist > b.Scoredist
		}
		return a.ID < b.ID
	})
}

// matchParent finds the best entry of a shallower layer covering the
// anchor tile once rescaled.
func matchParent(anchorZoom uint8, x, y uint32, layer storage.CoalesceLayer, entries []core.GridEntry) (core.GridEntry, bool) {
	px, py := x, y
	if anchorZoom > layer.Zoom {
		shift := anchorZoom - layer.Zoom
		px >>= shift
		py >>= shift
	}

	var best core.GridEntry
	found := false
	for _, e := range entries {
		if e.X != px || e.Y != py {
			continue
		}
		if !found || e.Relev > best.Relev || (e.Relev == best.Relev && e.Score > best.Score) {
			best = e
			found = true
		}
	}
	return best, found
}

func layerZoom(layers []storage.CoalesceLayer, idx uint16) uint8 {
	for _, layer := range layers {
		if layer.Idx == idx {
			return layer.Zoom
		}
	}
	return 0
}

// makeCover builds a cache cover for one grid entry, applying the bbox
// filter and proximity scoring. Returns false when the entry is excluded.
func makeCover(layer storage.CoalesceLayer, e core.GridEntry, opts storage.CoalesceOptions) (core.CacheCover, bool) {
	if opts.BBoxZXY != nil && !opts.BBoxZXY.Contains(layer.Zoom, e.X, e.Y) {
		return core.CacheCover{}, false
	}

	cover := core.CacheCover{
		X:               e.X,
		Y:               e.Y,
		Idx:             layer.Idx,
		ID:              e.ID,
		TmpID:           core.TmpID(layer.Idx, e.ID),
		Relev:           layer.Weight * e.Relev,
		Score:           e.Score,
		MatchesLanguage: true,
	}

	if opts.CenterZXY != nil {
		cover.Distance = tile.Distance(layer.Zoom, e.X, e.Y, *opts.CenterZXY)
		cover.Scoredist = proximityScoredist(e.Score, cover.Distance, opts.Radius)
	} else {
		cover.Scoredist = float64(e.Score)
	}

	return cover, true
}

// proximityScoredist scales a raw score by closeness to the proximity
// point. The result can exceed the 3-bit range; the spatialmatch layer
// decodes such values linearly.
func proximityScoredist(score uint8, distance, radius float64) float64 {
	base := float64(score)
	if base < 1 {
		base = 1
	}
	scale := radius / (distance + 1)
	if scale < 1 {
		scale = 1
	}
	if scale > 8 {
		scale = 8
	}
	return base * scale
}
