// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/tile"
)

// GridStore provides access to the tile grid cache. Reads are allowed at any
// time; writes only between StartWriting and StopWriting, and become durable
// on Commit. The indexer is the only writer; query evaluation is read-only.
type GridStore interface {
	// StartWriting opens a write window.
	// Returns ErrAlreadyWriting if one is already open.
	StartWriting() error

	// StopWriting closes the write window, flushing buffered writes.
	StopWriting() error

	// Commit makes all writes since the last commit durable.
	Commit(ctx context.Context) error

	// AddGridEntries appends grid entries for a (index, phrase) pair.
	// Returns ErrNotWriting outside a write window.
	AddGridEntries(ctx context.Context, idx uint16, phrase core.ID, entries ...core.GridEntry) error

	// GetGridEntries retrieves all grid entries for a (index, phrase) pair.
	// A phrase with no entries yields an empty slice, not an error.
	GetGridEntries(ctx context.Context, idx uint16, phrase core.ID) ([]core.GridEntry, error)

	// PutFeature stores feature metadata for debugging and result assembly.
	PutFeature(ctx context.Context, f *core.Feature) error

	// GetFeature retrieves feature metadata.
	// Returns ErrNotFound if the feature doesn't exist.
	GetFeature(ctx context.Context, idx uint16, id uint32) (*core.Feature, error)

	// Pack swaps the cache into its final on-disk location under a
	// temp-move-clobber discipline. The store must not be mid-write.
	Pack(ctx context.Context, base string) error

	// Close closes the store and releases resources.
	Close() error
}

// DictionaryStore persists word entries written by the dictionary writer.
type DictionaryStore interface {
	// PutWord stores the phrase postings of a word, replacing any previous.
	PutWord(ctx context.Context, word string, phrases []core.ID) error

	// GetWord retrieves the phrase postings of a word.
	// Returns ErrNotFound for unknown words.
	GetWord(ctx context.Context, word string) ([]core.ID, error)

	// Close closes the store and releases resources.
	Close() error
}

// CoalesceLayer is one stack element as seen by the coalesce primitive.
type CoalesceLayer struct {
	Idx      uint16
	PhraseID core.ID
	Zoom     uint8
	Weight   float64
	Mask     uint32
}

// CoalesceOptions carries the tile-space constraints of a coalesce call.
type CoalesceOptions struct {
	CenterZXY *tile.ZXY
	Radius    float64
	BBoxZXY   *tile.Range
}

// Coalescer intersects tile covers across the layers of a stack.
// Results come back sorted by relev desc, scoredist desc. An empty result
// is not an error.
type Coalescer interface {
	Coalesce(ctx context.Context, layers []CoalesceLayer, opts CoalesceOptions) ([]core.CacheSpatialmatch, error)
}
