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


package geostack

import (
	"context"
	"iter"
	"log/slog"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/indexer"
	"github.com/poiesic/geostack/spatial"
	"github.com/poiesic/geostack/storage"
	"github.com/poiesic/geostack/storage/badger"
)

// Geocoder ties the grid cache, dictionary and spatial matcher together.
type Geocoder struct {
	backend      *badger.Backend
	grids        *badger.GridRepository
	dict         *badger.DictionaryRepository
	matcher      *spatial.SpatialMatcher
	scorefactors map[uint16]float64
	logger       *slog.Logger
}

// GeocoderOption configures a Geocoder.
type GeocoderOption func(*geocoderOptions)

type geocoderOptions struct {
	inMemory     bool
	scorefactors map[uint16]float64
	logger       *slog.Logger
}

// WithInMemory opens the backing store in memory. Useful for tests and
// one-shot indexing runs that end in a Pack.
func WithInMemory() GeocoderOption {
	return func(o *geocoderOptions) {
		o.inMemory = true
	}
}

// WithScorefactors sets per-index score encode ceilings for indexing.
func WithScorefactors(scorefactors map[uint16]float64) GeocoderOption {
	return func(o *geocoderOptions) {
		o.scorefactors = scorefactors
	}
}

// WithGeocoderLogger sets a custom logger.
// Default is slog.Default().
func WithGeocoderLogger(logger *slog.Logger) GeocoderOption {
	return func(o *geocoderOptions) {
		o.logger = logger
	}
}

// NewGeocoder opens (or creates) the store at filePath and wires the
// matcher over it.
func NewGeocoder(filePath string, opts ...GeocoderOption) (*Geocoder, error) {
	options := &geocoderOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	grids, err := badger.NewGridRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	dictRepo := badger.NewDictionaryRepository(backend)

	matcher, err := spatial.NewSpatialMatcher(grids, spatial.WithLogger(options.logger))
	if err != nil {
		dictRepo.Close()
		grids.Close()
		backend.Close()
		return nil, err
	}

	return &Geocoder{
		backend:      backend,
		grids:        grids,
		dict:         dictRepo,
		matcher:      matcher,
		scorefactors: options.scorefactors,
		logger:       options.logger,
	}, nil
}

// Close releases every owned resource.
func (g *Geocoder) Close() error {
	g.dict.Close()
	g.grids.Close()
	return g.backend.Close()
}

// Index consumes a feature stream into the grid cache and dictionary.
// When base is non-empty the packed cache swaps into <base>.grid.badger
// afterwards.
func (g *Geocoder) Index(ctx context.Context, features iter.Seq[*core.Feature], base string) error {
	pipeline, err := indexer.NewPipeline(g.grids, g.dict,
		indexer.WithScorefactors(g.scorefactors),
		indexer.WithLogger(g.logger))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	if base == "" {
		return pipeline.Run(ctx, features)
	}
	return pipeline.RunAndPack(ctx, features, base)
}

// Spatialmatch stacks and coalesces phrasematch candidates for one query.
func (g *Geocoder) Spatialmatch(ctx context.Context, query []string, phrasematchResults []*core.PhrasematchResult, opts spatial.Options) (*spatial.Result, error) {
	return g.matcher.Match(ctx, query, phrasematchResults, opts)
}

// Grids exposes the grid store, primarily for diagnostics.
func (g *Geocoder) Grids() storage.GridStore {
	return g.grids
}

// Dictionary exposes the dictionary store, primarily for diagnostics.
func (g *Geocoder) Dictionary() storage.DictionaryStore {
	return g.dict
}
