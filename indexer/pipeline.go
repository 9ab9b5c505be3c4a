package indexer

import (
	"context"
	"iter"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/dict"
	"github.com/poiesic/geostack/storage"
)

const (
	// DefaultBatchSize is the number of features buffered before a flush.
	DefaultBatchSize = 10000

	writeAttempts  = 3
	writeRetryWait = 100 * time.Millisecond
)

// retryWrite reattempts a store operation that can fail transiently
// (badger rejects flushes during compaction), doubling the wait between
// attempts.
func retryWrite(ctx context.Context, op func() error) error {
	wait := writeRetryWait
	var err error
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}

// Pipeline orchestrates feature ingest: it batches the incoming stream,
// runs the tokenize/frequency pass, writes grid entries into the cache and
// word entries into the dictionary writer, then packs and commits.
type Pipeline struct {
	grids     storage.GridStore
	dictStore storage.DictionaryStore
	writer    *dict.Writer
	proc      *processor
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger

	mu        sync.Mutex
	wordFreq  map[string]int
	processed int
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the flush threshold. Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithScorefactors sets per-index score encode ceilings.
// Default is DefaultScorefactor for every index.
func WithScorefactors(scorefactors map[uint16]float64) Option {
	return func(p *Pipeline) error {
		p.proc.scorefactors = scorefactors
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(grids storage.GridStore, dictStore storage.DictionaryStore, opts ...Option) (*Pipeline, error) {
	if grids == nil {
		return nil, ErrGridStoreRequired
	}
	if dictStore == nil {
		return nil, ErrDictionaryStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		grids:     grids,
		dictStore: dictStore,
		writer:    dict.NewWriter(),
		proc:      &processor{},
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
		wordFreq:  make(map[string]int),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// WordFrequency reports how often a word occurred across processed names.
func (p *Pipeline) WordFrequency(word string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wordFreq[word]
}

// Processed reports the number of features successfully processed.
func (p *Pipeline) Processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// Run consumes the feature stream, flushing batches of up to the batch
// size into the grid cache, then flushes the dictionary and commits the
// store. The grid store's write window is held for the whole run.
func (p *Pipeline) Run(ctx context.Context, features iter.Seq[*core.Feature]) error {
	if err := p.grids.StartWriting(); err != nil {
		return err
	}

	var runErr error
	batch := make([]*core.Feature, 0, p.batchSize)
	for f := range features {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		batch = append(batch, f)
		if len(batch) >= p.batchSize {
			if err := p.flush(ctx, batch); err != nil {
				runErr = err
				break
			}
			batch = batch[:0]
		}
	}
	if runErr == nil && len(batch) > 0 {
		runErr = p.flush(ctx, batch)
	}

	if runErr == nil {
		runErr = p.writer.Flush(ctx, p.dictStore)
	}

	// The write window closes even on a failed or cancelled run.
	stopErr := retryWrite(context.WithoutCancel(ctx), p.grids.StopWriting)
	if runErr != nil {
		return runErr
	}
	if stopErr != nil {
		return stopErr
	}

	return retryWrite(ctx, func() error { return p.grids.Commit(ctx) })
}

// RunAndPack runs the pipeline, then swaps the packed cache into
// <base>.grid.badger.
func (p *Pipeline) RunAndPack(ctx context.Context, features iter.Seq[*core.Feature], base string) error {
	if err := p.Run(ctx, features); err != nil {
		return err
	}
	return p.grids.Pack(ctx, base)
}

// flush processes one batch: the tokenize pass fans out over the worker
// pool, then grid entries and feature metadata land in the store.
func (p *Pipeline) flush(ctx context.Context, batch []*core.Feature) error {
	writes := make([]*gridWrite, len(batch))

	var (
		wg       sync.WaitGroup
		once     sync.Once
		procErr  error
	)
	for i, f := range batch {
		i, f := i, f
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			w, err := p.proc.process(f)
			if err != nil {
				once.Do(func() { procErr = err })
				return
			}
			writes[i] = w
		})
		if err != nil {
			wg.Done()
			once.Do(func() { procErr = err })
			break
		}
	}
	wg.Wait()
	if procErr != nil {
		return procErr
	}

	// Word entries and frequencies are in-memory; store writes go below.
	p.mu.Lock()
	for _, w := range writes {
		for _, token := range w.tokens {
			p.wordFreq[token]++
		}
		p.processed++
	}
	p.mu.Unlock()
	for _, w := range writes {
		for _, token := range w.tokens {
			p.writer.Add(token, w.phrase)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, w := range writes {
			if err := p.grids.AddGridEntries(gctx, w.idx, w.phrase, w.entry); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, w := range writes {
			if err := p.grids.PutFeature(gctx, w.feature); err != nil {
				return err
			}
		}
		return nil
	})
	return g.Wait()
}
