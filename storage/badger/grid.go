package badger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/storage"
)

// GridSuffix is appended to the index base name by Pack.
const GridSuffix = ".grid.badger"

// GridRepository implements storage.GridStore for BadgerDB. It also
// implements storage.Coalescer over the entries it holds; see coalesce.go.
type GridRepository struct {
	backend *Backend

	mu      sync.Mutex
	writing bool
	pending map[string]pendingGrid
}

type pendingGrid struct {
	idx     uint16
	phrase  core.ID
	entries []core.GridEntry
}

var _ storage.GridStore = (*GridRepository)(nil)

// NewGridRepository creates a new GridRepository.
func NewGridRepository(backend *Backend) (*GridRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &GridRepository{backend: backend}, nil
}

// Close closes the repository. The backend is owned by the caller.
func (r *GridRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writing {
		r.writing = false
		r.pending = nil
	}
	return nil
}

// StartWriting opens a write window.
func (r *GridRepository) StartWriting() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if r.writing {
		return storage.ErrAlreadyWriting
	}
	r.writing = true
	r.pending = make(map[string]pendingGrid)
	return nil
}

// StopWriting flushes buffered grid entries and closes the write window.
// Buffered entries are merged with any already stored for their key.
func (r *GridRepository) StopWriting() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.writing {
		return storage.ErrNotWriting
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for key, pg := range r.pending {
			existing, err := readGridEntries(tx, []byte(key))
			if err != nil {
				return err
			}
			merged := append(existing, pg.entries...)
			if err := tx.Set([]byte(key), storage.MarshalGridEntries(merged)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	r.writing = false
	r.pending = nil
	return err
}

// Commit makes all writes since the last commit durable.
func (r *GridRepository) Commit(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writing {
		return storage.ErrAlreadyWriting
	}
	return r.backend.Sync()
}

// AddGridEntries buffers grid entries for a (index, phrase) pair.
func (r *GridRepository) AddGridEntries(ctx context.Context, idx uint16, phrase core.ID, entries ...core.GridEntry) error {
	if idx >= core.MaxIndexes {
		return core.ErrIndexOutOfRange
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.writing {
		return storage.ErrNotWriting
	}

	key := string(makeGridKey(idx, phrase))
	pg := r.pending[key]
	pg.idx = idx
	pg.phrase = phrase
	pg.entries = append(pg.entries, entries...)
	r.pending[key] = pg
	return nil
}

// GetGridEntries retrieves all grid entries for a (index, phrase) pair.
func (r *GridRepository) GetGridEntries(ctx context.Context, idx uint16, phrase core.ID) ([]core.GridEntry, error) {
	if idx >= core.MaxIndexes {
		return nil, core.ErrIndexOutOfRange
	}

	var entries []core.GridEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		entries, err = readGridEntries(tx, makeGridKey(idx, phrase))
		return err
	}, false)
	return entries, err
}

func readGridEntries(tx *badger.Txn, key []byte) ([]core.GridEntry, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []core.GridEntry
	err = item.Value(func(val []byte) error {
		var err error
		entries, err = storage.UnmarshalGridEntries(val)
		return err
	})
	return entries, err
}

// PutFeature stores feature metadata.
func (r *GridRepository) PutFeature(ctx context.Context, f *core.Feature) error {
	if err := core.ValidateFeature(f); err != nil {
		return err
	}

	r.mu.Lock()
	writing := r.writing
	r.mu.Unlock()
	if !writing {
		return storage.ErrNotWriting
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFeatureKey(f.Idx, f.ID), storage.MarshalFeature(f)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetFeature retrieves feature metadata.
func (r *GridRepository) GetFeature(ctx context.Context, idx uint16, id uint32) (*core.Feature, error) {
	var feature *core.Feature
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFeatureKey(idx, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			feature, err = storage.UnmarshalFeature(val)
			return err
		})
	}, false)
	return feature, err
}

// Pack swaps the cache into <base>.grid.badger under a temp-move-clobber
// discipline: the copy lands in a temp directory, any previous pack is
// removed, and the temp directory is renamed into place. The rename itself
// is atomic; between the removal and the rename no pack exists at the
// target path.
func (r *GridRepository) Pack(ctx context.Context, base string) error {
	r.mu.Lock()
	if r.writing {
		r.mu.Unlock()
		return storage.ErrAlreadyWriting
	}
	r.mu.Unlock()

	target := base + GridSuffix
	tmp := target + ".tmp"

	if err := os.RemoveAll(tmp); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if err := r.backend.CopyTo(tmp); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	return os.Rename(tmp, target)
}
