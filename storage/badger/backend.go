package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Backend wraps the BadgerDB instance holding the grid cache. It exposes
// only what the repositories need: transactions, durability, and the
// whole-store copy behind Pack.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogAdapter routes badger's printf-style logging into slog.
type slogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

func (a slogAdapter) logf(level slog.Level, format string, args ...any) {
	if level >= a.level {
		a.logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
	}
}

func (a slogAdapter) Errorf(format string, args ...any)   { a.logf(slog.LevelError, format, args...) }
func (a slogAdapter) Warningf(format string, args ...any) { a.logf(slog.LevelWarn, format, args...) }
func (a slogAdapter) Infof(format string, args ...any)    { a.logf(slog.LevelInfo, format, args...) }
func (a slogAdapter) Debugf(format string, args ...any)   { a.logf(slog.LevelDebug, format, args...) }

var _ badger.Logger = slogAdapter{}

func backendOptions(path string, inMemory bool, logger *slog.Logger) badger.Options {
	if inMemory {
		path = ""
	}
	return badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithCompression(options.None).
		WithLogger(slogAdapter{logger: logger, level: slog.LevelWarn})
}

// OpenBackend opens the store at path, creating the directory if needed.
// With inMemory set, path is ignored and nothing touches disk.
func OpenBackend(path string, inMemory bool) (*Backend, error) {
	logger := slog.Default()

	if !inMemory {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, err
		}
	}

	db, err := badger.Open(backendOptions(path, inMemory, logger))
	if err != nil {
		return nil, err
	}

	return &Backend{db: db, logger: logger}, nil
}

// Close closes the underlying store.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether the store has been closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn inside a transaction, read-write when isWrite is set.
// The transaction is discarded unless fn committed it.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// Sync flushes pending writes to disk. A no-op for in-memory stores.
func (b *Backend) Sync() error {
	if b.db.Opts().InMemory {
		return nil
	}
	return b.db.Sync()
}

// CopyTo streams every key/value pair into a fresh store at dstPath,
// which must not already exist. Pack's temp-move-clobber swap builds on
// this.
func (b *Backend) CopyTo(dstPath string) error {
	dst, err := badger.Open(backendOptions(dstPath, false, b.logger))
	if err != nil {
		return err
	}

	err = b.db.View(func(tx *badger.Txn) error {
		batch := dst.NewWriteBatch()
		defer batch.Cancel()

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := batch.Set(item.KeyCopy(nil), value); err != nil {
				return err
			}
		}
		return batch.Flush()
	})
	if err != nil {
		dst.Close()
		return err
	}

	return dst.Close()
}
