package dict

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/storage"
)

// Writer accumulates word entries during indexing and flushes them into a
// dictionary store. Words map to the set of phrase IDs they occur in.
type Writer struct {
	mu     sync.Mutex
	trie   *patricia.Trie
	words  int
	logger *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
	}
}

// NewWriter creates an empty dictionary writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		trie:   patricia.NewTrie(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add records that word occurs in phrase. Duplicate postings collapse.
func (w *Writer) Add(word string, phrase core.ID) {
	if word == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	key := patricia.Prefix(word)
	if item := w.trie.Get(key); item != nil {
		postings := item.([]core.ID)
		if slices.Contains(postings, phrase) {
			return
		}
		w.trie.Set(key, append(postings, phrase))
		return
	}
	w.trie.Insert(key, []core.ID{phrase})
	w.words++
}

// Lookup returns the postings of an exact word, or nil.
func (w *Writer) Lookup(word string) []core.ID {
	w.mu.Lock()
	defer w.mu.Unlock()

	item := w.trie.Get(patricia.Prefix(word))
	if item == nil {
		return nil
	}
	return slices.Clone(item.([]core.ID))
}

// LookupPrefix returns every word under a prefix with its postings.
func (w *Writer) LookupPrefix(prefix string) map[string][]core.ID {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string][]core.ID)
	err := w.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		out[string(p)] = slices.Clone(item.([]core.ID))
		return nil
	})
	if err != nil {
		w.logger.Error("error visiting trie subtree", "prefix", prefix, "err", err)
	}
	return out
}

// Words returns the number of distinct words recorded.
func (w *Writer) Words() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.words
}

// Flush writes every word entry into the store.
func (w *Writer) Flush(ctx context.Context, store storage.DictionaryStore) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		return store.PutWord(ctx, string(p), item.([]core.ID))
	})
}
