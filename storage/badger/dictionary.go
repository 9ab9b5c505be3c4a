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


package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/storage"
)

// DictionaryRepository implements storage.DictionaryStore for BadgerDB.
type DictionaryRepository struct {
	backend *Backend
}

var _ storage.DictionaryStore = (*DictionaryRepository)(nil)

// NewDictionaryRepository creates a new DictionaryRepository.
func NewDictionaryRepository(backend *Backend) *DictionaryRepository {
	return &DictionaryRepository{
		backend: backend,
	}
}

// Close closes the repository. The backend is owned by the caller.
func (r *DictionaryRepository) Close() error {
	return nil
}

// PutWord stores the phrase postings of a word, replacing any previous.
func (r *DictionaryRepository) PutWord(ctx context.Context, word string, phrases []core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeWordKey(word), storage.MarshalPostings(phrases)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetWord retrieves the phrase postings of a word.
// Returns storage.ErrNotFound for unknown words.
func (r *DictionaryRepository) GetWord(ctx context.Context, word string) ([]core.ID, error) {
	var phrases []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeWordKey(word))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			phrases, err = storage.UnmarshalPostings(val)
			return err
		})
	}, false)
	return phrases, err
}
