package dict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/storage/badger"
)

func TestWriterAddLookup(t *testing.T) {
	w := NewWriter()

	main := core.IDFromContent("main st")
	ave := core.IDFromContent("main ave")

	w.Add("main", main)
	w.Add("main", ave)
	w.Add("main", main) // duplicate collapses
	w.Add("st", main)

	assert.Equal(t, 2, w.Words())
	assert.Equal(t, []core.ID{main, ave}, w.Lookup("main"))
	assert.Equal(t, []core.ID{main}, w.Lookup("st"))
	assert.Nil(t, w.Lookup("absent"))
}

func TestWriterEmptyWordIgnored(t *testing.T) {
	w := NewWriter()
	w.Add("", 1)
	assert.Equal(t, 0, w.Words())
}

func TestWriterLookupPrefix(t *testing.T) {
	w := NewWriter()
	w.Add("spring", 1)
	w.Add("springfield", 2)
	w.Add("spruce", 3)

	got := w.LookupPrefix("spring")
	assert.Len(t, got, 2)
	assert.Contains(t, got, "spring")
	assert.Contains(t, got, "springfield")
}

func TestWriterFlush(t *testing.T) {
	_, dictRepo, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { dictRepo.Close(); backend.Close() }()

	w := NewWriter()
	w.Add("main", 1)
	w.Add("main", 2)
	w.Add("st", 1)

	ctx := context.Background()
	require.NoError(t, w.Flush(ctx, dictRepo))

	got, err := dictRepo.GetWord(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []core.ID{1, 2}, got)
}
