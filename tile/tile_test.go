package tile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectToTileXY(t *testing.T) {
	t.Run("origin at zoom 0", func(t *testing.T) {
		zxy, err := ProjectToTileXY(0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, ZXY{Z: 0, X: 0, Y: 0}, zxy)
	})

	t.Run("origin at zoom 1 lands in the southeast quadrant tile", func(t *testing.T) {
		zxy, err := ProjectToTileXY(0.1, -0.1, 1)
		require.NoError(t, err)
		assert.Equal(t, ZXY{Z: 1, X: 1, Y: 1}, zxy)
	})

	t.Run("northwest hemisphere", func(t *testing.T) {
		// Seattle area.
		zxy, err := ProjectToTileXY(-122.33, 47.6, 6)
		require.NoError(t, err)
		assert.Equal(t, uint8(6), zxy.Z)
		assert.Equal(t, uint32(10), zxy.X)
		assert.Equal(t, uint32(22), zxy.Y)
	})

	t.Run("poles clamp instead of overflowing", func(t *testing.T) {
		zxy, err := ProjectToTileXY(0, 90, 4)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), zxy.Y)

		zxy, err = ProjectToTileXY(0, -90, 4)
		require.NoError(t, err)
		assert.Equal(t, uint32(15), zxy.Y)
	})

	t.Run("out of range lon fails", func(t *testing.T) {
		_, err := ProjectToTileXY(200, 0, 4)
		assert.True(t, errors.Is(err, ErrProjectionFailure))
	})
}

func TestInsideTile(t *testing.T) {
	r, err := InsideTile(BBox{-10, -10, 10, 10}, 2)
	require.NoError(t, err)

	assert.Equal(t, uint8(2), r.Z)
	assert.LessOrEqual(t, r.MinX, r.MaxX)
	assert.LessOrEqual(t, r.MinY, r.MaxY)

	// The bbox straddles the origin, so both center tiles are covered.
	assert.Equal(t, uint32(1), r.MinX)
	assert.Equal(t, uint32(2), r.MaxX)
}

func TestRangeContains(t *testing.T) {
	r := Range{Z: 2, MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}

	t.Run("same zoom", func(t *testing.T) {
		assert.True(t, r.Contains(2, 1, 2))
		assert.False(t, r.Contains(2, 3, 3))
	})

	t.Run("higher zoom rescales down", func(t *testing.T) {
		// Tile (4,4) at z3 is inside tile (2,2) at z2.
		assert.True(t, r.Contains(3, 4, 4))
		assert.False(t, r.Contains(3, 0, 0))
	})
}

func TestIntersection(t *testing.T) {
	t.Run("overlapping", func(t *testing.T) {
		got, ok := Intersection(BBox{-10, -10, 10, 10}, BBox{0, 0, 20, 20})
		require.True(t, ok)
		assert.Equal(t, BBox{0, 0, 10, 10}, got)
	})

	t.Run("disjoint", func(t *testing.T) {
		_, ok := Intersection(BBox{-10, -10, -5, -5}, BBox{0, 0, 20, 20})
		assert.False(t, ok)
	})

	t.Run("touching edges still intersect", func(t *testing.T) {
		_, ok := Intersection(BBox{-10, -10, 0, 0}, BBox{0, 0, 20, 20})
		assert.True(t, ok)
	})
}

func TestPartialNumberBBox(t *testing.T) {
	b := PartialNumberBBox(-122.33, 47.6)

	assert.Less(t, b[0], -122.33)
	assert.Greater(t, b[2], -122.33)
	assert.Less(t, b[1], 47.6)
	assert.Greater(t, b[3], 47.6)

	// Latitude extent is fixed by the flat approximation.
	assert.InDelta(t, 20.0/69.0, b[3]-b[1], 1e-9)

	// Longitude extent widens away from the equator.
	eq := PartialNumberBBox(0, 0)
	assert.Greater(t, b[2]-b[0], eq[2]-eq[0])
}

func TestDistance(t *testing.T) {
	center := ZXY{Z: 2, X: 2, Y: 2}

	assert.Equal(t, 0.0, Distance(2, 2, 2, center))
	assert.Equal(t, 5.0, Distance(2, 5, 6, center))

	// Center rescales when the measured tile is at a deeper zoom.
	assert.Equal(t, 4.0, Distance(3, 0, 4, center))
}
