package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseOfPartitionsAdjacentTiles(t *testing.T) {
	assert.Equal(t, PhaseA, Of(0, 0))
	assert.Equal(t, PhaseB, Of(1, 0))
	assert.Equal(t, PhaseC, Of(0, 1))
	assert.Equal(t, PhaseD, Of(1, 1))
	// Same phase only recurs at a distance of 2 on a given axis.
	assert.Equal(t, Of(0, 0), Of(2, 0))
	assert.NotEqual(t, Of(0, 0), Of(1, 0))
}

func TestNewTileStartsFullyDirty(t *testing.T) {
	tl := NewTile(0, 0, 8)
	assert.False(t, tl.Current.Empty())
	assert.Equal(t, Full(8), tl.Current)
}

func TestBeginGrowEndPassCycle(t *testing.T) {
	tl := NewTile(0, 0, 8)
	tl.BeginPass()
	assert.False(t, tl.Current.Empty()) // BeginPass only resets next, not Current

	tl.Grow(2, 3)
	tl.Grow(5, 1)
	tl.EndPass()

	assert.Equal(t, int16(2), tl.Current.MinX)
	assert.Equal(t, int16(1), tl.Current.MinY)
	assert.Equal(t, int16(5), tl.Current.MaxX)
	assert.Equal(t, int16(3), tl.Current.MaxY)
}

func TestEndPassWithNoGrowProducesEmptyCurrent(t *testing.T) {
	tl := NewTile(0, 0, 8)
	tl.BeginPass()
	tl.EndPass()
	assert.True(t, tl.Current.Empty())
}

func TestResetRestoresFullDirty(t *testing.T) {
	tl := NewTile(0, 0, 8)
	tl.BeginPass()
	tl.EndPass()
	assertCurrentEmpty(t, tl)

	tl.Reset(8)
	assert.Equal(t, Full(8), tl.Current)
}

func assertCurrentEmpty(t *testing.T, tl Tile) {
	t.Helper()
	assert.True(t, tl.Current.Empty())
}

func TestAABBUnionRect(t *testing.T) {
	a := EmptyAABB
	a = a.UnionRect(1, 1, 3, 3)
	assert.Equal(t, AABB{MinX: 1, MinY: 1, MaxX: 3, MaxY: 3}, a)

	a = a.UnionRect(5, 5, 4, 4) // inverted rect, no-op
	assert.Equal(t, AABB{MinX: 1, MinY: 1, MaxX: 3, MaxY: 3}, a)
}
