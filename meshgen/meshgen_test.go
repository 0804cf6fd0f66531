package meshgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-haus/pixelworld/chunk"
)

func squareSampler(minX, minY, maxX, maxY int) SolidSampler {
	return func(wx, wy int) bool {
		return wx >= minX && wx < maxX && wy >= minY && wy < maxY
	}
}

func TestMarchingSquaresEmptyTileProducesNoPolygons(t *testing.T) {
	sample := func(wx, wy int) bool { return false }
	polys := MarchingSquares(0, 0, 8, sample)
	assert.Empty(t, polys)
}

func TestMarchingSquaresFullTileProducesNoInteriorContour(t *testing.T) {
	sample := func(wx, wy int) bool { return true }
	polys := MarchingSquares(0, 0, 8, sample)
	assert.Empty(t, polys)
}

func TestMarchingSquaresSolidBlockProducesClosedPolygon(t *testing.T) {
	sample := squareSampler(2, 2, 6, 6)
	polys := MarchingSquares(0, 0, 8, sample)
	require.NotEmpty(t, polys)
	for _, p := range polys {
		assert.GreaterOrEqual(t, len(p), 3)
	}
}

func TestDouglasPeuckerCollapsesCollinearPoints(t *testing.T) {
	poly := Polygon{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {3, 3}, {0, 3}}
	simplified := DouglasPeucker(poly, 0.5)
	assert.Less(t, len(simplified), len(poly))
}

func TestFanTriangulateSquare(t *testing.T) {
	tris := FanTriangulate(4)
	require.Len(t, tris, 2)
	assert.Equal(t, Triangle{0, 1, 2}, tris[0])
	assert.Equal(t, Triangle{0, 2, 3}, tris[1])
}

func TestFanTriangulateDegenerate(t *testing.T) {
	assert.Nil(t, FanTriangulate(2))
}

func TestGenerateSolidBlockYieldsMesh(t *testing.T) {
	sample := squareSampler(1, 1, 5, 5)
	mesh := Generate(0, 0, 6, sample, 0.6)
	require.NotNil(t, mesh)
	assert.NotEmpty(t, mesh.Triangles)
}

func TestCacheInvalidateAndComplete(t *testing.T) {
	c := NewCache()
	key := Key{Chunk: chunk.Coord{CX: 1, CY: 2}, TX: 0, TY: 0}

	gen := c.Invalidate(key)
	assert.True(t, c.NeedsGeneration(key))

	accepted := c.Complete(key, &Mesh{}, gen)
	assert.True(t, accepted)
	assert.NotNil(t, c.Get(key))
	assert.False(t, c.NeedsGeneration(key))

	// A stale completion (older generation) must be discarded.
	newGen := c.Invalidate(key)
	assert.NotEqual(t, gen, newGen)
	stale := c.Complete(key, &Mesh{}, gen)
	assert.False(t, stale)
}

func TestCacheEvictOutOfWindow(t *testing.T) {
	c := NewCache()
	key := Key{Chunk: chunk.Coord{CX: 0, CY: 0}, TX: 0, TY: 0}
	gen := c.Invalidate(key)
	c.Complete(key, &Mesh{}, gen)

	evicted := c.EvictOutOfWindow()
	assert.Empty(t, evicted)

	c.MarkOutOfWindow(key)
	evicted = c.EvictOutOfWindow()
	assert.Equal(t, []Key{key}, evicted)
	assert.Nil(t, c.Get(key))
}

type fakeSleeper struct {
	minX, minY, maxX, maxY int
	woke                   bool
}

func (f *fakeSleeper) AABB() (int, int, int, int) { return f.minX, f.minY, f.maxX, f.maxY }
func (f *fakeSleeper) Wake()                      { f.woke = true }

func TestWakeOverlappingWakesOnlyOverlapping(t *testing.T) {
	inside := &fakeSleeper{minX: 1, minY: 1, maxX: 3, maxY: 3}
	outside := &fakeSleeper{minX: 100, minY: 100, maxX: 110, maxY: 110}

	WakeOverlapping([]Sleeper{inside, outside}, 0, 0, 8, 8)
	assert.True(t, inside.woke)
	assert.False(t, outside.woke)
}
