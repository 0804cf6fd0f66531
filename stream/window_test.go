package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-haus/pixelworld/canvas"
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/pool"
	"github.com/api-haus/pixelworld/pxerr"
)

type nopSeeder struct{}

func (nopSeeder) Seed(c *chunk.Chunk) error { return nil }

type missStore struct{}

func (missStore) Load(coord chunk.Coord, c *chunk.Chunk) error { return pxerr.ErrStoreMiss }

// flakyStore fails the first lookup for each coordinate with a transient,
// non-Miss error, then succeeds on every subsequent lookup.
type flakyStore struct {
	failedOnce map[chunk.Coord]bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{failedOnce: make(map[chunk.Coord]bool)}
}

func (s *flakyStore) Load(coord chunk.Coord, c *chunk.Chunk) error {
	if !s.failedOnce[coord] {
		s.failedOnce[coord] = true
		return pxerr.ErrIoTransient
	}
	return pxerr.ErrStoreMiss
}

func newTestWindow(capacity int) (*Window, *canvas.Canvas, *pool.Pool) {
	cv := canvas.New(16, 4)
	p, err := pool.New(capacity, 16, 4)
	if err != nil {
		panic(err)
	}
	w := New(cv, p, nopSeeder{}, missStore{}, nil, Config{Width: 2, Height: 2, Margin: 1, HysteresisFrames: 2})
	return w, cv, p
}

func TestWindowLoadsChunksIntoExpandedWindow(t *testing.T) {
	w, cv, _ := newTestWindow(64)
	w.Retick(0, 0)
	w.Retick(0, 0)

	assert.Greater(t, cv.Len(), 0)
	assert.Equal(t, Active, w.StateOf(chunk.Coord{CX: 0, CY: 0}))
}

func TestWindowDefersLoadingOnPoolExhaustion(t *testing.T) {
	w, _, p := newTestWindow(1)
	w.Retick(0, 0)
	// Only one chunk could be acquired; everything else stays Absent/queued.
	assert.Equal(t, 1, p.InUse())

	absentCount := 0
	w.mu.Lock()
	for _, e := range w.entries {
		if e.state == Absent {
			absentCount++
		}
	}
	total := len(w.entries)
	w.mu.Unlock()
	assert.Greater(t, total, 1)
	assert.Greater(t, absentCount, 0)
}

func TestWindowRecyclesChunksThatLeaveHysteresisWindow(t *testing.T) {
	w, cv, p := newTestWindow(64)
	w.Retick(0, 0)
	w.Retick(0, 0)
	require.Equal(t, Active, w.StateOf(chunk.Coord{CX: 0, CY: 0}))

	before := p.Available()
	// Move the viewpoint far away and retick past the hysteresis window.
	for i := 0; i < 5; i++ {
		w.Retick(1000, 1000)
	}

	assert.False(t, cv.Resident(chunk.Coord{CX: 0, CY: 0}))
	assert.GreaterOrEqual(t, p.Available(), before)
}

func TestWindowRetriesLoadAfterTransientStoreError(t *testing.T) {
	cv := canvas.New(16, 4)
	p, err := pool.New(64, 16, 4)
	require.NoError(t, err)
	store := newFlakyStore()
	w := New(cv, p, nopSeeder{}, store, nil, Config{Width: 0, Height: 0, Margin: 0, HysteresisFrames: 1})

	coord := chunk.Coord{CX: 0, CY: 0}

	w.Retick(0, 0)
	require.Equal(t, Absent, w.StateOf(coord), "first retick's load fails transiently and must not be abandoned")

	w.Retick(0, 0)
	assert.Equal(t, Active, w.StateOf(coord), "the same coordinate must be retried, not stranded, on the next retick")
	assert.True(t, cv.Resident(coord))
}

func TestWindowReenteringCancelsPendingRecycle(t *testing.T) {
	w, cv, _ := newTestWindow(64)
	w.Retick(0, 0)
	w.Retick(0, 0)
	require.True(t, cv.Resident(chunk.Coord{CX: 0, CY: 0}))

	// Drive outsideFrames past the hysteresis window (HysteresisFrames=2)
	// without yet calling the retick that would finalize the recycle.
	w.Retick(1000, 1000)
	w.Retick(1000, 1000)
	w.Retick(1000, 1000)
	require.Equal(t, Recycling, w.StateOf(chunk.Coord{CX: 0, CY: 0}))
	require.True(t, cv.Resident(chunk.Coord{CX: 0, CY: 0}))

	w.Retick(0, 0)

	assert.Equal(t, Active, w.StateOf(chunk.Coord{CX: 0, CY: 0}))
	assert.True(t, cv.Resident(chunk.Coord{CX: 0, CY: 0}))
}
