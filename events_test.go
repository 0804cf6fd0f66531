package pixelworld

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/api-haus/pixelworld/chunk"
)

func TestEventBusDeliversInOrder(t *testing.T) {
	b := newEventBus()
	b.Emit(ChunkLoaded{Coord: chunk.Coord{CX: 1, CY: 2}})
	b.Emit(ChunkUnloaded{Coord: chunk.Coord{CX: 3, CY: 4}})

	first := <-b.Events()
	second := <-b.Events()

	assert.Equal(t, ChunkLoaded{Coord: chunk.Coord{CX: 1, CY: 2}}, first)
	assert.Equal(t, ChunkUnloaded{Coord: chunk.Coord{CX: 3, CY: 4}}, second)
}

func TestEventBusDropsOldestWhenFull(t *testing.T) {
	b := newEventBus()
	for i := 0; i < eventBusCapacity; i++ {
		b.Emit(ChunkLoaded{Coord: chunk.Coord{CX: int32(i), CY: 0}})
	}
	// One more than capacity: the oldest (CX=0) must be evicted to admit it.
	b.Emit(ChunkLoaded{Coord: chunk.Coord{CX: 999, CY: 0}})

	assert.Len(t, b.ch, eventBusCapacity)

	first := (<-b.Events()).(ChunkLoaded)
	assert.Equal(t, int32(1), first.Coord.CX, "oldest event should have been dropped")
}
