// Package pool implements the fixed-count chunk object pool (spec §4.1):
// every chunk buffer is allocated once at construction and handed out by
// free-list recycling, never by runtime allocation. The free-list shape
// mirrors the teacher's atlas-slot allocator
// (voxelrt/rt/volume.XBrickMap.AllocateAtlasSlot/FreeAtlasSlot), which
// hands out and reclaims fixed-size GPU atlas slots from a LIFO free list
// instead of allocating; here the slots are whole *chunk.Chunk buffers.
package pool

import (
	"sync"

	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/pxerr"
)

// Pool hands out and reclaims chunk buffers without heap churn after
// construction.
type Pool struct {
	mu        sync.Mutex
	free      []*chunk.Chunk
	chunkSize int
	tileSize  int
	capacity  int
	inUse     int
}

// New preallocates `capacity` chunks of the given size/tile size.
func New(capacity, chunkSize, tileSize int) (*Pool, error) {
	p := &Pool{
		chunkSize: chunkSize,
		tileSize:  tileSize,
		capacity:  capacity,
		free:      make([]*chunk.Chunk, 0, capacity),
	}
	for i := 0; i < capacity; i++ {
		c, err := chunk.New(chunkSize, tileSize)
		if err != nil {
			return nil, err
		}
		p.free = append(p.free, c)
	}
	return p, nil
}

// Capacity returns the total number of chunks the pool owns.
func (p *Pool) Capacity() int { return p.capacity }

// Available returns the number of chunks currently free.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// InUse returns the number of chunks currently acquired.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Acquire returns an unused chunk, or pxerr.ErrPoolExhausted if none remain.
// The caller must seed the chunk before publishing it to a Canvas
// (invariant 1: exactly one of Pool or Canvas owns a chunk at any instant).
func (p *Pool) Acquire() (*chunk.Chunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.free)
	if n == 0 {
		return nil, pxerr.ErrPoolExhausted
	}
	c := p.free[n-1]
	p.free = p.free[:n-1]
	p.inUse++
	return c, nil
}

// Release clears the chunk's buffers, resets its tile dirty AABBs to full
// and its persistence state to Clean, then returns it to the free list
// (spec §4.1).
func (p *Pool) Release(c *chunk.Chunk) {
	c.ResetForRelease()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, c)
	if p.inUse > 0 {
		p.inUse--
	}
}

// MinCapacityFor returns the minimum pool capacity the streaming window
// needs for a W×H window (spec §4.1: "capacity ≥ (W+2)·(H+2)").
func MinCapacityFor(w, h int) int {
	return (w + 2) * (h + 2)
}
