package meshgen

import "sync"

// entry is one cached tile mesh plus its bookkeeping generation.
type entry struct {
	mesh       *Mesh
	generation uint64
	inWindow   bool
}

// Cache stores completed tile meshes keyed by tile coordinate, guarding
// staleness with a generation counter (spec §4.6 Caching): "A generation
// counter is bumped each time the tile is invalidated; completed tasks
// tagged with an older generation are discarded." Lookup/insert style
// mirrors the teacher's xbrickmap.go sector-map caching, generalized from
// 3-D sector coordinates to 2-D tile coordinates.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*entry)}
}

// Invalidate bumps the generation for key, logically cancelling any
// in-flight task tagged with the prior generation (spec §5 Cancellation).
func (c *Cache) Invalidate(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.generation++
	return e.generation
}

// Generation returns the current generation for key (0 if never seen).
func (c *Cache) Generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return 0
	}
	return e.generation
}

// Complete submits a finished mesh task for key tagged with the
// generation it started from. If a newer generation has since been
// recorded (the tile was invalidated again while the task was running)
// the result is discarded, per spec §4.6/§5.
func (c *Cache) Complete(key Key, mesh *Mesh, startedGeneration uint64) (accepted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.generation != startedGeneration {
		return false
	}
	mesh.Generation = startedGeneration
	e.mesh = mesh
	e.inWindow = true
	return true
}

// Get returns the cached mesh for key, or nil if none has completed.
func (c *Cache) Get(key Key) *Mesh {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	return e.mesh
}

// Evict drops the cached mesh for key entirely (tile fell outside the
// current streaming window, spec §4.6 Caching: "culls static colliders
// whose tiles have fallen outside the current window").
func (c *Cache) Evict(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// MarkOutOfWindow clears key's in-window mark (Complete sets it), so the
// next EvictOutOfWindow drops the entry.
func (c *Cache) MarkOutOfWindow(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.inWindow = false
	}
}

// QueryPoint describes a physics body or active interactor's tile. No part
// of the engine reads it: sim.generateMeshes schedules every resident tile
// for which NeedsGeneration is true, whether or not a query point is near.
type QueryPoint struct {
	TileX, TileY int
	Chunk        Key
}

// NeedsGeneration reports whether key has no completed mesh at the
// current generation and should be (re-)scheduled.
func (c *Cache) NeedsGeneration(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return true
	}
	return e.mesh == nil || e.mesh.Generation != e.generation
}

// EvictOutOfWindow removes every cached entry not marked in-window. The
// engine does not call it or MarkOutOfWindow; entries stay cached until the
// caller invokes them.
func (c *Cache) EvictOutOfWindow() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var evicted []Key
	for k, e := range c.entries {
		if !e.inWindow {
			evicted = append(evicted, k)
			delete(c.entries, k)
		}
	}
	return evicted
}
