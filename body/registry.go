package body

import (
	"sync"

	"github.com/api-haus/pixelworld/pixel"
)

// Registry owns every live body. Spec §9: a body "belongs" to a chunk only
// for persistence accounting — it is never owned by a chunk, always by
// this registry. Mutated only on the tick thread (spec §5), but the mutex
// allows safe inspection from I/O/event-draining goroutines.
type Registry struct {
	mu    sync.RWMutex
	gen   *IDGenerator
	items map[ID]*Body
}

func NewRegistry(gen *IDGenerator) *Registry {
	return &Registry{gen: gen, items: make(map[ID]*Body)}
}

// Spawn mints a fresh id and registers a new body.
func (r *Registry) Spawn(width, height int, pixels []pixel.Pixel, mask []byte, originX, originY int, t Transform, persistable bool) *Body {
	id := r.gen.Next()
	b := New(id, width, height, pixels, mask, originX, originY, t, persistable)
	r.mu.Lock()
	r.items[id] = b
	r.mu.Unlock()
	return b
}

// Register inserts an already-constructed body under its existing id
// (used by the persistent store on load, and by split to re-insert the
// largest surviving component under its original id).
func (r *Registry) Register(b *Body) {
	r.mu.Lock()
	r.items[b.ID] = b
	r.mu.Unlock()
}

// Despawn removes a body from the registry.
func (r *Registry) Despawn(id ID) {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
}

// Get returns the body for id, or nil.
func (r *Registry) Get(id ID) *Body {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[id]
}

// All returns a snapshot slice of every live body. Safe to mutate bodies
// through the returned pointers on the tick thread; the slice itself is a
// copy so iteration is stable against concurrent Spawn/Despawn.
func (r *Registry) All() []*Body {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Body, 0, len(r.items))
	for _, b := range r.items {
		out = append(out, b)
	}
	return out
}

// Len returns the number of live bodies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// EvictEmpty removes and returns the ids of every body whose shape mask
// has become entirely zero (spec §3 lifecycle: "destroyed when shape_mask
// becomes all-zero").
func (r *Registry) EvictEmpty() []ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dead []ID
	for id, b := range r.items {
		if b.IsEmpty() {
			dead = append(dead, id)
			delete(r.items, id)
		}
	}
	return dead
}
