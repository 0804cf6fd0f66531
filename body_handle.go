package pixelworld

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/pixel"
)

// PixelBodyHandle is the "pixel-body handle" spec §6 names: spawn/
// despawn/query, wrapping body.Registry. Physics integration itself is
// out of scope (the host reads per-tile collider geometry from
// w.Mesh); this handle only manages body lifecycle and state queries.
type PixelBodyHandle struct {
	world *World
}

// NewPixelBodyHandle wraps w's body registry.
func NewPixelBodyHandle(w *World) *PixelBodyHandle {
	return &PixelBodyHandle{world: w}
}

// Spawn mints a fresh body with the given shape and places it at t,
// emitting BodySpawned on the event stream.
func (h *PixelBodyHandle) Spawn(width, height int, pixels []pixel.Pixel, mask []byte, originX, originY int, t body.Transform, persistable bool) *body.Body {
	b := h.world.Bodies.Spawn(width, height, pixels, mask, originX, originY, t, persistable)
	h.world.events.Emit(BodySpawned{ID: b.ID})
	return b
}

// Despawn removes a body immediately, emitting BodyDestroyed.
func (h *PixelBodyHandle) Despawn(id body.ID) {
	h.world.Bodies.Despawn(id)
	h.world.events.Emit(BodyDestroyed{ID: id})
}

// Get returns the body for id, or nil if it does not exist.
func (h *PixelBodyHandle) Get(id body.ID) *body.Body {
	return h.world.Bodies.Get(id)
}

// All returns a snapshot of every live body.
func (h *PixelBodyHandle) All() []*body.Body {
	return h.world.Bodies.All()
}

// Len returns the number of live bodies.
func (h *PixelBodyHandle) Len() int {
	return h.world.Bodies.Len()
}

// SetVelocity updates a body's linear/angular velocity. The values are
// only stored on the body; no engine pass integrates them into
// CurrentTransform.
func (h *PixelBodyHandle) SetVelocity(id body.ID, linear mgl32.Vec2, angular float32) bool {
	b := h.world.Bodies.Get(id)
	if b == nil {
		return false
	}
	b.LinearVelocity = linear
	b.AngularVelocity = angular
	return true
}

// ReapEmpty evicts every body whose shape mask has gone entirely to
// zero, emitting BodyDestroyed for each (spec §3 lifecycle).
func (h *PixelBodyHandle) ReapEmpty() []body.ID {
	dead := h.world.Bodies.EvictEmpty()
	for _, id := range dead {
		h.world.events.Emit(BodyDestroyed{ID: id})
	}
	return dead
}
