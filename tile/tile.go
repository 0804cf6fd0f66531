// Package tile implements the per-tile dirty-AABB double buffer and the
// four-phase checkerboard scheduling partition the simulator's parallel CA
// pass relies on (spec §3, §4.4, invariant 7).
package tile

import "fmt"

// AABB bounds the pixels (in tile-local coordinates) that must be visited
// this pass. Empty means the tile can be skipped entirely (invariant 3).
type AABB struct {
	MinX, MinY, MaxX, MaxY int16 // inclusive; empty iff MinX > MaxX
}

// EmptyAABB is the canonical empty bound.
var EmptyAABB = AABB{MinX: 1, MinY: 1, MaxX: 0, MaxY: 0}

func (a AABB) Empty() bool { return a.MinX > a.MaxX || a.MinY > a.MaxY }

// Full returns the AABB covering a size×size tile.
func Full(size int) AABB {
	return AABB{MinX: 0, MinY: 0, MaxX: int16(size - 1), MaxY: int16(size - 1)}
}

// Union grows a to also cover the single point (x, y).
func (a AABB) Union(x, y int) AABB {
	if a.Empty() {
		return AABB{MinX: int16(x), MinY: int16(y), MaxX: int16(x), MaxY: int16(y)}
	}
	if x := int16(x); x < a.MinX {
		a.MinX = x
	} else if x > a.MaxX {
		a.MaxX = x
	}
	if y := int16(y); y < a.MinY {
		a.MinY = y
	} else if y > a.MaxY {
		a.MaxY = y
	}
	return a
}

// UnionRect grows a to cover [minX,maxX]×[minY,maxY].
func (a AABB) UnionRect(minX, minY, maxX, maxY int) AABB {
	if minX > maxX || minY > maxY {
		return a
	}
	a = a.Union(minX, minY)
	return a.Union(maxX, maxY)
}

// Phase is one of four groups in the 2×2 global tile pattern; tiles of the
// same phase are never adjacent (glossary, invariant 2).
type Phase uint8

const (
	PhaseA Phase = iota
	PhaseB
	PhaseC
	PhaseD
	NumPhases = 4
)

// Of computes phase(tx,ty) = (tx mod 2, ty mod 2) per invariant 7, on
// global (chunk-independent) tile coordinates.
func Of(globalTileX, globalTileY int) Phase {
	bx := globalTileX & 1
	by := globalTileY & 1
	return Phase(by*2 + bx)
}

// Tile carries the dirty-AABB double buffer, phase and mesh-debounce
// cooldown for one C/T × C/T cell of a chunk.
type Tile struct {
	Current  AABB
	next     AABB
	Phase    Phase
	Cooldown int
}

// NewTile builds a tile at the given global coordinates, starting fully
// dirty (spec: "New chunks start with current = full tile").
func NewTile(globalTileX, globalTileY, size int) Tile {
	return Tile{
		Current: Full(size),
		next:    EmptyAABB,
		Phase:   Of(globalTileX, globalTileY),
	}
}

// BeginPass resets the accumulation buffer to empty. Call once before a
// tile is processed by a CA phase.
func (t *Tile) BeginPass() { t.next = EmptyAABB }

// Grow records that the pixel at local (x, y) changed during this pass.
func (t *Tile) Grow(x, y int) { t.next = t.next.Union(x, y) }

// GrowRect records that every pixel in the rectangle changed.
func (t *Tile) GrowRect(minX, minY, maxX, maxY int) {
	t.next = t.next.UnionRect(minX, minY, maxX, maxY)
}

// EndPass publishes the accumulated AABB as the bound for the next pass.
// This is the double-buffer swap spec §4.4/§9 mandates: a pass only ever
// reads Current and only ever writes into next via Grow, so no iteration
// can observe a write its own pass just made outside its starting AABB.
func (t *Tile) EndPass() { t.Current = t.next }

// Reset marks the tile fully dirty again, used when a chunk is released
// to the pool (spec §4.1 release: "resets tile dirty AABBs to full").
func (t *Tile) Reset(size int) {
	t.Current = Full(size)
	t.next = EmptyAABB
}

func (a AABB) String() string {
	if a.Empty() {
		return "empty"
	}
	return fmt.Sprintf("[%d,%d]-[%d,%d]", a.MinX, a.MinY, a.MaxX, a.MaxY)
}
