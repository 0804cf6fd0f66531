// Package body implements destructible pixel bodies (spec §3): a dynamic
// object whose visual/simulation extent is a small owned pixel grid plus a
// packed shape mask, blitted into and read back from the Canvas each tick.
//
// The id-minting and largest-keeps-id split semantics are grounded on the
// teacher's voxel_edits_and_split.go (SplitDisconnectedComponents /
// ApplySeparation): there, a disconnected voxel object's largest component
// keeps the parent entity's identity while smaller components spawn fresh
// entities with newly minted ids. Here the same rule applies to pixel-body
// ids instead of ECS entity ids (ECS itself is out of scope, spec §1).
package body

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/api-haus/pixelworld/pixel"
)

// ID is a 64-bit stable identifier: high 32 bits are the session seed, low
// 32 bits are a monotonic counter (spec §3).
type ID uint64

func MakeID(sessionSeed, counter uint32) ID {
	return ID(uint64(sessionSeed)<<32 | uint64(counter))
}

func (id ID) SessionSeed() uint32 { return uint32(id >> 32) }
func (id ID) Counter() uint32     { return uint32(id) }

// IDGenerator mints fresh ids within one session. The session seed is the
// only process-wide mutable-at-construction state in the engine (spec §9);
// it's set once and never mutated thereafter, only the counter advances.
type IDGenerator struct {
	sessionSeed uint32
	counter     uint32
}

// NewIDGenerator fixes the session seed for the lifetime of the generator.
func NewIDGenerator(sessionSeed uint32) *IDGenerator {
	return &IDGenerator{sessionSeed: sessionSeed}
}

// Next mints a new, unique-within-session id.
func (g *IDGenerator) Next() ID {
	c := atomic.AddUint32(&g.counter, 1)
	return MakeID(g.sessionSeed, c)
}

// Transform is a 2-D rigid transform: position plus rotation in radians.
type Transform struct {
	Position mgl32.Vec2
	Rotation float32
}

// Body is a dynamic pixel-grid object (spec §3).
type Body struct {
	ID ID

	Width, Height int
	// OriginOffsetX/Y is the integer grid-origin offset (spec §3).
	OriginOffsetX, OriginOffsetY int

	Pixels []pixel.Pixel // Width*Height
	Mask   []byte         // ceil(w*h/8) bytes, LSB-first

	CurrentTransform  Transform
	LastBlitTransform Transform

	LinearVelocity  mgl32.Vec2
	AngularVelocity float32

	Persistable bool

	// Awake tracks whether physics should keep integrating this body. The
	// mesh pipeline wakes a body whenever a tile its AABB overlaps gets a
	// new collider (spec §4.6 Body wake: "prevents bodies floating on
	// removed ground"); the engine otherwise never clears it, since sleep
	// policy itself is the host's physics engine's concern.
	Awake bool
}

// New constructs a body from an initial (pixels, mask, transform).
func New(id ID, width, height int, pixels []pixel.Pixel, mask []byte, originX, originY int, t Transform, persistable bool) *Body {
	return &Body{
		ID:                id,
		Width:             width,
		Height:            height,
		OriginOffsetX:     originX,
		OriginOffsetY:     originY,
		Pixels:            pixels,
		Mask:              mask,
		CurrentTransform:  t,
		LastBlitTransform: t,
		Persistable:       persistable,
		Awake:             true,
	}
}

// Wake marks the body awake, called by the mesh pipeline when the ground
// underneath it changes shape.
func (b *Body) Wake() { b.Awake = true }

// MaskBytes returns ceil(w*h/8), the packed shape-mask size for a w×h body.
func MaskBytes(w, h int) int {
	n := w * h
	return (n + 7) / 8
}

func (b *Body) cellIndex(lx, ly int) int { return ly*b.Width + lx }

// MaskBit reads the shape-mask bit for local cell (lx, ly).
func (b *Body) MaskBit(lx, ly int) bool {
	if lx < 0 || ly < 0 || lx >= b.Width || ly >= b.Height {
		return false
	}
	i := b.cellIndex(lx, ly)
	return b.Mask[i/8]&(1<<uint(i%8)) != 0
}

// SetMaskBit sets or clears the shape-mask bit for local cell (lx, ly).
func (b *Body) SetMaskBit(lx, ly int, on bool) {
	if lx < 0 || ly < 0 || lx >= b.Width || ly >= b.Height {
		return
	}
	i := b.cellIndex(lx, ly)
	if on {
		b.Mask[i/8] |= 1 << uint(i%8)
	} else {
		b.Mask[i/8] &^= 1 << uint(i%8)
	}
}

// IsEmpty reports whether the shape mask is entirely zero bits. Empty
// bodies must not persist and must be destroyed (spec §3 lifecycle).
func (b *Body) IsEmpty() bool {
	for _, byt := range b.Mask {
		if byt != 0 {
			return false
		}
	}
	return true
}

// MaskPopCount counts set mask bits.
func (b *Body) MaskPopCount() int {
	n := 0
	for _, byt := range b.Mask {
		for byt != 0 {
			n += int(byt & 1)
			byt >>= 1
		}
	}
	return n
}

// LocalToWorld maps a body-local cell center (relative to origin offset) to
// world-space using transform t.
func LocalToWorld(t Transform, originX, originY, lx, ly int) mgl32.Vec2 {
	local := mgl32.Vec2{float32(lx - originX), float32(ly - originY)}
	rot := mgl32.Rotate2D(t.Rotation)
	return rot.Mul2x1(local).Add(t.Position)
}

// WorldToLocal is the inverse of LocalToWorld: maps a world-space point
// back to body-local cell coordinates (spec §4.4 pass 1 "inverse transform
// sampling"). The body blit pass uses this to iterate world pixels and read
// back into body space, guaranteeing gap-free coverage under rotation
// (spec §4.4, §9).
func WorldToLocal(t Transform, originX, originY int, worldX, worldY float32) (lx, ly int) {
	rel := mgl32.Vec2{worldX, worldY}.Sub(t.Position)
	inv := mgl32.Rotate2D(-t.Rotation)
	local := inv.Mul2x1(rel)
	return int(math.Floor(float64(local.X()) + float64(originX) + 0.5)),
		int(math.Floor(float64(local.Y()) + float64(originY) + 0.5))
}

// WorldAABB returns the integer world-space bounding box a body occupies
// at transform t, padded by one pixel to be safe under rotation.
func (b *Body) WorldAABB(t Transform) (minX, minY, maxX, maxY int) {
	corners := [4]mgl32.Vec2{
		{float32(-b.OriginOffsetX), float32(-b.OriginOffsetY)},
		{float32(b.Width - b.OriginOffsetX), float32(-b.OriginOffsetY)},
		{float32(-b.OriginOffsetX), float32(b.Height - b.OriginOffsetY)},
		{float32(b.Width - b.OriginOffsetX), float32(b.Height - b.OriginOffsetY)},
	}
	rot := mgl32.Rotate2D(t.Rotation)
	minF := mgl32.Vec2{math.MaxFloat32, math.MaxFloat32}
	maxF := mgl32.Vec2{-math.MaxFloat32, -math.MaxFloat32}
	for _, c := range corners {
		w := rot.Mul2x1(c).Add(t.Position)
		if w.X() < minF.X() {
			minF[0] = w.X()
		}
		if w.Y() < minF.Y() {
			minF[1] = w.Y()
		}
		if w.X() > maxF.X() {
			maxF[0] = w.X()
		}
		if w.Y() > maxF.Y() {
			maxF[1] = w.Y()
		}
	}
	return int(math.Floor(float64(minF.X()))) - 1, int(math.Floor(float64(minF.Y()))) - 1,
		int(math.Ceil(float64(maxF.X()))) + 1, int(math.Ceil(float64(maxF.Y()))) + 1
}
