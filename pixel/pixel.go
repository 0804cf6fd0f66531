// Package pixel defines the engine's fixed 4-byte pixel unit (spec §3) and
// the deterministic per-pixel hash used by material movement rules to make
// tie-broken choices (e.g. liquid left/right bias) reproducible within a
// session.
package pixel

// Flag bits packed into Pixel.Flags (spec §3). Bits 6-7 are reserved.
const (
	FlagDirty     uint8 = 1 << 0 // needs simulation this tick
	FlagSolid     uint8 = 1 << 1 // contributes to collision mesh when stable
	FlagFalling   uint8 = 1 << 2 // excluded from mesh
	FlagBurning   uint8 = 1 << 3
	FlagWet       uint8 = 1 << 4
	FlagPixelBody uint8 = 1 << 5 // owned by a dynamic body, not terrain
)

// Void is material id 0: empty space, freely overwritten.
const Void uint8 = 0

// Pixel is the fixed AoS unit the whole engine operates on. Keep it exactly
// 4 bytes: the persistent store, the canvas buffers and the collision mesh
// pipeline all assume sizeof(Pixel) == 4.
type Pixel struct {
	Material uint8
	Color    uint8
	Damage   uint8
	Flags    uint8
}

// IsVoid reports whether this pixel is empty space.
func (p Pixel) IsVoid() bool { return p.Material == Void }

func (p Pixel) Dirty() bool     { return p.Flags&FlagDirty != 0 }
func (p Pixel) Solid() bool     { return p.Flags&FlagSolid != 0 }
func (p Pixel) Falling() bool   { return p.Flags&FlagFalling != 0 }
func (p Pixel) Burning() bool   { return p.Flags&FlagBurning != 0 }
func (p Pixel) Wet() bool       { return p.Flags&FlagWet != 0 }
func (p Pixel) PixelBody() bool { return p.Flags&FlagPixelBody != 0 }

// WithFlag returns a copy of p with bit set/cleared according to on.
func (p Pixel) WithFlag(bit uint8, on bool) Pixel {
	if on {
		p.Flags |= bit
	} else {
		p.Flags &^= bit
	}
	return p
}

// MeshSolid reports whether this pixel should contribute to the terrain
// collision mesh (spec invariant 4): solid, not falling, not a body pixel.
func (p Pixel) MeshSolid() bool {
	return p.Solid() && !p.Falling() && !p.PixelBody()
}

// Hash is a splitmix64-derived integer hash over (x, y, tick). Material
// movement rules use it to derive reproducible random choices (spec §4.4:
// "Random choices ... derive from hash(world_x, world_y, tick)") without
// any shared, mutable RNG state.
func Hash(x, y, tick int64) uint64 {
	h := uint64(x)*0x9E3779B97F4A7C15 ^ uint64(y)*0xC2B2AE3D27D4EB4F ^ uint64(tick)*0x165667B19E3779F9
	h ^= h >> 30
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 31
	return h
}

// HashBool derives a boolean choice (e.g. left/right dispersion bias) from
// the same hash family used by Hash.
func HashBool(x, y, tick int64) bool {
	return Hash(x, y, tick)&1 == 1
}

// HashFloat01 derives a value in [0, 1) from the same hash family, used for
// probabilistic rules (decay chance, ignition chance).
func HashFloat01(x, y, tick int64) float64 {
	return float64(Hash(x, y, tick)>>11) / float64(1<<53)
}
