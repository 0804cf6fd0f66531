// Package chunk implements the fixed C×C pixel buffer and its tile grid
// (spec §3), plus the chunk persistence state machine
// Clean → Dirty → Persisted (invariant 5).
package chunk

import (
	"fmt"

	"github.com/api-haus/pixelworld/pixel"
	"github.com/api-haus/pixelworld/tile"
)

// Coord is a world chunk coordinate.
type Coord struct {
	CX, CY int32
}

// PersistenceState tracks whether a chunk's pixels match what's on disk.
type PersistenceState uint8

const (
	Clean PersistenceState = iota
	Dirty
	Persisted
)

func (s PersistenceState) String() string {
	switch s {
	case Clean:
		return "Clean"
	case Dirty:
		return "Dirty"
	case Persisted:
		return "Persisted"
	default:
		return "Unknown"
	}
}

// Chunk is a C×C pixel buffer subdivided into (C/T)² tiles. Row 0 is the
// bottom row (Y+ up, spec §3/§4.2). Chunks are pre-allocated by pool.Pool
// and never resized after construction.
type Chunk struct {
	Coord Coord

	Size     int // C
	TileSize int // T
	tilesPer int // C / T, guaranteed even (invariant 7)

	Pixels []pixel.Pixel // Size*Size, row-major, row 0 = bottom
	Tiles  []tile.Tile   // tilesPer*tilesPer, row-major

	// Optional downsampled heat layer at C/4 × C/4 (spec §3).
	Heat []uint8

	Persistence PersistenceState
}

// New allocates a zeroed chunk of side `size` pixels with tile side `tsize`.
// size must be a power of two and evenly divisible by tsize; tsize must
// divide size into an even number of tiles per side (invariant 7).
func New(size, tsize int) (*Chunk, error) {
	if size <= 0 || tsize <= 0 || size%tsize != 0 {
		return nil, fmt.Errorf("chunk: tile size %d must evenly divide chunk size %d", tsize, size)
	}
	tilesPer := size / tsize
	if tilesPer%2 != 0 {
		return nil, fmt.Errorf("chunk: chunk must contain an even number of tiles per side, got %d", tilesPer)
	}
	c := &Chunk{
		Size:     size,
		TileSize: tsize,
		tilesPer: tilesPer,
		Pixels:   make([]pixel.Pixel, size*size),
		Tiles:    make([]tile.Tile, tilesPer*tilesPer),
	}
	heatSide := size / 4
	if heatSide > 0 {
		c.Heat = make([]uint8, heatSide*heatSide)
	}
	c.initTiles()
	return c, nil
}

func (c *Chunk) initTiles() {
	for ty := 0; ty < c.tilesPer; ty++ {
		for tx := 0; tx < c.tilesPer; tx++ {
			// tilesPer is even, so chunk-local tile parity equals global tile
			// parity regardless of this chunk's world coordinate — see
			// DESIGN.md invariant-7 note.
			c.Tiles[ty*c.tilesPer+tx] = tile.NewTile(tx, ty, c.TileSize)
		}
	}
}

// TilesPerSide returns C/T.
func (c *Chunk) TilesPerSide() int { return c.tilesPer }

// Index returns the flat pixel index for chunk-local (lx, ly).
func (c *Chunk) Index(lx, ly int) int { return ly*c.Size + lx }

// TileIndex returns the flat tile index for chunk-local tile coords.
func (c *Chunk) TileIndex(tx, ty int) int { return ty*c.tilesPer + tx }

// TileAt returns a pointer to the tile containing local pixel (lx, ly).
func (c *Chunk) TileAt(lx, ly int) *tile.Tile {
	tx, ty := lx/c.TileSize, ly/c.TileSize
	return &c.Tiles[c.TileIndex(tx, ty)]
}

// Get reads the pixel at chunk-local (lx, ly).
func (c *Chunk) Get(lx, ly int) pixel.Pixel {
	return c.Pixels[c.Index(lx, ly)]
}

// Set writes the pixel at chunk-local (lx, ly), marks the owning tile dirty
// for the *next* pass and transitions the chunk to Dirty persistence state
// (spec §4.2 Canvas.set contract, applied here at the chunk level).
func (c *Chunk) Set(lx, ly int, p pixel.Pixel) {
	c.Pixels[c.Index(lx, ly)] = p
	t := c.TileAt(lx, ly)
	t.Grow(lx%c.TileSize, ly%c.TileSize)
	if c.Persistence == Clean {
		c.Persistence = Dirty
	}
}

// MarkDirtyAt grows the owning tile's next-pass AABB without writing a
// pixel value — used by passes that swap pixels in place via Canvas.
func (c *Chunk) MarkDirtyAt(lx, ly int) {
	t := c.TileAt(lx, ly)
	t.Grow(lx%c.TileSize, ly%c.TileSize)
	if c.Persistence == Clean {
		c.Persistence = Dirty
	}
}

// ResetForRelease clears pixel/heat buffers, resets every tile's dirty AABB
// to full so the next occupant simulates once, and resets persistence
// state to Clean (spec §4.1 pool.release contract).
func (c *Chunk) ResetForRelease() {
	for i := range c.Pixels {
		c.Pixels[i] = pixel.Pixel{}
	}
	for i := range c.Heat {
		c.Heat[i] = 0
	}
	for ty := 0; ty < c.tilesPer; ty++ {
		for tx := 0; tx < c.tilesPer; tx++ {
			idx := c.TileIndex(tx, ty)
			c.Tiles[idx].Reset(c.TileSize)
		}
	}
	c.Persistence = Clean
	c.Coord = Coord{}
}

// VoxelCount-equivalent: number of non-void pixels. Used by tests.
func (c *Chunk) NonVoidCount() int {
	n := 0
	for _, p := range c.Pixels {
		if !p.IsVoid() {
			n++
		}
	}
	return n
}
