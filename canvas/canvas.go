// Package canvas implements the world-coordinate façade over the
// currently resident chunk set (spec §4.2). Coordinate decomposition
// mirrors the teacher's XBrickMap.SetVoxel/GetVoxel sector/brick/voxel
// split (voxelrt/rt/volume/xbrickmap.go), generalized from 3-D
// sector/brick/voxel to 2-D chunk/tile/pixel and from Go's truncating `%`
// to the Euclidean remainder the spec requires for negative coordinates.
package canvas

import (
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/pixel"
	"github.com/api-haus/pixelworld/tile"
)

// Canvas owns no chunks itself; it is a routing table over whatever the
// streaming window has inserted. Single-threaded mutators outside of a
// simulation tick; during a tick, only the scheduler mutates, respecting
// the phase discipline (spec §4.2 Guarantees).
type Canvas struct {
	chunkSize int
	tileSize  int
	chunks    map[chunk.Coord]*chunk.Chunk
}

func New(chunkSize, tileSize int) *Canvas {
	return &Canvas{
		chunkSize: chunkSize,
		tileSize:  tileSize,
		chunks:    make(map[chunk.Coord]*chunk.Chunk),
	}
}

func (cv *Canvas) ChunkSize() int { return cv.chunkSize }
func (cv *Canvas) TileSize() int  { return cv.tileSize }

// floorDiv and floorMod implement Euclidean division: the remainder is
// always in [0, d) regardless of the sign of n (spec §4.2, invariant 1).
func floorDiv(n, d int) int {
	q := n / d
	if (n%d != 0) && ((n < 0) != (d < 0)) {
		q--
	}
	return q
}

func floorMod(n, d int) int {
	return n - floorDiv(n, d)*d
}

// Decompose maps a world pixel coordinate to its chunk coordinate,
// chunk-local pixel coordinate, and chunk-local tile coordinate.
func (cv *Canvas) Decompose(wx, wy int) (coord chunk.Coord, lx, ly, tx, ty int) {
	cx := floorDiv(wx, cv.chunkSize)
	cy := floorDiv(wy, cv.chunkSize)
	lx = floorMod(wx, cv.chunkSize)
	ly = floorMod(wy, cv.chunkSize)
	tx = lx / cv.tileSize
	ty = ly / cv.tileSize
	return chunk.Coord{CX: int32(cx), CY: int32(cy)}, lx, ly, tx, ty
}

// Recompose is the inverse of Decompose's chunk/local split, used by the
// coordinate round-trip test (spec §8 property 1).
func Recompose(coord chunk.Coord, lx, ly, chunkSize int) (wx, wy int) {
	return int(coord.CX)*chunkSize + lx, int(coord.CY)*chunkSize + ly
}

// InsertChunk publishes a chunk to the resident set. Streaming-window only.
func (cv *Canvas) InsertChunk(c *chunk.Chunk) {
	cv.chunks[c.Coord] = c
}

// RemoveChunk withdraws a chunk from the resident set and returns it (or
// nil if absent). Streaming-window only.
func (cv *Canvas) RemoveChunk(coord chunk.Coord) *chunk.Chunk {
	c, ok := cv.chunks[coord]
	if !ok {
		return nil
	}
	delete(cv.chunks, coord)
	return c
}

// ChunkAt returns the resident chunk at coord, or nil.
func (cv *Canvas) ChunkAt(coord chunk.Coord) *chunk.Chunk {
	return cv.chunks[coord]
}

// Resident reports whether coord is currently resident.
func (cv *Canvas) Resident(coord chunk.Coord) bool {
	_, ok := cv.chunks[coord]
	return ok
}

// Len returns the number of resident chunks.
func (cv *Canvas) Len() int { return len(cv.chunks) }

// Get reads the pixel at a world coordinate. ok is false if the owning
// chunk isn't resident.
func (cv *Canvas) Get(wx, wy int) (p pixel.Pixel, ok bool) {
	coord, lx, ly, _, _ := cv.Decompose(wx, wy)
	c, found := cv.chunks[coord]
	if !found {
		return pixel.Pixel{}, false
	}
	return c.Get(lx, ly), true
}

// Set writes the pixel at a world coordinate, marking the hit tile dirty
// and transitioning its owning chunk to Dirty (spec §4.2). Returns false
// if the owning chunk isn't resident.
func (cv *Canvas) Set(wx, wy int, p pixel.Pixel) bool {
	coord, lx, ly, _, _ := cv.Decompose(wx, wy)
	c, found := cv.chunks[coord]
	if !found {
		return false
	}
	c.Set(lx, ly, p)
	return true
}

// Swap exchanges the pixels at two world coordinates atomically from the
// simulator's perspective, even when a and b land in different chunks
// (spec §4.2, §8 property 3, §9 "Cross-chunk swap correctness"). Both
// tiles are marked dirty. Returns false if either chunk isn't resident, in
// which case no mutation occurs.
func (cv *Canvas) Swap(ax, ay, bx, by int) bool {
	aCoord, alx, aly, _, _ := cv.Decompose(ax, ay)
	bCoord, blx, bly, _, _ := cv.Decompose(bx, by)

	aChunk, aOK := cv.chunks[aCoord]
	bChunk, bOK := cv.chunks[bCoord]
	if !aOK || !bOK {
		return false
	}

	aPix := aChunk.Get(alx, aly)
	bPix := bChunk.Get(blx, bly)

	aChunk.Set(alx, aly, bPix)
	bChunk.Set(blx, bly, aPix)
	return true
}

// StampRegion fills the rectangle [minX,maxX]×[minY,maxY] (inclusive,
// world coordinates) with p. Chunks not resident are silently skipped —
// host integrations use this for terrain painting.
func (cv *Canvas) StampRegion(minX, minY, maxX, maxY int, p pixel.Pixel) {
	for wy := minY; wy <= maxY; wy++ {
		for wx := minX; wx <= maxX; wx++ {
			cv.Set(wx, wy, p)
		}
	}
}

// TileVisitor is called once per (chunk, tile-x, tile-y) of the requested
// phase. Returning false stops iteration early.
type TileVisitor func(c *chunk.Chunk, tx, ty int) bool

// IterTiles enumerates every resident tile assigned to phase, in
// unspecified chunk order (spec §4.2: "enumerates tiles of a phase for the
// simulator"). Per invariant 2, no two tiles visited here are within one
// tile of each other on both axes, so callers may safely parallelize
// across the callback's individual invocations.
func (cv *Canvas) IterTiles(phase tile.Phase, fn TileVisitor) {
	for _, c := range cv.chunks {
		per := c.TilesPerSide()
		for ty := 0; ty < per; ty++ {
			for tx := 0; tx < per; tx++ {
				t := &c.Tiles[c.TileIndex(tx, ty)]
				if t.Phase != phase {
					continue
				}
				if !fn(c, tx, ty) {
					return
				}
			}
		}
	}
}

// Chunks returns a snapshot slice of all resident chunks, for callers that
// need to range without holding map iteration semantics (e.g. the
// simulator's per-tick passes).
func (cv *Canvas) Chunks() []*chunk.Chunk {
	out := make([]*chunk.Chunk, 0, len(cv.chunks))
	for _, c := range cv.chunks {
		out = append(out, c)
	}
	return out
}
