// Package meshgen implements the collision mesh pipeline (spec §4.6):
// marching squares over a tile's binary solid grid, Douglas-Peucker
// simplification, and polygon triangulation, cached per tile coordinate
// behind a generation counter.
//
// The cache's tile-coordinate-keyed map and invalidate-by-bumping-a-
// counter idiom mirrors the teacher's xbrickmap.go sector/brick lookup
// tables. Triangulation (triangulate.go) is a plain fan over each
// simplified polygon; no solid-run or box merging is performed.
package meshgen

import (
	"github.com/api-haus/pixelworld/chunk"
)

// Point is a 2-D mesh vertex in world-pixel space.
type Point struct{ X, Y float32 }

// Polygon is a simple closed outline, in marching-squares winding order.
type Polygon []Point

// Triangle is three indices into a Mesh's Vertices.
type Triangle [3]int

// Mesh is the triangulated collision surface for one tile.
type Mesh struct {
	Vertices   []Point
	Triangles  []Triangle
	Generation uint64
}

// SolidSampler reports whether the terrain pixel at world (worldX, worldY)
// is solid for collision purposes: flags.solid=1 ∧ flags.falling=0 ∧
// flags.pixel_body=0 (spec §4.6 Responsibility). Implementations read one
// pixel beyond a tile's bounds (the one-pixel apron) by delegating to
// neighbouring tiles/chunks.
type SolidSampler func(worldX, worldY int) bool

// Generate runs the full pipeline for one tile: marching squares with a
// one-pixel apron, Douglas-Peucker simplification at tolerance px,
// fan triangulation per simplified polygon.
func Generate(tileOriginX, tileOriginY, tileSize int, sample SolidSampler, tolerance float32) *Mesh {
	polys := MarchingSquares(tileOriginX, tileOriginY, tileSize, sample)

	mesh := &Mesh{}
	for _, poly := range polys {
		simplified := DouglasPeucker(poly, tolerance)
		if len(simplified) < 3 {
			continue
		}
		base := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, simplified...)
		tris := FanTriangulate(len(simplified))
		for _, tr := range tris {
			mesh.Triangles = append(mesh.Triangles, Triangle{base + tr[0], base + tr[1], base + tr[2]})
		}
	}
	return mesh
}

// Key identifies a cached mesh by owning chunk and tile-local coordinate.
type Key struct {
	Chunk chunk.Coord
	TX, TY int
}
