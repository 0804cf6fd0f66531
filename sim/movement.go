package sim

import (
	"fmt"

	"github.com/api-haus/pixelworld/canvas"
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/material"
	"github.com/api-haus/pixelworld/pixel"
	"github.com/api-haus/pixelworld/tile"
)

// processTile runs the per-pixel movement rules for one tile's current
// dirty AABB (spec §4.4 pass 2). Iteration order within a tile is fixed
// row-major; inter-tile order is indeterminate but immaterial because
// write sets are disjoint across tiles of the same phase (spec §4.4
// Determinism).
func (s *Scheduler) processTile(c *chunk.Chunk, t *tile.Tile, tx, ty int) {
	aabb := t.Current
	if aabb.Empty() {
		return
	}
	for ly := int(aabb.MinY); ly <= int(aabb.MaxY); ly++ {
		for lx := int(aabb.MinX); lx <= int(aabb.MaxX); lx++ {
			chunkLX := tx*c.TileSize + lx
			chunkLY := ty*c.TileSize + ly
			p := c.Get(chunkLX, chunkLY)
			if p.IsVoid() || p.PixelBody() {
				continue
			}
			mat := s.Materials.Get(p.Material)
			rule := mat.State.MovementRule()
			if rule == material.RuleStatic {
				continue
			}
			wx, wy := canvas.Recompose(c.Coord, chunkLX, chunkLY, c.Size)
			s.applyMovementRule(rule, mat, wx, wy)
		}
	}
}

// applyMovementRule expresses one pixel's candidate moves as Canvas swaps
// (spec §4.4: "Moves are expressed as swaps on the Canvas"). A move is
// taken only when the destination is void, so solids never overwrite each
// other; the attempt order (straight, then diagonals, then lateral) is
// the teacher's ca_ecs.go per-type switch generalized into a single
// table-driven dispatch instead of a per-CellularType step function.
func (s *Scheduler) applyMovementRule(rule material.MovementRule, mat material.Material, wx, wy int) {
	switch rule {
	case material.RulePowder:
		s.stepPowder(mat, wx, wy)
	case material.RuleLiquid:
		s.stepLiquid(mat, wx, wy)
	case material.RuleGas:
		s.stepGas(mat, wx, wy)
	}
}

func (s *Scheduler) tryMove(wx, wy, tx, ty int) bool {
	target, ok := s.Canvas.Get(tx, ty)
	if !ok || !target.IsVoid() {
		return false
	}
	if s.cfg.DebugAssertions {
		s.assertWithinReach(wx, wy, tx, ty)
	}
	return s.Canvas.Swap(wx, wy, tx, ty)
}

// assertWithinReach panics if a move lands outside the [-T/2, T/2] ring
// around its source pixel. Dispersion is clamped to T/2 at registry build
// time (material.NewRegistry), so this should never trip in a correctly
// configured engine; it exists to catch a future rule that forgets the
// bound rather than to handle one that does.
func (s *Scheduler) assertWithinReach(wx, wy, tx, ty int) {
	maxReach := s.Canvas.TileSize() / 2
	if dx := tx - wx; dx < -maxReach || dx > maxReach {
		panic(fmt.Sprintf("sim: move (%d,%d)->(%d,%d) exceeds tile half-size %d", wx, wy, tx, ty, maxReach))
	}
	if dy := ty - wy; dy < -maxReach || dy > maxReach {
		panic(fmt.Sprintf("sim: move (%d,%d)->(%d,%d) exceeds tile half-size %d", wx, wy, tx, ty, maxReach))
	}
}

// stepPowder falls straight down; failing that, diagonally down with a
// hash-derived left/right bias (spec §4.4: "move down, down-left/right").
func (s *Scheduler) stepPowder(mat material.Material, wx, wy int) {
	if s.tryMove(wx, wy, wx, wy-1) {
		return
	}
	left, right := wx-1, wx+1
	if pixel.HashBool(int64(wx), int64(wy), s.tick) {
		left, right = right, left
	}
	if s.tryMove(wx, wy, left, wy-1) {
		return
	}
	s.tryMove(wx, wy, right, wy-1)
}

// stepLiquid falls down, then spreads sideways up to Dispersion cells,
// biased by the same per-pixel hash (spec §4.4: "side-flow governed by
// material dispersion").
func (s *Scheduler) stepLiquid(mat material.Material, wx, wy int) {
	if s.tryMove(wx, wy, wx, wy-1) {
		return
	}
	left, right := wx-1, wx+1
	if pixel.HashBool(int64(wx), int64(wy), s.tick) {
		left, right = right, left
	}
	if s.tryMove(wx, wy, left, wy-1) {
		return
	}
	if s.tryMove(wx, wy, right, wy-1) {
		return
	}

	reach := s.dispersionReach(mat)
	for d := 1; d <= reach; d++ {
		if s.tryMove(wx, wy, left+(d-1)*sign(left-wx), wy) {
			return
		}
		if s.tryMove(wx, wy, right+(d-1)*sign(right-wx), wy) {
			return
		}
	}
}

// stepGas rises, then spreads sideways, mirroring stepLiquid with an
// inverted vertical bias (spec §4.4 movement rules apply symmetrically to
// gases per the material's PhysicalState).
func (s *Scheduler) stepGas(mat material.Material, wx, wy int) {
	if s.tryMove(wx, wy, wx, wy+1) {
		return
	}
	left, right := wx-1, wx+1
	if pixel.HashBool(int64(wx), int64(wy), s.tick) {
		left, right = right, left
	}
	if s.tryMove(wx, wy, left, wy+1) {
		return
	}
	if s.tryMove(wx, wy, right, wy+1) {
		return
	}

	reach := s.dispersionReach(mat)
	for d := 1; d <= reach; d++ {
		if s.tryMove(wx, wy, left+(d-1)*sign(left-wx), wy) {
			return
		}
		if s.tryMove(wx, wy, right+(d-1)*sign(right-wx), wy) {
			return
		}
	}
}

// dispersionReach clamps mat.Dispersion to the Canvas's tile half-size
// (defense in depth alongside material.NewRegistry's own build-time
// clamp) and floors it at 1 so side-flow always has somewhere to go.
func (s *Scheduler) dispersionReach(mat material.Material) int {
	reach := int(mat.Dispersion)
	if maxReach := s.Canvas.TileSize() / 2; reach > maxReach {
		reach = maxReach
	}
	if reach < 1 {
		reach = 1
	}
	return reach
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	if n > 0 {
		return 1
	}
	return 0
}
