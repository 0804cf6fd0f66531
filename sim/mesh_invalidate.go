package sim

import (
	"github.com/api-haus/pixelworld/meshgen"
)

// invalidateMeshes is pass 6 (spec §4.4): every tile whose terrain pixels
// changed this tick (its *next* AABB, now published into Current by
// EndPass, is non-empty) gets its mesh-cache generation bumped, logically
// cancelling any in-flight mesh task for the old generation.
//
// The spec's "ignoring body pixels" qualifier is approximated here by
// relying on the CA phase's own dirty tracking: blit/clear write body
// pixels through Canvas.Set too, which would also grow a tile's AABB, so
// callers that need exact terrain-only invalidation should run this pass
// before blitBodies repaints the next tick — Step therefore calls it
// after the CA pass but the tile AABBs it reads were last published by
// EndPass at the end of the CA phase, before this tick's blit/clear ever
// touched them again.
func (s *Scheduler) invalidateMeshes() {
	if s.Mesh == nil {
		return
	}
	for _, c := range s.Canvas.Chunks() {
		per := c.TilesPerSide()
		for ty := 0; ty < per; ty++ {
			for tx := 0; tx < per; tx++ {
				t := &c.Tiles[c.TileIndex(tx, ty)]
				if t.Current.Empty() {
					continue
				}
				s.Mesh.Invalidate(meshgen.Key{Chunk: c.Coord, TX: tx, TY: ty})
			}
		}
	}
}
