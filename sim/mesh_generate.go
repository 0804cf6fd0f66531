package sim

import (
	"golang.org/x/sync/errgroup"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/canvas"
	"github.com/api-haus/pixelworld/meshgen"
)

// generateMeshes is pass 6's second half (spec §4.6): every tile
// invalidateMeshes just bumped, or that has never completed a build, is
// (re)generated through a bounded worker pool, published into the cache,
// and any body whose AABB overlaps the changed tile is woken. The
// errgroup.Group + SetLimit fan-out mirrors runCAPhases' own phase
// barrier, capped at cfg.MeshWorkers so mesh generation never outcompetes
// the CA pass for CPU.
func (s *Scheduler) generateMeshes() {
	if s.Mesh == nil {
		return
	}

	type job struct {
		key               meshgen.Key
		originX, originY  int
		startedGeneration uint64
	}

	tileSize := s.Canvas.TileSize()
	var jobs []job
	for _, c := range s.Canvas.Chunks() {
		per := c.TilesPerSide()
		for ty := 0; ty < per; ty++ {
			for tx := 0; tx < per; tx++ {
				key := meshgen.Key{Chunk: c.Coord, TX: tx, TY: ty}
				if !s.Mesh.NeedsGeneration(key) {
					continue
				}
				originX, originY := canvas.Recompose(c.Coord, tx*tileSize, ty*tileSize, c.Size)
				jobs = append(jobs, job{
					key:               key,
					originX:           originX,
					originY:           originY,
					startedGeneration: s.Mesh.Generation(key),
				})
			}
		}
	}
	if len(jobs) == 0 {
		return
	}

	workers := s.cfg.MeshWorkers
	if workers < 1 {
		workers = 1
	}
	tolerance := s.cfg.MeshSimplifyTolerance

	sampler := func(wx, wy int) bool {
		p, ok := s.Canvas.Get(wx, wy)
		return ok && p.MeshSolid()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			mesh := meshgen.Generate(j.originX, j.originY, tileSize, sampler, tolerance)
			if s.Mesh.Complete(j.key, mesh, j.startedGeneration) {
				sleepers := s.sleepers()
				meshgen.WakeOverlapping(sleepers, j.originX, j.originY, j.originX+tileSize-1, j.originY+tileSize-1)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// sleepers adapts the live body set to meshgen.Sleeper, so a completed
// tile mesh can wake any body resting on the geometry that just changed.
func (s *Scheduler) sleepers() []meshgen.Sleeper {
	all := s.Bodies.All()
	out := make([]meshgen.Sleeper, len(all))
	for i, b := range all {
		out[i] = bodySleeper{b}
	}
	return out
}

type bodySleeper struct {
	b *body.Body
}

func (bs bodySleeper) AABB() (minX, minY, maxX, maxY int) {
	return bs.b.WorldAABB(bs.b.CurrentTransform)
}

func (bs bodySleeper) Wake() { bs.b.Wake() }
