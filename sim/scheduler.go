// Package sim implements the simulator (spec §4.4): the phased parallel
// cellular-automata scheduler and the fixed-order per-tick pass pipeline
// (body blit, CA, body readback/clear/split, mesh invalidation, auxiliary
// passes).
//
// The phase barrier is grounded on the pack-wide use of
// golang.org/x/sync/errgroup for bounded parallel fan-out with error
// propagation and a join point; the per-pass tick-rate accumulator for
// auxiliary passes is grounded on the teacher's ca_ecs.go
// caStepSystem/_accum pattern (a CellularVolumeComponent only steps once
// its accumulated dt crosses 1/TickRate), generalized from the teacher's
// single smoke/fire grid to this package's heat and decay passes, and the
// teacher's movement-rule TODOs in ca_ecs.go ("basic sand settle", "basic
// water flow") are exactly the RulePowder/RuleLiquid behaviour movement.go
// implements.
package sim

import (
	"golang.org/x/sync/errgroup"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/canvas"
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/material"
	"github.com/api-haus/pixelworld/meshgen"
	"github.com/api-haus/pixelworld/tile"
)

// Config carries the fixed tick rates and auxiliary-pass constants spec §6
// exposes as configuration knobs.
type Config struct {
	DecayRateHz     float64
	HeatRateHz      float64
	CoolingFactor   float32
	BurningHeat     uint8
	DecayChanceBias float64

	// MeshWorkers bounds the errgroup.Group worker pool pass 6 dispatches
	// tile mesh generation through (spec §4.6 "dispatched through a bounded
	// worker pool"). Values below 1 are treated as 1.
	MeshWorkers int
	// MeshSimplifyTolerance is the Douglas-Peucker tolerance, in pixels,
	// passed to meshgen.Generate.
	MeshSimplifyTolerance float32

	// DebugAssertions enables the CA pass's same-phase-isolation assertion
	// (movement.go assertWithinReach). Off by default; intended for debug
	// builds, mirroring the teacher's debug-only logging gate.
	DebugAssertions bool
}

// Scheduler owns one tick's worth of simulation state and advances the
// world by running the fixed pass schedule (spec §4.4).
type Scheduler struct {
	Canvas    *canvas.Canvas
	Materials *material.Registry
	Bodies    *body.Registry
	IDGen     *body.IDGenerator
	Mesh      *meshgen.Cache

	cfg Config

	tick int64

	decayAccum float64
	heatAccum  float64

	// dirtyBodies holds the ids of bodies whose shape mask changed during
	// this tick's readback pass (spec §4.4 pass 5 precondition).
	dirtyBodies []body.ID
}

func New(cv *canvas.Canvas, materials *material.Registry, bodies *body.Registry, idGen *body.IDGenerator, mesh *meshgen.Cache, cfg Config) *Scheduler {
	return &Scheduler{
		Canvas:    cv,
		Materials: materials,
		Bodies:    bodies,
		IDGen:     idGen,
		Mesh:      mesh,
		cfg:       cfg,
	}
}

// Tick returns the current tick counter, used by pixel.Hash for
// reproducible per-pixel random choices.
func (s *Scheduler) Tick() int64 { return s.tick }

// Step advances the world by one tick, running every pass in the fixed
// order spec §4.4 mandates. dt is the wall-clock seconds elapsed,
// consumed only by the tick-rate accumulators of the auxiliary passes.
func (s *Scheduler) Step(dt float64) error {
	s.blitBodies()

	if err := s.runCAPhases(); err != nil {
		return err
	}

	s.readbackBodies()
	s.clearBodies()
	s.splitBodies()
	s.invalidateMeshes()
	s.generateMeshes()
	s.runAuxiliaryPasses(dt)

	s.tick++
	return nil
}

// runCAPhases runs the four-phase checkerboard CA pass (spec §4.4 pass 2,
// §5 "dispatches parallel work across a worker pool ... waits on a
// barrier"). Each phase's tiles are processed concurrently via errgroup;
// BeginPass/EndPass bracket the phase so the double-buffered dirty AABB
// discipline (spec §4.4) holds even under concurrent tile processing.
func (s *Scheduler) runCAPhases() error {
	for phase := tile.Phase(0); phase < tile.NumPhases; phase++ {
		var g errgroup.Group

		s.Canvas.IterTiles(phase, func(c *chunk.Chunk, tx, ty int) bool {
			t := &c.Tiles[c.TileIndex(tx, ty)]
			t.BeginPass()
			cCopy, txCopy, tyCopy, tCopy := c, tx, ty, t
			g.Go(func() error {
				s.processTile(cCopy, tCopy, txCopy, tyCopy)
				return nil
			})
			return true
		})

		if err := g.Wait(); err != nil {
			return err
		}

		s.Canvas.IterTiles(phase, func(c *chunk.Chunk, tx, ty int) bool {
			c.Tiles[c.TileIndex(tx, ty)].EndPass()
			return true
		})
	}
	return nil
}
