package pixelworld

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/canvas"
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/material"
	"github.com/api-haus/pixelworld/meshgen"
	"github.com/api-haus/pixelworld/pixel"
	"github.com/api-haus/pixelworld/pool"
	"github.com/api-haus/pixelworld/pxerr"
	"github.com/api-haus/pixelworld/sim"
	"github.com/api-haus/pixelworld/store"
	"github.com/api-haus/pixelworld/stream"
)

// ProceduralSeeder is the host-supplied pure function spec §6 requires:
// "a pure function (chunk_coord, world_seed) → chunk_buffer used when the
// store returns Miss."
type ProceduralSeeder func(coord chunk.Coord, worldSeed uint64) []pixel.Pixel

// World is the engine's root handle: it owns the canvas, the chunk pool,
// the streaming window, the persistent store and the body registry, and
// wires them together the way the teacher's scheduler wires Canvas,
// Materials, Bodies and Mesh (sim.New).
type World struct {
	cfg Config
	log Logger

	Canvas    *canvas.Canvas
	Pool      *pool.Pool
	Window    *stream.Window
	Materials *material.Registry
	Bodies    *body.Registry
	IDGen     *body.IDGenerator
	Mesh      *meshgen.Cache

	store     *store.Store
	scheduler *sim.Scheduler
	events    *eventBus

	worldSeed uint64
	procGen   ProceduralSeeder

	sessionSeed uint32
}

// New constructs a World. savePath may be empty for an ephemeral,
// non-persistent world (the store and auto-saver are simply not
// attached). materials must already be built via material.NewRegistry.
func New(cfg Config, materials *material.Registry, proc ProceduralSeeder, savePath string) (*World, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = NewNopLogger()
	}

	capacity := cfg.PoolCapacity
	minCap := pool.MinCapacityFor(cfg.WindowWidth, cfg.WindowHeight)
	if capacity == 0 {
		capacity = minCap
	}
	if capacity < minCap {
		return nil, fmt.Errorf("pixelworld: %w: pool capacity %d below minimum %d for a %dx%d window",
			pxerr.ErrPoolExceededByWindow, capacity, minCap, cfg.WindowWidth, cfg.WindowHeight)
	}

	cv := canvas.New(cfg.ChunkSize, cfg.TileSize)
	p, err := pool.New(capacity, cfg.ChunkSize, cfg.TileSize)
	if err != nil {
		return nil, fmt.Errorf("pixelworld: build pool: %w", err)
	}

	sessionSeed := sessionSeedFromUUID()
	idGen := body.NewIDGenerator(sessionSeed)
	bodies := body.NewRegistry(idGen)
	mesh := meshgen.NewCache()

	w := &World{
		cfg:         cfg,
		log:         logger,
		Canvas:      cv,
		Pool:        p,
		Materials:   materials,
		Bodies:      bodies,
		IDGen:       idGen,
		Mesh:        mesh,
		events:      newEventBus(),
		procGen:     proc,
		sessionSeed: sessionSeed,
	}

	cc := store.CompileConstants{ChunkSize: cfg.ChunkSize, TileSize: cfg.TileSize, PixelSize: 4}

	var lookup stream.StoreLookup
	var writer stream.StoreWriter
	if savePath != "" {
		s, worldSeed, err := openOrCreateStore(savePath, cc)
		if err != nil {
			return nil, err
		}
		w.store = s
		w.worldSeed = worldSeed
		lookup = &storeLookupAdapter{w: w}
		writer = &storeWriterAdapter{w: w}
	} else {
		w.worldSeed = uint64(sessionSeed)
	}

	seeder := &proceduralSeederAdapter{w: w}
	winCfg := stream.Config{
		Width:            cfg.WindowWidth,
		Height:           cfg.WindowHeight,
		Margin:           cfg.WindowMargin,
		HysteresisFrames: cfg.HysteresisFrames,
	}
	window := stream.New(cv, p, seeder, lookup, writer, winCfg)
	window.OnChunkLoaded(func(c chunk.Coord) {
		w.log.Debugf("chunk loaded %v", c)
		w.events.Emit(ChunkLoaded{Coord: c})
	})
	window.OnChunkUnloaded(func(c chunk.Coord) {
		w.log.Debugf("chunk unloaded %v", c)
		w.events.Emit(ChunkUnloaded{Coord: c})
	})
	w.Window = window

	simCfg := sim.Config{
		DecayRateHz:           cfg.DecayRateHz,
		HeatRateHz:            cfg.HeatRateHz,
		CoolingFactor:         cfg.CoolingFactor,
		BurningHeat:           cfg.BurningHeat,
		DecayChanceBias:       cfg.DecayChanceBias,
		MeshWorkers:           cfg.MeshWorkers,
		MeshSimplifyTolerance: cfg.MeshSimplifyTolerance,
		DebugAssertions:       cfg.DebugAssertions,
	}
	w.scheduler = sim.New(cv, materials, bodies, idGen, mesh, simCfg)

	return w, nil
}

// openOrCreateStore opens an existing save file, or creates a fresh one
// seeded from a freshly minted uuid on first run.
func openOrCreateStore(path string, cc store.CompileConstants) (*store.Store, uint64, error) {
	if _, statErr := os.Stat(path); statErr == nil {
		s, err := store.Open(path, cc)
		if err != nil {
			return nil, 0, err
		}
		return s, s.WorldSeed(), nil
	}
	worldSeed := uint64(sessionSeedFromUUID())<<32 | uint64(sessionSeedFromUUID())
	s, err := store.Create(path, worldSeed, cc)
	if err != nil {
		return nil, 0, err
	}
	return s, worldSeed, nil
}

// sessionSeedFromUUID mints a fresh session seed per SPEC_FULL.md's
// domain-stack decision to reserve uuid for this purpose alone; the store
// package itself never imports it.
func sessionSeedFromUUID() uint32 {
	id := uuid.New()
	b := id[:]
	return binary.LittleEndian.Uint32(b[:4])
}

// WorldSeed returns the seed this world's chunks procedurally generate
// from: the attached store's persisted seed, or a freshly minted one for
// an ephemeral world.
func (w *World) WorldSeed() uint64 { return w.worldSeed }

// Events returns the channel hosts should range over to drain
// ChunkLoaded/ChunkUnloaded/BodySpawned/... notifications.
func (w *World) Events() <-chan Event { return w.events.Events() }

// Close releases the attached store's file handle, if any. Safe to call
// on an ephemeral world.
func (w *World) Close() error {
	if w.store == nil {
		return nil
	}
	return w.store.Close()
}

// storePath returns the attached store's file path, or "" if this World
// has no store (ephemeral, non-persistent world).
func (w *World) storePath() string {
	if w.store == nil {
		return ""
	}
	return w.store.Path()
}

// Get/Set/Swap/StampRegion/IterTiles/Chunks delegate straight to the
// canvas, presenting the "world handle" surface spec §6 names.
func (w *World) Get(wx, wy int) (pixel.Pixel, bool) { return w.Canvas.Get(wx, wy) }
func (w *World) Set(wx, wy int, p pixel.Pixel) bool { return w.Canvas.Set(wx, wy, p) }
func (w *World) Swap(ax, ay, bx, by int) bool       { return w.Canvas.Swap(ax, ay, bx, by) }
func (w *World) StampRegion(minX, minY, maxX, maxY int, p pixel.Pixel) {
	w.Canvas.StampRegion(minX, minY, maxX, maxY, p)
}

// Retick drives the streaming window's once-per-tick transitions (spec
// §5: "Streaming-window transitions execute before pass 1 of the tick").
func (w *World) Retick(viewCX, viewCY int) {
	if w.Window != nil {
		w.Window.Retick(viewCX, viewCY)
	}
}

// proceduralSeederAdapter implements stream.Seeder by delegating to the
// host-supplied ProceduralSeeder for chunks the store has no record of.
type proceduralSeederAdapter struct {
	w *World
}

func (a *proceduralSeederAdapter) Seed(c *chunk.Chunk) error {
	if a.w.store != nil && a.w.store.Has(c.Coord) {
		// Already filled by the streaming window's StoreLookup pass in
		// drainLoadQueue; nothing further to do.
		return nil
	}
	if a.w.procGen == nil {
		return nil
	}
	copy(c.Pixels, a.w.procGen(c.Coord, a.w.worldSeed))
	return nil
}

// storeLookupAdapter bridges stream.StoreLookup's single-chunk Load
// signature onto store.Store.Load's procedural-baseline-function shape.
type storeLookupAdapter struct {
	w *World
}

func (a *storeLookupAdapter) Load(coord chunk.Coord, c *chunk.Chunk) error {
	loaded, err := a.w.store.Load(coord, func() []pixel.Pixel {
		if a.w.procGen == nil {
			return make([]pixel.Pixel, len(c.Pixels))
		}
		return a.w.procGen(coord, a.w.worldSeed)
	})
	if err != nil {
		return err
	}
	copy(c.Pixels, loaded)
	return nil
}

// storeWriterAdapter bridges stream.StoreWriter onto a one-chunk
// incremental SaveChunks call, reporting durability on a buffered channel.
type storeWriterAdapter struct {
	w *World
}

func (a *storeWriterAdapter) Save(c *chunk.Chunk) <-chan error {
	durable := make(chan error, 1)
	pixels := append([]pixel.Pixel{}, c.Pixels...)
	coord := c.Coord
	go func() {
		seeder := func(coord chunk.Coord, worldSeed uint64) []pixel.Pixel {
			if a.w.procGen == nil {
				return make([]pixel.Pixel, len(pixels))
			}
			return a.w.procGen(coord, worldSeed)
		}
		err := a.w.store.SaveChunks([]store.DirtyChunk{{Coord: coord, Pixels: pixels}}, seeder)
		durable <- err
	}()
	return durable
}
