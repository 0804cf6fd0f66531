package pixelworld

import "time"

// Config bundles every knob spec §6 Configuration exposes. Zero-value
// fields fall back to DefaultConfig's defaults only if the caller starts
// from DefaultConfig() and overrides individual fields; Config itself
// never defaults silently.
type Config struct {
	// ChunkSize is the chunk side length in pixels; must be a power of two.
	ChunkSize int
	// TileSize is the tile side length in pixels; must evenly divide
	// ChunkSize into an even number of tiles per side (invariant 7).
	TileSize int

	// WindowWidth/WindowHeight is the streaming window's inner footprint,
	// in chunks (spec §6: "default 6×4 or 9×9 per embedding").
	WindowWidth  int
	WindowHeight int
	// WindowMargin is the hysteresis margin, in chunks, added on every side
	// of the inner window to form the expanded window (spec §4.3).
	WindowMargin int
	// HysteresisFrames is how many consecutive frames a resident chunk must
	// sit outside the inner window before it begins saving/recycling.
	HysteresisFrames int

	// PoolCapacity is the fixed number of chunk buffers preallocated at
	// startup. Must be >= pool.MinCapacityFor(WindowWidth, WindowHeight) or
	// the engine reports pxerr.ErrPoolExceededByWindow.
	PoolCapacity int

	// AutoSaveInterval/RecoveryInterval drive the two AutoSaver timers.
	AutoSaveInterval time.Duration
	RecoveryInterval time.Duration

	// DeltaThreshold is the fraction of a chunk's pixels that may differ
	// from the procedural baseline before the store switches from delta to
	// full encoding (spec §6 default 0.75).
	DeltaThreshold float64
	// CompactionThreshold is the dead-space ratio at which the persistence
	// handle triggers Store.Compact() (spec §6 default 0.25).
	CompactionThreshold float64

	// CATickRateHz is the fixed cellular-automata tick rate (spec §6
	// default 60 Hz).
	CATickRateHz float64
	// DecayRateHz/HeatRateHz are the auxiliary-pass accumulator rates fed
	// into sim.Config (spec §6 defaults 20 Hz / 10 Hz).
	DecayRateHz float64
	HeatRateHz  float64

	// ParticlePoolSize is carried in Config only; the engine keeps no
	// particle pool and does not read this value.
	ParticlePoolSize int
	// CoolingFactor and BurningHeat feed sim.Config's heat pass.
	CoolingFactor float32
	BurningHeat   uint8

	// DecayChanceBias nudges the decay pass's per-material decay chance;
	// forwarded to sim.Config.
	DecayChanceBias float64

	// MeshWorkers bounds the worker pool the mesh pipeline dispatches tile
	// (re)generation through (spec §4.6), forwarded to sim.Config.
	MeshWorkers int
	// MeshSimplifyTolerance is the Douglas-Peucker tolerance, in pixels,
	// applied to every generated tile mesh.
	MeshSimplifyTolerance float32

	// DebugAssertions turns on the CA pass's same-phase tile-isolation
	// assertion (sim.Config.DebugAssertions). Off by default.
	DebugAssertions bool

	// Logger is the engine's sole logging seam (see logging.go). Nil falls
	// back to NewNopLogger() in New.
	Logger Logger
}

// DefaultConfig returns the engine defaults named throughout spec §6.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 512,
		TileSize:  16,

		WindowWidth:      9,
		WindowHeight:     9,
		WindowMargin:     1,
		HysteresisFrames: 30,

		PoolCapacity: 0, // 0 means "derive from window size", see New.

		AutoSaveInterval: 60 * time.Second,
		RecoveryInterval: 30 * time.Second,

		DeltaThreshold:      0.75,
		CompactionThreshold: 0.25,

		CATickRateHz: 60,
		DecayRateHz:  20,
		HeatRateHz:   10,

		ParticlePoolSize: 256,
		CoolingFactor:    0.02,
		BurningHeat:      200,

		DecayChanceBias: 0,

		MeshWorkers:           4,
		MeshSimplifyTolerance: 0.6,
		DebugAssertions:       false,

		Logger: nil,
	}
}
