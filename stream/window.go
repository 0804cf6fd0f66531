// Package stream implements the streaming window (spec §4.3): it tracks a
// viewpoint, decides chunk residency within an expanded and inner window,
// and drives each resident chunk through a hysteresis state machine that
// bridges pool acquisition, seeding, and eventual persistence/recycling.
//
// The async worker-pool/pending-set shape is grounded on the teacher
// pack's ChunkStreamer (other_examples/25d98966_dantero-ps-mini-mc-go
// internal-world-chunk_streamer.go.go): a bounded job channel drained by a
// fixed worker pool, a pending set guarding against duplicate enqueue, and
// a ring-order eviction sweep. Here the "job" is a chunk's state
// transition rather than terrain generation, and order-in-equals-order-out
// (spec §4.3 Failure) replaces the teacher's drop-on-full queue policy.
package stream

import (
	"sync"

	"github.com/api-haus/pixelworld/canvas"
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/pool"
	"github.com/api-haus/pixelworld/pxerr"
)

// State is one node of the per-chunk residency state machine (spec §4.3).
type State uint8

const (
	Absent State = iota
	Loading
	Seeding
	Active
	Saving
	Recycling
)

func (s State) String() string {
	switch s {
	case Absent:
		return "Absent"
	case Loading:
		return "Loading"
	case Seeding:
		return "Seeding"
	case Active:
		return "Active"
	case Saving:
		return "Saving"
	case Recycling:
		return "Recycling"
	default:
		return "Unknown"
	}
}

// Seeder fills a freshly acquired chunk either from store bytes or from a
// host-supplied procedural terrain function. It is invoked once per chunk
// during the Seeding state (spec §4.3 "Seeding → Active").
type Seeder interface {
	Seed(c *chunk.Chunk) error
}

// StoreLookup abstracts the persistent store's chunk read path, decoupling
// this package from the concrete store implementation (spec §4.5 Read
// protocol). ErrStoreMiss means the chunk has no saved payload.
type StoreLookup interface {
	Load(coord chunk.Coord, c *chunk.Chunk) error
}

// StoreWriter abstracts the persistent store's incremental-save append
// path (spec §4.5 Write protocol), used when a chunk transitions
// Active → Saving.
type StoreWriter interface {
	// Save enqueues c for durable write; durable reports once the store has
	// acknowledged the write (spec §4.3 "Saving → Recycling when the store
	// acknowledges durability").
	Save(c *chunk.Chunk) (durable <-chan error)
}

// entry tracks one resident-or-pending chunk coordinate's lifecycle state.
type entry struct {
	state          State
	chunk          *chunk.Chunk
	outsideFrames  int // consecutive frames outside the inner window
	pendingRecycle bool
}

// Window is the streaming-window state machine over a Canvas+Pool pair.
type Window struct {
	mu sync.Mutex

	canvas *canvas.Canvas
	pool   *pool.Pool
	seeder Seeder
	store  StoreLookup
	writer StoreWriter

	w, h int // inner window dimensions, chunks
	m    int // hysteresis margin, chunks
	hysteresisFrames int

	entries map[chunk.Coord]*entry

	// loadQueue holds coordinates waiting for pool capacity, in FIFO
	// arrival order — spec §4.3 Failure: "no drop, order in equals order
	// out".
	loadQueue []chunk.Coord

	onChunkLoaded   func(chunk.Coord)
	onChunkUnloaded func(chunk.Coord)
}

// Config bundles Window construction parameters (spec §4.3 Inputs, plus
// the engine-wide hysteresis_frames knob from spec §6 Configuration).
type Config struct {
	Width, Height    int
	Margin           int
	HysteresisFrames int
}

func New(cv *canvas.Canvas, p *pool.Pool, seeder Seeder, store StoreLookup, writer StoreWriter, cfg Config) *Window {
	return &Window{
		canvas:           cv,
		pool:             p,
		seeder:           seeder,
		store:            store,
		writer:           writer,
		w:                cfg.Width,
		h:                cfg.Height,
		m:                cfg.Margin,
		hysteresisFrames: cfg.HysteresisFrames,
		entries:          make(map[chunk.Coord]*entry),
	}
}

// OnChunkLoaded/OnChunkUnloaded register observers for the event stream
// (spec §6 "An event stream: ChunkLoaded, ChunkUnloaded...").
func (w *Window) OnChunkLoaded(fn func(chunk.Coord))   { w.onChunkLoaded = fn }
func (w *Window) OnChunkUnloaded(fn func(chunk.Coord)) { w.onChunkUnloaded = fn }

// StateOf returns the current state of coord, or Absent if untracked.
func (w *Window) StateOf(coord chunk.Coord) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[coord]
	if !ok {
		return Absent
	}
	return e.state
}

func inRect(coord chunk.Coord, cx, cy, halfW, halfH int) bool {
	dx := int(coord.CX) - cx
	dy := int(coord.CY) - cy
	return dx >= -halfW && dx <= halfW && dy >= -halfH && dy <= halfH
}

// Retick is the once-per-tick entry point (spec §5 "Streaming-window
// transitions execute before pass 1 of the tick"). viewCX/viewCY is the
// viewpoint in chunk coordinates.
func (w *Window) Retick(viewCX, viewCY int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	innerHalfW, innerHalfH := w.w/2, w.h/2
	expandedHalfW, expandedHalfH := innerHalfW+w.m, innerHalfH+w.m

	// Absent -> Loading: discover newly-in-range coordinates.
	for dy := -expandedHalfH; dy <= expandedHalfH; dy++ {
		for dx := -expandedHalfW; dx <= expandedHalfW; dx++ {
			coord := chunk.Coord{CX: int32(viewCX + dx), CY: int32(viewCY + dy)}
			if _, ok := w.entries[coord]; ok {
				continue
			}
			w.entries[coord] = &entry{state: Absent}
			w.enqueueLoad(coord)
		}
	}

	w.drainLoadQueue()

	for coord, e := range w.entries {
		inner := inRect(coord, viewCX, viewCY, innerHalfW, innerHalfH)

		switch e.state {
		case Seeding:
			if e.chunk == nil {
				continue
			}
			if w.seeder != nil {
				if err := w.seeder.Seed(e.chunk); err != nil {
					continue
				}
			}
			e.state = Active
			w.canvas.InsertChunk(e.chunk)
			if w.onChunkLoaded != nil {
				w.onChunkLoaded(coord)
			}

		case Active:
			if inner {
				e.outsideFrames = 0
				e.pendingRecycle = false
				continue
			}
			e.outsideFrames++
			if e.outsideFrames > w.hysteresisFrames {
				if e.chunk.Persistence == chunk.Clean || e.chunk.Persistence == chunk.Persisted {
					w.beginRecycle(coord, e)
				} else {
					w.beginSave(coord, e)
				}
			}

		case Saving:
			if inner {
				// Re-entering cancels pending recycle (spec §4.3 Hysteresis).
				e.state = Active
				e.outsideFrames = 0
				continue
			}

		case Recycling:
			if inner {
				// Re-entering cancels pending recycle (spec §4.3 Hysteresis).
				e.state = Active
				e.outsideFrames = 0
				continue
			}
			w.finishRecycle(coord, e)

		default:
			if inner {
				e.outsideFrames = 0
			}
		}
	}
}

// enqueueLoad appends coord to loadQueue in arrival order; drainLoadQueue
// acquires pool chunks for it and stops at exhaustion (spec §4.3 Failure).
func (w *Window) enqueueLoad(coord chunk.Coord) {
	w.loadQueue = append(w.loadQueue, coord)
}

func (w *Window) drainLoadQueue() {
	i := 0
	var retry []chunk.Coord
	for i < len(w.loadQueue) {
		coord := w.loadQueue[i]
		e, ok := w.entries[coord]
		if !ok || e.state != Absent {
			i++
			continue
		}
		c, err := w.pool.Acquire()
		if err != nil {
			// pxerr.ErrPoolExhausted: stop here, preserve FIFO order for the
			// rest of the queue (spec §4.3: "defers Loading until capacity").
			break
		}
		c.Coord = coord
		e.chunk = c
		e.state = Loading

		if w.store != nil {
			loadErr := w.store.Load(coord, c)
			if loadErr != nil && loadErr != pxerr.ErrStoreMiss {
				// transient/fatal load error: release back and retry on a later
				// Retick rather than abandon the coordinate (spec §4.3 Failure
				// describes deferral, not permanent loss). The entry itself stays
				// Absent so discovery doesn't re-add a duplicate.
				w.pool.Release(c)
				e.chunk = nil
				e.state = Absent
				retry = append(retry, coord)
				i++
				continue
			}
		}
		e.state = Seeding
		i++
	}
	w.loadQueue = append(append(w.loadQueue[:0], w.loadQueue[i:]...), retry...)
}

func (w *Window) beginSave(coord chunk.Coord, e *entry) {
	e.state = Saving
	if w.writer == nil {
		e.state = Recycling
		return
	}
	durable := w.writer.Save(e.chunk)
	go func() {
		if err := <-durable; err == nil {
			w.mu.Lock()
			if cur, ok := w.entries[coord]; ok && cur.state == Saving {
				cur.state = Recycling
			}
			w.mu.Unlock()
		}
	}()
}

func (w *Window) beginRecycle(coord chunk.Coord, e *entry) {
	e.state = Recycling
}

func (w *Window) finishRecycle(coord chunk.Coord, e *entry) {
	w.canvas.RemoveChunk(coord)
	w.pool.Release(e.chunk)
	delete(w.entries, coord)
	if w.onChunkUnloaded != nil {
		w.onChunkUnloaded(coord)
	}
}

// Len returns the number of coordinates currently tracked in any state.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}
