package pixelworld

import (
	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/chunk"
)

// Event is one item on the engine's event stream (spec §6: "An event
// stream: ChunkLoaded, ChunkUnloaded, BodySpawned(id), BodyDestroyed(id),
// RecoveryAvailable{...}, SaveCompleted, SaveFailed(kind)").
type Event interface {
	isEvent()
}

// ChunkLoaded fires when the streaming window publishes a chunk to the
// canvas (stream.Window's onChunkLoaded observer).
type ChunkLoaded struct {
	Coord chunk.Coord
}

// ChunkUnloaded fires when the streaming window recycles a chunk back to
// the pool.
type ChunkUnloaded struct {
	Coord chunk.Coord
}

// BodySpawned fires when PixelBodyHandle.Spawn registers a pixel body.
// Bodies produced by a readback split (sim.splitBodies) are registered
// without this event.
type BodySpawned struct {
	ID body.ID
}

// BodyDestroyed fires when PixelBodyHandle.Despawn removes a body, and
// when PixelBodyHandle.ReapEmpty evicts a body whose shape mask has become
// entirely zero (body.Registry.EvictEmpty).
type BodyDestroyed struct {
	ID body.ID
}

// RecoveryAvailable carries the timestamps of a stale .recovery file
// (store.RecoveryInfo). New does not look for a recovery file and nothing
// in this module emits this event; store.DetectRecovery must be called
// directly.
type RecoveryAvailable struct {
	ModifiedTime        int64
	PrimaryModifiedTime int64
}

// SaveCompleted fires when a store.AutoSaver flush succeeds (an auto-save
// or a recovery snapshot). PersistenceControl.Save and SaveTo return
// their result directly and emit no event.
type SaveCompleted struct{}

// SaveFailed fires when a store.AutoSaver flush fails with a
// non-transient error or exhausts its transient retries; Err is
// always non-nil and, per spec §7, only IoFatal failures are meant to
// surface to the user.
type SaveFailed struct {
	Err error
}

func (ChunkLoaded) isEvent()       {}
func (ChunkUnloaded) isEvent()     {}
func (BodySpawned) isEvent()       {}
func (BodyDestroyed) isEvent()     {}
func (RecoveryAvailable) isEvent() {}
func (SaveCompleted) isEvent()     {}
func (SaveFailed) isEvent()        {}

// eventBusCapacity bounds the event channel; once full, the oldest event
// is dropped to admit the new one rather than blocking the tick thread
// (informational events are lossy by design, spec §7 "Outside a tick,
// errors propagate to the host via the event stream").
const eventBusCapacity = 256

// eventBus is a bounded, drop-oldest-when-full fan-out point for Event
// values, fed by the tick thread and drained by the host.
type eventBus struct {
	ch chan Event
}

func newEventBus() *eventBus {
	return &eventBus{ch: make(chan Event, eventBusCapacity)}
}

// Emit posts ev, dropping the oldest queued event if the channel is full.
func (b *eventBus) Emit(ev Event) {
	for {
		select {
		case b.ch <- ev:
			return
		default:
		}
		select {
		case <-b.ch:
		default:
		}
	}
}

// Events returns the channel hosts should range over to drain the event
// stream.
func (b *eventBus) Events() <-chan Event {
	return b.ch
}
