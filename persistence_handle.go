package pixelworld

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/pixel"
	"github.com/api-haus/pixelworld/store"
)

// PersistenceControl is the "persistence-control handle" spec §6 names:
// save()/save_to(path)/auto_save_config(enabled, interval)/list_saves()/
// delete_save(name)/enable()/disable(), wrapping store.Store and
// store.AutoSaver.
type PersistenceControl struct {
	world *World
	saver *store.AutoSaver
}

// NewPersistenceControl wraps w's store. Returns nil if w has no
// attached store (an ephemeral, non-persistent world).
func NewPersistenceControl(w *World) *PersistenceControl {
	if w.store == nil {
		return nil
	}
	pc := &PersistenceControl{world: w}
	pc.saver = store.NewAutoSaver(
		w.cfg.AutoSaveInterval,
		w.cfg.RecoveryInterval,
		pc.flushSave,
		pc.flushRecovery,
	)
	go pc.forwardStatus()
	pc.saver.Start()
	return pc
}

// flushSave performs one incremental save pass into the world's own store.
func (pc *PersistenceControl) flushSave() error {
	return pc.flushInto(pc.world.store)
}

// flushInto gathers every dirty chunk and body and performs one
// incremental save pass (store.Store.SaveChunks + WriteEntitySection) into s.
func (pc *PersistenceControl) flushInto(s *store.Store) error {
	w := pc.world
	var dirty []store.DirtyChunk
	for _, c := range w.Canvas.Chunks() {
		if c.Persistence == chunk.Dirty {
			dirty = append(dirty, store.DirtyChunk{
				Coord:  c.Coord,
				Pixels: append([]pixel.Pixel{}, c.Pixels...),
			})
		}
	}
	seeder := func(coord chunk.Coord, worldSeed uint64) []pixel.Pixel {
		if w.procGen == nil {
			return make([]pixel.Pixel, w.cfg.ChunkSize*w.cfg.ChunkSize)
		}
		return w.procGen(coord, worldSeed)
	}
	if len(dirty) > 0 {
		if err := s.SaveChunks(dirty, seeder); err != nil {
			return err
		}
	}
	if err := s.WriteEntitySection(persistableBodies(w.Bodies.All())); err != nil {
		return err
	}
	if s.DeadSpaceRatio() > w.cfg.CompactionThreshold {
		if err := s.Compact(); err != nil {
			return err
		}
	}
	return nil
}

func (pc *PersistenceControl) flushRecovery() error {
	return pc.world.store.WriteRecoverySnapshot()
}

func persistableBodies(all []*body.Body) []*body.Body {
	out := make([]*body.Body, 0, len(all))
	for _, b := range all {
		if b.Persistable {
			out = append(out, b)
		}
	}
	return out
}

func (pc *PersistenceControl) forwardStatus() {
	for s := range pc.saver.Status {
		switch s.Kind {
		case store.StatusSaveCompleted:
			pc.world.events.Emit(SaveCompleted{})
		case store.StatusSaveFailed:
			pc.world.events.Emit(SaveFailed{Err: s.Err})
		}
	}
}

// Save performs one explicit, synchronous incremental save (spec §6
// `save()`).
func (pc *PersistenceControl) Save() error {
	return pc.flushSave()
}

// SaveTo implements copy-on-write `save_to(path)`: the world continues
// operating on its current file; path receives an independent copy, and the
// dirty chunks and bodies are flushed into that copy, not into the source.
func (pc *PersistenceControl) SaveTo(path string) error {
	copied, err := pc.world.store.SaveTo(path)
	if err != nil {
		return err
	}
	if err := pc.flushInto(copied); err != nil {
		copied.Close()
		return fmt.Errorf("pixelworld: save_to: flush into copy: %w", err)
	}
	return copied.Close()
}

// AutoSaveConfig implements `auto_save_config(enabled, interval)`. The
// interval is stored in the world's Config; the running store.AutoSaver
// keeps the ticker it was built with, so only a PersistenceControl created
// afterwards uses the new interval.
func (pc *PersistenceControl) AutoSaveConfig(enabled bool, interval time.Duration) {
	pc.world.cfg.AutoSaveInterval = interval
	if enabled {
		pc.saver.Enable()
	} else {
		pc.saver.Disable()
	}
}

// Enable/Disable toggle auto-save (spec §6 `enable()`, `disable()`).
func (pc *PersistenceControl) Enable()  { pc.saver.Enable() }
func (pc *PersistenceControl) Disable() { pc.saver.Disable() }

// ListSaves implements `list_saves()` over the directory containing the
// world's save file.
func (pc *PersistenceControl) ListSaves() ([]string, error) {
	return store.ListSaves(filepath.Dir(pc.world.storePath()))
}

// DeleteSave implements `delete_save(name)` over the directory
// containing the world's save file.
func (pc *PersistenceControl) DeleteSave(name string) error {
	return store.DeleteSave(filepath.Dir(pc.world.storePath()), name)
}

// Stop halts the auto-save/recovery timers and deletes the recovery
// snapshot on clean shutdown (spec §4.5 Recovery: "on clean shutdown the
// recovery file is deleted").
func (pc *PersistenceControl) Stop() error {
	pc.saver.Stop()
	return pc.world.store.DeleteRecoverySnapshot()
}
