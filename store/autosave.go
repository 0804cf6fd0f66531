package store

import (
	"errors"
	"math"
	"time"

	"github.com/api-haus/pixelworld/pxerr"
)

// StatusKind distinguishes AutoSaver status events (spec §6 SaveCompleted
// / SaveFailed(kind)).
type StatusKind string

const (
	StatusSaveCompleted StatusKind = "SaveCompleted"
	StatusSaveFailed    StatusKind = "SaveFailed"
)

// Status is one event emitted on AutoSaver's Status channel.
type Status struct {
	Kind StatusKind
	Err  error // non-nil only for StatusSaveFailed
}

// FlushFunc gathers dirty chunks/bodies and performs one save pass. The
// caller (the root persistence handle) owns canvas/body-registry access;
// AutoSaver only owns timing and retry policy.
type FlushFunc func() error

// AutoSaver runs the periodic auto-save and recovery-file timers on a
// background goroutine and retries transient I/O failures with bounded
// exponential backoff (spec §4.5 Save API / §5 Failure semantics:
// "Transient failures retry with exponential backoff; permanent failures
// report via a status channel and leave the source file intact").
type AutoSaver struct {
	autoSaveInterval time.Duration
	recoveryInterval time.Duration
	flushSave        FlushFunc
	flushRecovery    FlushFunc

	Status chan Status

	enabled chan bool
	stop    chan struct{}
	done    chan struct{}
}

const (
	maxBackoffRetries = 5
	initialBackoff    = 200 * time.Millisecond
	maxBackoff        = 10 * time.Second
)

// NewAutoSaver constructs an AutoSaver. It does not start timers until
// Start is called.
func NewAutoSaver(autoSaveInterval, recoveryInterval time.Duration, flushSave, flushRecovery FlushFunc) *AutoSaver {
	return &AutoSaver{
		autoSaveInterval: autoSaveInterval,
		recoveryInterval: recoveryInterval,
		flushSave:        flushSave,
		flushRecovery:    flushRecovery,
		Status:           make(chan Status, 8),
		enabled:          make(chan bool, 1),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

// Start launches the background timer loop. Safe to call once.
func (a *AutoSaver) Start() {
	a.enabled <- true
	go a.run()
}

// Enable/Disable toggle auto-save without stopping the recovery timer
// (spec §6 persistence-control handle: `enable()`, `disable()`).
func (a *AutoSaver) Enable()  { a.setEnabled(true) }
func (a *AutoSaver) Disable() { a.setEnabled(false) }

func (a *AutoSaver) setEnabled(v bool) {
	select {
	case <-a.enabled:
	default:
	}
	a.enabled <- v
}

// Stop halts the background loop and waits for it to exit.
func (a *AutoSaver) Stop() {
	close(a.stop)
	<-a.done
}

func (a *AutoSaver) run() {
	defer close(a.done)

	saveTicker := time.NewTicker(a.autoSaveInterval)
	defer saveTicker.Stop()
	recoveryTicker := time.NewTicker(a.recoveryInterval)
	defer recoveryTicker.Stop()

	enabled := true
	for {
		select {
		case <-a.stop:
			return
		case enabled = <-a.enabled:
		case <-saveTicker.C:
			if !enabled {
				continue
			}
			a.attempt(a.flushSave)
		case <-recoveryTicker.C:
			a.attempt(a.flushRecovery)
		}
	}
}

// attempt runs fn with bounded exponential backoff on transient errors.
// A permanent failure (anything not wrapping pxerr.ErrIoTransient) is
// reported immediately and the loop moves on, leaving the file intact.
func (a *AutoSaver) attempt(fn FlushFunc) {
	backoff := initialBackoff
	var lastErr error
	for try := 0; try <= maxBackoffRetries; try++ {
		err := fn()
		if err == nil {
			a.Status <- Status{Kind: StatusSaveCompleted}
			return
		}
		lastErr = err
		if !errors.Is(err, pxerr.ErrIoTransient) {
			break
		}
		time.Sleep(backoff)
		backoff = time.Duration(math.Min(float64(backoff*2), float64(maxBackoff)))
	}
	a.Status <- Status{Kind: StatusSaveFailed, Err: lastErr}
}
