package pixelworld

import "sync"

// SimulationControl is the "simulation-control handle" spec §6 names:
// pause()/resume()/tick()/is_running(), wrapping sim.Scheduler.Step for
// hosts that drive their own frame loop as well as hosts that prefer
// explicit single-stepping.
type SimulationControl struct {
	mu      sync.Mutex
	world   *World
	running bool
}

// NewSimulationControl wraps w. The simulation starts paused; call
// Resume to let Step run, or call Tick directly for explicit stepping
// regardless of the running flag.
func NewSimulationControl(w *World) *SimulationControl {
	return &SimulationControl{world: w}
}

// Pause stops Step from advancing the scheduler on subsequent calls.
func (c *SimulationControl) Pause() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// Resume re-enables Step.
func (c *SimulationControl) Resume() {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
}

// IsRunning reports whether the control is currently resumed.
func (c *SimulationControl) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Step advances the world by dt seconds if the control is running. Hosts
// that drive their own frame loop call this every frame; it is a no-op
// while paused.
func (c *SimulationControl) Step(dt float64) error {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		return nil
	}
	return c.world.scheduler.Step(dt)
}

// Tick performs exactly one scheduler tick regardless of the running
// flag, for hosts that prefer explicit stepping (spec §6 `tick()`).
func (c *SimulationControl) Tick(dt float64) error {
	return c.world.scheduler.Step(dt)
}

// TickCount returns the scheduler's current tick counter.
func (c *SimulationControl) TickCount() int64 {
	return c.world.scheduler.Tick()
}
