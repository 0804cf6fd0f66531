package pixelworld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-haus/pixelworld/pixel"
)

func TestSimulationControlStartsPaused(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(3), "")
	require.NoError(t, err)

	c := NewSimulationControl(w)
	assert.False(t, c.IsRunning())
}

func TestSimulationControlStepNoOpsWhilePaused(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(3), "")
	require.NoError(t, err)
	w.Retick(0, 0)

	c := NewSimulationControl(w)
	require.NoError(t, c.Step(1.0/60))
	assert.Equal(t, int64(0), c.TickCount())
}

func TestSimulationControlResumeAdvancesOnStep(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(0), "")
	require.NoError(t, err)
	w.Retick(0, 0)

	c := NewSimulationControl(w)
	c.Resume()
	require.NoError(t, c.Step(1.0/60))
	assert.Equal(t, int64(1), c.TickCount())
}

func TestSimulationControlTickIgnoresPausedFlag(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(0), "")
	require.NoError(t, err)
	w.Retick(0, 0)

	c := NewSimulationControl(w)
	require.False(t, c.IsRunning())
	require.NoError(t, c.Tick(1.0/60))
	assert.Equal(t, int64(1), c.TickCount())
}

func TestSimulationControlPauseStopsFurtherSteps(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(0), "")
	require.NoError(t, err)
	w.Retick(0, 0)
	w.Set(0, 0, pixel.Pixel{Material: 5, Flags: pixel.FlagSolid})

	c := NewSimulationControl(w)
	c.Resume()
	require.NoError(t, c.Step(1.0/60))
	c.Pause()
	require.NoError(t, c.Step(1.0/60))
	assert.Equal(t, int64(1), c.TickCount(), "paused Step must not advance the tick counter again")
}
