package pixelworld

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigMatchesNamedDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 16, cfg.TileSize)
	assert.Equal(t, 0.75, cfg.DeltaThreshold)
	assert.Equal(t, 0.25, cfg.CompactionThreshold)
	assert.Equal(t, 60.0, cfg.CATickRateHz)
	assert.Equal(t, 20.0, cfg.DecayRateHz)
	assert.Equal(t, 10.0, cfg.HeatRateHz)
	assert.Nil(t, cfg.Logger)
}

func TestDefaultConfigChunkSizeDivisibleByTileSize(t *testing.T) {
	cfg := DefaultConfig()
	assert.Zero(t, cfg.ChunkSize%cfg.TileSize)
}
