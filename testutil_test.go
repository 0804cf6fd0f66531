package pixelworld

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/api-haus/pixelworld/material"
)

// newTestMaterials builds a minimal registry sufficient for World/Scheduler
// construction in this package's tests. tileSize must match the Config the
// resulting registry is paired with, since NewRegistry clamps Dispersion
// to tileSize/2.
func newTestMaterials(t *testing.T, tileSize int) *material.Registry {
	t.Helper()
	reg, err := material.NewRegistry(map[material.ID]material.Material{
		3: {Name: "stone", State: material.StateSolid, Density: 200},
		5: {Name: "sand", State: material.StatePowder, Density: 10},
		7: {Name: "dirt", State: material.StateSolid, Density: 50},
		9: {Name: "ash", State: material.StatePowder, Density: 1},
	}, tileSize)
	require.NoError(t, err)
	return reg
}
