package body

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-haus/pixelworld/pixel"
)

func TestRegistrySpawnGetDespawn(t *testing.T) {
	reg := NewRegistry(NewIDGenerator(1))
	pixels := make([]pixel.Pixel, 4)
	mask := make([]byte, MaskBytes(2, 2))
	b := reg.Spawn(2, 2, pixels, mask, 1, 1, Transform{}, true)
	require.NotNil(t, reg.Get(b.ID))
	assert.Equal(t, 1, reg.Len())

	reg.Despawn(b.ID)
	assert.Nil(t, reg.Get(b.ID))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryRegisterPreservesID(t *testing.T) {
	reg := NewRegistry(NewIDGenerator(7))
	b := newTestBody(MakeID(7, 99), 2, 2)
	reg.Register(b)
	assert.Same(t, b, reg.Get(MakeID(7, 99)))
}

func TestRegistryEvictEmpty(t *testing.T) {
	reg := NewRegistry(NewIDGenerator(3))
	pixels := make([]pixel.Pixel, 4)
	emptyMask := make([]byte, MaskBytes(2, 2))
	fullMask := make([]byte, MaskBytes(2, 2))
	fullMask[0] = 0x0F

	empty := reg.Spawn(2, 2, pixels, emptyMask, 1, 1, Transform{}, true)
	nonEmpty := reg.Spawn(2, 2, pixels, fullMask, 1, 1, Transform{}, true)

	dead := reg.EvictEmpty()
	require.Len(t, dead, 1)
	assert.Equal(t, empty.ID, dead[0])
	assert.Nil(t, reg.Get(empty.ID))
	assert.NotNil(t, reg.Get(nonEmpty.ID))
}

func TestRegistryAllSnapshot(t *testing.T) {
	reg := NewRegistry(NewIDGenerator(5))
	pixels := make([]pixel.Pixel, 4)
	mask := make([]byte, MaskBytes(2, 2))
	reg.Spawn(2, 2, pixels, mask, 1, 1, Transform{}, true)
	reg.Spawn(2, 2, pixels, mask, 1, 1, Transform{}, true)
	assert.Len(t, reg.All(), 2)
}
