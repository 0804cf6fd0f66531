package pixelworld

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/pixel"
)

func TestPixelBodyHandleSpawnEmitsEvent(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(0), "")
	require.NoError(t, err)

	h := NewPixelBodyHandle(w)
	pixels := []pixel.Pixel{{Material: 5, Flags: pixel.FlagSolid}}
	mask := []byte{1}
	b := h.Spawn(1, 1, pixels, mask, 0, 0, body.Transform{}, true)

	require.NotNil(t, b)
	assert.Equal(t, 1, h.Len())

	ev := (<-w.Events()).(BodySpawned)
	assert.Equal(t, b.ID, ev.ID)
}

func TestPixelBodyHandleDespawnEmitsEvent(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(0), "")
	require.NoError(t, err)

	h := NewPixelBodyHandle(w)
	pixels := []pixel.Pixel{{Material: 5, Flags: pixel.FlagSolid}}
	mask := []byte{1}
	b := h.Spawn(1, 1, pixels, mask, 0, 0, body.Transform{}, true)
	<-w.Events() // drain BodySpawned

	h.Despawn(b.ID)
	assert.Nil(t, h.Get(b.ID))

	ev := (<-w.Events()).(BodyDestroyed)
	assert.Equal(t, b.ID, ev.ID)
}

func TestPixelBodyHandleReapEmptyEvictsZeroMaskBodies(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(0), "")
	require.NoError(t, err)

	h := NewPixelBodyHandle(w)
	pixels := []pixel.Pixel{{Material: 5, Flags: pixel.FlagSolid}}
	mask := []byte{0} // already fully empty
	b := h.Spawn(1, 1, pixels, mask, 0, 0, body.Transform{}, true)
	<-w.Events() // drain BodySpawned

	dead := h.ReapEmpty()
	require.Len(t, dead, 1)
	assert.Equal(t, b.ID, dead[0])
	assert.Nil(t, h.Get(b.ID))
}

func TestPixelBodyHandleSetVelocity(t *testing.T) {
	w, err := New(singleChunkConfig(), newTestMaterials(t, 4), solidSeeder(0), "")
	require.NoError(t, err)

	h := NewPixelBodyHandle(w)
	pixels := []pixel.Pixel{{Material: 5, Flags: pixel.FlagSolid}}
	mask := []byte{1}
	b := h.Spawn(1, 1, pixels, mask, 0, 0, body.Transform{}, true)

	ok := h.SetVelocity(b.ID, mgl32.Vec2{1, 2}, 0.5)
	require.True(t, ok)
	assert.Equal(t, float32(1), b.LinearVelocity.X())
	assert.Equal(t, float32(2), b.LinearVelocity.Y())
	assert.Equal(t, float32(0.5), b.AngularVelocity)

	assert.False(t, h.SetVelocity(body.MakeID(99, 99), mgl32.Vec2{0, 0}, 0))
}
