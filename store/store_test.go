package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/pixel"
	"github.com/api-haus/pixelworld/pxerr"
)

func testCC() CompileConstants {
	return CompileConstants{ChunkSize: 16, TileSize: 4, PixelSize: 4}
}

func solidPixels(n int, material uint8) []pixel.Pixel {
	out := make([]pixel.Pixel, n)
	for i := range out {
		out[i] = pixel.Pixel{Material: material, Flags: pixel.FlagSolid}
	}
	return out
}

func voidProcedural(chunk.Coord, uint64) []pixel.Pixel {
	return make([]pixel.Pixel, 16*16)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Version: Version, Flags: 3, WorldSeed: 42,
		Created: 1000, Modified: 2000,
		ChunkCount: 7, PageTableSize: 168,
		DataRegionPtr: 500, EntitySectionPtr: 900,
		ChunkSize: 512, TileSize: 16, PixelSize: 4,
	}
	decoded, err := DecodeHeader(EncodeHeader(h))
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	buf := EncodeHeader(Header{Version: Version})
	buf[0] = 'X'
	_, err := DecodeHeader(buf)
	assert.Error(t, err)
}

func TestValidateCompileTimeConstantsDetectsMismatch(t *testing.T) {
	h := Header{Version: Version, ChunkSize: 512, TileSize: 16, PixelSize: 4}
	assert.NoError(t, ValidateCompileTimeConstants(h, 512, 16, 4))
	assert.Error(t, ValidateCompileTimeConstants(h, 256, 16, 4))
}

func TestPageEntryRoundTripAndCorruptionDetection(t *testing.T) {
	e := PageEntry{CX: -3, CY: 5, DataOffset: 1234, DataSize: 99, StorageType: StorageFull}
	buf := EncodePageEntry(e)
	decoded, ok := DecodePageEntry(buf)
	require.True(t, ok)
	assert.Equal(t, e.CX, decoded.CX)
	assert.Equal(t, e.CY, decoded.CY)
	assert.Equal(t, e.StorageType, decoded.StorageType)

	buf[5] ^= 0xFF // corrupt a data byte without touching the CRC byte
	_, ok = DecodePageEntry(buf)
	assert.False(t, ok)
}

func TestDecodePageTableDropsTruncatedTrailingEntry(t *testing.T) {
	full := EncodePageTable([]PageEntry{
		{CX: 0, CY: 0, StorageType: StorageEmpty},
		{CX: 1, CY: 0, StorageType: StorageEmpty},
	})
	truncated := full[:PageEntrySize+PageEntrySize/2]
	entries := DecodePageTable(truncated)
	assert.Len(t, entries, 1)
}

func TestFullCodecRoundTrip(t *testing.T) {
	pixels := solidPixels(64, 5)
	payload, err := EncodeFull(pixels)
	require.NoError(t, err)
	decoded, err := DecodeFull(payload)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}

func TestDeltaCodecRoundTrip(t *testing.T) {
	base := make([]pixel.Pixel, 256)
	current := make([]pixel.Pixel, 256)
	copy(current, base)
	current[10] = pixel.Pixel{Material: 9, Flags: pixel.FlagSolid}
	current[200] = pixel.Pixel{Material: 3}

	pairs, useDelta := BuildDelta(current, base)
	require.True(t, useDelta)
	require.Len(t, pairs, 2)

	payload, err := EncodeDelta(pairs)
	require.NoError(t, err)

	decoded, err := DecodeDelta(payload, append([]pixel.Pixel{}, base...))
	require.NoError(t, err)
	assert.Equal(t, current, decoded)
}

func TestBuildDeltaChoosesFullBeyondThreshold(t *testing.T) {
	base := make([]pixel.Pixel, 100)
	current := make([]pixel.Pixel, 100)
	for i := 0; i < 90; i++ {
		current[i] = pixel.Pixel{Material: uint8(i%200 + 1)}
	}
	_, useDelta := BuildDelta(current, base)
	assert.False(t, useDelta)
}

func TestBuildDeltaEmptyWhenMatchesProcedural(t *testing.T) {
	base := make([]pixel.Pixel, 64)
	pairs, useDelta := BuildDelta(base, base)
	assert.Empty(t, pairs)
	assert.True(t, useDelta)
}

func TestCreateOpenSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world"+SaveExtension)

	s, err := Create(path, 12345, testCC())
	require.NoError(t, err)

	pixels := solidPixels(16*16, 7)
	err = s.SaveChunks([]DirtyChunk{{Coord: chunk.Coord{CX: 1, CY: 2}, Pixels: pixels}}, voidProcedural)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path, testCC())
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.Has(chunk.Coord{CX: 1, CY: 2}))
	loaded, err := reopened.Load(chunk.Coord{CX: 1, CY: 2}, func() []pixel.Pixel { return nil })
	require.NoError(t, err)
	assert.Equal(t, pixels, loaded)
}

func TestLoadMissingChunkReturnsStoreMiss(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world"+SaveExtension)
	s, err := Create(path, 1, testCC())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(chunk.Coord{CX: 9, CY: 9}, nil)
	assert.ErrorIs(t, err, pxerr.ErrStoreMiss)
}

func TestSaveChunksSkipsChunkMatchingProcedural(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world"+SaveExtension)
	s, err := Create(path, 1, testCC())
	require.NoError(t, err)
	defer s.Close()

	coord := chunk.Coord{CX: 0, CY: 0}
	terrain := solidPixels(16*16, 3)
	matchingProcedural := func(chunk.Coord, uint64) []pixel.Pixel { return append([]pixel.Pixel{}, terrain...) }

	err = s.SaveChunks([]DirtyChunk{{Coord: coord, Pixels: terrain}}, matchingProcedural)
	require.NoError(t, err)
	assert.False(t, s.Has(coord))
}

func TestSaveChunksStoresFullyVoidChunkAsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world"+SaveExtension)
	s, err := Create(path, 1, testCC())
	require.NoError(t, err)
	defer s.Close()

	coord := chunk.Coord{CX: 0, CY: 0}
	all := make([]pixel.Pixel, 16*16)
	err = s.SaveChunks([]DirtyChunk{{Coord: coord, Pixels: all}}, voidProcedural)
	require.NoError(t, err)
	assert.True(t, s.Has(coord))

	loaded, err := s.Load(coord, func() []pixel.Pixel { return nil })
	require.NoError(t, err)
	assert.Equal(t, all, loaded)
}

func TestEntitySectionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world"+SaveExtension)
	s, err := Create(path, 1, testCC())
	require.NoError(t, err)
	defer s.Close()

	gen := body.NewIDGenerator(1)
	b := body.New(gen.Next(), 4, 4, make([]pixel.Pixel, 16), make([]byte, body.MaskBytes(4, 4)), 2, 2, body.Transform{}, true)
	b.SetMaskBit(1, 1, true)

	require.NoError(t, s.WriteEntitySection([]*body.Body{b}))

	decoded, err := s.ReadEntitySection()
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, b.ID, decoded[0].Body.ID)
	assert.Equal(t, b.Width, decoded[0].Body.Width)
}

func TestCompactReducesDeadSpace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world"+SaveExtension)
	s, err := Create(path, 1, testCC())
	require.NoError(t, err)
	defer s.Close()

	coord := chunk.Coord{CX: 3, CY: 3}
	v1 := solidPixels(16*16, 1)
	v2 := solidPixels(16*16, 2)
	require.NoError(t, s.SaveChunks([]DirtyChunk{{Coord: coord, Pixels: v1}}, voidProcedural))
	require.NoError(t, s.SaveChunks([]DirtyChunk{{Coord: coord, Pixels: v2}}, voidProcedural))
	assert.Greater(t, s.DeadSpaceRatio(), 0.0)

	require.NoError(t, s.Compact())
	assert.Equal(t, 0.0, s.DeadSpaceRatio())

	loaded, err := s.Load(coord, func() []pixel.Pixel { return nil })
	require.NoError(t, err)
	assert.Equal(t, v2, loaded)
}

func TestSaveToIsCopyOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world"+SaveExtension)
	s, err := Create(path, 1, testCC())
	require.NoError(t, err)
	defer s.Close()

	coord := chunk.Coord{CX: 0, CY: 1}
	pixels := solidPixels(16*16, 4)
	require.NoError(t, s.SaveChunks([]DirtyChunk{{Coord: coord, Pixels: pixels}}, voidProcedural))

	copyPath := filepath.Join(dir, "copy"+SaveExtension)
	copyStore, err := s.SaveTo(copyPath)
	require.NoError(t, err)
	defer copyStore.Close()

	assert.True(t, copyStore.Has(coord))
	assert.True(t, s.Has(coord))

	other := chunk.Coord{CX: 5, CY: 5}
	otherPixels := solidPixels(16*16, 9)
	require.NoError(t, copyStore.SaveChunks([]DirtyChunk{{Coord: other, Pixels: otherPixels}}, voidProcedural))
	assert.False(t, s.Has(other))
}

func TestRecoveryAcceptReplacesPrimary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world"+SaveExtension)
	s, err := Create(path, 1, testCC())
	require.NoError(t, err)

	coord := chunk.Coord{CX: 0, CY: 0}
	pixels := solidPixels(16*16, 1)
	require.NoError(t, s.SaveChunks([]DirtyChunk{{Coord: coord, Pixels: pixels}}, voidProcedural))
	require.NoError(t, s.WriteRecoverySnapshot())
	require.NoError(t, s.Close())

	pending, err := DetectRecovery(path, testCC())
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.NoError(t, pending.Accept())

	_, err = DetectRecovery(path, testCC())
	require.NoError(t, err)
}
