package store

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/pixel"
)

// buildEntitySection assembles a raw entity section the same way
// EncodeEntitySection does, but lets the caller corrupt one encoded
// record in place before the payloads are appended, so offsets can be
// checked independent of body.New plumbing.
func buildEntitySection(t *testing.T, bodies []*body.Body, corruptRecord func(recBuf []byte)) []byte {
	t.Helper()
	header := make([]byte, EntityHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(bodies)))

	type payloadSet struct{ pixels, mask []byte }
	payloads := make([]payloadSet, len(bodies))
	recordBufs := make([][]byte, len(bodies))

	for i, b := range bodies {
		pixelPayload, err := lz4Compress(pixelsToBytes(b.Pixels))
		require.NoError(t, err)
		maskPayload, err := lz4Compress(b.Mask)
		require.NoError(t, err)
		payloads[i] = payloadSet{pixels: pixelPayload, mask: maskPayload}
		r := EntityRecord{
			ID:               b.ID,
			Width:            uint32(b.Width),
			Height:           uint32(b.Height),
			OriginX:          int32(b.OriginOffsetX),
			OriginY:          int32(b.OriginOffsetY),
			PixelPayloadSize: uint32(len(pixelPayload)),
			MaskPayloadSize:  uint32(len(maskPayload)),
		}
		recordBufs[i] = EncodeEntityRecord(r)
	}
	if corruptRecord != nil {
		corruptRecord(recordBufs[0])
	}

	out := append([]byte{}, header...)
	for _, rb := range recordBufs {
		out = append(out, rb...)
	}
	for _, p := range payloads {
		out = append(out, p.pixels...)
		out = append(out, p.mask...)
	}
	return out
}

func TestEntityRecordLengthCRCIndependentOfBodyCRC(t *testing.T) {
	r := EntityRecord{ID: 7, Width: 4, Height: 4, PixelPayloadSize: 12, MaskPayloadSize: 3}
	buf := EncodeEntityRecord(r)

	// Corrupt a field covered only by the whole-record CRC (ID bytes).
	buf[0] ^= 0xFF

	decoded, ok, lengthsOK := DecodeEntityRecord(buf)
	assert.False(t, ok, "whole-record CRC must now fail")
	assert.True(t, lengthsOK, "length fields are independently CRC'd and still trustworthy")
	assert.Equal(t, r.PixelPayloadSize, decoded.PixelPayloadSize)
	assert.Equal(t, r.MaskPayloadSize, decoded.MaskPayloadSize)
}

func TestDecodeEntitySectionSkipsCorruptRecordWithoutDesyncingLaterBodies(t *testing.T) {
	gen := body.NewIDGenerator(1)
	b1 := body.New(gen.Next(), 4, 4, make([]pixel.Pixel, 16), make([]byte, body.MaskBytes(4, 4)), 0, 0, body.Transform{}, true)
	b2 := body.New(gen.Next(), 4, 4, make([]pixel.Pixel, 16), make([]byte, body.MaskBytes(4, 4)), 0, 0, body.Transform{}, true)
	b2.SetMaskBit(1, 1, true)

	buf := buildEntitySection(t, []*body.Body{b1, b2}, func(recBuf []byte) {
		// Flip a byte inside the record's ID field, outside the
		// length-field range (buf[48:60]), so lengthsOK must survive.
		recBuf[0] ^= 0xFF
	})

	decoded, err := DecodeEntitySection(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1, "the corrupt first record is dropped, the second body must still decode")
	assert.Equal(t, b2.ID, decoded[0].Body.ID)
	assert.Equal(t, b2.Width, decoded[0].Body.Width)
}
