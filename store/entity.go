package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/pxerr"
)

// EntityRecord mirrors the 64-byte fixed record per pixel body (spec
// §4.5 Entity Section). Position/rotation are the *blitted* transform,
// not the live physics transform, so a reload never leaves ghost pixels.
type EntityRecord struct {
	ID               body.ID
	PosX, PosY       float32
	Rotation         float32
	VelX, VelY       float32
	AngularVelocity  float32
	Width, Height    uint32
	OriginX, OriginY int32
	PixelPayloadSize uint32
	MaskPayloadSize  uint32
	ExtPayloadSize   uint32
}

// EncodeEntityRecord serializes r into a fresh 64-byte buffer with a
// trailing CRC8 over the preceding bytes.
func EncodeEntityRecord(r EntityRecord) []byte {
	buf := make([]byte, EntityRecordSize)
	le := binary.LittleEndian
	le.PutUint64(buf[0:8], uint64(r.ID))
	le.PutUint32(buf[8:12], math.Float32bits(r.PosX))
	le.PutUint32(buf[12:16], math.Float32bits(r.PosY))
	le.PutUint32(buf[16:20], math.Float32bits(r.Rotation))
	le.PutUint32(buf[20:24], math.Float32bits(r.VelX))
	le.PutUint32(buf[24:28], math.Float32bits(r.VelY))
	le.PutUint32(buf[28:32], math.Float32bits(r.AngularVelocity))
	le.PutUint32(buf[32:36], r.Width)
	le.PutUint32(buf[36:40], r.Height)
	le.PutUint32(buf[40:44], uint32(r.OriginX))
	le.PutUint32(buf[44:48], uint32(r.OriginY))
	le.PutUint32(buf[48:52], r.PixelPayloadSize)
	le.PutUint32(buf[52:56], r.MaskPayloadSize)
	le.PutUint32(buf[56:60], r.ExtPayloadSize)
	buf[60] = crc8(buf[0:60])
	// A second, independent CRC8 over just the three length fields: if the
	// rest of the record is corrupt but this byte still checks out, the
	// payload section can still be walked past this record without
	// desyncing every body that follows it.
	buf[61] = crc8(buf[48:60])
	// buf[62:64] reserved, left zero.
	return buf
}

// DecodeEntityRecord parses a 64-byte entity record. ok is false on a
// whole-record CRC8 mismatch, in which case the caller must drop the
// record's fields (spec §7 StoreCorrupt). lengthsOK is validated
// independently of ok: it reports whether PixelPayloadSize/
// MaskPayloadSize/ExtPayloadSize can still be trusted to skip this
// record's payload bytes even when ok is false.
func DecodeEntityRecord(buf []byte) (r EntityRecord, ok bool, lengthsOK bool) {
	if len(buf) < EntityRecordSize {
		return EntityRecord{}, false, false
	}
	le := binary.LittleEndian
	lengthsOK = crc8(buf[48:60]) == buf[61]
	if lengthsOK {
		r.PixelPayloadSize = le.Uint32(buf[48:52])
		r.MaskPayloadSize = le.Uint32(buf[52:56])
		r.ExtPayloadSize = le.Uint32(buf[56:60])
	}
	if crc8(buf[0:60]) != buf[60] {
		return r, false, lengthsOK
	}
	r.ID = body.ID(le.Uint64(buf[0:8]))
	r.PosX = math.Float32frombits(le.Uint32(buf[8:12]))
	r.PosY = math.Float32frombits(le.Uint32(buf[12:16]))
	r.Rotation = math.Float32frombits(le.Uint32(buf[16:20]))
	r.VelX = math.Float32frombits(le.Uint32(buf[20:24]))
	r.VelY = math.Float32frombits(le.Uint32(buf[24:28]))
	r.AngularVelocity = math.Float32frombits(le.Uint32(buf[28:32]))
	r.Width = le.Uint32(buf[32:36])
	r.Height = le.Uint32(buf[36:40])
	r.OriginX = int32(le.Uint32(buf[40:44]))
	r.OriginY = int32(le.Uint32(buf[44:48]))
	return r, true, lengthsOK
}

// EncodeEntitySection serializes the entity-count header, then every
// record, then every record's variable-size compressed payloads in the
// same order (spec §4.5 Entity Section). Empty bodies must already have
// been filtered out by the caller (spec §4.5 Pixel-body persistence).
func EncodeEntitySection(bodies []*body.Body) ([]byte, error) {
	header := make([]byte, EntityHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(bodies)))

	type payloadSet struct {
		pixels, mask []byte
	}
	payloads := make([]payloadSet, len(bodies))
	records := make([]EntityRecord, len(bodies))

	for i, b := range bodies {
		pixelPayload, err := lz4Compress(pixelsToBytes(b.Pixels))
		if err != nil {
			return nil, fmt.Errorf("store: encode body %d pixels: %w", b.ID, err)
		}
		maskPayload, err := lz4Compress(b.Mask)
		if err != nil {
			return nil, fmt.Errorf("store: encode body %d mask: %w", b.ID, err)
		}
		payloads[i] = payloadSet{pixels: pixelPayload, mask: maskPayload}
		records[i] = EntityRecord{
			ID:               b.ID,
			PosX:             b.LastBlitTransform.Position.X(),
			PosY:             b.LastBlitTransform.Position.Y(),
			Rotation:         b.LastBlitTransform.Rotation,
			VelX:             b.LinearVelocity.X(),
			VelY:             b.LinearVelocity.Y(),
			AngularVelocity:  b.AngularVelocity,
			Width:            uint32(b.Width),
			Height:           uint32(b.Height),
			OriginX:          int32(b.OriginOffsetX),
			OriginY:          int32(b.OriginOffsetY),
			PixelPayloadSize: uint32(len(pixelPayload)),
			MaskPayloadSize:  uint32(len(maskPayload)),
			ExtPayloadSize:   0,
		}
	}

	out := append([]byte{}, header...)
	for _, r := range records {
		out = append(out, EncodeEntityRecord(r)...)
	}
	for _, p := range payloads {
		out = append(out, p.pixels...)
		out = append(out, p.mask...)
	}
	return out, nil
}

// DecodedBody is a loaded pixel body plus the transform it should be
// registered under (spec §4.5: bodies reload at their blitted transform).
type DecodedBody struct {
	Body      *body.Body
	Transform body.Transform
}

// decodedRecord pairs a parsed EntityRecord with whether its non-length
// fields passed CRC8 (valid). Its payload-length fields are trustworthy
// whenever lengthsOK was true, independent of valid, so the payload
// loop below can always skip the right number of bytes.
type decodedRecord struct {
	record EntityRecord
	valid  bool
}

// DecodeEntitySection parses an entity section back into bodies. A
// record that fails its whole-record CRC8 is skipped (spec §7
// StoreCorrupt), but its payload bytes are still stepped over using the
// record's separately-CRC'd length fields, so one corrupt record never
// desyncs the shared offset for every body that follows it in the
// section. If even the length fields are corrupt, the offset can no
// longer be trusted at all and decoding stops at that record.
func DecodeEntitySection(buf []byte) ([]DecodedBody, error) {
	if len(buf) < EntityHeaderSize {
		return nil, &pxerr.StoreCorruptError{Kind: pxerr.CorruptEntry, Err: fmt.Errorf("entity header truncated")}
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	off := EntityHeaderSize

	records := make([]decodedRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+EntityRecordSize > len(buf) {
			break // truncated file: stop at last complete record
		}
		r, ok, lengthsOK := DecodeEntityRecord(buf[off : off+EntityRecordSize])
		off += EntityRecordSize
		if !lengthsOK {
			// Length fields themselves are corrupt: every payload offset from
			// here on is unrecoverable, so stop rather than guess.
			break
		}
		records = append(records, decodedRecord{record: r, valid: ok})
	}

	out := make([]DecodedBody, 0, len(records))
	for _, dr := range records {
		r := dr.record
		if off+int(r.PixelPayloadSize)+int(r.MaskPayloadSize) > len(buf) {
			break
		}
		pixelPayload := buf[off : off+int(r.PixelPayloadSize)]
		off += int(r.PixelPayloadSize)
		maskPayload := buf[off : off+int(r.MaskPayloadSize)]
		off += int(r.MaskPayloadSize)
		off += int(r.ExtPayloadSize)

		if !dr.valid {
			continue
		}

		pixelsRaw, err := lz4Decompress(pixelPayload)
		if err != nil {
			continue
		}
		mask, err := lz4Decompress(maskPayload)
		if err != nil {
			continue
		}
		pixels := bytesToPixels(pixelsRaw)
		t := body.Transform{Position: mgl32.Vec2{r.PosX, r.PosY}, Rotation: r.Rotation}
		b := body.New(r.ID, int(r.Width), int(r.Height), pixels, mask, int(r.OriginX), int(r.OriginY), t, true)
		b.LinearVelocity = mgl32.Vec2{r.VelX, r.VelY}
		b.AngularVelocity = r.AngularVelocity
		out = append(out, DecodedBody{Body: b, Transform: t})
	}
	return out, nil
}
