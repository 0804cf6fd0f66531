package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/api-haus/pixelworld/pixel"
)

// deltaDoNotSave is the sentinel delta count meaning the chunk exactly
// matches its procedural regeneration and need not be saved at all
// (spec §4.5 Chunk payload).
const deltaDoNotSave = 0

// deltaUpgradeToEmpty is the sentinel delta count meaning the chunk is
// fully void; callers should store it as StorageEmpty instead.
const deltaUpgradeToEmpty = 0xFFFFFF

// pixelsToBytes serializes a pixel slice to its 4-bytes-per-pixel wire
// form without unsafe: Pixel's four uint8 fields are already in the wire
// order spec §3 assumes sizeof(Pixel)==4, so this is a straight copy.
func pixelsToBytes(pixels []pixel.Pixel) []byte {
	buf := make([]byte, len(pixels)*4)
	for i, p := range pixels {
		buf[i*4+0] = p.Material
		buf[i*4+1] = p.Color
		buf[i*4+2] = p.Damage
		buf[i*4+3] = p.Flags
	}
	return buf
}

func bytesToPixels(buf []byte) []pixel.Pixel {
	n := len(buf) / 4
	pixels := make([]pixel.Pixel, n)
	for i := range pixels {
		pixels[i] = pixel.Pixel{
			Material: buf[i*4+0],
			Color:    buf[i*4+1],
			Damage:   buf[i*4+2],
			Flags:    buf[i*4+3],
		}
	}
	return pixels
}

func lz4Compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decompress(compressed []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(compressed))
	return io.ReadAll(r)
}

// EncodeFull compresses the entire chunk pixel buffer (spec §4.5 Full).
func EncodeFull(pixels []pixel.Pixel) ([]byte, error) {
	return lz4Compress(pixelsToBytes(pixels))
}

// DecodeFull decompresses a Full payload back into pixels.
func DecodeFull(payload []byte) ([]pixel.Pixel, error) {
	raw, err := lz4Decompress(payload)
	if err != nil {
		return nil, err
	}
	return bytesToPixels(raw), nil
}

// deltaPair is one (linear_index:u24, pixel:u32) record inside a Delta
// payload (spec §4.5 Chunk payload).
type deltaPair struct {
	Index uint32 // only the low 24 bits are ever used
	Pixel pixel.Pixel
}

// BuildDelta compares current against a freshly-seeded procedural buffer
// and returns the differing (index, pixel) pairs, in ascending index
// order, plus whether delta encoding should be used at all per the ≤75%
// policy (spec §4.5 Delta policy).
func BuildDelta(current, procedural []pixel.Pixel) (pairs []deltaPair, useDelta bool) {
	total := len(current)
	for i := range current {
		if current[i] != procedural[i] {
			pairs = append(pairs, deltaPair{Index: uint32(i), Pixel: current[i]})
		}
	}
	if total == 0 {
		return pairs, true
	}
	return pairs, len(pairs)*4 <= total*3 // ≤ 75%
}

// EncodeDelta compresses a set of delta pairs, already known to satisfy
// the ≤75% policy. If pairs is empty the sentinel count (do-not-save) is
// written and the caller must skip persisting this chunk entirely.
func EncodeDelta(pairs []deltaPair) ([]byte, error) {
	count := len(pairs)
	if count > deltaUpgradeToEmpty {
		return nil, fmt.Errorf("store: delta pair count %d exceeds u24 range", count)
	}
	raw := make([]byte, 3+count*7)
	put24(raw[0:3], uint32(count))
	for i, p := range pairs {
		off := 3 + i*7
		put24(raw[off:off+3], p.Index)
		raw[off+3] = p.Pixel.Material
		raw[off+4] = p.Pixel.Color
		raw[off+5] = p.Pixel.Damage
		raw[off+6] = p.Pixel.Flags
	}
	return lz4Compress(raw)
}

// DecodeDelta decompresses a Delta payload and overlays its differing
// pixels onto a procedurally-regenerated buffer (spec §4.5 Read
// protocol: "regenerate procedurally and overlay"). The buffer is
// mutated in place and also returned for convenience.
func DecodeDelta(payload []byte, base []pixel.Pixel) ([]pixel.Pixel, error) {
	raw, err := lz4Decompress(payload)
	if err != nil {
		return nil, err
	}
	if len(raw) < 3 {
		return nil, fmt.Errorf("store: delta payload truncated")
	}
	count := get24(raw[0:3])
	if count == deltaDoNotSave || count == deltaUpgradeToEmpty {
		return base, nil
	}
	want := 3 + int(count)*7
	if len(raw) < want {
		return nil, fmt.Errorf("store: delta payload truncated: want %d have %d", want, len(raw))
	}
	for i := 0; i < int(count); i++ {
		off := 3 + i*7
		idx := get24(raw[off : off+3])
		if int(idx) >= len(base) {
			continue // corrupt index, skip rather than panic
		}
		base[idx] = pixel.Pixel{
			Material: raw[off+3],
			Color:    raw[off+4],
			Damage:   raw[off+5],
			Flags:    raw[off+6],
		}
	}
	return base, nil
}

func put24(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}

func get24(src []byte) uint32 {
	return uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
}
