package store

import (
	"encoding/binary"
	"fmt"

	"github.com/api-haus/pixelworld/pxerr"
)

// EncodeHeader serializes h into a fresh 64-byte buffer.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	le := binary.LittleEndian
	le.PutUint16(buf[4:6], h.Version)
	le.PutUint16(buf[6:8], h.Flags)
	le.PutUint64(buf[8:16], h.WorldSeed)
	le.PutUint64(buf[16:24], uint64(h.Created))
	le.PutUint64(buf[24:32], uint64(h.Modified))
	le.PutUint32(buf[32:36], h.ChunkCount)
	le.PutUint32(buf[36:40], h.PageTableSize)
	le.PutUint64(buf[40:48], h.DataRegionPtr)
	le.PutUint64(buf[48:56], h.EntitySectionPtr)
	le.PutUint32(buf[56:60], h.ChunkSize)
	le.PutUint16(buf[60:62], h.TileSize)
	buf[62] = h.PixelSize
	// buf[63] reserved, left zero.
	return buf
}

// DecodeHeader parses a 64-byte header and validates the magic bytes.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, &pxerr.StoreCorruptError{Kind: pxerr.CorruptHeader, Err: fmt.Errorf("header truncated: got %d bytes", len(buf))}
	}
	if buf[0] != Magic[0] || buf[1] != Magic[1] || buf[2] != Magic[2] || buf[3] != Magic[3] {
		return Header{}, &pxerr.StoreCorruptError{Kind: pxerr.CorruptHeader, Err: fmt.Errorf("bad magic %q", buf[0:4])}
	}
	le := binary.LittleEndian
	return Header{
		Version:          le.Uint16(buf[4:6]),
		Flags:            le.Uint16(buf[6:8]),
		WorldSeed:        le.Uint64(buf[8:16]),
		Created:          int64(le.Uint64(buf[16:24])),
		Modified:         int64(le.Uint64(buf[24:32])),
		ChunkCount:       le.Uint32(buf[32:36]),
		PageTableSize:    le.Uint32(buf[36:40]),
		DataRegionPtr:    le.Uint64(buf[40:48]),
		EntitySectionPtr: le.Uint64(buf[48:56]),
		ChunkSize:        le.Uint32(buf[56:60]),
		TileSize:         le.Uint16(buf[60:62]),
		PixelSize:        buf[62],
	}, nil
}

// ValidateCompileTimeConstants checks a loaded header against the engine
// the host actually compiled with (spec §7 IncompatibleSave).
func ValidateCompileTimeConstants(h Header, chunkSize, tileSize, pixelSize int) error {
	if h.Version != Version {
		return &pxerr.IncompatibleSaveError{Kind: pxerr.IncompatibleVersion, Expected: Version, Actual: h.Version}
	}
	if int(h.ChunkSize) != chunkSize {
		return &pxerr.IncompatibleSaveError{Kind: pxerr.IncompatibleChunkSize, Expected: chunkSize, Actual: h.ChunkSize}
	}
	if int(h.TileSize) != tileSize {
		return &pxerr.IncompatibleSaveError{Kind: pxerr.IncompatibleTileSize, Expected: tileSize, Actual: h.TileSize}
	}
	if int(h.PixelSize) != pixelSize {
		return &pxerr.IncompatibleSaveError{Kind: pxerr.IncompatiblePixelSize, Expected: pixelSize, Actual: h.PixelSize}
	}
	return nil
}
