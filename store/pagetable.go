package store

import (
	"encoding/binary"
	"sort"

	"github.com/api-haus/pixelworld/chunk"
)

// EncodePageEntry serializes e into a fresh 24-byte buffer, with CRC8
// computed over the first 23 bytes.
func EncodePageEntry(e PageEntry) []byte {
	buf := make([]byte, PageEntrySize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], uint32(e.CX))
	le.PutUint32(buf[4:8], uint32(e.CY))
	le.PutUint64(buf[8:16], e.DataOffset)
	le.PutUint32(buf[16:20], e.DataSize)
	buf[20] = byte(e.StorageType)
	// buf[21:23] reserved, left zero.
	buf[23] = crc8(buf[0:23])
	return buf
}

// DecodePageEntry parses a 24-byte page-table entry. ok is false when the
// CRC8 doesn't match — the caller drops the entry (spec §4.5 Integrity).
func DecodePageEntry(buf []byte) (e PageEntry, ok bool) {
	if len(buf) < PageEntrySize {
		return PageEntry{}, false
	}
	if crc8(buf[0:23]) != buf[23] {
		return PageEntry{}, false
	}
	le := binary.LittleEndian
	e.CX = int32(le.Uint32(buf[0:4]))
	e.CY = int32(le.Uint32(buf[4:8]))
	e.DataOffset = le.Uint64(buf[8:16])
	e.DataSize = le.Uint32(buf[16:20])
	e.StorageType = StorageType(buf[20])
	e.CRC8 = buf[23]
	return e, true
}

// Coord returns the chunk coordinate this entry describes.
func (e PageEntry) Coord() chunk.Coord { return chunk.Coord{CX: e.CX, CY: e.CY} }

// DecodePageTable parses every entry in a page-table byte blob. Entries
// that fail CRC validation are dropped, not returned — their chunks
// regenerate procedurally on first access, matching Integrity's "bad
// entries are dropped" rule. Truncated tables (a partial final entry)
// simply stop at the last complete entry, which is how Integrity's
// truncated-file recovery falls out of this decoder for free.
func DecodePageTable(buf []byte) []PageEntry {
	n := len(buf) / PageEntrySize
	out := make([]PageEntry, 0, n)
	for i := 0; i < n; i++ {
		entryBuf := buf[i*PageEntrySize : (i+1)*PageEntrySize]
		if e, ok := DecodePageEntry(entryBuf); ok {
			out = append(out, e)
		}
	}
	return out
}

// EncodePageTable serializes entries sorted by (cy, cx) as spec §4.5
// requires, into one contiguous byte blob.
func EncodePageTable(entries []PageEntry) []byte {
	sorted := make([]PageEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CY != sorted[j].CY {
			return sorted[i].CY < sorted[j].CY
		}
		return sorted[i].CX < sorted[j].CX
	})
	buf := make([]byte, 0, len(sorted)*PageEntrySize)
	for _, e := range sorted {
		buf = append(buf, EncodePageEntry(e)...)
	}
	return buf
}

// Index builds a coordinate→entry map for O(1) lookup (spec §4.5 Read
// protocol).
func Index(entries []PageEntry) map[chunk.Coord]PageEntry {
	m := make(map[chunk.Coord]PageEntry, len(entries))
	for _, e := range entries {
		m[e.Coord()] = e
	}
	return m
}
