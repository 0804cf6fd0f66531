package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/pixel"
	"github.com/api-haus/pixelworld/pxerr"
)

// Seeder is the host-supplied pure function (chunk_coord, world_seed) →
// chunk_buffer, consulted both to seed a Miss and as the Delta baseline
// (spec §6 Seeder interface, §4.5 Delta policy).
type Seeder func(coord chunk.Coord, worldSeed uint64) []pixel.Pixel

// Store is a single open save file. All mutation goes through mu: spec §5
// "Store file: single writer; readers ... use the same worker,
// serialized" — grounded on the teacher pack's lock-guarded chunk map in
// other_examples/2f6b9816_..._compressed.go.go, collapsed from a
// per-chunk atomic-pointer-plus-mutex pair to one file-wide mutex, since
// here the shared resource is file offsets, not independently
// lazily-generated in-memory chunks.
type Store struct {
	mu   sync.Mutex
	path string
	file *os.File

	header  Header
	entries map[chunk.Coord]PageEntry

	chunkSize, tileSize, pixelSize int

	deadBytes uint64 // bytes in the data region superseded by a later resave

	// entitySectionBytes holds the fully-encoded entity section (spec
	// §4.5 Entity Section), rewritten in full alongside the page table
	// whenever WriteEntitySection is called. nil means "no entity section
	// yet" (header.EntitySectionPtr stays 0).
	entitySectionBytes []byte
}

// CompileConstants bundles the values a save file is validated against on
// open (spec §7 IncompatibleSave).
type CompileConstants struct {
	ChunkSize, TileSize, PixelSize int
}

// Create makes a brand new, empty save file at path.
func Create(path string, worldSeed uint64, cc CompileConstants) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixNano()
	h := Header{
		Version:          Version,
		WorldSeed:        worldSeed,
		Created:          now,
		Modified:         now,
		ChunkCount:       0,
		PageTableSize:    0,
		DataRegionPtr:    HeaderSize,
		EntitySectionPtr: 0,
		ChunkSize:        uint32(cc.ChunkSize),
		TileSize:         uint16(cc.TileSize),
		PixelSize:        uint8(cc.PixelSize),
	}
	if _, err := f.WriteAt(EncodeHeader(h), 0); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(HeaderSize); err != nil {
		f.Close()
		return nil, err
	}
	return &Store{
		path:      path,
		file:      f,
		header:    h,
		entries:   make(map[chunk.Coord]PageEntry),
		chunkSize: cc.ChunkSize, tileSize: cc.TileSize, pixelSize: cc.PixelSize,
	}, nil
}

// Open opens an existing save file, validating compile-time constants and
// building the coordinate→entry index (spec §4.5 Read protocol).
func Open(path string, cc CompileConstants) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	headerBuf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		f.Close()
		return nil, err
	}
	h, err := DecodeHeader(headerBuf)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := ValidateCompileTimeConstants(h, cc.ChunkSize, cc.TileSize, cc.PixelSize); err != nil {
		f.Close()
		return nil, err
	}

	var entries []PageEntry
	if h.PageTableSize > 0 {
		ptBuf := make([]byte, h.PageTableSize)
		if _, err := f.ReadAt(ptBuf, int64(h.DataRegionPtr)); err != nil {
			f.Close()
			return nil, err
		}
		entries = DecodePageTable(ptBuf)
	}

	s := &Store{
		path:      path,
		file:      f,
		header:    h,
		entries:   Index(entries),
		chunkSize: cc.ChunkSize, tileSize: cc.TileSize, pixelSize: cc.PixelSize,
	}

	if h.EntitySectionPtr != 0 {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		n := info.Size() - int64(h.EntitySectionPtr)
		if n > 0 {
			buf := make([]byte, n)
			if _, err := f.ReadAt(buf, int64(h.EntitySectionPtr)); err != nil {
				f.Close()
				return nil, err
			}
			s.entitySectionBytes = buf
		}
	}

	return s, nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// WorldSeed returns the seed recorded in the header at creation time.
func (s *Store) WorldSeed() uint64 { return s.header.WorldSeed }

// Path returns the filesystem path this store was opened or created with.
func (s *Store) Path() string { return s.path }

// Has reports whether coord has a page-table entry at all.
func (s *Store) Has(coord chunk.Coord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[coord]
	return ok
}

// Load reads the chunk at coord. Returns pxerr.ErrStoreMiss if there is
// no entry — the caller should seed procedurally (spec §4.5 Read
// protocol / §7 StoreMiss). procedural is only invoked for Delta entries,
// to overlay onto the baseline.
func (s *Store) Load(coord chunk.Coord, procedural func() []pixel.Pixel) ([]pixel.Pixel, error) {
	s.mu.Lock()
	entry, ok := s.entries[coord]
	s.mu.Unlock()
	if !ok {
		return nil, pxerr.ErrStoreMiss
	}

	switch entry.StorageType {
	case StorageEmpty:
		return make([]pixel.Pixel, s.chunkSize*s.chunkSize), nil
	case StorageFull:
		payload, err := s.readPayload(entry)
		if err != nil {
			return nil, err
		}
		return DecodeFull(payload)
	case StorageDelta:
		payload, err := s.readPayload(entry)
		if err != nil {
			return nil, err
		}
		base := procedural()
		return DecodeDelta(payload, base)
	default:
		return nil, &pxerr.StoreCorruptError{Kind: pxerr.CorruptEntry, Err: fmt.Errorf("unknown storage type %d", entry.StorageType)}
	}
}

// readPayload reads the length-prefixed compressed bytes at entry's
// offset and validates the prefix against the page-table size (spec
// §4.5 Integrity: "the data-region entry-size prefix must match the
// page-table size (else skip)").
func (s *Store) readPayload(entry PageEntry) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, entry.DataSize)
	if _, err := s.file.ReadAt(buf, int64(entry.DataOffset)); err != nil {
		return nil, &pxerr.StoreCorruptError{Kind: pxerr.CorruptPayload, Err: err}
	}
	if len(buf) < 4 {
		return nil, &pxerr.StoreCorruptError{Kind: pxerr.CorruptPayload, Err: fmt.Errorf("payload too short")}
	}
	prefixLen := binary.LittleEndian.Uint32(buf[0:4])
	if int(prefixLen) != len(buf)-4 {
		return nil, &pxerr.StoreCorruptError{Kind: pxerr.CorruptPayload, Err: fmt.Errorf("length prefix %d does not match page-table size %d", prefixLen, len(buf)-4)}
	}
	return buf[4:], nil
}

// DirtyChunk is one chunk queued for the next SaveChunks call.
type DirtyChunk struct {
	Coord  chunk.Coord
	Pixels []pixel.Pixel
}

// SaveChunks appends new payloads to the data region, then rewrites the
// page table and header (spec §4.5 Write protocol: "Incremental save").
// seeder supplies the Delta baseline for each chunk.
func (s *Store) SaveChunks(chunks []DirtyChunk, seeder Seeder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeOffset := int64(s.header.DataRegionPtr)
	changed := false

	for _, dc := range chunks {
		procedural := seeder(dc.Coord, s.header.WorldSeed)
		if len(dc.Pixels) == 0 {
			continue
		}
		nonVoid := false
		for _, p := range dc.Pixels {
			if !p.IsVoid() {
				nonVoid = true
				break
			}
		}

		var entry PageEntry
		entry.CX, entry.CY = dc.Coord.CX, dc.Coord.CY

		if !nonVoid {
			entry.StorageType = StorageEmpty
		} else {
			pairs, useDelta := BuildDelta(dc.Pixels, procedural)
			if len(pairs) == 0 {
				// Matches procedural regeneration exactly: do not save at all.
				if old, existed := s.entries[dc.Coord]; existed {
					s.deadBytes += uint64(old.DataSize)
					delete(s.entries, dc.Coord)
					changed = true
				}
				continue
			}

			var payload []byte
			var err error
			if useDelta {
				payload, err = EncodeDelta(pairs)
				entry.StorageType = StorageDelta
			} else {
				payload, err = EncodeFull(dc.Pixels)
				entry.StorageType = StorageFull
			}
			if err != nil {
				return fmt.Errorf("store: encode chunk %v: %w", dc.Coord, err)
			}

			framed := make([]byte, 4+len(payload))
			binary.LittleEndian.PutUint32(framed[0:4], uint32(len(payload)))
			copy(framed[4:], payload)

			if _, err := s.file.WriteAt(framed, writeOffset); err != nil {
				return fmt.Errorf("store: write chunk %v: %w", dc.Coord, err)
			}
			entry.DataOffset = uint64(writeOffset)
			entry.DataSize = uint32(len(framed))
			writeOffset += int64(len(framed))
		}

		if old, existed := s.entries[dc.Coord]; existed {
			s.deadBytes += uint64(old.DataSize)
		}
		s.entries[dc.Coord] = entry
		changed = true
	}

	if !changed {
		return nil
	}

	return s.rewritePageTableAndHeader(writeOffset)
}

// rewritePageTableAndHeader writes the page table at dataEnd and the
// header last, per the write protocol's ordering guarantee.
func (s *Store) rewritePageTableAndHeader(dataEnd int64) error {
	entryList := make([]PageEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entryList = append(entryList, e)
	}
	ptBytes := EncodePageTable(entryList)
	if _, err := s.file.WriteAt(ptBytes, dataEnd); err != nil {
		return fmt.Errorf("store: write page table: %w", err)
	}

	entitySectionPtr := uint64(0)
	fileEnd := dataEnd + int64(len(ptBytes))
	if len(s.entitySectionBytes) > 0 {
		entitySectionPtr = uint64(fileEnd)
		if _, err := s.file.WriteAt(s.entitySectionBytes, fileEnd); err != nil {
			return fmt.Errorf("store: write entity section: %w", err)
		}
		fileEnd += int64(len(s.entitySectionBytes))
	}

	s.header.DataRegionPtr = uint64(dataEnd)
	s.header.PageTableSize = uint32(len(ptBytes))
	s.header.EntitySectionPtr = entitySectionPtr
	s.header.ChunkCount = uint32(len(entryList))
	s.header.Modified = time.Now().UnixNano()

	if err := s.file.Truncate(fileEnd); err != nil {
		return fmt.Errorf("store: truncate: %w", err)
	}
	if _, err := s.file.WriteAt(EncodeHeader(s.header), 0); err != nil {
		return fmt.Errorf("store: write header: %w", err)
	}
	return s.file.Sync()
}

// WriteEntitySection encodes bodies as the save file's entity section and
// persists it at once by rewriting the page table, entity section and
// header. Empty bodies must already be filtered out by the caller
// (spec §4.5 Pixel-body persistence: "Empty bodies ... are removed, not
// persisted").
func (s *Store) WriteEntitySection(bodies []*body.Body) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(bodies) == 0 {
		s.entitySectionBytes = nil
		return s.rewritePageTableAndHeader(int64(s.header.DataRegionPtr))
	}
	encoded, err := EncodeEntitySection(bodies)
	if err != nil {
		return err
	}
	s.entitySectionBytes = encoded
	return s.rewritePageTableAndHeader(int64(s.header.DataRegionPtr))
}

// ReadEntitySection decodes whatever entity section is currently on disk.
func (s *Store) ReadEntitySection() ([]DecodedBody, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entitySectionBytes) == 0 {
		return nil, nil
	}
	return DecodeEntitySection(s.entitySectionBytes)
}

// DeadSpaceRatio reports the fraction of the data region occupied by
// payloads no live page-table entry points at anymore (spec §4.5 Atomic
// file rewrite: "Trigger when dead-space ratio in the data region
// exceeds 25%").
func (s *Store) DeadSpaceRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	dataRegionSize := s.header.DataRegionPtr - HeaderSize
	if dataRegionSize == 0 {
		return 0
	}
	return float64(s.deadBytes) / float64(dataRegionSize)
}
