package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/api-haus/pixelworld/chunk"
)

// SaveExtension is the on-disk suffix for pixelworld save files.
const SaveExtension = ".pxsv"

// RecoveryExtension is appended to SaveExtension for the parallel
// recovery file (spec §6: "Recovery file mirrors format with a trailing
// .recovery filename component").
const RecoveryExtension = ".recovery"

// SaveTo implements the copy-on-write `save_to(path)` API (spec §4.5 Save
// API, decided as Open Question #1 in DESIGN.md: true copy-on-write, not
// a no-op). The current file's bytes are read into memory under the lock
// and written to path through a fresh os.File; the source file handle held
// by s is never reopened
// for writing, so the copy is the only thing touched by the subsequent
// incremental-save flush the caller performs against the returned Store.
func (s *Store) SaveTo(path string) (*Store, error) {
	s.mu.Lock()
	srcInfo, err := s.file.Stat()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	src := make([]byte, srcInfo.Size())
	if _, err := s.file.ReadAt(src, 0); err != nil && err != io.EOF {
		s.mu.Unlock()
		return nil, err
	}
	cc := CompileConstants{ChunkSize: s.chunkSize, TileSize: s.tileSize, PixelSize: s.pixelSize}
	s.mu.Unlock()

	dst, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if _, err := dst.Write(src); err != nil {
		dst.Close()
		return nil, err
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return nil, err
	}
	dst.Close()

	return Open(path, cc)
}

// Compact rewrites the save file from scratch, keeping only payloads
// referenced by a live page-table entry, via the atomic-rewrite protocol:
// write to <path>.tmp, fsync, rename over the original (spec §4.5 Write
// protocol: "Atomic file rewrite"). Call when DeadSpaceRatio() exceeds
// the compaction threshold (default 0.25, spec §6).
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpPath := s.path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("store: compact: create tmp: %w", err)
	}

	writeOffset := int64(HeaderSize)
	newEntries := make(map[chunk.Coord]PageEntry, len(s.entries))
	for coord, e := range s.entries {
		if e.StorageType == StorageEmpty {
			newEntries[coord] = e
			continue
		}
		buf := make([]byte, e.DataSize)
		if _, err := s.file.ReadAt(buf, int64(e.DataOffset)); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("store: compact: read payload %v: %w", coord, err)
		}
		if _, err := tmp.WriteAt(buf, writeOffset); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("store: compact: write payload %v: %w", coord, err)
		}
		e.DataOffset = uint64(writeOffset)
		writeOffset += int64(len(buf))
		newEntries[coord] = e
	}

	entryList := make([]PageEntry, 0, len(newEntries))
	for _, e := range newEntries {
		entryList = append(entryList, e)
	}
	ptBytes := EncodePageTable(entryList)
	if _, err := tmp.WriteAt(ptBytes, writeOffset); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: compact: write page table: %w", err)
	}
	fileEnd := writeOffset + int64(len(ptBytes))

	entitySectionPtr := uint64(0)
	if len(s.entitySectionBytes) > 0 {
		entitySectionPtr = uint64(fileEnd)
		if _, err := tmp.WriteAt(s.entitySectionBytes, fileEnd); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("store: compact: write entity section: %w", err)
		}
		fileEnd += int64(len(s.entitySectionBytes))
	}

	s.header.DataRegionPtr = uint64(writeOffset)
	s.header.PageTableSize = uint32(len(ptBytes))
	s.header.EntitySectionPtr = entitySectionPtr
	s.header.ChunkCount = uint32(len(entryList))

	if _, err := tmp.WriteAt(EncodeHeader(s.header), 0); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: compact: write header: %w", err)
	}
	if err := tmp.Truncate(fileEnd); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: compact: truncate: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: compact: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: compact: close tmp: %w", err)
	}

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("store: compact: close source: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("store: compact: rename: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("store: compact: reopen: %w", err)
	}
	s.file = f
	s.entries = newEntries
	s.deadBytes = 0
	return nil
}

// ListSaves returns the save names (without extension) present in dir,
// sorted lexically (spec §6 `list_saves()`).
func ListSaves(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), SaveExtension) {
			names = append(names, strings.TrimSuffix(e.Name(), SaveExtension))
		}
	}
	sort.Strings(names)
	return names, nil
}

// DeleteSave removes the save file named name from dir (spec §6
// `delete_save(name)`).
func DeleteSave(dir, name string) error {
	return os.Remove(filepath.Join(dir, name+SaveExtension))
}
