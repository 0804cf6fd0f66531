package store

import (
	"os"

	"github.com/api-haus/pixelworld/pxerr"
)

// RecoveryPath returns the parallel recovery-file path for a save file
// (spec §6: "Recovery file mirrors format with a trailing .recovery
// filename component").
func RecoveryPath(savePath string) string {
	return savePath + RecoveryExtension
}

// RecoveryInfo is surfaced to the host as the RecoveryAvailable event
// (spec §6) when a save is opened and a stale recovery file is found.
type RecoveryInfo struct {
	ModifiedTime        int64
	PrimaryModifiedTime int64
}

// PendingRecovery describes a `.recovery` file found alongside the
// primary save; the host resolves it with Accept or Reject. It is built
// only by DetectRecovery, which the world-loading path does not call, so
// loading is not gated on it.
type PendingRecovery struct {
	Info         RecoveryInfo
	recoveryPath string
	primaryPath  string
}

// DetectRecovery checks for a stale recovery file next to savePath. It
// returns nil, nil if there is none.
func DetectRecovery(savePath string, cc CompileConstants) (*PendingRecovery, error) {
	recPath := RecoveryPath(savePath)
	recBuf, err := os.ReadFile(recPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(recBuf) < HeaderSize {
		return nil, &pxerr.StoreCorruptError{Kind: pxerr.CorruptHeader}
	}
	recHeader, err := DecodeHeader(recBuf[:HeaderSize])
	if err != nil {
		return nil, err
	}

	var primaryModified int64
	if primaryBuf, err := os.ReadFile(savePath); err == nil && len(primaryBuf) >= HeaderSize {
		if ph, err := DecodeHeader(primaryBuf[:HeaderSize]); err == nil {
			primaryModified = ph.Modified
		}
	}

	return &PendingRecovery{
		Info: RecoveryInfo{
			ModifiedTime:        recHeader.Modified,
			PrimaryModifiedTime: primaryModified,
		},
		recoveryPath: recPath,
		primaryPath:  savePath,
	}, nil
}

// Accept replaces the primary save with the recovery file's contents and
// deletes the recovery file (the world then loads from the recovered
// state).
func (p *PendingRecovery) Accept() error {
	data, err := os.ReadFile(p.recoveryPath)
	if err != nil {
		return err
	}
	tmp := p.primaryPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, p.primaryPath); err != nil {
		return err
	}
	return os.Remove(p.recoveryPath)
}

// Reject discards the recovery file and keeps the primary save as-is.
func (p *PendingRecovery) Reject() error {
	return os.Remove(p.recoveryPath)
}

// WriteRecoverySnapshot writes a full copy of the current save file to
// its recovery path, used by AutoSaver's recovery timer.
func (s *Store) WriteRecoverySnapshot() error {
	s.mu.Lock()
	info, err := s.file.Stat()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	buf := make([]byte, info.Size())
	if _, err := s.file.ReadAt(buf, 0); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	recPath := RecoveryPath(s.path)
	tmp := recPath + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, recPath)
}

// DeleteRecoverySnapshot removes the recovery file; called on clean
// shutdown (spec §4.5 Recovery: "on clean shutdown the recovery file is
// deleted").
func (s *Store) DeleteRecoverySnapshot() error {
	err := os.Remove(RecoveryPath(s.path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
