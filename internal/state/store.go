// Package state owns the durable snapshot of all service entities and the
// single mutation path through which every entry point (webhook handler, bot
// update loop, admin commands, autosave) reads and writes it.
//
// Persistence is a single JSON file written with a write-to-temporary-then-
// atomic-rename pattern, so a crash mid-write never corrupts the previous
// good snapshot. A missing file on startup means empty state, not an error;
// a corrupt file is logged loudly and the process starts empty.
package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vkoritsas/go-paygate-bot/internal/domain"
)

// Store reads and writes snapshot files at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store bound to path. Nothing is touched on disk until
// Load or Save is called.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Load reads the snapshot from disk. A missing file yields a fresh empty
// snapshot and no error. Maps that were absent or null in the file are
// initialized so callers never see nil maps.
func (s *Store) Load() (*domain.Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewSnapshot(), nil
	}
	if err != nil {
		return nil, err
	}

	snap := domain.NewSnapshot()
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, err
	}
	if snap.PendingPayments == nil {
		snap.PendingPayments = map[string]*domain.PendingPayment{}
	}
	if snap.PurchaseLog == nil {
		snap.PurchaseLog = []domain.PurchaseRecord{}
	}
	if snap.KnownUsers == nil {
		snap.KnownUsers = map[int64]bool{}
	}
	if snap.Invites == nil {
		snap.Invites = map[int64]map[domain.ChannelTag]string{}
	}
	return snap, nil
}

// Save writes the snapshot to a temporary file in the same directory and
// atomically renames it over the previous one. The parent directory is
// created if needed.
func (s *Store) Save(snap *domain.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "snapshot-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
