package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vkoritsas/go-paygate-bot/internal/domain"
)

// Manager holds the in-memory snapshot and serializes every access to it.
// All mutating operations funnel through Update, which flushes to disk after
// the mutation; readers go through View under the same mutex, so no caller
// ever observes a state that mixes parts of two mutations.
//
// A failed flush is logged and does not fail the operation: the in-memory
// state stays authoritative for the running process and the next successful
// flush (request-triggered or periodic) restores durability.
type Manager struct {
	mu    sync.Mutex
	store *Store
	snap  *domain.Snapshot
}

// Open loads the snapshot at path into a new Manager. A missing file starts
// empty silently; a corrupt or unreadable file is logged loudly and the
// process starts from empty state rather than crashing.
func Open(path string) *Manager {
	store := NewStore(path)
	snap, err := store.Load()
	if err != nil {
		log.Error().Err(err).Str("path", path).
			Msg("state load failed, starting from empty state")
		snap = domain.NewSnapshot()
	}
	return &Manager{store: store, snap: snap}
}

// Update runs fn against the snapshot under the mutation lock and flushes
// afterwards. If fn returns an error the snapshot may have been partially
// modified by fn; callers are expected to mutate only after their own
// validation has passed. The flush result is logged, not returned.
func (m *Manager) Update(fn func(*domain.Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := fn(m.snap); err != nil {
		return err
	}
	m.flushLocked()
	return nil
}

// View runs fn against the snapshot under the lock without flushing. fn must
// not retain references to snapshot internals past its return.
func (m *Manager) View(fn func(*domain.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.snap)
}

// Flush writes the current snapshot to disk.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Save(m.snap)
}

func (m *Manager) flushLocked() {
	if err := m.store.Save(m.snap); err != nil {
		log.Error().Err(err).Str("path", m.store.Path()).
			Msg("state flush failed, in-memory state remains authoritative")
	}
}

// AutoSave periodically flushes the snapshot until ctx is cancelled, then
// performs a final flush. It is the supervised replacement for an unmanaged
// background save loop: shutdown always ends with a flush.
func (m *Manager) AutoSave(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := m.Flush(); err != nil {
				log.Error().Err(err).Msg("autosave flush failed")
			}
		case <-ctx.Done():
			if err := m.Flush(); err != nil {
				log.Error().Err(err).Msg("final flush on shutdown failed")
			} else {
				log.Info().Msg("final state flush complete")
			}
			return
		}
	}
}
