package cache

import (
	"sync"
	"time"

	"igprofiles/pkg/models"
)

// Store holds the current cache snapshot in memory. Readers see either the
// previous snapshot or the next one, never a partially built run: a refresh
// replaces the whole snapshot under the write lock.
type Store struct {
	mu       sync.RWMutex
	snapshot models.Snapshot
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current snapshot. The slices are copied so
// callers can filter and sort without racing a concurrent refresh.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.Snapshot{
		LastUpdate: s.snapshot.LastUpdate,
		FetchCount: s.snapshot.FetchCount,
	}
	if s.snapshot.Profiles != nil {
		snap.Profiles = make([]models.ProfileRecord, len(s.snapshot.Profiles))
		copy(snap.Profiles, s.snapshot.Profiles)
	}
	if s.snapshot.Errors != nil {
		snap.Errors = make([]models.FetchError, len(s.snapshot.Errors))
		copy(snap.Errors, s.snapshot.Errors)
	}
	return snap
}

// Replace installs the result of a refresh run: records and errors are
// swapped in wholesale, the timestamp is set and the run counter advances.
// It returns the installed snapshot.
func (s *Store) Replace(records []models.ProfileRecord, errs []models.FetchError, now time.Time) models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Profiles = records
	s.snapshot.Errors = errs
	s.snapshot.LastUpdate = now
	s.snapshot.FetchCount++

	return s.snapshot
}

// Restore seeds the store from a persisted snapshot, keeping its run counter
func (s *Store) Restore(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snap
}

// ProfileCount returns the number of cached records
func (s *Store) ProfileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot.Profiles)
}
