package watcher

import (
	"sync"
)

// StateStore is the in-memory owner of all watcher state. URL iteration
// order is insertion order, which fixes the tie-break order of search
// results and the layout of exports. All methods are safe for concurrent
// use; ApplyChange replaces the history and snapshot for a URL under one
// lock so readers never see a half-updated pair.
type StateStore struct {
	mu        sync.RWMutex
	urls      []string
	snapshots map[string]Snapshot
	history   map[string][]ChangeRecord
	retention int
}

// NewStateStore creates an empty store. retention <= 0 selects
// DefaultRetentionLimit.
func NewStateStore(retention int) *StateStore {
	if retention <= 0 {
		retention = DefaultRetentionLimit
	}
	return &StateStore{
		snapshots: make(map[string]Snapshot),
		history:   make(map[string][]ChangeRecord),
		retention: retention,
	}
}

// RetentionLimit reports the per-URL history bound.
func (s *StateStore) RetentionLimit() int {
	return s.retention
}

// AddURL registers a URL for monitoring. Returns ErrAlreadyMonitored when
// the URL is already tracked.
func (s *StateStore) AddURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.urls {
		if u == url {
			return ErrAlreadyMonitored
		}
	}
	s.urls = append(s.urls, url)
	return nil
}

// RemoveURL stops monitoring a URL and drops its snapshot and history.
func (s *StateStore) RemoveURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.urls {
		if u == url {
			s.urls = append(s.urls[:i], s.urls[i+1:]...)
			delete(s.snapshots, url)
			delete(s.history, url)
			return nil
		}
	}
	return ErrNotFound
}

// URLs returns the monitored URLs in insertion order.
func (s *StateStore) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out
}

// Monitored reports whether url is tracked.
func (s *StateStore) Monitored(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.urls {
		if u == url {
			return true
		}
	}
	return false
}

// Snapshot returns the current snapshot for url, if any.
func (s *StateStore) Snapshot(url string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[url]
	return snap, ok
}

// SetSnapshot writes the first snapshot for a URL. The URL is registered
// if it was not already monitored, preserving insertion order.
func (s *StateStore) SetSnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureURLLocked(snap.URL)
	s.snapshots[snap.URL] = snap
}

// ApplyChange atomically appends rec to the URL's history, truncates the
// history to the retention limit (oldest dropped first), and overwrites the
// snapshot. A concurrent reader sees either the full old pair or the full
// new pair.
func (s *StateStore) ApplyChange(snap Snapshot, rec ChangeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureURLLocked(snap.URL)

	h := append(s.history[rec.URL], rec)
	if len(h) > s.retention {
		h = h[len(h)-s.retention:]
	}
	s.history[rec.URL] = h
	s.snapshots[snap.URL] = snap
}

// History returns a copy of the change records for url, oldest first.
func (s *StateStore) History(url string) []ChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.history[url]
	out := make([]ChangeRecord, len(h))
	copy(out, h)
	return out
}

// HistoryRecord finds one change record by URL and record ID.
func (s *StateStore) HistoryRecord(url, id string) (ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.history[url] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return ChangeRecord{}, ErrNotFound
}

// Export returns a deep copy of the full state: a consistent point-in-time
// view that later mutations cannot touch. Search and reporting operate on
// exports, never on live maps.
func (s *StateStore) Export() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		MonitoredURLs: make([]string, len(s.urls)),
		Snapshots:     make(map[string]Snapshot, len(s.snapshots)),
		History:       make(map[string][]ChangeRecord, len(s.history)),
	}
	copy(st.MonitoredURLs, s.urls)
	for u, snap := range s.snapshots {
		st.Snapshots[u] = snap
	}
	for u, h := range s.history {
		recs := make([]ChangeRecord, len(h))
		copy(recs, h)
		st.History[u] = recs
	}
	return st
}

// Restore replaces the full store contents with st, re-applying the
// retention bound in case the persisted state predates a lower limit.
func (s *StateStore) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urls = make([]string, len(st.MonitoredURLs))
	copy(s.urls, st.MonitoredURLs)

	s.snapshots = make(map[string]Snapshot, len(st.Snapshots))
	for u, snap := range st.Snapshots {
		s.snapshots[u] = snap
		s.ensureURLLocked(u)
	}

	s.history = make(map[string][]ChangeRecord, len(st.History))
	for u, h := range st.History {
		if len(h) > s.retention {
			h = h[len(h)-s.retention:]
		}
		recs := make([]ChangeRecord, len(h))
		copy(recs, h)
		s.history[u] = recs
		s.ensureURLLocked(u)
	}
}

// ClearHistory drops all change records for every URL. Snapshots and the
// monitored list survive. Idempotent.
func (s *StateStore) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make(map[string][]ChangeRecord)
}

// ClearAll resets the store to empty. Idempotent.
func (s *StateStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = nil
	s.snapshots = make(map[string]Snapshot)
	s.history = make(map[string][]ChangeRecord)
}

// ensureURLLocked registers url if absent. Caller holds s.mu.
func (s *StateStore) ensureURLLocked(url string) {
	for _, u := range s.urls {
		if u == url {
			return
		}
	}
	s.urls = append(s.urls, url)
}
