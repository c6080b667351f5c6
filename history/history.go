// Package history implements the bounded, time-ordered dedup log. Accept
// decisions depend only on the most recent window of entries and the
// incoming message; persistence is a flat JSON file, tolerant of corrupt
// individual entries on load.
//
// Grounded on phone/cache.go and phone/request_queue.go:
// JSON-file persistence under a data directory, guarded by a
// sync.RWMutex, corrupt-entry tolerance ("warn and continue") on load.
// The capped, time-ordered eviction mirrors
// azaurus1-swarm/internal/routing/aodv.go's expiration-driven
// RoutingTable eviction, adapted from time-based to capacity-based.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/vuelog"
)

const logPrefix = "history"

// Store is the exclusive owner of the dedup/history state: no
// other component mutates it.
type Store struct {
	mu       sync.RWMutex
	entries  []protocol.StoredMessage // oldest first
	capacity int
	window   int
	path     string
}

// New creates an empty, in-memory-only store (no persistence path).
func New(capacity, window int) *Store {
	return &Store{capacity: capacity, window: window}
}

// Open creates a store backed by path, loading any existing history.
// Corrupt entries are skipped, never aborting the load.
func Open(path string, capacity, window int) (*Store, error) {
	s := &Store{capacity: capacity, window: window, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("vuelink/history: reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		vuelog.Warn(logPrefix, "history file %s is corrupt, starting empty: %v", s.path, err)
		return nil
	}

	entries := make([]protocol.StoredMessage, 0, len(raws))
	for i, raw := range raws {
		var sm protocol.StoredMessage
		if err := json.Unmarshal(raw, &sm); err != nil {
			vuelog.Warn(logPrefix, "skipping corrupt history entry %d: %v", i, err)
			continue
		}
		entries = append(entries, sm)
	}
	if len(entries) > s.capacity {
		entries = entries[len(entries)-s.capacity:]
	}
	s.entries = entries
	return nil
}

// Accept implements the accept policy: scan the most recent
// min(window, len(history)) entries; accept a novel message unconditionally,
// and accept a duplicate only if it carries the repeat flag and the
// matching entry did not. On acceptance the message is appended to history
// (evicting the oldest on overflow) and persisted, if a path was configured.
func (s *Store) Accept(m protocol.Message, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup, dupWithRepeat := s.scanLocked(m)
	accept := !dup || (m.GetRepeat() && !dupWithRepeat)
	if !accept {
		vuelog.Debug(logPrefix, "rejecting duplicate %s (repeat=%v)", m.Kind(), m.GetRepeat())
		return false
	}

	s.entries = append(s.entries, protocol.StoredMessage{Message: m, ReceivedAt: now})
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	vuelog.Info(logPrefix, "accepted %s (repeat=%v), history length=%d", m.Kind(), m.GetRepeat(), len(s.entries))

	if s.path != "" {
		if err := s.saveLocked(); err != nil {
			vuelog.Warn(logPrefix, "failed to persist history: %v", err)
		}
	}
	return true
}

// scanLocked must be called with s.mu held.
func (s *Store) scanLocked(m protocol.Message) (dup, dupWithRepeat bool) {
	n := len(s.entries)
	start := n - s.window
	if start < 0 {
		start = 0
	}
	for i := n - 1; i >= start; i-- {
		h := s.entries[i]
		if protocol.Equivalent(h.Message, m) {
			dup = true
			if h.Message.GetRepeat() {
				dupWithRepeat = true
			}
		}
	}
	return dup, dupWithRepeat
}

// List returns a copy of the history, oldest first.
func (s *Store) List() []protocol.StoredMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]protocol.StoredMessage, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the current history length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes both the in-memory and on-disk state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vuelink/history: clearing %s: %w", s.path, err)
	}
	return nil
}

// saveLocked must be called with s.mu held.
func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.entries, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
