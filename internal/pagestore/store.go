// Package pagestore keeps the last-known annotation snapshot for every page
// of a submission. It is the only state that legitimately outlives a single
// canvas session and is the source of truth when a page is reopened.
package pagestore

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"sheet-marker/internal/annotation"
)

// Store maps page index to the page's last-known snapshot. At most one
// snapshot per page; saving replaces the previous one atomically. There is
// no eviction: the store lives for the whole editing session.
type Store struct {
	mu    sync.RWMutex
	pages map[int]annotation.Snapshot
}

// New creates an empty store.
func New() *Store {
	return &Store{pages: make(map[int]annotation.Snapshot)}
}

// Save overwrites the snapshot for the given page.
func (s *Store) Save(pageIndex int, snap annotation.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[pageIndex] = snap.Clone()
}

// Load returns the snapshot for the given page and whether one exists.
func (s *Store) Load(pageIndex int) (annotation.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.pages[pageIndex]
	if !ok {
		return annotation.Snapshot{}, false
	}
	return snap.Clone(), true
}

// Pages returns the indices that have a stored snapshot, ascending.
func (s *Store) Pages() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.pages))
	for idx := range s.pages {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// sessionFile is the on-disk shape of a saved review session.
type sessionFile struct {
	Version int                         `json:"version"`
	Pages   map[int]annotation.Snapshot `json:"pages"`
}

// WriteFile persists the whole store as a JSON session file next to the
// submission, so a review can be resumed later.
func (s *Store) WriteFile(path string) error {
	s.mu.RLock()
	file := sessionFile{Version: 1, Pages: make(map[int]annotation.Snapshot, len(s.pages))}
	for idx, snap := range s.pages {
		file.Pages[idx] = snap.Clone()
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile loads a previously saved session file, replacing the store's
// contents.
func (s *Store) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode session file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = make(map[int]annotation.Snapshot, len(file.Pages))
	for idx, snap := range file.Pages {
		s.pages[idx] = snap
	}
	return nil
}
