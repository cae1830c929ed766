// Package app provides application-wide state and events.
package app

import (
	"sync"

	"sheet-marker/internal/pagestore"
	"sheet-marker/internal/publish"
	"sheet-marker/internal/submission"
)

// State holds what outlives a single editing surface: the submission being
// reviewed, its page store, the current page index and the latest publish
// outcome. UI panels subscribe to changes through the event listeners.
type State struct {
	mu sync.RWMutex

	Submission  *submission.Submission
	Store       *pagestore.Store
	CurrentPage int
	Modified    bool

	// Outcome of the most recent publish-all run, newest first wins.
	PublishStatuses []publish.PageStatus

	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventSubmissionLoaded EventType = iota
	EventPageChanged
	EventAnnotationCommitted
	EventToolChanged
	EventStyleChanged
	EventExportComplete
	EventPublishComplete
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates an empty application state.
func NewState() *State {
	return &State{
		Store:     pagestore.New(),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetSubmission installs a freshly fetched submission and resets the page
// cursor. The page store is replaced; snapshots belong to one submission.
func (s *State) SetSubmission(sub *submission.Submission) {
	s.mu.Lock()
	s.Submission = sub
	s.Store = pagestore.New()
	s.CurrentPage = 0
	s.Modified = false
	s.mu.Unlock()
	s.Emit(EventSubmissionLoaded, sub)
}

// SetPage records the current page index, emitting EventPageChanged only
// when the index actually moves.
func (s *State) SetPage(index int) {
	s.mu.Lock()
	changed := s.CurrentPage != index
	s.CurrentPage = index
	s.mu.Unlock()
	if changed {
		s.Emit(EventPageChanged, index)
	}
}

// Page returns the current page index.
func (s *State) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentPage
}

// PageCount returns the number of pages in the loaded submission.
func (s *State) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Submission == nil {
		return 0
	}
	return len(s.Submission.Pages)
}

// SetModified marks the session as carrying unpublished annotations.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// SetPublishStatuses records the outcome of a publish-all run.
func (s *State) SetPublishStatuses(statuses []publish.PageStatus) {
	s.mu.Lock()
	s.PublishStatuses = statuses
	s.mu.Unlock()
	s.Emit(EventPublishComplete, statuses)
}
