// Package history implements the bounded linear undo/redo stack for one
// open page. Entries are opaque serialized scene captures; the stack is
// reset whenever the editing surface for a page is torn down and rebuilt,
// then re-seeded with a baseline entry so the first user action is undoable.
package history

// Entry is an opaque serialized scene capture.
type Entry []byte

// Stack is a classic linear undo history. Pushing truncates everything
// after the cursor. Invariant: 0 <= cursor < len(entries) whenever entries
// is non-empty.
type Stack struct {
	entries []Entry
	cursor  int
	limit   int
}

// DefaultLimit bounds how many entries a stack retains.
const DefaultLimit = 50

// New creates an empty history stack with the default entry limit.
func New() *Stack {
	return NewWithLimit(DefaultLimit)
}

// NewWithLimit creates an empty history stack retaining at most limit
// entries; the oldest entries are dropped first.
func NewWithLimit(limit int) *Stack {
	if limit < 2 {
		limit = 2
	}
	return &Stack{limit: limit}
}

// Push appends an entry after the cursor, discarding any redo tail.
func (s *Stack) Push(e Entry) {
	if len(s.entries) > 0 {
		s.entries = s.entries[:s.cursor+1]
	}
	s.entries = append(s.entries, append(Entry(nil), e...))

	if len(s.entries) > s.limit {
		drop := len(s.entries) - s.limit
		s.entries = append([]Entry(nil), s.entries[drop:]...)
	}
	s.cursor = len(s.entries) - 1
}

// Undo steps the cursor back and returns the entry to restore. Returns nil
// at the baseline: the seed entry itself is never undone away.
func (s *Stack) Undo() Entry {
	if s.cursor <= 0 {
		return nil
	}
	s.cursor--
	return append(Entry(nil), s.entries[s.cursor]...)
}

// Redo steps the cursor forward and returns the entry to restore, or nil
// when there is nothing to redo.
func (s *Stack) Redo() Entry {
	if s.cursor >= len(s.entries)-1 {
		return nil
	}
	s.cursor++
	return append(Entry(nil), s.entries[s.cursor]...)
}

// CanUndo reports whether Undo would return an entry.
func (s *Stack) CanUndo() bool {
	return s.cursor > 0
}

// CanRedo reports whether Redo would return an entry.
func (s *Stack) CanRedo() bool {
	return s.cursor < len(s.entries)-1
}

// Len returns the number of retained entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Reset clears the stack. The caller must push one baseline entry before
// the first user-visible mutation is undoable.
func (s *Stack) Reset() {
	s.entries = nil
	s.cursor = 0
}
