package history

import (
	"bytes"
	"fmt"
	"testing"
)

func entry(i int) Entry {
	return Entry(fmt.Sprintf("state-%d", i))
}

func TestStack_PushUndoRedo(t *testing.T) {
	s := New()
	s.Push(entry(0)) // baseline
	s.Push(entry(1))
	s.Push(entry(2))

	if got := s.Undo(); !bytes.Equal(got, entry(1)) {
		t.Errorf("first undo: got %q", got)
	}
	if got := s.Undo(); !bytes.Equal(got, entry(0)) {
		t.Errorf("second undo: got %q", got)
	}
	if got := s.Undo(); got != nil {
		t.Errorf("undo at baseline: got %q, want nil", got)
	}

	if got := s.Redo(); !bytes.Equal(got, entry(1)) {
		t.Errorf("first redo: got %q", got)
	}
	if got := s.Redo(); !bytes.Equal(got, entry(2)) {
		t.Errorf("second redo: got %q", got)
	}
	if got := s.Redo(); got != nil {
		t.Errorf("redo at tip: got %q, want nil", got)
	}
}

func TestStack_UndoRedoIdempotent(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Push(entry(i))
	}

	before := entry(4)
	s.Undo()
	if got := s.Redo(); !bytes.Equal(got, before) {
		t.Errorf("undo+redo: got %q, want %q", got, before)
	}
	if !s.CanUndo() || s.CanRedo() {
		t.Errorf("cursor state after undo+redo: CanUndo=%v CanRedo=%v", s.CanUndo(), s.CanRedo())
	}
}

func TestStack_PushTruncatesRedoTail(t *testing.T) {
	s := New()
	s.Push(entry(0))
	s.Push(entry(1))
	s.Push(entry(2))

	s.Undo()
	s.Undo()
	s.Push(entry(9))

	if s.CanRedo() {
		t.Error("redo tail survived a push")
	}
	if got := s.Undo(); !bytes.Equal(got, entry(0)) {
		t.Errorf("undo after truncating push: got %q, want %q", got, entry(0))
	}
	if got := s.Redo(); !bytes.Equal(got, entry(9)) {
		t.Errorf("redo after truncating push: got %q, want %q", got, entry(9))
	}
}

func TestStack_LimitDropsOldest(t *testing.T) {
	s := NewWithLimit(3)
	for i := 0; i < 10; i++ {
		s.Push(entry(i))
	}

	if s.Len() != 3 {
		t.Fatalf("len: got %d, want 3", s.Len())
	}

	// Walk back to the oldest retained entry.
	var last Entry
	for e := s.Undo(); e != nil; e = s.Undo() {
		last = e
	}
	if !bytes.Equal(last, entry(7)) {
		t.Errorf("oldest retained: got %q, want %q", last, entry(7))
	}
}

func TestStack_Reset(t *testing.T) {
	s := New()
	s.Push(entry(0))
	s.Push(entry(1))

	s.Reset()
	if s.Len() != 0 || s.CanUndo() || s.CanRedo() {
		t.Error("reset did not clear the stack")
	}

	// Re-seed with a baseline; one more push makes an undoable step.
	s.Push(entry(10))
	if s.CanUndo() {
		t.Error("baseline alone must not be undoable")
	}
	s.Push(entry(11))
	if got := s.Undo(); !bytes.Equal(got, entry(10)) {
		t.Errorf("undo to baseline: got %q, want %q", got, entry(10))
	}
}

func TestStack_EntriesDetached(t *testing.T) {
	s := New()
	raw := []byte("mutable")
	s.Push(raw)
	raw[0] = 'X'

	s.Push(entry(1))
	if got := s.Undo(); !bytes.Equal(got, []byte("mutable")) {
		t.Errorf("stored entry aliased caller slice: got %q", got)
	}
}
