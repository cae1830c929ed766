package annotation

import (
	"encoding/json"
	"fmt"
	"image"
	"sync"

	"sheet-marker/pkg/geometry"
)

// Scene is the live object graph for one open page. The background page
// image and the dashed border are scene anchors: always present, never
// serialized, never removed by clear or delete.
//
// Objects are owned by the UI thread; the background anchor is the one
// field written from the asynchronous image load and is guarded.
type Scene struct {
	objects []Object

	bgMu       sync.RWMutex
	background image.Image
	border     geometry.Rect
}

// NewScene creates an empty scene with its anchors attached.
func NewScene(background image.Image, border geometry.Rect) *Scene {
	return &Scene{background: background, border: border}
}

// Background returns the anchored page image.
func (s *Scene) Background() image.Image {
	s.bgMu.RLock()
	defer s.bgMu.RUnlock()
	return s.background
}

// SetBackground attaches the page image once its asynchronous load
// completes. The anchor slot exists from scene creation; only its pixels
// arrive late.
func (s *Scene) SetBackground(img image.Image) {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()
	s.background = img
}

// Border returns the dashed border rectangle spanning image and panel.
func (s *Scene) Border() geometry.Rect {
	return s.border
}

// Objects returns a copy of the annotation objects in z-order.
func (s *Scene) Objects() []Object {
	out := make([]Object, len(s.objects))
	for i := range s.objects {
		out[i] = s.objects[i].Clone()
	}
	return out
}

// Len returns the number of annotation objects (anchors excluded).
func (s *Scene) Len() int {
	return len(s.objects)
}

// Add appends an object to the top of the z-order.
func (s *Scene) Add(obj Object) {
	s.objects = append(s.objects, obj)
}

// Find returns the object with the given id, or nil.
func (s *Scene) Find(id string) *Object {
	for i := range s.objects {
		if s.objects[i].ID == id {
			return &s.objects[i]
		}
	}
	return nil
}

// Replace swaps the stored object with the same ID for the given one.
func (s *Scene) Replace(obj Object) bool {
	for i := range s.objects {
		if s.objects[i].ID == obj.ID {
			s.objects[i] = obj
			return true
		}
	}
	return false
}

// Remove deletes the object with the given id. Anchors are not part of the
// object list, so they can never be removed by this path.
func (s *Scene) Remove(id string) bool {
	for i := range s.objects {
		if s.objects[i].ID == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return true
		}
	}
	return false
}

// HitTest returns the topmost selectable object containing the point.
func (s *Scene) HitTest(p geometry.Point2D) *Object {
	for i := len(s.objects) - 1; i >= 0; i-- {
		if s.objects[i].Selectable && s.objects[i].Bounds().Contains(p) {
			return &s.objects[i]
		}
	}
	return nil
}

// Clear removes every annotation object. The background image and border
// are anchors and survive.
func (s *Scene) Clear() {
	s.objects = nil
}

// Snapshot captures the scene's annotation objects. Anchors are excluded;
// Restore re-attaches them implicitly because they live on the Scene.
func (s *Scene) Snapshot() Snapshot {
	return Snapshot{Objects: s.Objects()}
}

// Restore replaces the scene's objects with the snapshot's. Anchors are
// untouched.
func (s *Scene) Restore(snap Snapshot) {
	s.objects = make([]Object, len(snap.Objects))
	for i := range snap.Objects {
		s.objects[i] = snap.Objects[i].Clone()
	}
}

// Snapshot is a serialized capture of all annotation objects for one page
// at one point in time.
type Snapshot struct {
	Objects []Object `json:"objects"`
}

// Clone returns a deep copy so stored snapshots cannot alias live objects.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Objects: make([]Object, len(s.Objects))}
	for i := range s.Objects {
		out.Objects[i] = s.Objects[i].Clone()
	}
	return out
}

// Encode serializes the snapshot for history entries and session files.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a serialized snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
