// Package tool implements the editing tool state machine. Each tool is an
// enum variant with its own handler; transitions happen only on explicit
// user selection. Pointer events are interpreted by the active handler and
// rejected when they fall outside the region the tool is allowed to touch.
package tool

import (
	"sheet-marker/internal/annotation"
	"sheet-marker/pkg/geometry"
)

// Tool identifies the active input mode.
type Tool int

const (
	ToolPen Tool = iota
	ToolText
	ToolComment
	ToolSelect
	ToolClear
)

func (t Tool) String() string {
	switch t {
	case ToolPen:
		return "pen"
	case ToolText:
		return "text"
	case ToolComment:
		return "comment"
	case ToolSelect:
		return "select"
	case ToolClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Style holds the current drawing defaults.
type Style struct {
	Color       string
	StrokeWidth float64
	FontSize    float64
}

// DefaultStyle returns the style a fresh session starts with.
func DefaultStyle() Style {
	return Style{Color: "#d32f2f", StrokeWidth: 3, FontSize: 18}
}

// Surface is the slice of the live session a tool handler may touch.
type Surface interface {
	Scene() *annotation.Scene

	// ImageBounds is the displayed image rectangle, PanelBounds the panel
	// rectangle, both in display space.
	ImageBounds() geometry.Rect
	PanelBounds() geometry.Rect

	// Commit records the current scene in history and the page store.
	Commit()

	Select(id string)
	ClearSelection()
	SelectedID() string

	Style() Style
}

// Handler interprets pointer input for one tool variant.
type Handler interface {
	Tool() Tool

	// Activate runs the tool's entry action.
	Activate(s Surface)

	PointerDown(s Surface, p geometry.Point2D)
	PointerMove(s Surface, p geometry.Point2D)
	PointerUp(s Surface, p geometry.Point2D)
}

// HandlerFor returns the handler implementation for a tool variant.
func HandlerFor(t Tool) Handler {
	switch t {
	case ToolPen:
		return &penHandler{}
	case ToolText:
		return &textHandler{}
	case ToolComment:
		return &commentHandler{}
	case ToolSelect:
		return &selectHandler{}
	case ToolClear:
		return &clearHandler{}
	default:
		return &selectHandler{}
	}
}

// Machine routes input to the active tool handler. Switching tools never
// discards existing objects; only explicit tool selection transitions.
type Machine struct {
	surface Surface
	active  Handler
}

// NewMachine creates a machine starting in the select tool.
func NewMachine(s Surface) *Machine {
	return &Machine{surface: s, active: HandlerFor(ToolSelect)}
}

// SetTool switches the active tool and runs its entry action.
func (m *Machine) SetTool(t Tool) {
	if m.active != nil && m.active.Tool() == t {
		switch t {
		case ToolClear, ToolText, ToolComment:
			// Placement tools repeat their entry action, so re-selecting
			// places another object (or clears again).
		default:
			// Pen and select are idempotent; re-entry is a no-op.
			return
		}
	}
	m.active = HandlerFor(t)
	m.active.Activate(m.surface)
}

// Active returns the current tool.
func (m *Machine) Active() Tool {
	return m.active.Tool()
}

// PointerDown forwards a press to the active handler.
func (m *Machine) PointerDown(p geometry.Point2D) {
	m.active.PointerDown(m.surface, p)
}

// PointerMove forwards a drag to the active handler.
func (m *Machine) PointerMove(p geometry.Point2D) {
	m.active.PointerMove(m.surface, p)
}

// PointerUp forwards a release to the active handler.
func (m *Machine) PointerUp(p geometry.Point2D) {
	m.active.PointerUp(m.surface, p)
}

// previewer is implemented by handlers carrying in-progress ink.
type previewer interface {
	previewPath() []float64
}

// PreviewPath returns the in-progress stroke of the active gesture for the
// canvas to draw, or nil when nothing is being drawn.
func (m *Machine) PreviewPath() []float64 {
	if p, ok := m.active.(previewer); ok {
		return p.previewPath()
	}
	return nil
}

// DeleteSelected removes the currently selected object, unless that object
// is in text-edit mode (the key then edits content instead). Anchors are
// not in the object list and can never be deleted here. Returns whether an
// object was removed.
func (m *Machine) DeleteSelected(textEditing bool) bool {
	if textEditing {
		return false
	}
	id := m.surface.SelectedID()
	if id == "" {
		return false
	}
	if !m.surface.Scene().Remove(id) {
		return false
	}
	m.surface.ClearSelection()
	m.surface.Commit()
	return true
}

// PlaceReferenceImage is a momentary action, not a tool state: it drops an
// encoded reference image into the image region at the given display size
// and leaves it selected for repositioning.
func (m *Machine) PlaceReferenceImage(data []byte, width, height float64) string {
	img := m.surface.ImageBounds()
	obj := annotation.Object{
		ID:         annotation.NewID(),
		Kind:       annotation.KindRefImage,
		Left:       img.X + img.Width/4,
		Top:        img.Y + img.Height/4,
		Width:      width,
		Height:     height,
		ScaleX:     1,
		ScaleY:     1,
		SourceData: data,
		Selectable: true,
	}
	m.surface.Scene().Add(obj)
	m.surface.Select(obj.ID)
	m.surface.Commit()
	return obj.ID
}
