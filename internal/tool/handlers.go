package tool

import (
	"sheet-marker/internal/annotation"
	"sheet-marker/pkg/geometry"
)

// gestureState tracks one in-progress pointer gesture. Each gesture owns
// its own state; nothing about a half-drawn stroke leaks outside the
// handler that is drawing it.
type gestureState int

const (
	gestureIdle gestureState = iota
	gestureDrawing
)

// penHandler draws freehand strokes. A press inside the image region
// starts a stroke, a release commits it; presses outside the image region
// are suppressed so ink can never land in the panel.
type penHandler struct {
	state  gestureState
	points []float64
}

func (h *penHandler) Tool() Tool { return ToolPen }

func (h *penHandler) Activate(s Surface) {
	h.state = gestureIdle
	h.points = nil
}

func (h *penHandler) PointerDown(s Surface, p geometry.Point2D) {
	if !s.ImageBounds().Contains(p) {
		return
	}
	h.state = gestureDrawing
	h.points = []float64{p.X, p.Y}
}

func (h *penHandler) previewPath() []float64 {
	if h.state != gestureDrawing {
		return nil
	}
	return h.points
}

func (h *penHandler) PointerMove(s Surface, p geometry.Point2D) {
	if h.state != gestureDrawing {
		return
	}
	if !s.ImageBounds().Contains(p) {
		return
	}
	h.points = append(h.points, p.X, p.Y)
}

func (h *penHandler) PointerUp(s Surface, p geometry.Point2D) {
	if h.state != gestureDrawing {
		return
	}
	h.state = gestureIdle

	if len(h.points) < 4 {
		h.points = nil
		return
	}

	style := s.Style()
	obj := annotation.Object{
		ID:          annotation.NewID(),
		Kind:        annotation.KindStroke,
		Color:       style.Color,
		StrokeWidth: style.StrokeWidth,
		Path:        ResamplePath(h.points),
		Selectable:  true,
	}
	obj.Left = obj.Bounds().X
	obj.Top = obj.Bounds().Y
	h.points = nil

	s.Scene().Add(obj)
	s.Commit()
}

// textHandler places a single-line text object in the image region. The
// entry action creates the object immediately and selects it; the object
// stays selectable afterwards without changing the active tool.
type textHandler struct{}

func (h *textHandler) Tool() Tool { return ToolText }

func (h *textHandler) Activate(s Surface) {
	img := s.ImageBounds()
	style := s.Style()
	obj := annotation.Object{
		ID:         annotation.NewID(),
		Kind:       annotation.KindText,
		Left:       img.X + img.Width*0.1,
		Top:        img.Y + img.Height*0.1,
		FontSize:   style.FontSize,
		Color:      style.Color,
		Content:    "text",
		Selectable: true,
	}
	s.Scene().Add(obj)
	s.Select(obj.ID)
	s.Commit()
}

func (h *textHandler) PointerDown(s Surface, p geometry.Point2D) {}
func (h *textHandler) PointerMove(s Surface, p geometry.Point2D) {}
func (h *textHandler) PointerUp(s Surface, p geometry.Point2D)   {}

// commentHandler places a block-wrapped comment in the panel region,
// stacked below any comment already there.
type commentHandler struct{}

func (h *commentHandler) Tool() Tool { return ToolComment }

func (h *commentHandler) Activate(s Surface) {
	panel := s.PanelBounds()
	style := s.Style()

	top := panel.Y + 8
	for _, obj := range s.Scene().Objects() {
		if obj.Region(panel.X) != annotation.RegionPanel {
			continue
		}
		if b := obj.Bounds().Bottom() + 8; b > top {
			top = b
		}
	}

	obj := annotation.Object{
		ID:         annotation.NewID(),
		Kind:       annotation.KindComment,
		Left:       panel.X + 8,
		Top:        top,
		Width:      panel.Width - 16,
		FontSize:   style.FontSize,
		Color:      style.Color,
		Content:    "comment",
		Selectable: true,
	}
	s.Scene().Add(obj)
	s.Select(obj.ID)
	s.Commit()
}

func (h *commentHandler) PointerDown(s Surface, p geometry.Point2D) {}
func (h *commentHandler) PointerMove(s Surface, p geometry.Point2D) {}
func (h *commentHandler) PointerUp(s Surface, p geometry.Point2D)   {}

// selectHandler makes existing objects selectable and movable. It never
// creates objects.
type selectHandler struct {
	state    gestureState
	last     geometry.Point2D
	moved    bool
	dragging string
}

func (h *selectHandler) Tool() Tool { return ToolSelect }

func (h *selectHandler) Activate(s Surface) {
	h.state = gestureIdle
	h.dragging = ""
}

func (h *selectHandler) PointerDown(s Surface, p geometry.Point2D) {
	hit := s.Scene().HitTest(p)
	if hit == nil {
		s.ClearSelection()
		return
	}
	s.Select(hit.ID)
	h.state = gestureDrawing
	h.last = p
	h.moved = false
	h.dragging = hit.ID
}

func (h *selectHandler) PointerMove(s Surface, p geometry.Point2D) {
	if h.state != gestureDrawing || h.dragging == "" {
		return
	}
	obj := s.Scene().Find(h.dragging)
	if obj == nil {
		return
	}
	obj.Translate(p.X-h.last.X, p.Y-h.last.Y)
	h.last = p
	h.moved = true
}

func (h *selectHandler) PointerUp(s Surface, p geometry.Point2D) {
	if h.state != gestureDrawing {
		return
	}
	h.state = gestureIdle
	if h.moved {
		s.Commit()
	}
	h.dragging = ""
}

// clearHandler removes every annotation object. The background image and
// border are scene anchors and survive; the clear itself is undoable.
type clearHandler struct{}

func (h *clearHandler) Tool() Tool { return ToolClear }

func (h *clearHandler) Activate(s Surface) {
	s.ClearSelection()
	s.Scene().Clear()
	s.Commit()
}

func (h *clearHandler) PointerDown(s Surface, p geometry.Point2D) {}
func (h *clearHandler) PointerMove(s Surface, p geometry.Point2D) {}
func (h *clearHandler) PointerUp(s Surface, p geometry.Point2D)   {}
