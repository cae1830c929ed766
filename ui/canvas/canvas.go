// Package canvas provides the annotation editing surface: a raster of the
// scaled page scan plus the comment panel, with pointer events routed
// through the session's tool machine.
package canvas

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"

	"sheet-marker/internal/export"
	"sheet-marker/internal/session"
	"sheet-marker/pkg/geometry"
)

// Editor displays one page's live editing surface. All pointer input is
// interpreted by the session's active tool; the widget itself holds no
// annotation state.
type Editor struct {
	widget.BaseWidget

	ctrl *session.Controller
	comp *export.Compositor

	raster *fynecanvas.Raster

	dragging bool
	last     geometry.Point2D

	// bgCache holds the page scan scaled to the current display size.
	bgCache struct {
		src    image.Image
		w, h   int
		scaled image.Image
	}

	// OnChange fires after any pointer interaction, so toolbar state
	// (undo/redo, selection) can follow the session.
	OnChange func()
}

// NewEditor creates an editor over the given session controller.
func NewEditor(ctrl *session.Controller, comp *export.Compositor) *Editor {
	e := &Editor{ctrl: ctrl, comp: comp}
	e.raster = fynecanvas.NewRaster(e.draw)
	e.raster.SetMinSize(fyne.NewSize(400, 300))
	e.ExtendBaseWidget(e)
	return e
}

// CreateRenderer implements fyne.Widget.
func (e *Editor) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(e.raster)
}

// Container returns the editor's display-space size for opening pages.
func (e *Editor) Container() geometry.Size {
	size := e.Size()
	return geometry.NewSize(float64(size.Width), float64(size.Height))
}

// draw renders the current scene at logical size and rescales to the
// raster's pixel size on HiDPI outputs.
func (e *Editor) draw(w, h int) image.Image {
	size := e.Size()
	lw, lh := int(size.Width), int(size.Height)
	if lw <= 0 || lh <= 0 {
		lw, lh = w, h
	}

	out := e.render(lw, lh)
	if lw != w || lh != h {
		return imaging.Resize(out, w, h, imaging.Linear)
	}
	return out
}

func (e *Editor) changed() {
	e.Refresh()
	if e.OnChange != nil {
		e.OnChange()
	}
}

// Tapped routes a click as a full press-release at one point.
func (e *Editor) Tapped(ev *fyne.PointEvent) {
	p := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	machine := e.ctrl.Tools()
	machine.PointerDown(p)
	machine.PointerUp(p)
	e.changed()
}

// Dragged streams pointer movement into the active tool's gesture.
func (e *Editor) Dragged(ev *fyne.DragEvent) {
	p := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	machine := e.ctrl.Tools()
	if !e.dragging {
		e.dragging = true
		start := geometry.NewPoint2D(
			p.X-float64(ev.Dragged.DX),
			p.Y-float64(ev.Dragged.DY),
		)
		machine.PointerDown(start)
	}
	machine.PointerMove(p)
	e.last = p
	e.Refresh()
}

// DragEnd commits the in-progress gesture.
func (e *Editor) DragEnd() {
	if !e.dragging {
		return
	}
	e.dragging = false
	e.ctrl.Tools().PointerUp(e.last)
	e.changed()
}
