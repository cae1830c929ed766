// Package session implements the canvas session controller: the owner of
// exactly one live editing surface bound to one page at a time. It wires
// page loading, the display transform, the tool machine, undo history and
// the per-page snapshot store together, and guards the asynchronous parts
// (image loads, page switches) against stale callbacks and reentrancy.
package session

import (
	"image"
	"log"
	"sync"
	"time"

	"sheet-marker/internal/annotation"
	"sheet-marker/internal/history"
	"sheet-marker/internal/pagestore"
	"sheet-marker/internal/submission"
	"sheet-marker/internal/tool"
	"sheet-marker/pkg/geometry"
)

// ImageLoader fetches and decodes a page's source image.
type ImageLoader interface {
	Load(url string) (image.Image, error)
}

// Config wires a controller's collaborators.
type Config struct {
	Store  *pagestore.Store
	Loader ImageLoader

	// Dispatch marshals load callbacks back onto the UI thread. Nil runs
	// them inline, which tests rely on.
	Dispatch func(func())

	// Notify surfaces user-visible failures. Nil falls back to the log.
	Notify func(error)

	// SettleDelay is the pause between tearing one surface down and
	// opening the next, letting in-flight callbacks drain. Zero in tests.
	SettleDelay time.Duration

	Style tool.Style
}

// SessionState is the explicit, inspectable state of the controller; there
// is no ambient global state.
type SessionState struct {
	PageIndex int
	Ready     bool
	Switching bool
}

// Controller owns the live surface, the history stack and the current page
// index. The page store is the only collaborator that outlives it.
type Controller struct {
	mu sync.Mutex

	sub *submission.Submission
	cfg Config

	state   SessionState
	surface *surface

	machine *tool.Machine
	hist    *history.Stack

	// inflight identifies the one accepted image load; callbacks from any
	// other request are stale and ignored.
	inflight *loadRequest
}

// surface is the live editing surface for one page.
type surface struct {
	page      submission.Page
	container geometry.Size
	transform geometry.DisplayTransform
	panel     geometry.Rect
	scene     *annotation.Scene
	selected  string
}

type loadRequest struct {
	url string
}

// New creates a controller for one submission's pages. No surface exists
// until Open is called.
func New(sub *submission.Submission, cfg Config) *Controller {
	if cfg.Store == nil {
		cfg.Store = pagestore.New()
	}
	if cfg.Dispatch == nil {
		cfg.Dispatch = func(f func()) { f() }
	}
	if cfg.Notify == nil {
		cfg.Notify = func(err error) { log.Printf("session: %v", err) }
	}
	if cfg.Style == (tool.Style{}) {
		cfg.Style = tool.DefaultStyle()
	}

	c := &Controller{sub: sub, cfg: cfg, hist: history.New()}
	c.machine = tool.NewMachine(c)
	return c
}

// State returns a copy of the controller's current state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open builds a fresh surface for the given page. Any previous surface is
// disposed first. The background image loads asynchronously; until it
// arrives (or if it fails) the page is editable but shows no scan. A stored
// snapshot for the page is restored, otherwise the page starts empty.
func (c *Controller) Open(pageIndex int, container geometry.Size) error {
	if container.Width <= 0 || container.Height <= 0 {
		return &SurfaceInitError{Reason: "container has non-positive dimensions"}
	}
	if pageIndex < 0 || pageIndex >= len(c.sub.Pages) {
		return &SurfaceInitError{Reason: "page index out of range"}
	}

	c.mu.Lock()
	c.teardownLocked()

	page := c.sub.Pages[pageIndex]
	original := geometry.NewSize(float64(page.OriginalWidth), float64(page.OriginalHeight))
	tr := geometry.ComputeDisplayTransform(container, original, geometry.PanelExportWidth, geometry.PanelGap)
	panel := geometry.ComputePanelBounds(tr, original, geometry.PanelExportWidth, geometry.PanelGap)

	border := geometry.NewRect(
		tr.ImageLeft, tr.ImageTop,
		panel.Right()-tr.ImageLeft, original.Height*tr.Scale,
	)

	s := &surface{
		page:      page,
		container: container,
		transform: tr,
		panel:     panel,
		scene:     annotation.NewScene(nil, border),
	}
	c.surface = s
	c.state.PageIndex = pageIndex

	if snap, ok := c.cfg.Store.Load(pageIndex); ok {
		s.scene.Restore(snap)
	}

	c.state.Ready = true

	// Seed the history baseline so the first user action is undoable.
	c.hist.Reset()
	if entry, err := s.scene.Snapshot().Encode(); err == nil {
		c.hist.Push(entry)
	}

	req := &loadRequest{url: page.SourceURL}
	c.inflight = req
	c.mu.Unlock()

	go c.loadImage(req)
	return nil
}

// loadImage fetches the page scan and attaches it if the request is still
// the accepted one. Load failure leaves the session usable but empty.
func (c *Controller) loadImage(req *loadRequest) {
	img, err := c.cfg.Loader.Load(req.url)
	c.cfg.Dispatch(func() {
		c.mu.Lock()
		if c.inflight != req || c.surface == nil {
			c.mu.Unlock()
			return
		}
		c.inflight = nil
		if err != nil {
			c.mu.Unlock()
			c.cfg.Notify(&ImageLoadError{URL: req.url, Err: err})
			return
		}
		c.surface.scene.SetBackground(img)
		c.mu.Unlock()
	})
}

// SwitchPage saves the current page's scene, tears the surface down and
// opens the new page. A switch requested while one is in flight is dropped,
// not queued, so two live surfaces can never contend for the container.
func (c *Controller) SwitchPage(newIndex int) error {
	c.mu.Lock()
	if c.state.Switching {
		c.mu.Unlock()
		log.Printf("session: page switch to %d dropped, switch already in flight", newIndex)
		return nil
	}
	if c.surface == nil {
		c.mu.Unlock()
		return &SurfaceInitError{Reason: "no open surface to switch from"}
	}
	c.state.Switching = true

	if c.state.Ready {
		c.cfg.Store.Save(c.state.PageIndex, c.surface.scene.Snapshot())
	}
	container := c.surface.container
	c.mu.Unlock()

	open := func() {
		defer func() {
			c.mu.Lock()
			c.state.Switching = false
			c.mu.Unlock()
		}()
		if err := c.Open(newIndex, container); err != nil {
			c.cfg.Notify(err)
		}
	}

	if c.cfg.SettleDelay > 0 {
		time.AfterFunc(c.cfg.SettleDelay, func() { c.cfg.Dispatch(open) })
	} else {
		open()
	}
	return nil
}

// ApplyTool switches the active tool. Existing objects are never discarded
// by a tool change.
func (c *Controller) ApplyTool(t tool.Tool) {
	c.machine.SetTool(t)
}

// Tools exposes the tool machine for input routing.
func (c *Controller) Tools() *tool.Machine {
	return c.machine
}

// Dispose tears down the live surface and cancels any in-flight image load.
// Stored page snapshots survive; they belong to the page store.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface != nil && c.state.Ready {
		c.cfg.Store.Save(c.state.PageIndex, c.surface.scene.Snapshot())
	}
	c.teardownLocked()
}

func (c *Controller) teardownLocked() {
	c.surface = nil
	c.inflight = nil
	c.state.Ready = false
	c.hist.Reset()
}

// Commit records the current scene: one history entry plus the mirrored
// page-store write. A snapshot serialization failure is logged and history
// skips that one mutation; the live scene and the store are unaffected.
func (c *Controller) Commit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitLocked()
}

func (c *Controller) commitLocked() {
	if c.surface == nil {
		return
	}
	snap := c.surface.scene.Snapshot()
	c.cfg.Store.Save(c.state.PageIndex, snap)

	entry, err := snap.Encode()
	if err != nil {
		log.Printf("session: %v", &SerializationError{Err: err})
		return
	}
	c.hist.Push(entry)
}

// Undo restores the previous history entry. The scene anchors are not part
// of the serialized capture and survive the restore. Returns whether a step
// was taken.
func (c *Controller) Undo() bool {
	return c.restoreHistory((*history.Stack).Undo)
}

// Redo restores the next history entry, if any.
func (c *Controller) Redo() bool {
	return c.restoreHistory((*history.Stack).Redo)
}

func (c *Controller) restoreHistory(step func(*history.Stack) history.Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return false
	}
	entry := step(c.hist)
	if entry == nil {
		return false
	}
	snap, err := annotation.DecodeSnapshot(entry)
	if err != nil {
		log.Printf("session: restore history entry: %v", err)
		return false
	}
	c.surface.scene.Restore(snap)
	c.cfg.Store.Save(c.state.PageIndex, snap)
	return true
}

// Scene returns the live scene, or nil when no surface is open.
func (c *Controller) Scene() *annotation.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return nil
	}
	return c.surface.scene
}

// Transform returns the display transform of the open page.
func (c *Controller) Transform() geometry.DisplayTransform {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return geometry.DisplayTransform{}
	}
	return c.surface.transform
}

// Container returns the container size the open surface was laid out for.
func (c *Controller) Container() geometry.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return geometry.Size{}
	}
	return c.surface.container
}

// ImageBounds returns the displayed image rectangle in display space.
func (c *Controller) ImageBounds() geometry.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return geometry.Rect{}
	}
	tr, page := c.surface.transform, c.surface.page
	return geometry.NewRect(
		tr.ImageLeft, tr.ImageTop,
		float64(page.OriginalWidth)*tr.Scale,
		float64(page.OriginalHeight)*tr.Scale,
	)
}

// PanelBounds returns the panel rectangle in display space.
func (c *Controller) PanelBounds() geometry.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return geometry.Rect{}
	}
	return c.surface.panel
}

// Select marks the object with the given id as selected.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface != nil {
		c.surface.selected = id
	}
}

// ClearSelection drops the current selection.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface != nil {
		c.surface.selected = ""
	}
}

// SelectedID returns the selected object id, or "".
func (c *Controller) SelectedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return ""
	}
	return c.surface.selected
}

// Style returns the current drawing defaults.
func (c *Controller) Style() tool.Style {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Style
}

// SetStyle updates the drawing defaults for subsequently created objects.
func (c *Controller) SetStyle(s tool.Style) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Style = s
}
