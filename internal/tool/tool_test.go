package tool

import (
	"image"
	"math"
	"testing"

	"sheet-marker/internal/annotation"
	"sheet-marker/pkg/geometry"
)

// fakeSurface implements Surface for handler tests.
type fakeSurface struct {
	scene    *annotation.Scene
	img      geometry.Rect
	panel    geometry.Rect
	commits  int
	selected string
	style    Style
}

func newFakeSurface() *fakeSurface {
	bg := image.NewRGBA(image.Rect(0, 0, 10, 10))
	return &fakeSurface{
		scene: annotation.NewScene(bg, geometry.NewRect(50, 25, 690, 550)),
		img:   geometry.NewRect(50, 25, 400, 550),
		panel: geometry.NewRect(460, 25, 280, 550),
		style: DefaultStyle(),
	}
}

func (f *fakeSurface) Scene() *annotation.Scene     { return f.scene }
func (f *fakeSurface) ImageBounds() geometry.Rect   { return f.img }
func (f *fakeSurface) PanelBounds() geometry.Rect   { return f.panel }
func (f *fakeSurface) Commit()                      { f.commits++ }
func (f *fakeSurface) Select(id string)             { f.selected = id }
func (f *fakeSurface) ClearSelection()              { f.selected = "" }
func (f *fakeSurface) SelectedID() string           { return f.selected }
func (f *fakeSurface) Style() Style                 { return f.style }

func TestPen_DrawCommitsStroke(t *testing.T) {
	f := newFakeSurface()
	m := NewMachine(f)
	m.SetTool(ToolPen)

	m.PointerDown(geometry.NewPoint2D(100, 100))
	m.PointerMove(geometry.NewPoint2D(120, 110))
	m.PointerMove(geometry.NewPoint2D(140, 130))
	m.PointerUp(geometry.NewPoint2D(150, 150))

	if f.scene.Len() != 1 {
		t.Fatalf("objects after stroke: got %d, want 1", f.scene.Len())
	}
	if f.commits != 1 {
		t.Errorf("commits: got %d, want 1", f.commits)
	}

	obj := f.scene.Objects()[0]
	if obj.Kind != annotation.KindStroke {
		t.Errorf("kind: got %v, want stroke", obj.Kind)
	}
	if !obj.Selectable {
		t.Error("committed stroke must be selectable")
	}
	// Every stroke point stays inside the image region.
	for i := 0; i+1 < len(obj.Path); i += 2 {
		if obj.Path[i] >= f.panel.X {
			t.Errorf("stroke x %v crossed panel threshold %v", obj.Path[i], f.panel.X)
		}
	}
}

func TestPen_PressOutsideImageSuppressed(t *testing.T) {
	f := newFakeSurface()
	m := NewMachine(f)
	m.SetTool(ToolPen)

	// Press in the panel: no gesture may start.
	m.PointerDown(geometry.NewPoint2D(500, 100))
	m.PointerMove(geometry.NewPoint2D(510, 110))
	m.PointerUp(geometry.NewPoint2D(520, 120))

	if f.scene.Len() != 0 {
		t.Errorf("objects after suppressed press: got %d, want 0", f.scene.Len())
	}
	if f.commits != 0 {
		t.Errorf("commits: got %d, want 0", f.commits)
	}
}

func TestPen_MoveOutsideImageDropped(t *testing.T) {
	f := newFakeSurface()
	m := NewMachine(f)
	m.SetTool(ToolPen)

	m.PointerDown(geometry.NewPoint2D(100, 100))
	m.PointerMove(geometry.NewPoint2D(120, 110))
	m.PointerMove(geometry.NewPoint2D(600, 110)) // inside panel, dropped
	m.PointerMove(geometry.NewPoint2D(140, 120))
	m.PointerUp(geometry.NewPoint2D(140, 120))

	obj := f.scene.Objects()[0]
	for i := 0; i+1 < len(obj.Path); i += 2 {
		if obj.Path[i] > f.img.Right() {
			t.Errorf("off-image point %v survived in path", obj.Path[i])
		}
	}
}

func TestText_EntryCreatesSelectedObjectInImageRegion(t *testing.T) {
	f := newFakeSurface()
	m := NewMachine(f)
	m.SetTool(ToolText)

	if f.scene.Len() != 1 {
		t.Fatalf("objects: got %d, want 1", f.scene.Len())
	}
	obj := f.scene.Objects()[0]
	if obj.Kind != annotation.KindText {
		t.Errorf("kind: got %v", obj.Kind)
	}
	if obj.Region(f.panel.X) != annotation.RegionImage {
		t.Errorf("text object landed in %v region", obj.Region(f.panel.X))
	}
	if f.selected != obj.ID {
		t.Error("new text object must be selected")
	}
	if f.commits != 1 {
		t.Errorf("commits: got %d, want 1", f.commits)
	}
	// Creating the object leaves the active tool unchanged.
	if m.Active() != ToolText {
		t.Errorf("active tool: got %v, want text", m.Active())
	}
}

func TestComment_EntryCreatesObjectInPanelRegion(t *testing.T) {
	f := newFakeSurface()
	m := NewMachine(f)
	m.SetTool(ToolComment)

	obj := f.scene.Objects()[0]
	if obj.Kind != annotation.KindComment {
		t.Errorf("kind: got %v", obj.Kind)
	}
	if obj.Region(f.panel.X) != annotation.RegionPanel {
		t.Errorf("comment landed in %v region (left=%v, threshold=%v)",
			obj.Region(f.panel.X), obj.Left, f.panel.X)
	}
}

func TestComment_StacksWithoutOverlap(t *testing.T) {
	f := newFakeSurface()
	m := NewMachine(f)

	m.SetTool(ToolComment)
	m.SetTool(ToolComment)

	objs := f.scene.Objects()
	if len(objs) != 2 {
		t.Fatalf("objects: got %d, want 2", len(objs))
	}
	first, second := objs[0], objs[1]
	if second.Top < first.Bounds().Bottom() {
		t.Errorf("second comment top %v overlaps first bottom %v",
			second.Top, first.Bounds().Bottom())
	}
}

// Re-selecting a placement tool places another object; re-selecting pen or
// select stays a no-op.
func TestSetTool_ReselectRepeatsPlacementTools(t *testing.T) {
	f := newFakeSurface()
	m := NewMachine(f)

	m.SetTool(ToolText)
	m.SetTool(ToolText)
	if got := f.scene.Len(); got != 2 {
		t.Errorf("text objects after re-select: got %d, want 2", got)
	}

	m.SetTool(ToolComment)
	m.SetTool(ToolComment)
	if got := f.scene.Len(); got != 4 {
		t.Errorf("objects after comment re-select: got %d, want 4", got)
	}

	commits := f.commits
	m.SetTool(ToolPen)
	m.SetTool(ToolPen)
	m.SetTool(ToolSelect)
	m.SetTool(ToolSelect)
	if f.scene.Len() != 4 || f.commits != commits {
		t.Errorf("pen/select re-select must not mutate: %d objects, %d commits",
			f.scene.Len(), f.commits-commits)
	}
}

func TestSelect_DragMovesObject(t *testing.T) {
	f := newFakeSurface()
	f.scene.Add(annotation.Object{
		ID: "a", Kind: annotation.KindComment,
		Left: 100, Top: 100, Width: 60, Height: 30, Selectable: true,
	})

	m := NewMachine(f)
	m.SetTool(ToolSelect)

	m.PointerDown(geometry.NewPoint2D(110, 110))
	m.PointerMove(geometry.NewPoint2D(130, 140))
	m.PointerUp(geometry.NewPoint2D(130, 140))

	obj := f.scene.Find("a")
	if obj.Left != 120 || obj.Top != 130 {
		t.Errorf("position after drag: got (%v,%v), want (120,130)", obj.Left, obj.Top)
	}
	if f.commits != 1 {
		t.Errorf("commits: got %d, want 1", f.commits)
	}
	if f.scene.Len() != 1 {
		t.Error("select tool created or removed objects")
	}
}

func TestSelect_ClickEmptyClearsSelection(t *testing.T) {
	f := newFakeSurface()
	f.selected = "stale"
	m := NewMachine(f)
	m.SetTool(ToolSelect)

	m.PointerDown(geometry.NewPoint2D(5, 5))
	if f.selected != "" {
		t.Errorf("selection: got %q, want cleared", f.selected)
	}
}

func TestClear_RemovesObjectsKeepsAnchors(t *testing.T) {
	f := newFakeSurface()
	f.scene.Add(annotation.Object{ID: "a", Kind: annotation.KindStroke, Path: []float64{1, 2, 3, 4}})
	f.scene.Add(annotation.Object{ID: "b", Kind: annotation.KindText, Content: "x"})

	m := NewMachine(f)
	m.SetTool(ToolClear)

	if f.scene.Len() != 0 {
		t.Errorf("objects after clear: got %d, want 0", f.scene.Len())
	}
	if f.scene.Background() == nil {
		t.Error("background anchor removed by clear")
	}
	if f.commits != 1 {
		t.Errorf("clear must commit exactly once, got %d", f.commits)
	}
}

func TestDeleteSelected(t *testing.T) {
	f := newFakeSurface()
	f.scene.Add(annotation.Object{ID: "a", Kind: annotation.KindText, Content: "x", Selectable: true})
	f.selected = "a"

	m := NewMachine(f)

	if m.DeleteSelected(true) {
		t.Error("delete during text edit must be a no-op")
	}
	if !m.DeleteSelected(false) {
		t.Error("delete of selected object failed")
	}
	if f.scene.Len() != 0 {
		t.Error("object not removed")
	}
	if m.DeleteSelected(false) {
		t.Error("delete with empty selection must be a no-op")
	}
}

func TestPlaceReferenceImage(t *testing.T) {
	f := newFakeSurface()
	m := NewMachine(f)

	id := m.PlaceReferenceImage([]byte{1, 2, 3}, 120, 80)

	obj := f.scene.Find(id)
	if obj == nil {
		t.Fatal("reference image not added")
	}
	if obj.Kind != annotation.KindRefImage || !obj.Selectable {
		t.Errorf("object: %+v", obj)
	}
	if obj.Region(f.panel.X) != annotation.RegionImage {
		t.Error("reference image must land in the image region")
	}
	// Momentary action: the active tool is unchanged.
	if m.Active() != ToolSelect {
		t.Errorf("active tool: got %v, want select", m.Active())
	}
}

func TestResamplePath_EvenSpacing(t *testing.T) {
	// A long diagonal drawn with very uneven point density.
	raw := []float64{0, 0, 1, 1, 2, 2, 50, 50, 51, 51, 100, 100}
	out := ResamplePath(raw)

	if len(out)%2 != 0 || len(out) < 8 {
		t.Fatalf("resampled length: got %d", len(out))
	}

	// Endpoints preserved.
	if math.Abs(out[0]) > 1e-6 || math.Abs(out[len(out)-2]-100) > 1e-6 {
		t.Errorf("endpoints: got (%v..%v)", out[0], out[len(out)-2])
	}

	// Segment lengths should be close to uniform.
	var lengths []float64
	for i := 2; i < len(out); i += 2 {
		lengths = append(lengths, math.Hypot(out[i]-out[i-2], out[i+1]-out[i-1]))
	}
	mean := 0.0
	for _, l := range lengths {
		mean += l
	}
	mean /= float64(len(lengths))
	for _, l := range lengths {
		if math.Abs(l-mean) > mean*0.5 {
			t.Errorf("segment length %v far from mean %v", l, mean)
		}
	}
}

func TestResamplePath_ShortPathUntouched(t *testing.T) {
	raw := []float64{1, 2, 3, 4}
	out := ResamplePath(raw)
	if len(out) != len(raw) {
		t.Fatalf("short path length changed: %d", len(out))
	}
	for i := range raw {
		if out[i] != raw[i] {
			t.Errorf("index %d changed: %v != %v", i, out[i], raw[i])
		}
	}
}
