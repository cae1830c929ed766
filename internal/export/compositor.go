// Package export implements the flattening compositor: it replays a page's
// annotation snapshot onto the original-resolution scan plus the adjoining
// comment panel, producing the raster that gets published. The display
// transform is recomputed from the same inputs the live surface used, so
// the export is pixel-exact to what the reviewer saw.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"log"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"sheet-marker/internal/annotation"
	"sheet-marker/internal/submission"
	"sheet-marker/pkg/colorutil"
	"sheet-marker/pkg/geometry"
)

var panelFill = color.NRGBA{R: 250, G: 250, B: 247, A: 255}

// ExportError reports a failure to rasterize one page. Other pages of the
// same batch still export.
type ExportError struct {
	PageIndex int
	Err       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export page %d: %v", e.PageIndex, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Loader fetches and decodes a page's original-resolution image.
type Loader interface {
	Load(url string) (image.Image, error)
}

// Result is the outcome of exporting one page.
type Result struct {
	PageIndex int
	Image     *image.RGBA
	Err       error
}

// Compositor renders snapshots into flattened export images. It caches
// parsed fonts and sized faces across pages.
type Compositor struct {
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

type faceKey struct {
	size int // tenths of a pixel
	bold bool
}

// New creates a compositor with the bundled Go fonts parsed once.
func New() (*Compositor, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Compositor{regular: regular, bold: bold, faces: make(map[faceKey]font.Face)}, nil
}

// Face returns a cached face for the given pixel size.
func (c *Compositor) Face(size float64, bold bool) (font.Face, error) {
	if size < 1 {
		size = 1
	}
	key := faceKey{size: int(size * 10), bold: bold}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}

	src := c.regular
	if bold {
		src = c.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size: size, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build %gpx face: %w", size, err)
	}
	c.faces[key] = f
	return f, nil
}

// MeasureHeight returns the rendered height of text wrapped at the given
// width, using the same faces the export uses, so live stacking and the
// final raster agree.
func (c *Compositor) MeasureHeight(text string, fontSize, width float64, bold bool) (float64, error) {
	face, err := c.Face(fontSize, bold)
	if err != nil {
		return 0, err
	}
	lines := WrapText(face, text, width)
	return float64(len(lines)) * LineHeight(face), nil
}

// Page renders one page's snapshot into the flattened export raster:
// original scan at (0,0), flat panel to its right, every snapshot object
// re-materialized through the export-space mapping. The dashed border is a
// display-only aid and is deliberately not reproduced.
func (c *Compositor) Page(page submission.Page, background image.Image, snap annotation.Snapshot, container geometry.Size) (*image.RGBA, error) {
	if page.OriginalWidth <= 0 || page.OriginalHeight <= 0 {
		return nil, &ExportError{PageIndex: page.Index, Err: fmt.Errorf("page has no dimensions")}
	}
	if background == nil {
		return nil, &ExportError{PageIndex: page.Index, Err: fmt.Errorf("page image unavailable")}
	}

	ow, oh := page.OriginalWidth, page.OriginalHeight
	out := image.NewRGBA(image.Rect(0, 0, ow+geometry.PanelExportWidth, oh))

	draw.Draw(out, image.Rect(0, 0, ow, oh), background, background.Bounds().Min, draw.Src)
	draw.Draw(out, image.Rect(ow, 0, ow+geometry.PanelExportWidth, oh),
		&image.Uniform{panelFill}, image.Point{}, draw.Src)

	// The same deterministic transform the live surface used.
	original := geometry.NewSize(float64(ow), float64(oh))
	tr := geometry.ComputeDisplayTransform(container, original, geometry.PanelExportWidth, geometry.PanelGap)
	panel := geometry.ComputePanelBounds(tr, original, geometry.PanelExportWidth, geometry.PanelGap)
	imageMap := tr.ImageRegionMap()
	panelMap := tr.PanelRegionMap(panel, original.Width)

	for i := range snap.Objects {
		obj := snap.Objects[i]
		m := imageMap
		if obj.Region(panel.X) == annotation.RegionPanel {
			m = panelMap
		}
		mapped := annotation.ToExportSpace(obj, m)
		if err := c.renderObject(out, mapped); err != nil {
			return nil, &ExportError{PageIndex: page.Index, Err: err}
		}
	}
	return out, nil
}

// renderObject rasterizes one export-space object onto the canvas.
func (c *Compositor) renderObject(out *image.RGBA, obj annotation.Object) error {
	col := colorutil.ParseHexDefault(obj.Color, color.NRGBA{R: 211, G: 47, B: 47, A: 255})

	switch obj.Kind {
	case annotation.KindStroke, annotation.KindMark:
		width := obj.StrokeWidth
		if width <= 0 {
			width = 1
		}
		if len(obj.Path) >= 2 {
			DrawPath(out, obj.Path, width, col)
		} else if obj.Radius > 0 {
			DrawDot(out, obj.Left, obj.Top, obj.Radius, col)
		}
		return nil

	case annotation.KindText:
		face, err := c.Face(obj.FontSize, obj.Bold)
		if err != nil {
			return err
		}
		DrawString(out, face, obj.Left, obj.Top, obj.Content, col)
		return nil

	case annotation.KindComment:
		face, err := c.Face(obj.FontSize, obj.Bold)
		if err != nil {
			return err
		}
		y := obj.Top
		for _, line := range WrapText(face, obj.Content, obj.Width) {
			DrawString(out, face, obj.Left, y, line, col)
			y += LineHeight(face)
		}
		return nil

	case annotation.KindRefImage:
		src, _, err := image.Decode(bytes.NewReader(obj.SourceData))
		if err != nil {
			return fmt.Errorf("decode reference image: %w", err)
		}
		w, h := int(obj.Width), int(obj.Height)
		if w <= 0 || h <= 0 {
			return fmt.Errorf("reference image has no placed size")
		}
		resized := imaging.Resize(src, w, h, imaging.Lanczos)
		target := image.Rect(int(obj.Left), int(obj.Top), int(obj.Left)+w, int(obj.Top)+h)
		draw.Draw(out, target, resized, image.Point{}, draw.Over)
		return nil

	default:
		return fmt.Errorf("unsupported object kind %q", obj.Kind)
	}
}

// SnapshotSource yields the snapshot to export for a page. The page store
// satisfies it.
type SnapshotSource interface {
	Load(pageIndex int) (annotation.Snapshot, bool)
}

// All exports every page of a submission sequentially, one page at a time
// to bound memory. A failing page yields a Result carrying its error while
// the remaining pages still export.
func (c *Compositor) All(sub *submission.Submission, snaps SnapshotSource, loader Loader, container geometry.Size) []Result {
	results := make([]Result, 0, len(sub.Pages))
	for _, page := range sub.Pages {
		snap, _ := snaps.Load(page.Index)

		background, err := loader.Load(page.SourceURL)
		if err != nil {
			results = append(results, Result{
				PageIndex: page.Index,
				Err:       &ExportError{PageIndex: page.Index, Err: err},
			})
			log.Printf("export: page %d source load failed: %v", page.Index, err)
			continue
		}

		img, err := c.Page(page, background, snap, container)
		results = append(results, Result{PageIndex: page.Index, Image: img, Err: err})
	}
	return results
}

// EncodePNG flattens a rendered page to PNG bytes for upload.
func EncodePNG(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
