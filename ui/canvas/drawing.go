package canvas

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"sheet-marker/internal/annotation"
	"sheet-marker/internal/export"
	"sheet-marker/pkg/colorutil"
	"sheet-marker/pkg/geometry"
)

var (
	workspaceFill = color.NRGBA{R: 225, G: 225, B: 228, A: 255}
	panelFill     = color.NRGBA{R: 250, G: 250, B: 247, A: 255}
	borderColor   = color.NRGBA{R: 120, G: 120, B: 120, A: 255}
	selectionTint = color.NRGBA{R: 25, G: 118, B: 210, A: 255}
	fallbackInk   = color.NRGBA{R: 211, G: 47, B: 47, A: 255}
)

// render draws the whole surface in display space.
func (e *Editor) render(w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), &image.Uniform{workspaceFill}, image.Point{}, draw.Src)

	scene := e.ctrl.Scene()
	if scene == nil {
		return out
	}

	imgBounds := e.ctrl.ImageBounds()
	if bg := scene.Background(); bg != nil {
		scaled := e.scaledBackground(bg, int(imgBounds.Width), int(imgBounds.Height))
		target := image.Rect(
			int(imgBounds.X), int(imgBounds.Y),
			int(imgBounds.X)+scaled.Bounds().Dx(), int(imgBounds.Y)+scaled.Bounds().Dy(),
		)
		draw.Draw(out, target, scaled, image.Point{}, draw.Src)
	}

	panel := e.ctrl.PanelBounds()
	draw.Draw(out, image.Rect(int(panel.X), int(panel.Y), int(panel.Right()), int(panel.Bottom())),
		&image.Uniform{panelFill}, image.Point{}, draw.Src)

	drawDashedRect(out, scene.Border(), borderColor)

	for _, obj := range scene.Objects() {
		e.renderObject(out, obj)
	}

	if id := e.ctrl.SelectedID(); id != "" {
		if obj := scene.Find(id); obj != nil {
			drawDashedRect(out, obj.Bounds(), selectionTint)
		}
	}

	if path := e.ctrl.Tools().PreviewPath(); len(path) >= 4 {
		style := e.ctrl.Style()
		ink := colorutil.ParseHexDefault(style.Color, fallbackInk)
		export.DrawPath(out, path, style.StrokeWidth, ink)
	}
	return out
}

func (e *Editor) renderObject(out *image.RGBA, obj annotation.Object) {
	ink := colorutil.ParseHexDefault(obj.Color, fallbackInk)

	switch obj.Kind {
	case annotation.KindStroke, annotation.KindMark:
		width := obj.StrokeWidth
		if width <= 0 {
			width = 1
		}
		if len(obj.Path) >= 2 {
			export.DrawPath(out, obj.Path, width, ink)
		} else if obj.Radius > 0 {
			export.DrawDot(out, obj.Left, obj.Top, obj.Radius, ink)
		}

	case annotation.KindText:
		face, err := e.comp.Face(obj.FontSize, obj.Bold)
		if err != nil {
			return
		}
		export.DrawString(out, face, obj.Left, obj.Top, obj.Content, ink)

	case annotation.KindComment:
		face, err := e.comp.Face(obj.FontSize, obj.Bold)
		if err != nil {
			return
		}
		y := obj.Top
		for _, line := range export.WrapText(face, obj.Content, obj.Width) {
			export.DrawString(out, face, obj.Left, y, line, ink)
			y += export.LineHeight(face)
		}

	case annotation.KindRefImage:
		src, _, err := image.Decode(bytes.NewReader(obj.SourceData))
		if err != nil {
			return
		}
		w, h := int(obj.Width), int(obj.Height)
		if w <= 0 || h <= 0 {
			return
		}
		resized := imaging.Resize(src, w, h, imaging.Linear)
		target := image.Rect(int(obj.Left), int(obj.Top), int(obj.Left)+w, int(obj.Top)+h)
		draw.Draw(out, target, resized, image.Point{}, draw.Over)
	}
}

// scaledBackground returns the page scan scaled to the displayed image
// size, cached until the source or size changes.
func (e *Editor) scaledBackground(src image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	c := &e.bgCache
	if c.src == src && c.w == w && c.h == h && c.scaled != nil {
		return c.scaled
	}
	c.src, c.w, c.h = src, w, h
	c.scaled = imaging.Resize(src, w, h, imaging.Linear)
	return c.scaled
}

// drawDashedRect outlines a rectangle with a dashed single-pixel line.
func drawDashedRect(out *image.RGBA, r geometry.Rect, col color.Color) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	const dash, gap = 6, 4
	x1, y1 := int(r.X), int(r.Y)
	x2, y2 := int(r.Right()), int(r.Bottom())

	for x := x1; x <= x2; x++ {
		if (x-x1)%(dash+gap) < dash {
			setPixel(out, x, y1, col)
			setPixel(out, x, y2, col)
		}
	}
	for y := y1; y <= y2; y++ {
		if (y-y1)%(dash+gap) < dash {
			setPixel(out, x1, y, col)
			setPixel(out, x2, y, col)
		}
	}
}

func setPixel(out *image.RGBA, x, y int, col color.Color) {
	if image.Pt(x, y).In(out.Bounds()) {
		out.Set(x, y, col)
	}
}
