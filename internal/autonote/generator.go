// Package autonote places initial feedback annotations from a structured
// evaluation record: tick marks on the image, a score header and the
// comment list in the panel. It only picks a starting layout; everything it
// places is an ordinary selectable object the reviewer can move or delete.
package autonote

import (
	"fmt"

	"sheet-marker/internal/annotation"
	"sheet-marker/internal/submission"
	"sheet-marker/pkg/geometry"
)

const (
	headerFontSize  = 24
	commentFontSize = 16
	commentGap      = 10 // minimum vertical gap between stacked panel objects
	panelPadding    = 12

	tickColor    = "#2e7d32"
	headerColor  = "#1a237e"
	commentColor = "#37474f"
)

// tickAnchors are the fixed ratio positions (relative to the displayed
// image rectangle) where check marks land, in placement order.
var tickAnchors = []geometry.Point2D{
	{X: 0.12, Y: 0.18},
	{X: 0.12, Y: 0.45},
	{X: 0.12, Y: 0.72},
	{X: 0.58, Y: 0.30},
	{X: 0.58, Y: 0.60},
}

// Measurer reports the rendered height of wrapped text. The export
// compositor satisfies it, so stacking agrees with the final raster.
type Measurer interface {
	MeasureHeight(text string, fontSize, width float64, bold bool) (float64, error)
}

// Generator builds annotation layouts from evaluation records.
type Generator struct {
	meas Measurer
}

// New creates a generator measuring text with the given measurer.
func New(m Measurer) *Generator {
	return &Generator{meas: m}
}

// Generate places the evaluation's marks deterministically: one tick per
// comment (bounded by the anchor list), a bold score header at the panel
// top, and the comments stacked below it with no vertical overlap. The
// image and panel rectangles are in display space.
func (g *Generator) Generate(ev *submission.Evaluation, img, panel geometry.Rect) ([]annotation.Object, error) {
	if ev == nil {
		return nil, fmt.Errorf("no evaluation record")
	}

	var objects []annotation.Object

	ticks := len(ev.Comments)
	if ticks > len(tickAnchors) {
		ticks = len(tickAnchors)
	}
	tickSize := img.Width * 0.05
	if tickSize < 12 {
		tickSize = 12
	}
	for i := 0; i < ticks; i++ {
		anchor := tickAnchors[i]
		objects = append(objects, tickMark(
			img.X+anchor.X*img.Width,
			img.Y+anchor.Y*img.Height,
			tickSize,
		))
	}

	// Panel sizes scale with the panel's display width so the layout works
	// at any zoom; the reference width is the export panel width.
	fontScale := panel.Width / geometry.PanelExportWidth
	wrapWidth := panel.Width - 2*panelPadding

	header := annotation.Object{
		ID:         annotation.NewID(),
		Kind:       annotation.KindText,
		Left:       panel.X + panelPadding,
		Top:        panel.Y + panelPadding,
		FontSize:   headerFontSize * fontScale,
		Bold:       true,
		Color:      headerColor,
		Content:    fmt.Sprintf("Score: %d/%d", ev.Score, ev.MaxScore),
		Selectable: true,
	}
	objects = append(objects, header)

	gap := commentGap * fontScale
	top := header.Top + header.Bounds().Height + gap

	for _, text := range ev.Comments {
		obj := annotation.Object{
			ID:         annotation.NewID(),
			Kind:       annotation.KindComment,
			Left:       panel.X + panelPadding,
			Top:        top,
			Width:      wrapWidth,
			FontSize:   commentFontSize * fontScale,
			Color:      commentColor,
			Content:    text,
			Selectable: true,
		}

		height, err := g.meas.MeasureHeight(text, obj.FontSize, obj.Width, false)
		if err != nil {
			height = obj.Bounds().Height
		}
		obj.Height = height
		objects = append(objects, obj)

		top += height + gap
	}

	return objects, nil
}

// tickMark builds a hand-drawn-style check mark centered near (x, y).
func tickMark(x, y, size float64) annotation.Object {
	// Short downstroke then long upstroke, like a quick pen tick.
	path := []float64{
		x - size*0.4, y,
		x - size*0.1, y + size*0.35,
		x + size*0.6, y - size*0.5,
	}
	return annotation.Object{
		ID:          annotation.NewID(),
		Kind:        annotation.KindMark,
		Left:        x - size*0.4,
		Top:         y - size*0.5,
		Color:       tickColor,
		StrokeWidth: size * 0.12,
		Path:        path,
		Selectable:  true,
	}
}
