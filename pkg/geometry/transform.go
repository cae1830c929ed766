package geometry

import "math"

// Layout constants shared by the live surface and the export compositor;
// both must derive the same transform from the same inputs.
const (
	// PanelExportWidth is the comment panel width in export pixels.
	PanelExportWidth = 700
	// PanelGap is the display-space gap between image and panel. The gap
	// is a display-only affordance and is not reproduced in the export.
	PanelGap = 10
)

// DisplayTransform describes how the original-resolution page image is
// placed on the on-screen editing surface. It is derived from the container
// and original image sizes on every page load and is never stored, so the
// same inputs always reproduce the same transform.
type DisplayTransform struct {
	Scale     float64 // display pixels per original pixel
	ImageLeft float64 // display-space X of the image's left edge
	ImageTop  float64 // display-space Y of the image's top edge
}

// ComputeDisplayTransform fits the original image into the container and
// shifts it left of pure centering so the comment panel fits flush to its
// right. The image+panel block is centered as a unit; the left edge is
// clamped at zero when the block is wider than the container.
func ComputeDisplayTransform(container, original Size, panelExportWidth, gap float64) DisplayTransform {
	scale := math.Min(container.Width/original.Width, container.Height/original.Height)

	blockWidth := original.Width*scale + gap + panelExportWidth*scale
	left := (container.Width - blockWidth) / 2
	if left < 0 {
		left = 0
	}

	return DisplayTransform{
		Scale:     scale,
		ImageLeft: left,
		ImageTop:  (container.Height - original.Height*scale) / 2,
	}
}

// ComputePanelBounds returns the display-space rectangle of the comment
// panel: immediately right of the displayed image with a small gap, the
// export panel width scaled down to display space.
func ComputePanelBounds(t DisplayTransform, original Size, panelExportWidth, gap float64) Rect {
	return Rect{
		X:      t.ImageLeft + original.Width*t.Scale + gap,
		Y:      t.ImageTop,
		Width:  panelExportWidth * t.Scale,
		Height: original.Height * t.Scale,
	}
}

// RegionMap maps display-space coordinates of one region (image or panel)
// into export space and back. Export space is the original-resolution image
// with the panel appended to its right, so panel-region coordinates are
// translated by the original image width.
type RegionMap struct {
	Scale   float64 // display pixels per export pixel
	OriginX float64 // display-space X origin of the region
	OriginY float64 // display-space Y origin of the region
	OffsetX float64 // export-space X offset (0 for image, originalWidth for panel)
}

// ImageRegionMap returns the map for objects in the image region.
func (t DisplayTransform) ImageRegionMap() RegionMap {
	return RegionMap{Scale: t.Scale, OriginX: t.ImageLeft, OriginY: t.ImageTop}
}

// PanelRegionMap returns the map for objects in the panel region. Panel
// objects land at export X >= originalWidth; the display gap between image
// and panel is not reproduced in the export.
func (t DisplayTransform) PanelRegionMap(panel Rect, originalWidth float64) RegionMap {
	return RegionMap{Scale: t.Scale, OriginX: panel.X, OriginY: t.ImageTop, OffsetX: originalWidth}
}

// ToExport maps a display-space point into export space.
func (m RegionMap) ToExport(p Point2D) Point2D {
	return Point2D{
		X: (p.X-m.OriginX)/m.Scale + m.OffsetX,
		Y: (p.Y - m.OriginY) / m.Scale,
	}
}

// FromExport maps an export-space point back into display space. It is the
// exact algebraic inverse of ToExport.
func (m RegionMap) FromExport(p Point2D) Point2D {
	return Point2D{
		X: (p.X-m.OffsetX)*m.Scale + m.OriginX,
		Y: p.Y*m.Scale + m.OriginY,
	}
}

// ToExportLength maps a display-space length (width, height, radius, font
// size, stroke width) into export space.
func (m RegionMap) ToExportLength(v float64) float64 {
	return v / m.Scale
}

// FromExportLength is the inverse of ToExportLength.
func (m RegionMap) FromExportLength(v float64) float64 {
	return v * m.Scale
}

// PathToExport maps a flat coordinate array into export space. Paths do not
// tag x/y separately, so the mapping is coordinate-index-aware: even
// indices are x, odd indices are y.
func (m RegionMap) PathToExport(path []float64) []float64 {
	out := make([]float64, len(path))
	for i, v := range path {
		if i%2 == 0 {
			out[i] = (v-m.OriginX)/m.Scale + m.OffsetX
		} else {
			out[i] = (v - m.OriginY) / m.Scale
		}
	}
	return out
}

// PathFromExport is the inverse of PathToExport.
func (m RegionMap) PathFromExport(path []float64) []float64 {
	out := make([]float64, len(path))
	for i, v := range path {
		if i%2 == 0 {
			out[i] = (v-m.OffsetX)*m.Scale + m.OriginX
		} else {
			out[i] = v*m.Scale + m.OriginY
		}
	}
	return out
}
