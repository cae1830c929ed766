package annotation

import (
	"sheet-marker/pkg/geometry"
)

// ToExportSpace maps a display-space object into export space using the
// region map for the region the object occupies. Position moves through
// the map; every size-like field scales by the inverse display scale; flat
// paths get the coordinate-index-aware treatment.
func ToExportSpace(obj Object, m geometry.RegionMap) Object {
	out := obj.Clone()

	p := m.ToExport(geometry.Point2D{X: obj.Left, Y: obj.Top})
	out.Left, out.Top = p.X, p.Y

	out.Width = m.ToExportLength(obj.Width)
	out.Height = m.ToExportLength(obj.Height)
	out.Radius = m.ToExportLength(obj.Radius)
	out.FontSize = m.ToExportLength(obj.FontSize)
	out.StrokeWidth = m.ToExportLength(obj.StrokeWidth)

	if len(obj.Path) > 0 {
		out.Path = m.PathToExport(obj.Path)
	}
	return out
}

// FromExportSpace is the exact algebraic inverse of ToExportSpace.
func FromExportSpace(obj Object, m geometry.RegionMap) Object {
	out := obj.Clone()

	p := m.FromExport(geometry.Point2D{X: obj.Left, Y: obj.Top})
	out.Left, out.Top = p.X, p.Y

	out.Width = m.FromExportLength(obj.Width)
	out.Height = m.FromExportLength(obj.Height)
	out.Radius = m.FromExportLength(obj.Radius)
	out.FontSize = m.FromExportLength(obj.FontSize)
	out.StrokeWidth = m.FromExportLength(obj.StrokeWidth)

	if len(obj.Path) > 0 {
		out.Path = m.PathFromExport(obj.Path)
	}
	return out
}
