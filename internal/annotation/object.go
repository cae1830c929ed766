// Package annotation defines the annotation object model: the typed records
// a reviewer places on a page, the live scene that holds them, and the
// serialized snapshots used for undo history and per-page persistence.
package annotation

import (
	"math"

	"github.com/google/uuid"

	"sheet-marker/pkg/geometry"
)

// Kind identifies the variant of an annotation object.
type Kind string

const (
	KindStroke   Kind = "stroke"   // freehand ink path
	KindText     Kind = "text"     // single-line typed text
	KindComment  Kind = "comment"  // block-wrapped text, panel feedback
	KindMark     Kind = "mark"     // tick or shape placed on the image
	KindRefImage Kind = "refimage" // pasted reference image
)

// Region identifies which side of the panel threshold an object occupies.
// It is derived from the object's position, never stored.
type Region int

const (
	RegionImage Region = iota
	RegionPanel
)

func (r Region) String() string {
	if r == RegionPanel {
		return "panel"
	}
	return "image"
}

// Object is one annotation placed by the reviewer. A single tagged struct
// covers all variants; fields that do not apply to a Kind stay zero.
// All coordinates and sizes are in display space until mapped for export.
type Object struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	Left float64 `json:"left"`
	Top  float64 `json:"top"`

	// Width is the wrap width for comments and the placed width for
	// reference images. Height is the placed height for reference images.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	Color       string  `json:"color,omitempty"` // "#rrggbb"
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	Bold        bool    `json:"bold,omitempty"`

	Content string `json:"content,omitempty"`

	// Path holds stroke and mark geometry as a flat coordinate array:
	// even index = x, odd index = y. The points are not separately tagged,
	// so every transform of Path must be coordinate-index-aware.
	Path []float64 `json:"path,omitempty"`

	// SourceData holds the encoded bytes of a reference image.
	SourceData []byte  `json:"sourceData,omitempty"`
	ScaleX     float64 `json:"scaleX,omitempty"`
	ScaleY     float64 `json:"scaleY,omitempty"`

	Selectable bool `json:"selectable"`
}

// NewID returns a fresh object identifier.
func NewID() string {
	return uuid.NewString()
}

// Region reports whether the object belongs to the image region or the
// panel region, using the same threshold live editing and export share.
func (o *Object) Region(panelLeftOnCanvas float64) Region {
	if o.Left < panelLeftOnCanvas {
		return RegionImage
	}
	return RegionPanel
}

// Bounds returns the object's display-space bounding box. For path-bearing
// kinds the box encloses every path point padded by the stroke width.
func (o *Object) Bounds() geometry.Rect {
	if len(o.Path) >= 2 {
		pts := make([]geometry.Point2D, 0, len(o.Path)/2)
		for i := 0; i+1 < len(o.Path); i += 2 {
			pts = append(pts, geometry.Point2D{X: o.Path[i], Y: o.Path[i+1]})
		}
		box := geometry.BoundingBox(pts)
		pad := o.StrokeWidth / 2
		return geometry.NewRect(box.X-pad, box.Y-pad, box.Width+2*pad, box.Height+2*pad)
	}

	w, h := o.Width, o.Height
	if o.FontSize > 0 {
		// Text metrics are approximated from the font size; the export
		// compositor measures precisely with real font metrics.
		advance := o.FontSize * 0.6 * float64(len([]rune(o.Content)))
		if w == 0 {
			w = advance
		}
		if h == 0 {
			lines := 1.0
			if w > 0 && advance > w {
				lines = math.Ceil(advance / w)
			}
			h = lines * o.FontSize * 1.3
		}
	}
	return geometry.NewRect(o.Left, o.Top, w, h)
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() Object {
	c := *o
	if o.Path != nil {
		c.Path = append([]float64(nil), o.Path...)
	}
	if o.SourceData != nil {
		c.SourceData = append([]byte(nil), o.SourceData...)
	}
	return c
}

// Translate moves the object by the given display-space delta, keeping the
// flat path coordinates in step with Left/Top.
func (o *Object) Translate(dx, dy float64) {
	o.Left += dx
	o.Top += dy
	for i := range o.Path {
		if i%2 == 0 {
			o.Path[i] += dx
		} else {
			o.Path[i] += dy
		}
	}
}
