package export

import (
	"image"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DrawDot fills a circle, used both for stroke joints and as the pen nib
// stepped along line segments.
func DrawDot(img *image.RGBA, cx, cy, r float64, col color.Color) {
	bounds := img.Bounds()
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, col)
			}
		}
	}
}

// drawThickLine draws a line of the given width by stepping a round nib
// along the segment.
func drawThickLine(img *image.RGBA, x1, y1, x2, y2, width float64, col color.Color) {
	r := width / 2
	if r < 0.5 {
		r = 0.5
	}
	length := math.Hypot(x2-x1, y2-y1)
	if length == 0 {
		DrawDot(img, x1, y1, r, col)
		return
	}

	steps := int(length/(r*0.5)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		DrawDot(img, x1+(x2-x1)*t, y1+(y2-y1)*t, r, col)
	}
}

// DrawPath draws a flat coordinate array (even = x, odd = y) as a
// connected polyline.
func DrawPath(img *image.RGBA, path []float64, width float64, col color.Color) {
	n := len(path) / 2
	if n == 0 {
		return
	}
	if n == 1 {
		DrawDot(img, path[0], path[1], width/2, col)
		return
	}
	for i := 0; i < n-1; i++ {
		drawThickLine(img,
			path[2*i], path[2*i+1],
			path[2*i+2], path[2*i+3],
			width, col)
	}
}

// DrawString renders one line of text with its top-left corner at (x, y).
func DrawString(img *image.RGBA, face font.Face, x, y float64, text string, col color.Color) {
	metrics := face.Metrics()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y*64) + metrics.Ascent,
		},
	}
	d.DrawString(text)
}

// WrapText splits text into lines that fit the given pixel width, breaking
// on spaces and falling back to per-rune breaks for oversized words.
func WrapText(face font.Face, text string, width float64) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}
	limit := fixed.Int26_6(width * 64)

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if font.MeasureString(face, candidate) <= limit || line == "" {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}

		// Split any word still wider than the wrap width.
		for font.MeasureString(face, line) > limit && len([]rune(line)) > 1 {
			runes := []rune(line)
			cut := len(runes) - 1
			for cut > 1 && font.MeasureString(face, string(runes[:cut])) > limit {
				cut--
			}
			lines = append(lines, string(runes[:cut]))
			line = string(runes[cut:])
		}
		lines = append(lines, line)
	}
	return lines
}

// LineHeight returns the vertical advance for a face, in pixels.
func LineHeight(face font.Face) float64 {
	return float64(face.Metrics().Height) / 64
}
