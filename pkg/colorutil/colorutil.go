// Package colorutil provides color parsing and manipulation helpers.
package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseHex parses a "#rrggbb" hex string into an opaque color.
func ParseHex(s string) (color.NRGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// ParseHexDefault parses a hex color string, falling back to the given
// default when the string is empty or malformed.
func ParseHexDefault(s string, def color.NRGBA) color.NRGBA {
	if s == "" {
		return def
	}
	c, err := ParseHex(s)
	if err != nil {
		return def
	}
	return c
}

// Darken returns the color scaled toward black by the given factor (0-1).
func Darken(c color.NRGBA, factor float64) color.NRGBA {
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	d := cf.BlendLab(colorful.Color{}, factor)
	r, g, b := d.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: c.A}
}

// Hex formats a color as a "#rrggbb" string.
func Hex(c color.NRGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}
