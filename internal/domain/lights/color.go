package lights

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an RGB color with channels in [0, 1].
type Color colorful.Color

// ErrInvalidColor is returned when a hex triplet cannot be parsed.
var ErrInvalidColor = errors.New("invalid color")

// Black is the color of an LED that is off.
//
//nolint:gochecknoglobals // Immutable value used as a constant.
var Black = Color{}

// ParseHexColor parses "#rrggbb" (the leading '#' is optional).
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 || strings.ContainsAny(hex, "+- ") {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	return Color(c), nil
}

// Hex encodes the color as a "#rrggbb" triplet.
func (c Color) Hex() string {
	return colorful.Color(c.Clamp()).Hex()
}

// Bytes returns the channels scaled to 0..255.
func (c Color) Bytes() (r, g, b byte) {
	return colorful.Color(c.Clamp()).RGB255()
}

// Scale multiplies every channel by f and clamps the result.
func (c Color) Scale(f float64) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f}.Clamp()
}

// Clamp limits every channel to [0, 1]; NaN becomes 0.
func (c Color) Clamp() Color {
	return Color(colorful.Color{R: finite(c.R), G: finite(c.G), B: finite(c.B)}.Clamped())
}

// Lerp blends c towards o by t in [0, 1].
func (c Color) Lerp(o Color, t float64) Color {
	return Color(colorful.Color(c).BlendRgb(colorful.Color(o), clampUnit(t)))
}

// HSV builds a color from hue, saturation and value, all in [0, 1].
// Hue wraps around.
func HSV(h, s, v float64) Color {
	hue := finite(h-math.Floor(h)) * 360
	if hue >= 360 {
		hue = 0
	}

	return Color(colorful.Hsv(hue, clampUnit(s), clampUnit(v)))
}

// Repeat returns n copies of c.
func Repeat(c Color, n int) []Color {
	if n <= 0 {
		return nil
	}

	colors := make([]Color, n)
	for i := range colors {
		colors[i] = c
	}

	return colors
}

func clampUnit(v float64) float64 {
	return min(max(finite(v), 0), 1)
}

// finite maps NaN to 0; infinities are left for the callers.
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return v
}
