package device

import (
	"image"

	"github.com/oshokin/lightshow/internal/domain/lights"
)

// Ring is an addressable LED ring.
type Ring interface {
	// Initialized reports whether the hardware was found.
	Initialized() bool
	// LEDCount is the number of LEDs on the ring.
	LEDCount() int
	Monochrome() bool
	SetMonochrome(enabled bool)
	Brightness() float64
	SetBrightness(value float64)
	// SetColors writes one color per LED.
	SetColors(colors []lights.Color)
	// Clear turns every LED off.
	Clear()
}

// Strip is a single-color LED strip.
type Strip interface {
	Initialized() bool
	Brightness() float64
	SetBrightness(value float64)
	SetColor(color lights.Color)
	Clear()
}

// Screen is a pixel display rendered at an adjustable resolution.
type Screen interface {
	Initialized() bool
	// Resolution is the size frames should be drawn at.
	Resolution() image.Point
	// Draw shows a frame, scaling it to the panel when needed.
	Draw(frame image.Image)
	// IncreaseResolution steps one level up; it reports false at the maximum.
	IncreaseResolution() bool
	// DecreaseResolution steps one level down; it reports false at the minimum.
	DecreaseResolution() bool
	// Adjust re-reads the panel geometry and rebuilds the resolution ladder.
	Adjust() error
	// Clear blanks the panel.
	Clear()
}

// Resolutions builds a ladder of render sizes from max down to minWidth by
// halving, ordered from lowest to highest.
func Resolutions(maxSize image.Point, minWidth int) []image.Point {
	if maxSize.X <= 0 || maxSize.Y <= 0 {
		return nil
	}

	if minWidth <= 0 {
		minWidth = 1
	}

	ladder := []image.Point{maxSize}

	for size := maxSize; size.X/2 >= minWidth && size.Y/2 >= 1; {
		size = image.Pt(size.X/2, size.Y/2)
		ladder = append(ladder, size)
	}

	for i, j := 0, len(ladder)-1; i < j; i, j = i+1, j-1 {
		ladder[i], ladder[j] = ladder[j], ladder[i]
	}

	return ladder
}
