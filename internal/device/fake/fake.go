// Package fake provides in-memory devices that record what the engine writes.
package fake

import (
	"image"
	"sync"

	"github.com/oshokin/lightshow/internal/device"
	"github.com/oshokin/lightshow/internal/domain/lights"
)

// Ring is an in-memory device.Ring.
type Ring struct {
	mu sync.Mutex
	// Connected is returned by Initialized.
	Connected bool
	// Count is returned by LEDCount.
	Count int
	// Mono is the monochrome flag.
	Mono bool
	// Level is the brightness.
	Level float64
	// Frames holds every written color slice.
	Frames [][]lights.Color
	// Clears counts Clear calls.
	Clears int
}

// NewRing returns a connected ring with count LEDs.
func NewRing(count int) *Ring {
	return &Ring{Connected: true, Count: count, Level: 1}
}

// Initialized returns Connected.
func (r *Ring) Initialized() bool { return r.Connected }

// LEDCount returns Count.
func (r *Ring) LEDCount() int { return r.Count }

// Monochrome returns the monochrome flag.
func (r *Ring) Monochrome() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Mono
}

// SetMonochrome records the monochrome flag.
func (r *Ring) SetMonochrome(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Mono = enabled
}

// Brightness returns Level.
func (r *Ring) Brightness() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Level
}

// SetBrightness records Level.
func (r *Ring) SetBrightness(value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Level = value
}

// SetColors records a copy of colors as a frame.
func (r *Ring) SetColors(colors []lights.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Frames = append(r.Frames, append([]lights.Color(nil), colors...))
}

// Clear counts the call.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Clears++
}

// LastFrame returns the most recent colors written, or nil.
func (r *Ring) LastFrame() []lights.Color {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Frames) == 0 {
		return nil
	}

	return r.Frames[len(r.Frames)-1]
}

// FrameCount returns the number of written frames.
func (r *Ring) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.Frames)
}

// ClearCount returns the number of Clear calls.
func (r *Ring) ClearCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Clears
}

// Strip is an in-memory device.Strip.
type Strip struct {
	mu sync.Mutex
	// Connected is returned by Initialized.
	Connected bool
	// Level is the brightness.
	Level float64
	// Colors holds every written color.
	Colors []lights.Color
	// Clears counts Clear calls.
	Clears int
}

// NewStrip returns a connected strip.
func NewStrip() *Strip {
	return &Strip{Connected: true, Level: 1}
}

// Initialized returns Connected.
func (s *Strip) Initialized() bool { return s.Connected }

// Brightness returns Level.
func (s *Strip) Brightness() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Level
}

// SetBrightness records Level.
func (s *Strip) SetBrightness(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Level = value
}

// SetColor records color.
func (s *Strip) SetColor(color lights.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Colors = append(s.Colors, color)
}

// Clear counts the call.
func (s *Strip) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Clears++
}

// LastColor returns the most recent color written and whether there was one.
func (s *Strip) LastColor() (lights.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Colors) == 0 {
		return lights.Color{}, false
	}

	return s.Colors[len(s.Colors)-1], true
}

// ClearCount returns the number of Clear calls.
func (s *Strip) ClearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Clears
}

// Screen is an in-memory device.Screen with a resolution ladder.
type Screen struct {
	mu sync.Mutex
	// Connected is returned by Initialized.
	Connected bool
	// Ladder holds the render sizes from lowest to highest.
	Ladder []image.Point
	// Level indexes Ladder.
	Level int
	// Draws counts drawn frames.
	Draws int
	// Adjusts counts Adjust calls.
	Adjusts int
	// Clears counts Clear calls.
	Clears int
}

// NewScreen returns a connected screen at the top of a ladder built from size.
func NewScreen(size image.Point) *Screen {
	ladder := device.Resolutions(size, 8)

	return &Screen{Connected: true, Ladder: ladder, Level: len(ladder) - 1}
}

// Initialized returns Connected.
func (s *Screen) Initialized() bool { return s.Connected }

// Resolution returns the current ladder step.
func (s *Screen) Resolution() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Ladder) == 0 {
		return image.Point{}
	}

	return s.Ladder[s.Level]
}

// Draw counts the frame.
func (s *Screen) Draw(image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Draws++
}

// IncreaseResolution steps one level up.
func (s *Screen) IncreaseResolution() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Level+1 >= len(s.Ladder) {
		return false
	}

	s.Level++

	return true
}

// DecreaseResolution steps one level down.
func (s *Screen) DecreaseResolution() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Level == 0 {
		return false
	}

	s.Level--

	return true
}

// Adjust counts the call and returns to the top of the ladder.
func (s *Screen) Adjust() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Adjusts++
	s.Level = len(s.Ladder) - 1

	return nil
}

// Clear counts the call.
func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Clears++
}

// DrawCount returns the number of drawn frames.
func (s *Screen) DrawCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Draws
}

// LevelIndex returns the current ladder index.
func (s *Screen) LevelIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Level
}

var (
	_ device.Ring   = (*Ring)(nil)
	_ device.Strip  = (*Strip)(nil)
	_ device.Screen = (*Screen)(nil)
)
