package program

import (
	"math"
	"sync"

	"github.com/oshokin/lightshow/internal/domain/lights"
)

// Disabled produces no output. It stands in for "no program" on every target.
type Disabled struct {
	named
	counter
}

// NewDisabled creates the Disabled program.
func NewDisabled() *Disabled {
	return &Disabled{named: NameDisabled}
}

// Fixed shows one static color, shared by every target it is assigned to.
type Fixed struct {
	named
	counter

	// mu protects color; the alarm pulse writes it from the render loop.
	mu    sync.Mutex
	color lights.Color
}

// NewFixed creates the Fixed program with the given color.
func NewFixed(color lights.Color) *Fixed {
	return &Fixed{named: NameFixed, color: color}
}

// Color returns the current color.
func (f *Fixed) Color() lights.Color {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.color
}

// SetColor replaces the color.
func (f *Fixed) SetColor(color lights.Color) {
	f.mu.Lock()
	f.color = color.Clamp()
	f.mu.Unlock()
}

// StripColor returns the current color.
func (f *Fixed) StripColor() lights.Color {
	return f.Color()
}

// RingColors returns the current color on every LED.
func (f *Fixed) RingColors(n int) []lights.Color {
	return lights.Repeat(f.Color(), n)
}

// Rainbow cycles through the hue circle, spread around the ring.
type Rainbow struct {
	named
	counter

	// hue is the hue of LED 0 and of the strip, in [0, 1).
	hue float64
}

// rainbowCyclesPerSecond is the hue rotation rate at speed 1.
const rainbowCyclesPerSecond = 0.1

// NewRainbow creates the Rainbow program.
func NewRainbow() *Rainbow {
	return &Rainbow{named: NameRainbow}
}

// Advance rotates the hue.
func (r *Rainbow) Advance(tick Tick) {
	r.hue = wrapUnit(r.hue + tick.Step()*rainbowCyclesPerSecond)
}

// StripColor returns the current hue at full saturation.
func (r *Rainbow) StripColor() lights.Color {
	return lights.HSV(r.hue, 1, 1)
}

// RingColors spreads one full hue circle over the ring.
func (r *Rainbow) RingColors(n int) []lights.Color {
	colors := make([]lights.Color, max(n, 0))
	for i := range colors {
		colors[i] = lights.HSV(r.hue+float64(i)/float64(n), 1, 1)
	}

	return colors
}

// Alarm pulses the Fixed program red while it has consumers. It is advanced
// every frame regardless of assignment.
type Alarm struct {
	named
	counter

	// fixed is the program whose color the pulse drives.
	fixed *Fixed
	// elapsed is the time since the alarm started, in seconds.
	elapsed float64
	// current is the latest pulse color.
	current lights.Color
}

// alarmPulsePeriod is the duration of one red pulse in seconds.
const alarmPulsePeriod = 1.0

// alarmColor is the color at the top of a pulse.
//
//nolint:gochecknoglobals // Immutable value used as a constant.
var alarmColor = lights.Color{R: 1}

// NewAlarm creates the Alarm program driving fixed.
func NewAlarm(fixed *Fixed) *Alarm {
	return &Alarm{named: NameAlarm, fixed: fixed}
}

// Advance moves the pulse forward and writes it to the Fixed program. It does
// nothing while the alarm has no consumers. The pulse ignores program speed.
func (a *Alarm) Advance(tick Tick) {
	if a.Consumers() == 0 {
		a.elapsed = 0
		a.current = lights.Black

		return
	}

	a.elapsed += tick.Delta.Seconds()
	intensity := (1 - math.Cos(2*math.Pi*a.elapsed/alarmPulsePeriod)) / 2
	a.current = lights.Black.Lerp(alarmColor, intensity)

	if a.fixed != nil {
		a.fixed.SetColor(a.current)
	}
}

// StripColor returns the current pulse color.
func (a *Alarm) StripColor() lights.Color {
	return a.current
}

// RingColors returns the current pulse color on every LED.
func (a *Alarm) RingColors(n int) []lights.Color {
	return lights.Repeat(a.current, n)
}

func wrapUnit(v float64) float64 {
	v -= math.Floor(v)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
