package program

import (
	"image"
	"sync/atomic"
	"time"

	"github.com/oshokin/lightshow/internal/domain/lights"
)

// Program names.
const (
	NameDisabled = "Disabled"
	NameFixed    = "Fixed"
	NameAlarm    = "Alarm"
	NameRainbow  = "Rainbow"
	NameAdaptive = "Adaptive"
	NameCircle   = "Circle"
	NameCava     = "Cava"
)

// Tick carries the timing of one render loop iteration.
type Tick struct {
	// Delta is the wall time since the previous iteration.
	Delta time.Duration
	// Speed is the global program speed multiplier.
	Speed float64
}

// Step is the animation time to advance by: Delta scaled by Speed.
func (t Tick) Step() float64 {
	return t.Delta.Seconds() * t.Speed
}

// Program is a named, reference-counted unit of animation logic.
type Program interface {
	Name() string
	// Use registers one more consumer.
	Use()
	// Release drops one consumer; the count never goes below zero.
	Release()
	// Consumers is the number of outputs currently referencing the program.
	Consumers() int
}

// Advancer mutates a program's animation state once per frame.
type Advancer interface {
	Advance(tick Tick)
}

// RingColorSource produces one color per ring LED.
type RingColorSource interface {
	RingColors(n int) []lights.Color
}

// StripColorSource produces a single representative color.
type StripColorSource interface {
	StripColor() lights.Color
}

// ScreenRenderer draws a screen frame at the requested size.
type ScreenRenderer interface {
	DrawScreen(size image.Point) image.Image
}

// counter is the consumer count shared by every program.
type counter struct {
	n atomic.Int32
}

// Consumers is the number of outputs currently referencing the program.
func (c *counter) Consumers() int {
	return int(c.n.Load())
}

// Use registers one more consumer.
func (c *counter) Use() {
	c.use()
}

// Release drops one consumer without going below zero.
func (c *counter) Release() {
	c.release()
}

// use increments the count and returns the new value.
func (c *counter) use() int32 {
	return c.n.Add(1)
}

// release decrements the count unless it is zero. It returns the new value
// and whether a consumer was actually dropped.
func (c *counter) release() (int32, bool) {
	for {
		current := c.n.Load()
		if current <= 0 {
			return 0, false
		}

		if c.n.CompareAndSwap(current, current-1) {
			return current - 1, true
		}
	}
}

// named carries a program's name.
type named string

// Name returns the program name.
func (n named) Name() string { return string(n) }
