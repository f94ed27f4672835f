package program

import (
	"image"
	"image/color"

	"github.com/oshokin/lightshow/internal/domain/lights"
)

// adaptiveCyclesPerSecond is the base hue rotation of audio-reactive programs.
const adaptiveCyclesPerSecond = 0.05

// Adaptive colors the LEDs from the audio spectrum: every LED follows the
// level of its bar, the strip follows overall loudness.
type Adaptive struct {
	named
	counter

	// cava supplies the audio levels.
	cava *Cava
	// hue is the base hue, rotating faster with louder music.
	hue float64
}

// NewAdaptive creates the Adaptive program fed by cava.
func NewAdaptive(cava *Cava) *Adaptive {
	return &Adaptive{named: NameAdaptive, cava: cava}
}

// Use registers a consumer and keeps the analyser running.
func (a *Adaptive) Use() {
	a.use()
	a.cava.Use()
}

// Release drops a consumer and lets the analyser stop after the last one.
func (a *Adaptive) Release() {
	if _, released := a.release(); released {
		a.cava.Release()
	}
}

// Advance rotates the base hue, faster when the music is loud.
func (a *Adaptive) Advance(tick Tick) {
	a.hue = wrapUnit(a.hue + tick.Step()*adaptiveCyclesPerSecond*(1+4*a.cava.Loudness()))
}

// StripColor is the base hue at the overall loudness.
func (a *Adaptive) StripColor() lights.Color {
	return lights.HSV(a.hue, 1, a.cava.Loudness())
}

// RingColors maps each LED to a bar of the spectrum.
func (a *Adaptive) RingColors(n int) []lights.Color {
	colors := make([]lights.Color, max(n, 0))
	for i := range colors {
		colors[i] = lights.HSV(a.hue+float64(i)/float64(2*n), 1, a.cava.Level(i, n))
	}

	return colors
}

// Circle draws a pulsing disc on the screen whose radius follows the bass.
type Circle struct {
	named
	counter

	// cava supplies the audio levels.
	cava *Cava
	// hue is the disc hue.
	hue float64
	// frame is reused between draws of the same size.
	frame *image.RGBA
}

// NewCircle creates the Circle program fed by cava.
func NewCircle(cava *Cava) *Circle {
	return &Circle{named: NameCircle, cava: cava}
}

// Use registers a consumer and keeps the analyser running.
func (c *Circle) Use() {
	c.use()
	c.cava.Use()
}

// Release drops a consumer and lets the analyser stop after the last one.
func (c *Circle) Release() {
	if _, released := c.release(); released {
		c.cava.Release()
	}
}

// Advance rotates the disc hue.
func (c *Circle) Advance(tick Tick) {
	c.hue = wrapUnit(c.hue + tick.Step()*adaptiveCyclesPerSecond)
}

// DrawScreen renders the disc centered in a frame of the given size.
func (c *Circle) DrawScreen(size image.Point) image.Image {
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}

	if c.frame == nil || c.frame.Rect.Size() != size {
		c.frame = image.NewRGBA(image.Rectangle{Max: size})
	}

	levels := c.cava.Levels()
	bass := mean(levels[:max(len(levels)/bassShare, 1)])
	radius := float64(min(size.X, size.Y)) / 2 * (0.3 + 0.7*bass)
	cx, cy := float64(size.X)/2, float64(size.Y)/2

	r, g, b := lights.HSV(c.hue, 1, 1).Bytes()
	fill := color.RGBA{R: r, G: g, B: b, A: 0xff}
	background := color.RGBA{A: 0xff}

	for y := range size.Y {
		dy := float64(y) + 0.5 - cy

		for x := range size.X {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy <= radius*radius {
				c.frame.SetRGBA(x, y, fill)
			} else {
				c.frame.SetRGBA(x, y, background)
			}
		}
	}

	return c.frame
}

// bassShare is the inverse fraction of bars, lowest first, that count as bass.
const bassShare = 4

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
