package program

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lightshow/internal/domain/lights"
)

// TestCounter_NeverNegative verifies Use/Release bookkeeping and the zero floor.
func TestCounter_NeverNegative(t *testing.T) {
	t.Parallel()

	p := NewDisabled()
	require.Zero(t, p.Consumers())

	p.Release()
	require.Zero(t, p.Consumers())

	p.Use()
	p.Use()
	require.Equal(t, 2, p.Consumers())

	p.Release()
	p.Release()
	p.Release()
	require.Zero(t, p.Consumers())
}

// TestFixed_SharedColor ensures ring and strip outputs share one clamped color.
func TestFixed_SharedColor(t *testing.T) {
	t.Parallel()

	f := NewFixed(lights.Black)
	f.SetColor(lights.Color{R: 2, G: 0.5})

	want := lights.Color{R: 1, G: 0.5}
	require.Equal(t, want, f.Color())
	require.Equal(t, want, f.StripColor())
	require.Equal(t, lights.Repeat(want, 5), f.RingColors(5))
}

// TestRainbow_AdvanceFollowsSpeed checks that program speed scales the hue rotation.
func TestRainbow_AdvanceFollowsSpeed(t *testing.T) {
	t.Parallel()

	slow, fast := NewRainbow(), NewRainbow()
	slow.Advance(Tick{Delta: time.Second, Speed: 1})
	fast.Advance(Tick{Delta: time.Second, Speed: 2})

	require.InDelta(t, rainbowCyclesPerSecond, slow.hue, 1e-9)
	require.InDelta(t, 2*rainbowCyclesPerSecond, fast.hue, 1e-9)

	colors := slow.RingColors(4)
	require.Len(t, colors, 4)
	require.Equal(t, slow.StripColor(), colors[0])
	require.NotEqual(t, colors[0], colors[2])
	require.Empty(t, slow.RingColors(0))
}

// TestAlarm_PulsesFixedOnlyWhileUsed verifies the ambient pulse drives Fixed only with consumers.
func TestAlarm_PulsesFixedOnlyWhileUsed(t *testing.T) {
	t.Parallel()

	blue := lights.Color{B: 1}
	fixed := NewFixed(blue)
	alarm := NewAlarm(fixed)

	alarm.Advance(Tick{Delta: 250 * time.Millisecond, Speed: 1})
	require.Equal(t, blue, fixed.Color())

	alarm.Use()
	alarm.Advance(Tick{Delta: 500 * time.Millisecond, Speed: 5})

	// Half a period: top of the pulse regardless of speed.
	require.InDelta(t, 1.0, fixed.Color().R, 1e-9)
	require.Zero(t, fixed.Color().B)
	require.Equal(t, fixed.Color(), alarm.StripColor())
	require.Equal(t, lights.Repeat(fixed.Color(), 3), alarm.RingColors(3))

	alarm.Release()
	alarm.Advance(Tick{Delta: 250 * time.Millisecond, Speed: 1})
	require.Equal(t, lights.Black, alarm.StripColor())
}

// TestRegistry_Capabilities checks listing by implemented capability and lookup by name.
func TestRegistry_Capabilities(t *testing.T) {
	t.Parallel()

	r := NewRegistry(context.Background(), nil, 4)

	require.Equal(t, []string{NameFixed, NameAlarm, NameRainbow, NameAdaptive}, r.ColorPrograms())
	require.Equal(t, []string{NameCircle}, r.ScreenPrograms())

	p, ok := r.Get(NameDisabled)
	require.True(t, ok)
	require.Same(t, r.Disabled, p)

	_, ok = r.Get(NameCava)
	require.False(t, ok)

	require.Len(t, r.Ambient(), 2)
}

// TestCircle_DrawScreen renders at the requested size and grows with the bass.
func TestCircle_DrawScreen(t *testing.T) {
	t.Parallel()

	cava := NewCava(context.Background(), nil, 2)
	c := NewCircle(cava)

	require.Nil(t, c.DrawScreen(image.Point{}))

	frame := c.DrawScreen(image.Pt(20, 10))
	require.Equal(t, image.Rect(0, 0, 20, 10), frame.Bounds())

	rgba, ok := frame.(*image.RGBA)
	require.True(t, ok)
	require.NotEqual(t, color.RGBA{A: 0xff}, rgba.RGBAAt(10, 5))
	require.Equal(t, color.RGBA{A: 0xff}, rgba.RGBAAt(0, 0))

	// A loud bass bar widens the disc.
	require.Equal(t, color.RGBA{A: 0xff}, rgba.RGBAAt(10, 1))

	cava.levels[0] = 1
	c.DrawScreen(image.Pt(20, 10))
	require.NotEqual(t, color.RGBA{A: 0xff}, rgba.RGBAAt(10, 1))

	// Same size reuses the buffer.
	require.Same(t, rgba, c.DrawScreen(image.Pt(20, 10)))
	require.NotSame(t, rgba, c.DrawScreen(image.Pt(10, 10)))
}
