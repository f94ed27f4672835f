package engine

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/program"
)

// TestStep_Outputs asserts one frame reaches every enabled device.
func TestStep_Outputs(t *testing.T) {
	t.Parallel()

	r := newRig(t, map[string]string{
		"ring_program":   program.NameRainbow,
		"strip_program":  program.NameFixed,
		"screen_program": program.NameCircle,
	})

	require.NoError(t, r.engine.SetFixedColor(t.Context(), "#0000ff"))

	r.engine.step()

	require.Len(t, r.ring.LastFrame(), r.ring.LEDCount())
	require.Equal(t, 1, r.screen.DrawCount())

	color, ok := r.strip.LastColor()
	require.True(t, ok)
	require.Equal(t, "#0000ff", color.Hex())
}

// TestStep_MonochromeRing asserts every LED shows the program's strip color.
func TestStep_MonochromeRing(t *testing.T) {
	t.Parallel()

	r := newRig(t, map[string]string{
		"ring_program":  program.NameRainbow,
		"strip_program": program.NameRainbow,
	})

	require.NoError(t, r.engine.SetMonochrome(t.Context(), true))

	for range 5 {
		r.engine.step()
	}

	stripColor, ok := r.strip.LastColor()
	require.True(t, ok)
	require.Equal(t, lights.Repeat(stripColor, r.ring.LEDCount()), r.ring.LastFrame())
	require.Zero(t, r.screen.DrawCount())
}

// TestStep_DisabledTargetsStayDark asserts Disabled targets receive no frames.
func TestStep_DisabledTargetsStayDark(t *testing.T) {
	t.Parallel()

	r := newRig(t, map[string]string{"strip_program": program.NameFixed})

	r.engine.step()

	require.Nil(t, r.ring.LastFrame())
	require.Zero(t, r.screen.DrawCount())

	_, ok := r.strip.LastColor()
	require.True(t, ok)
}

// TestLoop_ParksWhileDisabled runs the loop on a fake clock: it draws nothing
// while every target is disabled and keeps the frame rate once enabled.
func TestLoop_ParksWhileDisabled(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		r := newRig(t, nil)

		require.NoError(t, r.engine.Start(t.Context()))
		require.ErrorIs(t, r.engine.Start(t.Context()), errAlreadyRunning)

		time.Sleep(time.Second)
		synctest.Wait()

		require.Zero(t, r.ring.FrameCount())

		require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetRing, program.NameRainbow))

		time.Sleep(time.Second)
		synctest.Wait()

		require.InDelta(t, testUPS, r.ring.FrameCount(), 2)

		require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetRing, program.NameDisabled))
		synctest.Wait()

		frames := r.ring.FrameCount()

		time.Sleep(time.Second)
		synctest.Wait()

		require.Equal(t, frames, r.ring.FrameCount())

		r.engine.Stop()
		r.engine.Stop()
	})
}
