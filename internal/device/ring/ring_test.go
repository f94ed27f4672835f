package ring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lightshow/internal/domain/lights"
)

var errTestWrite = errors.New("test write error")

// recordingWriter captures every pixel stream written to it.
type recordingWriter struct {
	// writes holds a copy of each written buffer.
	writes [][]byte
	// err is returned from Write when set.
	err error
	// halted counts Halt calls.
	halted int
}

func (w *recordingWriter) Write(pixels []byte) (int, error) {
	w.writes = append(w.writes, append([]byte(nil), pixels...))

	return len(pixels), w.err
}

func (w *recordingWriter) Halt() error {
	w.halted++

	return nil
}

// TestRing_SetColorsAppliesBrightness verifies scaling and padding of the pixel stream.
func TestRing_SetColorsAppliesBrightness(t *testing.T) {
	t.Parallel()

	w := new(recordingWriter)
	r := New(context.Background(), w, 3)
	require.True(t, r.Initialized())
	require.Equal(t, 3, r.LEDCount())

	r.SetBrightness(0.5)
	r.SetColors([]lights.Color{{R: 1}, {G: 1}})

	require.Len(t, w.writes, 1)
	require.Equal(t, []byte{128, 0, 0, 0, 128, 0, 0, 0, 0}, w.writes[0])

	r.Clear()
	require.Equal(t, make([]byte, 9), w.writes[1])

	require.NoError(t, r.Close())
	require.Equal(t, 1, w.halted)
}

// TestRing_WriteErrorIsAbsorbed ensures a failing transport never panics or propagates.
func TestRing_WriteErrorIsAbsorbed(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{err: errTestWrite}
	r := New(context.Background(), w, 2)

	require.NotPanics(t, func() { r.SetColors(lights.Repeat(lights.Color{B: 1}, 2)) })
	require.Len(t, w.writes, 1)
}

// TestRing_Disconnected ensures a ring without hardware ignores writes but keeps settings.
func TestRing_Disconnected(t *testing.T) {
	t.Parallel()

	r := New(context.Background(), nil, 16)
	require.False(t, r.Initialized())

	r.SetMonochrome(true)
	require.True(t, r.Monochrome())
	require.InDelta(t, 1.0, r.Brightness(), 1e-9)

	require.NotPanics(t, func() {
		r.SetColors(lights.Repeat(lights.Color{R: 1}, 16))
		r.Clear()
	})
	require.NoError(t, r.Close())
}
