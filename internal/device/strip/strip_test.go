package strip

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/domain/lights"
)

// bufferPort is an in-memory serial port.
type bufferPort struct {
	bytes.Buffer

	// closed reports whether Close was called.
	closed bool
}

func (p *bufferPort) Close() error {
	p.closed = true

	return nil
}

// TestStrip_Frames verifies the sync byte, channel capping, brightness and duplicate suppression.
func TestStrip_Frames(t *testing.T) {
	t.Parallel()

	port := new(bufferPort)
	s := New(context.Background(), port)
	require.True(t, s.Initialized())

	s.SetColor(lights.Color{R: 1, G: 0.5})
	require.Equal(t, []byte{0xff, 0xfe, 0x80, 0x00}, port.Bytes())

	// Same color is not resent.
	s.SetColor(lights.Color{R: 1, G: 0.5})
	require.Equal(t, 4, port.Len())

	port.Reset()
	s.SetBrightness(0)
	s.SetColor(lights.Color{R: 1, G: 1, B: 1})
	require.Equal(t, []byte{0xff, 0, 0, 0}, port.Bytes())

	// Clear always writes.
	port.Reset()
	s.Clear()
	require.Equal(t, []byte{0xff, 0, 0, 0}, port.Bytes())

	require.NoError(t, s.Close())
	require.True(t, port.closed)
}

// TestOpen_NoPort ensures a missing port yields a disconnected strip.
func TestOpen_NoPort(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), config.StripConfig{})
	require.ErrorIs(t, err, errNoSerialPort)
	require.False(t, s.Initialized())
	require.NotPanics(t, func() { s.SetColor(lights.Color{R: 1}) })
	require.NoError(t, s.Close())
}
