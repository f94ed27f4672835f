// Package strip drives a single-color LED strip through a microcontroller on
// a serial port.
//
// Every color is sent as a 4-byte frame: a 0xff sync byte followed by the red,
// green and blue values capped at 0xfe so the sync byte stays unambiguous.
package strip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/device"
	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
)

const (
	syncByte   = 0xff
	maxChannel = 0xfe
)

// errNoSerialPort is returned when no serial port is configured.
var errNoSerialPort = errors.New("no serial port configured")

// Strip implements device.Strip.
type Strip struct {
	// log is the strip's named logger.
	log *zap.SugaredLogger
	// port receives color frames; nil when no controller was found.
	port io.WriteCloser
	// frame is the reusable output frame.
	frame [4]byte
	// last is the last frame sent, used to skip redundant writes.
	last [4]byte
	// sent reports whether last holds a frame.
	sent bool

	// mu protects brightness against readers outside the render loop.
	mu         sync.Mutex
	brightness float64
}

// New wraps an already opened port.
func New(ctx context.Context, port io.WriteCloser) *Strip {
	return &Strip{
		log:        logger.FromContext(logger.WithName(ctx, "strip")),
		port:       port,
		brightness: 1,
	}
}

// Open opens the serial port from cfg. When the port cannot be opened the
// returned strip is not initialized; the error explains why.
func Open(ctx context.Context, cfg config.StripConfig) (*Strip, error) {
	if cfg.SerialPort == "" {
		return New(ctx, nil), errNoSerialPort
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.SerialPort, mode)
	if err != nil {
		return New(ctx, nil), fmt.Errorf("open serial port %q: %w", cfg.SerialPort, err)
	}

	s := New(ctx, port)
	s.Clear()

	return s, nil
}

// Initialized reports whether the strip controller was found.
func (s *Strip) Initialized() bool { return s.port != nil }

// Brightness returns the output scale in [0, 1].
func (s *Strip) Brightness() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.brightness
}

// SetBrightness sets the output scale; callers validate the range.
func (s *Strip) SetBrightness(value float64) {
	s.mu.Lock()
	s.brightness = value
	s.mu.Unlock()
}

// SetColor sends the color scaled by brightness. Identical consecutive
// frames are not resent.
func (s *Strip) SetColor(color lights.Color) {
	if s.port == nil {
		return
	}

	r, g, b := color.Scale(s.Brightness()).Bytes()
	s.write(r, g, b)
}

// Clear turns the strip off.
func (s *Strip) Clear() {
	if s.port == nil {
		return
	}

	s.sent = false
	s.write(0, 0, 0)
}

// Close releases the serial port.
func (s *Strip) Close() error {
	if s.port == nil {
		return nil
	}

	return s.port.Close()
}

func (s *Strip) write(r, g, b byte) {
	s.frame = [4]byte{syncByte, min(r, maxChannel), min(g, maxChannel), min(b, maxChannel)}
	if s.sent && s.frame == s.last {
		return
	}

	if _, err := s.port.Write(s.frame[:]); err != nil {
		s.log.Warnw("Write strip color", "error", err)

		s.sent = false

		return
	}

	s.last = s.frame
	s.sent = true
}

var _ device.Strip = (*Strip)(nil)
