// Package ring drives a WS281x LED ring through a SPI port using periph's NRZ encoder.
package ring

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/device"
	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
)

// PixelWriter is the part of nrzled.Dev the ring needs.
type PixelWriter interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

// Ring implements device.Ring. A Ring without a writer reports itself as
// not initialized and ignores every write.
type Ring struct {
	// log is the ring's named logger.
	log *zap.SugaredLogger
	// dev receives the encoded pixel stream; nil when no hardware was found.
	dev PixelWriter
	// port is closed by Close when the ring owns the SPI port.
	port io.Closer
	// ledCount is the number of LEDs on the ring.
	ledCount int
	// buf is the reusable RGB byte buffer.
	buf []byte

	// mu protects brightness and monochrome against readers outside the render loop.
	mu         sync.Mutex
	brightness float64
	monochrome bool
}

// New wraps an already opened pixel writer.
func New(ctx context.Context, dev PixelWriter, ledCount int) *Ring {
	return &Ring{
		log:        logger.FromContext(logger.WithName(ctx, "ring")),
		dev:        dev,
		ledCount:   ledCount,
		buf:        make([]byte, ledCount*3),
		brightness: 1,
	}
}

// Open probes the SPI port from cfg. When no port or encoder is available the
// returned ring is not initialized; the error explains why.
func Open(ctx context.Context, cfg config.RingConfig) (*Ring, error) {
	disconnected := New(ctx, nil, cfg.LEDCount)

	if cfg.Disabled {
		return disconnected, nil
	}

	if _, err := host.Init(); err != nil {
		return disconnected, fmt.Errorf("init periph host: %w", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return disconnected, fmt.Errorf("open spi port %q: %w", cfg.SPIPort, err)
	}

	opts := nrzled.Opts{
		NumPixels: cfg.LEDCount,
		Channels:  3,
		Freq:      physic.Frequency(cfg.FrequencyKHz) * physic.KiloHertz,
	}

	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		_ = port.Close()

		return disconnected, fmt.Errorf("create nrz encoder: %w", err)
	}

	r := New(ctx, dev, cfg.LEDCount)
	r.port = port
	r.Clear()

	return r, nil
}

// Initialized reports whether the ring hardware was found.
func (r *Ring) Initialized() bool { return r.dev != nil }

// LEDCount is the number of LEDs on the ring.
func (r *Ring) LEDCount() int { return r.ledCount }

// Monochrome reports whether all LEDs show one color.
func (r *Ring) Monochrome() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.monochrome
}

// SetMonochrome switches monochrome mode.
func (r *Ring) SetMonochrome(enabled bool) {
	r.mu.Lock()
	r.monochrome = enabled
	r.mu.Unlock()
}

// Brightness returns the output scale in [0, 1].
func (r *Ring) Brightness() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.brightness
}

// SetBrightness sets the output scale; callers validate the range.
func (r *Ring) SetBrightness(value float64) {
	r.mu.Lock()
	r.brightness = value
	r.mu.Unlock()
}

// SetColors writes one color per LED, scaled by brightness. Missing colors
// are written black, extra colors are dropped.
func (r *Ring) SetColors(colors []lights.Color) {
	if r.dev == nil {
		return
	}

	brightness := r.Brightness()

	for i := range r.ledCount {
		c := lights.Black
		if i < len(colors) {
			c = colors[i].Scale(brightness)
		}

		r.buf[i*3], r.buf[i*3+1], r.buf[i*3+2] = c.Bytes()
	}

	if _, err := r.dev.Write(r.buf); err != nil {
		r.log.Warnw("Write ring pixels", "error", err)
	}
}

// Clear turns every LED off.
func (r *Ring) Clear() {
	if r.dev == nil {
		return
	}

	clear(r.buf)

	if _, err := r.dev.Write(r.buf); err != nil {
		r.log.Warnw("Clear ring", "error", err)
	}
}

// Close halts the encoder and releases the SPI port.
func (r *Ring) Close() error {
	if r.dev == nil {
		return nil
	}

	if err := r.dev.Halt(); err != nil {
		r.log.Warnw("Halt ring", "error", err)
	}

	if r.port == nil {
		return nil
	}

	return r.port.Close()
}

var _ device.Ring = (*Ring)(nil)
