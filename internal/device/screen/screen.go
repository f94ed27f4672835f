// Package screen drives a small pixel panel (SSD1306 over I2C) and keeps the
// resolution ladder the quality controller walks up and down.
package screen

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/device"
	"github.com/oshokin/lightshow/internal/logger"
)

// Panel is the part of periph's display.Drawer the screen needs.
type Panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// errNoPanel is returned by Adjust on a screen without hardware.
var errNoPanel = errors.New("no screen panel")

// Screen implements device.Screen.
type Screen struct {
	// log is the screen's named logger.
	log *zap.SugaredLogger
	// panel receives frames; nil when no hardware was found.
	panel Panel
	// bus is closed by Close when the screen owns the I2C bus.
	bus io.Closer
	// minWidth bounds the lowest ladder step.
	minWidth int

	// mu protects the ladder, the level and the canvas.
	mu sync.Mutex
	// ladder holds render sizes from lowest to highest.
	ladder []image.Point
	// level indexes ladder.
	level int
	// canvas is the panel-sized scaling target.
	canvas *image.RGBA
}

// New wraps an already opened panel and starts at its full resolution.
func New(ctx context.Context, panel Panel, minWidth int) *Screen {
	s := &Screen{
		log:      logger.FromContext(logger.WithName(ctx, "screen")),
		panel:    panel,
		minWidth: minWidth,
	}

	if panel != nil {
		s.rebuild()
	}

	return s
}

// Open probes the I2C bus from cfg. When no panel is found the returned
// screen is not initialized; the error explains why.
func Open(ctx context.Context, cfg config.ScreenConfig) (*Screen, error) {
	disconnected := New(ctx, nil, cfg.MinWidth)

	if cfg.Disabled {
		return disconnected, nil
	}

	if _, err := host.Init(); err != nil {
		return disconnected, fmt.Errorf("init periph host: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return disconnected, fmt.Errorf("open i2c bus %q: %w", cfg.I2CBus, err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		_ = bus.Close()

		return disconnected, fmt.Errorf("create ssd1306: %w", err)
	}

	s := New(ctx, dev, cfg.MinWidth)
	s.bus = bus

	return s, nil
}

// Initialized reports whether the panel was found.
func (s *Screen) Initialized() bool { return s.panel != nil }

// Resolution is the size frames should be drawn at.
func (s *Screen) Resolution() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ladder) == 0 {
		return image.Point{}
	}

	return s.ladder[s.level]
}

// IncreaseResolution steps one level up.
func (s *Screen) IncreaseResolution() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.level+1 >= len(s.ladder) {
		return false
	}

	s.level++
	s.log.Infow("Screen resolution increased", "resolution", s.ladder[s.level])

	return true
}

// DecreaseResolution steps one level down.
func (s *Screen) DecreaseResolution() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.level == 0 || len(s.ladder) == 0 {
		return false
	}

	s.level--
	s.log.Infow("Screen resolution decreased", "resolution", s.ladder[s.level])

	return true
}

// Adjust re-reads the panel bounds and resets to full resolution.
func (s *Screen) Adjust() error {
	if s.panel == nil {
		return errNoPanel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rebuild()
	s.log.Infow("Screen adjusted", "bounds", s.panel.Bounds(), "levels", len(s.ladder))

	return nil
}

// Draw shows a frame, scaling it to the panel size when it was rendered smaller.
func (s *Screen) Draw(frame image.Image) {
	if s.panel == nil || frame == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bounds := s.panel.Bounds()

	var src image.Image = frame
	if frame.Bounds().Size() != bounds.Size() {
		xdraw.NearestNeighbor.Scale(s.canvas, s.canvas.Bounds(), frame, frame.Bounds(), xdraw.Src, nil)
		src = s.canvas
	}

	if err := s.panel.Draw(bounds, src, src.Bounds().Min); err != nil {
		s.log.Warnw("Draw screen frame", "error", err)
	}
}

// Clear blanks the panel.
func (s *Screen) Clear() {
	if s.panel == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.canvas.Pix)

	if err := s.panel.Draw(s.panel.Bounds(), s.canvas, s.canvas.Bounds().Min); err != nil {
		s.log.Warnw("Clear screen", "error", err)
	}
}

// Close halts the panel and releases the I2C bus.
func (s *Screen) Close() error {
	if s.panel == nil {
		return nil
	}

	if err := s.panel.Halt(); err != nil {
		s.log.Warnw("Halt screen", "error", err)
	}

	if s.bus == nil {
		return nil
	}

	return s.bus.Close()
}

// rebuild recomputes the ladder and canvas; callers hold mu or own s exclusively.
func (s *Screen) rebuild() {
	size := s.panel.Bounds().Size()
	s.ladder = device.Resolutions(size, s.minWidth)
	s.level = max(len(s.ladder)-1, 0)
	s.canvas = image.NewRGBA(image.Rectangle{Max: size})
}

var _ device.Screen = (*Screen)(nil)
