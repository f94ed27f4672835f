package server

import (
	"context"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/device/ring"
	"github.com/oshokin/lightshow/internal/device/screen"
	"github.com/oshokin/lightshow/internal/device/strip"
	"github.com/oshokin/lightshow/internal/logger"
)

// devices holds the opened hardware.
type devices struct {
	ring   *ring.Ring
	strip  *strip.Strip
	screen *screen.Screen
}

// openDevices probes every configured device. A device that cannot be opened
// is kept disconnected, and the engine leaves it on Disabled.
func openDevices(ctx context.Context, cfg *config.Config) *devices {
	var (
		d   devices
		err error
	)

	d.ring, err = ring.Open(ctx, cfg.Ring)
	if err != nil {
		logger.WarnKV(ctx, "LED ring unavailable", "error", err)
	}

	d.strip, err = strip.Open(ctx, cfg.Strip)
	if err != nil {
		logger.WarnKV(ctx, "LED strip unavailable", "error", err)
	}

	d.screen, err = screen.Open(ctx, cfg.Screen)
	if err != nil {
		logger.WarnKV(ctx, "Screen unavailable", "error", err)
	}

	logger.InfoKV(ctx, "Devices probed",
		"ring", d.ring.Initialized(),
		"strip", d.strip.Initialized(),
		"screen", d.screen.Initialized())

	return &d
}

// Close blanks and releases every device.
func (d *devices) Close(ctx context.Context) {
	closers := map[string]interface {
		Clear()
		Close() error
	}{
		"ring":   d.ring,
		"strip":  d.strip,
		"screen": d.screen,
	}

	for name, c := range closers {
		c.Clear()

		if err := c.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close device", "device", name, "error", err)
		}
	}
}
