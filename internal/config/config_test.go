package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Empty config gets defaults.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, BackendSQLite, cfg.SettingsBackend)
	require.Equal(t, DefaultSettingsPath, cfg.SettingsPath)
	require.Equal(t, DefaultUPS, cfg.UPS)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultRingLEDCount, cfg.Ring.LEDCount)
	require.Equal(t, DefaultStripBaudRate, cfg.Strip.BaudRate)
	require.Equal(t, DefaultCavaBars, cfg.Cava.Bars)

	// Bad listen address.
	cfg = &Config{ListenAddress: "no-port"}
	require.Error(t, Validate(cfg))

	// Bad http address.
	cfg = &Config{HTTPAddress: "nope"}
	require.Error(t, Validate(cfg))

	// Unknown backend.
	cfg = &Config{SettingsBackend: "redis"}
	require.ErrorIs(t, Validate(cfg), errUnknownBackend)

	// Render rate out of range.
	cfg = &Config{UPS: MaxUPS + 1}
	require.ErrorIs(t, Validate(cfg), errInvalidUPS)

	cfg = &Config{Ring: RingConfig{LEDCount: -1}}
	require.ErrorIs(t, Validate(cfg), errInvalidLEDCount)
}

// TestFrameBudget ensures the budget follows the render rate.
func TestFrameBudget(t *testing.T) {
	t.Parallel()

	require.Equal(t, time.Second/30, (&Config{UPS: 30}).FrameBudget())
	require.Equal(t, time.Second/DefaultUPS, new(Config).FrameBudget())
	require.Equal(t, 10*time.Millisecond, (&Config{UPS: 100}).FrameBudget())
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lightshow.yaml")

	cfg := &Config{
		ListenAddress:   "127.0.0.1:50061",
		HTTPAddress:     ":8080",
		SettingsBackend: BackendFile,
		SettingsPath:    filepath.Join(dir, "settings.json"),
		UPS:             60,
		Ring:            RingConfig{LEDCount: 24, SPIPort: "/dev/spidev0.0"},
		Strip:           StripConfig{SerialPort: "/dev/ttyUSB0"},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
