package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters shared by the lightshow binaries.
type Config struct {
	// ListenAddress is the gRPC control address of the daemon.
	ListenAddress string `yaml:"listen_addr"`
	// HTTPAddress is the address serving the websocket state feed.
	// Empty disables the feed.
	HTTPAddress string `yaml:"http_addr"`
	// SettingsBackend selects the persisted settings store: "sqlite" or "file".
	SettingsBackend string `yaml:"settings_backend"`
	// SettingsPath is the sqlite database or JSON file of the settings store.
	SettingsPath string `yaml:"settings_path"`
	// UPS is the number of render loop iterations per second.
	UPS int `yaml:"ups"`
	// LogLevel is the minimum level of emitted log lines.
	LogLevel string `yaml:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`
	// Timeout is the duration for client RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// ControlToken, when set, must be presented by callers of mutating RPCs.
	ControlToken string `yaml:"control_token"`
	// Ring configures the addressable LED ring.
	Ring RingConfig `yaml:"ring"`
	// Strip configures the serial-attached LED strip.
	Strip StripConfig `yaml:"strip"`
	// Screen configures the pixel screen.
	Screen ScreenConfig `yaml:"screen"`
	// Cava configures the audio analyser used by audio-reactive programs.
	Cava CavaConfig `yaml:"cava"`
}

// RingConfig describes the WS281x ring attached to a SPI port.
type RingConfig struct {
	// SPIPort is the periph SPI port name; empty picks the first one.
	SPIPort string `yaml:"spi_port"`
	// LEDCount is the number of LEDs on the ring.
	LEDCount int `yaml:"led_count"`
	// FrequencyKHz is the SPI clock used to encode the NRZ stream.
	FrequencyKHz int `yaml:"frequency_khz"`
	// Disabled skips probing the ring entirely.
	Disabled bool `yaml:"disabled"`
}

// StripConfig describes the LED strip controller on a serial port.
type StripConfig struct {
	// SerialPort is the device path of the controller, e.g. /dev/ttyUSB0.
	SerialPort string `yaml:"serial_port"`
	// BaudRate of the serial link.
	BaudRate int `yaml:"baud_rate"`
}

// ScreenConfig describes the SSD1306 panel on an I2C bus.
type ScreenConfig struct {
	// I2CBus is the periph I2C bus name; empty picks the first one.
	I2CBus string `yaml:"i2c_bus"`
	// MinWidth is the lowest render width the quality controller may reach.
	MinWidth int `yaml:"min_width"`
	// Disabled skips probing the screen entirely.
	Disabled bool `yaml:"disabled"`
}

// CavaConfig describes the external cava process.
type CavaConfig struct {
	// Binary is the cava executable name or path.
	Binary string `yaml:"binary"`
	// Bars is the number of frequency bars requested from cava.
	Bars int `yaml:"bars"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "lightshow.yaml"

	// DefaultListenAddress is the default gRPC control address.
	DefaultListenAddress = "127.0.0.1:50061"

	// DefaultSettingsPath is the default sqlite settings database.
	DefaultSettingsPath = "lightshow.db"

	// BackendSQLite stores settings in a sqlite database.
	BackendSQLite = "sqlite"

	// BackendFile stores settings in a JSON file.
	BackendFile = "file"

	// DefaultUPS is the default number of render loop iterations per second.
	DefaultUPS = 30

	// MaxUPS bounds the render rate.
	MaxUPS = 240

	// DefaultTimeout is the default duration for client RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultRingLEDCount matches the common 16 LED ring.
	DefaultRingLEDCount = 16

	// DefaultRingFrequencyKHz is the SPI clock used for WS2812 timing.
	DefaultRingFrequencyKHz = 2500

	// DefaultStripBaudRate is the default serial speed of the strip controller.
	DefaultStripBaudRate = 115200

	// DefaultScreenMinWidth is the lowest default render width.
	DefaultScreenMinWidth = 16

	// DefaultCavaBinary is the default cava executable.
	DefaultCavaBinary = "cava"

	// DefaultCavaBars is the default number of cava bars.
	DefaultCavaBars = 16

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownBackend is returned for an unsupported settings backend.
	errUnknownBackend = errors.New("unknown settings backend")
	// errInvalidUPS is returned when the render rate is out of range.
	errInvalidUPS = errors.New("ups is out of range")
	// errInvalidLEDCount is returned for a negative LED count.
	errInvalidLEDCount = errors.New("ring led count must be positive")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills in defaults and checks the configuration for malformed values.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.HTTPAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	switch cfg.SettingsBackend {
	case "":
		cfg.SettingsBackend = BackendSQLite
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, cfg.SettingsBackend)
	}

	if cfg.SettingsPath == "" {
		cfg.SettingsPath = DefaultSettingsPath
	}

	if cfg.UPS == 0 {
		cfg.UPS = DefaultUPS
	}

	if cfg.UPS < 1 || cfg.UPS > MaxUPS {
		return fmt.Errorf("%w: %d", errInvalidUPS, cfg.UPS)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Ring.LEDCount == 0 {
		cfg.Ring.LEDCount = DefaultRingLEDCount
	}

	if cfg.Ring.LEDCount < 0 {
		return errInvalidLEDCount
	}

	if cfg.Ring.FrequencyKHz <= 0 {
		cfg.Ring.FrequencyKHz = DefaultRingFrequencyKHz
	}

	if cfg.Strip.BaudRate <= 0 {
		cfg.Strip.BaudRate = DefaultStripBaudRate
	}

	if cfg.Screen.MinWidth <= 0 {
		cfg.Screen.MinWidth = DefaultScreenMinWidth
	}

	if cfg.Cava.Binary == "" {
		cfg.Cava.Binary = DefaultCavaBinary
	}

	if cfg.Cava.Bars <= 0 {
		cfg.Cava.Bars = DefaultCavaBars
	}

	return nil
}

// FrameBudget returns the time allotted to one render loop iteration.
func (c *Config) FrameBudget() time.Duration {
	ups := c.UPS
	if ups <= 0 {
		ups = DefaultUPS
	}

	return time.Second / time.Duration(ups)
}
