package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/logger"
)

// TestApplyOverrides asserts only non-empty options replace configuration.
func TestApplyOverrides(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		ListenAddress: "127.0.0.1:1",
		HTTPAddress:   "127.0.0.1:2",
		SettingsPath:  "a.db",
	}

	applyOverrides(cfg, &Options{ListenAddress: ":9090"})

	require.Equal(t, ":9090", cfg.ListenAddress)
	require.Equal(t, "127.0.0.1:2", cfg.HTTPAddress)
	require.Equal(t, "a.db", cfg.SettingsPath)

	applyOverrides(cfg, &Options{HTTPAddress: ":8080", SettingsPath: "b.db"})

	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, "b.db", cfg.SettingsPath)
}

// TestConfigureLogger rejects unknown values. It changes the global logger,
// so it does not run in parallel.
//
//nolint:paralleltest // Mutates the global logger.
func TestConfigureLogger(t *testing.T) {
	defer logger.SetLevel(zapcore.InfoLevel)

	require.Error(t, configureLogger(&config.Config{LogFormat: "xml"}))
	require.Error(t, configureLogger(&config.Config{LogLevel: "loud"}))

	require.NoError(t, configureLogger(&config.Config{LogLevel: "debug"}))
	require.Equal(t, zapcore.DebugLevel, logger.Level())
}

// TestRun_MissingConfig asserts a missing configuration file is reported.
func TestRun_MissingConfig(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{ConfigPath: t.TempDir() + "/missing.yaml"})
	require.Error(t, err)
}
