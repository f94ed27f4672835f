package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/lightshow/internal/api/grpc/lights"
	"github.com/oshokin/lightshow/internal/api/ws"
	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/engine"
	"github.com/oshokin/lightshow/internal/logger"
	"github.com/oshokin/lightshow/internal/program"
	"github.com/oshokin/lightshow/internal/repository/settings"
)

// Options controls the lightshow daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// HTTPAddress provides an optional override for the websocket state feed address.
	HTTPAddress string
	// SettingsPath provides an optional override for the persisted settings location.
	SettingsPath string
}

// shutdownTimeout bounds the HTTP server shutdown.
const shutdownTimeout = 5 * time.Second

// Run starts the engine and its control surfaces and blocks until context is
// canceled or a server stops.
//
//nolint:funlen // Wiring reads best top to bottom.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "lightshow")

	// Load configuration first to get server settings.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyOverrides(cfg, opts)

	if err = configureLogger(cfg); err != nil {
		return err
	}

	// Open the settings store holding program assignments.
	store, err := settings.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Failed to close settings store", "error", closeErr)
		}
	}()

	// Probe the hardware; missing devices stay disconnected.
	devices := openDevices(ctx, cfg)
	defer devices.Close(ctx)

	programs := program.NewRegistry(ctx, program.NewProcessAnalyzer(cfg.Cava, cfg.UPS), cfg.Cava.Bars)

	eng, err := engine.New(ctx, engine.Options{
		Ring:     devices.ring,
		Strip:    devices.strip,
		Screen:   devices.screen,
		Settings: store,
		Programs: programs,
		UPS:      cfg.UPS,
	})
	if err != nil {
		return fmt.Errorf("initialise engine: %w", err)
	}

	if err = eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	defer eng.Stop()

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}

	// Create and configure gRPC server with the lights service.
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		api.LoggingInterceptor(ctx),
		api.GuardInterceptor(cfg.ControlToken, eng),
	))
	api.Register(grpcServer, api.NewServer(eng))

	httpServer, err := startStateFeed(ctx, cfg, eng)
	if err != nil {
		grpcServer.Stop()

		return err
	}

	logger.InfoKV(ctx, "Lightshow listening",
		"listen_address", cfg.ListenAddress,
		"http_address", cfg.HTTPAddress,
		"settings_backend", cfg.SettingsBackend,
		"settings_path", cfg.SettingsPath,
		"frame_budget", cfg.FrameBudget())

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down servers")
		stopStateFeed(ctx, httpServer)
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// applyOverrides replaces configuration values with non-empty command line options.
func applyOverrides(cfg *config.Config, opts *Options) {
	if opts.ListenAddress != "" {
		cfg.ListenAddress = opts.ListenAddress
	}

	if opts.HTTPAddress != "" {
		cfg.HTTPAddress = opts.HTTPAddress
	}

	if opts.SettingsPath != "" {
		cfg.SettingsPath = opts.SettingsPath
	}
}

// configureLogger applies the configured level and format to the global logger.
func configureLogger(cfg *config.Config) error {
	if cfg.LogFormat != "" {
		format, ok := logger.ParseFormat(cfg.LogFormat)
		if !ok {
			return fmt.Errorf("unknown log format %q", cfg.LogFormat)
		}

		logger.SetLogger(logger.New(format))
	}

	if cfg.LogLevel != "" {
		level, ok := logger.ParseLogLevel(cfg.LogLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q", cfg.LogLevel)
		}

		logger.SetLevel(level)
	}

	return nil
}

// startStateFeed serves the websocket state feed when an HTTP address is configured.
// The returned server is nil otherwise.
func startStateFeed(ctx context.Context, cfg *config.Config, eng *engine.Engine) (*stateFeed, error) {
	if cfg.HTTPAddress == "" {
		return nil, nil //nolint:nilnil // No feed configured.
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddress, err)
	}

	hub := ws.NewHub(ctx, eng)

	mux := http.NewServeMux()
	mux.Handle("/state", hub)

	feed := &stateFeed{
		hub:         hub,
		unsubscribe: eng.Subscribe(hub.Publish),
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: cfg.Timeout,
		},
	}

	go func() {
		if err := feed.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "State feed stopped", "error", err)
		}
	}()

	return feed, nil
}

// stateFeed is the running websocket state feed.
type stateFeed struct {
	// hub fans snapshots out to clients.
	hub *ws.Hub
	// unsubscribe detaches the hub from the engine.
	unsubscribe func()
	// server serves the hub.
	server *http.Server
}

// stopStateFeed detaches and shuts down the feed, if any.
func stopStateFeed(ctx context.Context, feed *stateFeed) {
	if feed == nil {
		return
	}

	feed.unsubscribe()
	feed.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := feed.server.Shutdown(shutdownCtx); err != nil {
		logger.WarnKV(ctx, "State feed shutdown", "error", err)
	}
}
