package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/service/server"
	"github.com/oshokin/lightshow/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// httpAddress overrides the websocket state feed address.
	httpAddress string
	// settingsPath overrides the persisted settings location.
	settingsPath string

	// rootCmd represents the base command for running the lighting daemon.
	rootCmd = &cobra.Command{
		Use:   "lightshow [listen-address]",
		Short: "Drive the LED ring, LED strip and screen.",
		Long: `Starts the lighting engine and its gRPC control server.

The engine renders the programs assigned to the LED ring, the LED strip and the
screen at a fixed rate, restoring the assignments saved by the previous run.
Devices that cannot be opened stay disconnected.
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50061).
When http_addr is set, engine state is pushed to websocket clients on /state.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				HTTPAddress:   httpAddress,
				SettingsPath:  settingsPath,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the lightshow CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&httpAddress, "http-addr", "", "websocket state feed address")
	rootCmd.Flags().StringVarP(&settingsPath, "settings", "s", "", "path to persisted settings")
}
