package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/service/checker"
	"github.com/oshokin/lightshow/internal/service/client"
	"github.com/oshokin/lightshow/internal/service/common"
	"github.com/oshokin/lightshow/internal/version"
)

var (
	// options are shared by every subcommand.
	options client.Options

	// rootCmd represents the base command of the control tool.
	rootCmd = &cobra.Command{
		Use:   "lightctl",
		Short: "Control a running lightshow daemon.",
		Long: `Sends control commands to the lightshow daemon over gRPC and prints the
resulting state.

The daemon address and control token are read from the configuration file
and can be overridden with flags.`,
		SilenceUsage: true,
	}
)

// Execute runs the lightctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run performs a state-returning action with signal-aware cancellation.
func run(action client.Action) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &options, action)
}

// parseOnOff accepts on/off and the usual boolean spellings.
func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}

	return v, nil
}

//nolint:gochecknoinits,funlen // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&options.ServerAddress, "server", "a", "", "daemon address, overrides config")
	flags.StringVar(&options.Token, "token", "", "control token, overrides config")
	flags.BoolVar(&options.JSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "state",
			Short: "Print the engine state.",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.GetState(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "programs",
			Short: "List the programs that can be assigned.",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
				defer stop()

				return client.ListPrograms(ctx, &options)
			},
		},
		&cobra.Command{
			Use:   "program <ring|strip|screen> <name>",
			Short: "Assign a program to a target.",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				target, err := lights.ParseTarget(args[0])
				if err != nil {
					return err
				}

				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.SetProgram(ctx, target, args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "brightness <ring|strip> <0..1>",
			Short: "Set the brightness of the ring or strip.",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				target, err := lights.ParseTarget(args[0])
				if err != nil {
					return err
				}

				value, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("parse brightness: %w", err)
				}

				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.SetBrightness(ctx, target, value)
				})
			},
		},
		&cobra.Command{
			Use:   "monochrome <on|off>",
			Short: "Show the strip color on every ring LED.",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				enabled, err := parseOnOff(args[0])
				if err != nil {
					return err
				}

				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.SetMonochrome(ctx, enabled)
				})
			},
		},
		&cobra.Command{
			Use:   "speed <multiplier>",
			Short: "Set the global animation speed.",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				value, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("parse speed: %w", err)
				}

				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.SetProgramSpeed(ctx, value)
				})
			},
		},
		&cobra.Command{
			Use:   "color <#rrggbb>",
			Short: "Set the color of the Fixed program.",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.SetFixedColor(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "lights <on|off>",
			Short: "Switch the ring and strip off, or back to their previous programs.",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				enabled, err := parseOnOff(args[0])
				if err != nil {
					return err
				}

				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.SetLightsEnabled(ctx, enabled)
				})
			},
		},
		&cobra.Command{
			Use:   "adjust-screen",
			Short: "Re-read the screen geometry.",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.AdjustScreen(ctx)
				})
			},
		},
		alarmCommand(),
		watchCommand(),
	)
}

// watchCommand polls the daemon and prints every state change.
func watchCommand() *cobra.Command {
	var interval time.Duration

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print state changes until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return checker.Run(ctx, &checker.Options{
				Client:       options,
				PollInterval: interval,
			})
		},
	}

	watch.Flags().DurationVarP(&interval, "interval", "i", checker.DefaultPollInterval, "polling interval")

	return watch
}

// alarmCommand groups the alarm override subcommands.
func alarmCommand() *cobra.Command {
	alarm := &cobra.Command{
		Use:   "alarm",
		Short: "Start or stop the alarm override.",
	}

	alarm.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Pulse the ring and strip until the alarm is stopped.",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.AlarmStarted(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Restore the programs that ran before the alarm.",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return run(func(ctx context.Context, c *common.Client) (lights.State, error) {
					return c.AlarmStopped(ctx)
				})
			},
		},
	)

	return alarm
}
