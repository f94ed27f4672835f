package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	api "github.com/oshokin/lightshow/internal/api/grpc/lights"
	"github.com/oshokin/lightshow/internal/config"
	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
	"github.com/oshokin/lightshow/internal/service/common"
)

// Options configures how lightctl reaches the daemon and prints results.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the daemon address from config when specified.
	ServerAddress string
	// Token overrides the control token from config when specified.
	Token string
	// JSON prints results as JSON instead of text.
	JSON bool
	// Output receives printed results; stdout when nil.
	Output io.Writer
}

// Action is one remote operation answering with the engine state.
type Action func(ctx context.Context, client *common.Client) (lights.State, error)

// Run connects to the daemon, performs action and prints the resulting state.
func Run(ctx context.Context, opts *Options, action Action) error {
	ctx = logger.WithName(ctx, "lightctl")

	client, err := Connect(ctx, opts)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	state, err := action(ctx, client)
	if err != nil {
		return err
	}

	return printResult(opts, state, printState)
}

// ListPrograms prints the assignable program names.
func ListPrograms(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "lightctl")

	client, err := Connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	programs, err := client.ListPrograms(ctx)
	if err != nil {
		return err
	}

	return printResult(opts, programs, printPrograms)
}

// printResult writes value as indented JSON or with the text printer.
func printResult[T any](opts *Options, value T, text func(io.Writer, T) error) error {
	w := opts.Output
	if w == nil {
		w = os.Stdout
	}

	if !opts.JSON {
		return text(w, value)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}

// printState renders a snapshot as aligned lines.
func printState(w io.Writer, s lights.State) error {
	lines := []string{
		fmt.Sprintf("lights:        %s", onOff(s.LightsEnabled)),
		fmt.Sprintf("alarm:         %s", onOff(s.Alarm)),
		fmt.Sprintf("ring:          %s", deviceLine(s.Ring.Connected, s.Ring.Program,
			fmt.Sprintf("brightness %.2f, monochrome %s", s.Ring.Brightness, onOff(s.Ring.Monochrome)))),
		fmt.Sprintf("strip:         %s", deviceLine(s.Strip.Connected, s.Strip.Program,
			fmt.Sprintf("brightness %.2f", s.Strip.Brightness))),
		fmt.Sprintf("screen:        %s", deviceLine(s.Screen.Connected, s.Screen.Program,
			fmt.Sprintf("%dx%d", s.Screen.Width, s.Screen.Height))),
		fmt.Sprintf("program speed: %g", s.ProgramSpeed),
		fmt.Sprintf("fixed color:   %s", s.FixedColor),
	}

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))

	return err
}

// printPrograms renders the program lists.
func printPrograms(w io.Writer, p api.Programs) error {
	_, err := fmt.Fprintf(w, "color:  %s\nscreen: %s\n",
		strings.Join(p.Color, ", "),
		strings.Join(p.Screen, ", "))

	return err
}

func deviceLine(connected bool, program, details string) string {
	if !connected {
		return "not connected"
	}

	return program + " (" + details + ")"
}

func onOff(v bool) string {
	if v {
		return "on"
	}

	return "off"
}

// Connect loads configuration and dials the daemon.
func Connect(ctx context.Context, opts *Options) (*common.Client, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ListenAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	token := cfg.ControlToken
	if opts.Token != "" {
		token = opts.Token
	}

	clientOptions := []common.Option{
		common.WithCallTimeout(cfg.Timeout),
		common.WithToken(token),
	}

	// Identify current user and hostname for audit logging.
	if actor, err := common.DetectActor(); err == nil {
		clientOptions = append(clientOptions, common.WithActor(actor))
	} else {
		logger.DebugKV(ctx, "Actor detection failed", "error", err)
	}

	logger.DebugKV(ctx, "Connecting", "server_address", serverAddress)

	return common.Dial(ctx, serverAddress, clientOptions...)
}
