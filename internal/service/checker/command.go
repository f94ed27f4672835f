package checker

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
	"github.com/oshokin/lightshow/internal/service/client"
	"github.com/oshokin/lightshow/internal/service/common"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// Client selects the daemon and credentials.
	Client client.Options
	// PollInterval defines the interval between state checks.
	PollInterval time.Duration
}

// DefaultPollInterval defines the default polling interval for state checks.
const DefaultPollInterval = 2 * time.Second

// Run polls the daemon and prints every change until ctx is canceled.
// Failed polls are logged and retried on the next tick.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "lightctl-watch")

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	c, err := client.Connect(ctx, &opts.Client)
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = c.Close()
	}()

	out := opts.Client.Output
	if out == nil {
		out = os.Stdout
	}

	logger.InfoKV(ctx, "Watching lightshow state", "interval", opts.PollInterval.String())

	// Setup polling ticker with fixed interval.
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	var last *lights.State

	for {
		if last, err = check(ctx, c, last, out); err != nil {
			logger.ErrorKV(ctx, "Check state failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
		}
	}
}

// check fetches the state and prints what changed since last. It returns the
// state to compare against next time.
func check(ctx context.Context, c *common.Client, last *lights.State, out io.Writer) (*lights.State, error) {
	state, err := c.GetState(ctx)
	if err != nil {
		return last, err
	}

	var changes []string
	if last == nil {
		changes = []string{describe(state)}
	} else {
		changes = Changes(*last, state)
	}

	stamp := time.Now().Format(time.TimeOnly)
	for _, change := range changes {
		if _, err = fmt.Fprintf(out, "%s %s\n", stamp, change); err != nil {
			return &state, fmt.Errorf("print change: %w", err)
		}
	}

	return &state, nil
}

// Changes lists the differences between two snapshots, one line each.
func Changes(prev, next lights.State) []string {
	var changes []string

	add := func(changed bool, format string, args ...any) {
		if changed {
			changes = append(changes, fmt.Sprintf(format, args...))
		}
	}

	add(prev.LightsEnabled != next.LightsEnabled, "lights %s", onOff(next.LightsEnabled))
	add(prev.Alarm != next.Alarm, "alarm %s", onOff(next.Alarm))
	add(prev.Ring.Connected != next.Ring.Connected, "ring connected %s", onOff(next.Ring.Connected))
	add(prev.Ring.Program != next.Ring.Program, "ring program %s -> %s", prev.Ring.Program, next.Ring.Program)
	add(prev.Ring.Brightness != next.Ring.Brightness, "ring brightness %.2f", next.Ring.Brightness)
	add(prev.Ring.Monochrome != next.Ring.Monochrome, "ring monochrome %s", onOff(next.Ring.Monochrome))
	add(prev.Strip.Connected != next.Strip.Connected, "strip connected %s", onOff(next.Strip.Connected))
	add(prev.Strip.Program != next.Strip.Program, "strip program %s -> %s", prev.Strip.Program, next.Strip.Program)
	add(prev.Strip.Brightness != next.Strip.Brightness, "strip brightness %.2f", next.Strip.Brightness)
	add(prev.Screen.Connected != next.Screen.Connected, "screen connected %s", onOff(next.Screen.Connected))
	add(prev.Screen.Program != next.Screen.Program, "screen program %s -> %s", prev.Screen.Program, next.Screen.Program)
	add(prev.Screen.Width != next.Screen.Width || prev.Screen.Height != next.Screen.Height,
		"screen resolution %dx%d", next.Screen.Width, next.Screen.Height)
	add(prev.ProgramSpeed != next.ProgramSpeed, "program speed %g", next.ProgramSpeed)
	add(prev.FixedColor != next.FixedColor, "fixed color %s", next.FixedColor)

	return changes
}

// describe summarizes a snapshot on one line.
func describe(s lights.State) string {
	return fmt.Sprintf("lights %s, alarm %s, ring %s, strip %s, screen %s",
		onOff(s.LightsEnabled), onOff(s.Alarm), s.Ring.Program, s.Strip.Program, s.Screen.Program)
}

func onOff(v bool) string {
	if v {
		return "on"
	}

	return "off"
}
