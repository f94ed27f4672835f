package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/lightshow/internal/device"
	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
	"github.com/oshokin/lightshow/internal/program"
)

// Settings persists the engine's string options across restarts.
type Settings interface {
	// Get returns the value stored under key, or fallback when it is absent.
	Get(ctx context.Context, key, fallback string) (string, error)
	// Put stores value under key.
	Put(ctx context.Context, key, value string) error
}

// Options configures a new Engine.
type Options struct {
	// Ring is the LED ring.
	Ring device.Ring
	// Strip is the LED strip.
	Strip device.Strip
	// Screen is the pixel display.
	Screen device.Screen
	// Settings stores program assignments.
	Settings Settings
	// Programs owns every program instance.
	Programs *program.Registry
	// UPS is the target number of frames per second.
	UPS int
}

// assignment is the program state of one target.
type assignment struct {
	// current is the program driving the target.
	current program.Program
	// previous is the program that drove the target before current.
	previous program.Program
}

// alarmSnapshot is what the alarm override restores when it ends.
type alarmSnapshot struct {
	// fixedColor is the Fixed color before the alarm.
	fixedColor lights.Color
	// before holds every target's assignment before the alarm.
	before [lights.TargetCount]assignment
}

// Engine is the lighting engine aggregate.
type Engine struct {
	// ring is the LED ring.
	ring device.Ring
	// strip is the LED strip.
	strip device.Strip
	// screen is the pixel display.
	screen device.Screen
	// settings stores program assignments.
	settings Settings
	// programs owns every program instance.
	programs *program.Registry
	// budget is the time allotted to one frame.
	budget time.Duration

	// mu guards everything below, shared by the render loop and control operations.
	mu sync.Mutex
	// assignments holds the program state per target.
	assignments [lights.TargetCount]assignment
	// speed is the global program speed multiplier.
	speed float64
	// quality tunes the screen resolution.
	quality *QualityController
	// alarm is non-nil while the alarm override is active.
	alarm *alarmSnapshot
	// lastFrame is the start time of the previous frame.
	lastFrame time.Time
	// cancel stops the render loop; nil when it is not running.
	cancel context.CancelFunc
	// done is closed when the render loop exits.
	done chan struct{}

	// gate is open while at least one target is enabled.
	gate *gate
	// now is the clock, replaced in tests.
	now func() time.Time

	// listenersMu guards listeners.
	listenersMu sync.Mutex
	// listeners are notified after every successful state change.
	listeners map[int]func(lights.State)
	// nextListener is the id handed to the next subscriber.
	nextListener int
}

// New restores program assignments from settings and returns an idle engine.
// Missing or unknown program names fall back to Disabled, as does every
// target whose device is not connected.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Programs == nil {
		return nil, errors.New("program registry is required")
	}

	if opts.Settings == nil {
		return nil, errors.New("settings store is required")
	}

	ups := max(opts.UPS, 1)
	budget := time.Second / time.Duration(ups)

	e := &Engine{
		ring:      opts.Ring,
		strip:     opts.Strip,
		screen:    opts.Screen,
		settings:  opts.Settings,
		programs:  opts.Programs,
		budget:    budget,
		speed:     1,
		quality:   NewQualityController(ups, budget),
		gate:      newGate(),
		now:       time.Now,
		listeners: make(map[int]func(lights.State)),
	}

	for _, target := range lights.Targets() {
		current, err := e.restore(ctx, target, target.ProgramKey())
		if err != nil {
			return nil, err
		}

		previous, err := e.restore(ctx, target, target.LastProgramKey())
		if err != nil {
			return nil, err
		}

		current.Use()
		e.assignments[target] = assignment{current: current, previous: previous}
	}

	e.updateGate()

	logger.InfoKV(ctx, "Engine restored",
		"ring", e.assignments[lights.TargetRing].current.Name(),
		"strip", e.assignments[lights.TargetStrip].current.Name(),
		"screen", e.assignments[lights.TargetScreen].current.Name(),
		"lights_enabled", e.gate.IsSet())

	return e, nil
}

// restore reads one program name from settings and resolves it.
func (e *Engine) restore(ctx context.Context, target lights.Target, key string) (program.Program, error) {
	if !e.connected(target) {
		return e.programs.Disabled, nil
	}

	name, err := e.settings.Get(ctx, key, program.NameDisabled)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	p, ok := e.programs.Get(name)
	if !ok {
		logger.WarnKV(ctx, "Unknown stored program, using Disabled", "key", key, "program", name)

		return e.programs.Disabled, nil
	}

	if !supports(target, p) {
		logger.WarnKV(ctx, "Stored program cannot drive target, using Disabled", "key", key, "program", name)

		return e.programs.Disabled, nil
	}

	return p, nil
}

// connected reports whether the target's device is present and initialized.
func (e *Engine) connected(target lights.Target) bool {
	switch target {
	case lights.TargetRing:
		return e.ring != nil && e.ring.Initialized()
	case lights.TargetStrip:
		return e.strip != nil && e.strip.Initialized()
	case lights.TargetScreen:
		return e.screen != nil && e.screen.Initialized()
	default:
		return false
	}
}

// supports reports whether p has the capability the target needs.
// Disabled drives every target.
func supports(target lights.Target, p program.Program) bool {
	if p.Name() == program.NameDisabled {
		return true
	}

	switch target {
	case lights.TargetRing:
		_, ok := p.(program.RingColorSource)

		return ok
	case lights.TargetStrip:
		_, ok := p.(program.StripColorSource)

		return ok
	case lights.TargetScreen:
		_, ok := p.(program.ScreenRenderer)

		return ok
	default:
		return false
	}
}
