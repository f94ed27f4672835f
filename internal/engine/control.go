package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
	"github.com/oshokin/lightshow/internal/program"
)

// SetProgram assigns the named program to the target and persists the choice.
func (e *Engine) SetProgram(ctx context.Context, target lights.Target, name string) error {
	p, ok := e.programs.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}

	if !supports(target, p) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedProgram, name, target)
	}

	if err := e.update(func() error {
		if !e.connected(target) {
			return fmt.Errorf("%s: %w", target, ErrDeviceNotConnected)
		}

		e.assign(ctx, target, p, false)

		return nil
	}); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Program changed", "target", target.String(), "program", name)

	return nil
}

// SetBrightness sets the ring or strip brightness.
func (e *Engine) SetBrightness(ctx context.Context, target lights.Target, value float64) error {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidBrightness, value)
	}

	if target != lights.TargetRing && target != lights.TargetStrip {
		return fmt.Errorf("%w: brightness on %s", ErrUnsupportedTarget, target)
	}

	if err := e.update(func() error {
		if !e.connected(target) {
			return fmt.Errorf("%s: %w", target, ErrDeviceNotConnected)
		}

		if target == lights.TargetRing {
			e.ring.SetBrightness(value)
		} else {
			e.strip.SetBrightness(value)
		}

		return nil
	}); err != nil {
		return err
	}

	logger.DebugKV(ctx, "Brightness changed", "target", target.String(), "brightness", value)

	return nil
}

// SetMonochrome makes every ring LED show the program's strip color.
func (e *Engine) SetMonochrome(ctx context.Context, enabled bool) error {
	if err := e.update(func() error {
		if !e.connected(lights.TargetRing) {
			return fmt.Errorf("%s: %w", lights.TargetRing, ErrDeviceNotConnected)
		}

		e.ring.SetMonochrome(enabled)

		return nil
	}); err != nil {
		return err
	}

	logger.DebugKV(ctx, "Monochrome changed", "enabled", enabled)

	return nil
}

// SetProgramSpeed sets the global animation speed multiplier.
func (e *Engine) SetProgramSpeed(ctx context.Context, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, value)
	}

	_ = e.update(func() error {
		e.speed = value

		return nil
	})

	logger.DebugKV(ctx, "Program speed changed", "speed", value)

	return nil
}

// SetFixedColor sets the Fixed program's color from "#rrggbb".
func (e *Engine) SetFixedColor(ctx context.Context, hex string) error {
	color, err := lights.ParseHexColor(hex)
	if err != nil {
		return err
	}

	_ = e.update(func() error {
		e.programs.Fixed.SetColor(color)

		return nil
	})

	logger.DebugKV(ctx, "Fixed color changed", "color", color.Hex())

	return nil
}

// SetLightsEnabled turns the ring and strip off, or back on with the programs
// they ran before. The toggle is not persisted.
func (e *Engine) SetLightsEnabled(ctx context.Context, enabled bool) error {
	if err := e.update(func() error {
		if enabled == e.lightsOn() {
			return nil
		}

		for _, target := range []lights.Target{lights.TargetRing, lights.TargetStrip} {
			var next program.Program = e.programs.Disabled
			if enabled {
				next = e.assignments[target].previous
			}

			e.assign(ctx, target, next, true)
		}

		return nil
	}); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Lights toggled", "enabled", enabled)

	return nil
}

// AdjustScreen re-reads the panel geometry. It is refused while a screen
// program runs, since the resolution ladder is rebuilt.
func (e *Engine) AdjustScreen(ctx context.Context) error {
	if err := e.update(func() error {
		if !e.connected(lights.TargetScreen) {
			return fmt.Errorf("%s: %w", lights.TargetScreen, ErrDeviceNotConnected)
		}

		if !e.disabled(e.current(lights.TargetScreen)) {
			return ErrScreenProgramActive
		}

		if err := e.screen.Adjust(); err != nil {
			return fmt.Errorf("adjust screen: %w", err)
		}

		e.quality.Reset()

		return nil
	}); err != nil {
		return err
	}

	logger.Info(ctx, "Screen adjusted")

	return nil
}

// State returns a snapshot of the engine.
func (e *Engine) State() lights.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state()
}

// ColorPrograms lists the programs that can drive the ring and strip.
func (e *Engine) ColorPrograms() []string {
	return e.programs.ColorPrograms()
}

// ScreenPrograms lists the programs that can drive the screen.
func (e *Engine) ScreenPrograms() []string {
	return e.programs.ScreenPrograms()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the caller's goroutine of the change and must not block.
// The returned function unsubscribes.
func (e *Engine) Subscribe(fn func(lights.State)) func() {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()

	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn

	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()

		delete(e.listeners, id)
	}
}

// update runs fn under the lock and notifies listeners when it succeeds.
func (e *Engine) update(fn func() error) error {
	e.mu.Lock()
	err := fn()
	e.mu.Unlock()

	if err != nil {
		return err
	}

	e.notify()

	return nil
}

// notify sends the current snapshot to every listener.
func (e *Engine) notify() {
	state := e.State()

	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()

	for _, fn := range e.listeners {
		fn(state)
	}
}

// state builds a snapshot. The caller holds e.mu.
func (e *Engine) state() lights.State {
	s := lights.State{
		LightsEnabled: e.lightsOn(),
		Alarm:         e.alarm != nil,
		Ring: lights.RingState{
			Connected: e.connected(lights.TargetRing),
			Program:   e.current(lights.TargetRing).Name(),
		},
		Strip: lights.StripState{
			Connected: e.connected(lights.TargetStrip),
			Program:   e.current(lights.TargetStrip).Name(),
		},
		Screen: lights.ScreenState{
			Connected: e.connected(lights.TargetScreen),
			Program:   e.current(lights.TargetScreen).Name(),
		},
		ProgramSpeed: e.speed,
		FixedColor:   e.programs.Fixed.Color().Hex(),
	}

	if s.Ring.Connected {
		s.Ring.Brightness = e.ring.Brightness()
		s.Ring.Monochrome = e.ring.Monochrome()
	}

	if s.Strip.Connected {
		s.Strip.Brightness = e.strip.Brightness()
	}

	if s.Screen.Connected {
		resolution := e.screen.Resolution()
		s.Screen.Width, s.Screen.Height = resolution.X, resolution.Y
	}

	return s
}

// lightsOn reports whether the ring or the strip runs a program. The caller
// holds e.mu.
func (e *Engine) lightsOn() bool {
	return !e.disabled(e.current(lights.TargetRing)) || !e.disabled(e.current(lights.TargetStrip))
}
