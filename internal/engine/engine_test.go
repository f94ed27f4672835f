package engine

import (
	"context"
	"errors"
	"image"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lightshow/internal/device/fake"
	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/program"
)

var errTestSettings = errors.New("test settings error")

// memorySettings is an in-memory Settings implementation for tests.
type memorySettings struct {
	mu sync.Mutex
	// values holds the stored settings.
	values map[string]string
	// getErr is returned from Get when set.
	getErr error
	// puts counts Put calls.
	puts int
}

func newMemorySettings(values map[string]string) *memorySettings {
	m := &memorySettings{values: make(map[string]string)}
	maps.Copy(m.values, values)

	return m
}

func (m *memorySettings) Get(_ context.Context, key, fallback string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return "", m.getErr
	}

	if v, ok := m.values[key]; ok {
		return v, nil
	}

	return fallback, nil
}

func (m *memorySettings) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	m.puts++

	return nil
}

func (m *memorySettings) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.values[key]
}

func (m *memorySettings) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.puts
}

// rig bundles an engine with the fakes behind it.
type rig struct {
	engine   *Engine
	ring     *fake.Ring
	strip    *fake.Strip
	screen   *fake.Screen
	settings *memorySettings
	programs *program.Registry
}

// newRig builds an engine over connected fake devices. configure runs before
// the engine is created.
func newRig(t *testing.T, stored map[string]string, configure ...func(*rig)) *rig {
	t.Helper()

	r := &rig{
		ring:     fake.NewRing(12),
		strip:    fake.NewStrip(),
		screen:   fake.NewScreen(image.Pt(128, 64)),
		settings: newMemorySettings(stored),
		programs: program.NewRegistry(t.Context(), nil, 4),
	}

	for _, fn := range configure {
		fn(r)
	}

	e, err := New(t.Context(), Options{
		Ring:     r.ring,
		Strip:    r.strip,
		Screen:   r.screen,
		Settings: r.settings,
		Programs: r.programs,
		UPS:      30,
	})
	require.NoError(t, err)

	r.engine = e

	return r
}

func (r *rig) program(t *testing.T, name string) program.Program {
	t.Helper()

	p, ok := r.programs.Get(name)
	require.True(t, ok, name)

	return p
}

// TestNew_RestoresFromSettings asserts stored programs are assigned and used.
func TestNew_RestoresFromSettings(t *testing.T) {
	t.Parallel()

	r := newRig(t, map[string]string{
		"ring_program":        program.NameRainbow,
		"strip_program":       program.NameRainbow,
		"last_strip_program":  program.NameFixed,
		"screen_program":      program.NameCircle,
		"last_screen_program": "NoSuchProgram",
	})

	state := r.engine.State()

	require.True(t, state.LightsEnabled)
	require.Equal(t, program.NameRainbow, state.Ring.Program)
	require.Equal(t, program.NameRainbow, state.Strip.Program)
	require.Equal(t, program.NameCircle, state.Screen.Program)
	require.Equal(t, 2, r.program(t, program.NameRainbow).Consumers())
	require.Equal(t, 1, r.program(t, program.NameCircle).Consumers())
	require.Zero(t, r.programs.Disabled.Consumers())
	require.Equal(t, r.program(t, program.NameFixed), r.engine.assignments[lights.TargetStrip].previous)
	require.Equal(t, program.Program(r.programs.Disabled), r.engine.assignments[lights.TargetScreen].previous)
}

// TestNew_FallsBackToDisabled covers unknown, unsupported and disconnected targets.
func TestNew_FallsBackToDisabled(t *testing.T) {
	t.Parallel()

	r := newRig(t, map[string]string{
		"ring_program":   "NoSuchProgram",
		"strip_program":  program.NameFixed,
		"screen_program": program.NameRainbow,
	}, func(r *rig) {
		r.strip.Connected = false
	})

	state := r.engine.State()

	require.False(t, state.LightsEnabled)
	require.False(t, state.Strip.Connected)
	require.Equal(t, program.NameDisabled, state.Ring.Program)
	require.Equal(t, program.NameDisabled, state.Strip.Program)
	require.Equal(t, program.NameDisabled, state.Screen.Program)
	require.Equal(t, lights.TargetCount, r.programs.Disabled.Consumers())
	require.Zero(t, r.program(t, program.NameFixed).Consumers())
}

// TestNew_SettingsError asserts a failing store aborts startup.
func TestNew_SettingsError(t *testing.T) {
	t.Parallel()

	settings := newMemorySettings(nil)
	settings.getErr = errTestSettings

	e, err := New(t.Context(), Options{
		Ring:     fake.NewRing(4),
		Strip:    fake.NewStrip(),
		Screen:   fake.NewScreen(image.Pt(16, 8)),
		Settings: settings,
		Programs: program.NewRegistry(t.Context(), nil, 4),
		UPS:      30,
	})

	require.ErrorIs(t, err, errTestSettings)
	require.Nil(t, e)
}

// TestSetProgram_ConsumerCountsAndGate checks counts match assignments and
// the gate follows the Disabled count.
func TestSetProgram_ConsumerCountsAndGate(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil)
	require.False(t, r.engine.gate.IsSet())

	require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetRing, program.NameRainbow))
	require.True(t, r.engine.gate.IsSet())
	require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetStrip, program.NameRainbow))

	rainbow := r.program(t, program.NameRainbow)
	require.Equal(t, 2, rainbow.Consumers())
	require.Equal(t, 1, r.programs.Disabled.Consumers())

	require.Equal(t, program.NameRainbow, r.settings.value("ring_program"))
	require.Equal(t, program.NameDisabled, r.settings.value("last_ring_program"))

	require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetRing, program.NameFixed))
	require.Equal(t, 1, rainbow.Consumers())
	require.Equal(t, program.NameRainbow, r.settings.value("last_ring_program"))

	require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetRing, program.NameDisabled))
	require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetStrip, program.NameDisabled))
	require.Equal(t, lights.TargetCount, r.programs.Disabled.Consumers())
	require.False(t, r.engine.gate.IsSet())

	for _, name := range append(r.programs.ColorPrograms(), r.programs.ScreenPrograms()...) {
		require.Zero(t, r.program(t, name).Consumers(), name)
	}
}

// TestSetProgram_Idempotent asserts reassigning the current program changes nothing.
func TestSetProgram_Idempotent(t *testing.T) {
	t.Parallel()

	r := newRig(t, map[string]string{"ring_program": program.NameRainbow})

	require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetRing, program.NameDisabled))
	require.Equal(t, 1, r.ring.ClearCount())

	puts := r.settings.putCount()

	require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetRing, program.NameDisabled))
	require.Equal(t, 1, r.ring.ClearCount())
	require.Equal(t, puts, r.settings.putCount())
	require.Equal(t, lights.TargetCount, r.programs.Disabled.Consumers())
}

// TestSetProgram_Errors covers rejected assignments.
func TestSetProgram_Errors(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil, func(r *rig) {
		r.screen.Connected = false
	})

	err := r.engine.SetProgram(t.Context(), lights.TargetRing, "Strobe")
	require.ErrorIs(t, err, ErrUnknownProgram)

	err = r.engine.SetProgram(t.Context(), lights.TargetRing, program.NameCircle)
	require.ErrorIs(t, err, ErrUnsupportedProgram)

	err = r.engine.SetProgram(t.Context(), lights.TargetScreen, program.NameRainbow)
	require.ErrorIs(t, err, ErrUnsupportedProgram)

	err = r.engine.SetProgram(t.Context(), lights.TargetScreen, program.NameCircle)
	require.ErrorIs(t, err, ErrDeviceNotConnected)
	require.Zero(t, r.program(t, program.NameCircle).Consumers())
	require.Zero(t, r.settings.putCount())
}

// TestControl_DisconnectedDevices asserts every device operation on a missing
// device is rejected and leaves the engine and the device untouched.
func TestControl_DisconnectedDevices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call func(ctx context.Context, e *Engine) error
	}{
		{"ring brightness", func(ctx context.Context, e *Engine) error {
			return e.SetBrightness(ctx, lights.TargetRing, 0.3)
		}},
		{"strip brightness", func(ctx context.Context, e *Engine) error {
			return e.SetBrightness(ctx, lights.TargetStrip, 0.3)
		}},
		{"monochrome", func(ctx context.Context, e *Engine) error {
			return e.SetMonochrome(ctx, true)
		}},
		{"ring program", func(ctx context.Context, e *Engine) error {
			return e.SetProgram(ctx, lights.TargetRing, program.NameRainbow)
		}},
		{"strip program", func(ctx context.Context, e *Engine) error {
			return e.SetProgram(ctx, lights.TargetStrip, program.NameFixed)
		}},
		{"adjust screen", func(ctx context.Context, e *Engine) error {
			return e.AdjustScreen(ctx)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRig(t, nil, func(r *rig) {
				r.ring.Connected = false
				r.strip.Connected = false
				r.screen.Connected = false
			})

			notified := 0
			r.engine.Subscribe(func(lights.State) { notified++ })

			before := r.engine.State()

			require.ErrorIs(t, tt.call(t.Context(), r.engine), ErrDeviceNotConnected)
			require.Equal(t, before, r.engine.State())
			require.Zero(t, notified)
			require.Zero(t, r.settings.putCount())

			require.InDelta(t, 1.0, r.ring.Brightness(), 1e-9)
			require.False(t, r.ring.Monochrome())
			require.InDelta(t, 1.0, r.strip.Brightness(), 1e-9)
			require.Zero(t, r.screen.Adjusts)
		})
	}
}

// TestAssign_DisconnectedIsSilent asserts internal assignment ignores missing devices.
func TestAssign_DisconnectedIsSilent(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil, func(r *rig) {
		r.ring.Connected = false
	})

	r.engine.mu.Lock()
	r.engine.assign(t.Context(), lights.TargetRing, r.programs.Fixed, false)
	r.engine.mu.Unlock()

	require.Equal(t, program.NameDisabled, r.engine.State().Ring.Program)
	require.Zero(t, r.programs.Fixed.Consumers())
	require.Zero(t, r.settings.putCount())
}

// TestOptions validates brightness, speed and color updates.
func TestOptions(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil)
	ctx := t.Context()

	require.NoError(t, r.engine.SetBrightness(ctx, lights.TargetRing, 0.25))
	require.NoError(t, r.engine.SetBrightness(ctx, lights.TargetStrip, 0))
	require.ErrorIs(t, r.engine.SetBrightness(ctx, lights.TargetRing, 1.5), ErrInvalidBrightness)
	require.ErrorIs(t, r.engine.SetBrightness(ctx, lights.TargetScreen, 0.5), ErrUnsupportedTarget)

	require.NoError(t, r.engine.SetProgramSpeed(ctx, 2.5))
	require.ErrorIs(t, r.engine.SetProgramSpeed(ctx, 0), ErrInvalidSpeed)
	require.ErrorIs(t, r.engine.SetProgramSpeed(ctx, -1), ErrInvalidSpeed)

	require.NoError(t, r.engine.SetFixedColor(ctx, "#ff8000"))
	require.ErrorIs(t, r.engine.SetFixedColor(ctx, "orange"), lights.ErrInvalidColor)

	require.NoError(t, r.engine.SetMonochrome(ctx, true))

	state := r.engine.State()

	require.InDelta(t, 0.25, state.Ring.Brightness, 1e-9)
	require.InDelta(t, 0, state.Strip.Brightness, 1e-9)
	require.InDelta(t, 2.5, state.ProgramSpeed, 1e-9)
	require.Equal(t, "#ff8000", state.FixedColor)
	require.True(t, state.Ring.Monochrome)
}

// TestSubscribe asserts listeners see every successful change and can leave.
func TestSubscribe(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil)

	var seen []lights.State

	unsubscribe := r.engine.Subscribe(func(s lights.State) {
		seen = append(seen, s)
	})

	require.NoError(t, r.engine.SetProgram(t.Context(), lights.TargetStrip, program.NameFixed))
	require.Error(t, r.engine.SetProgram(t.Context(), lights.TargetStrip, "Strobe"))
	require.Len(t, seen, 1)
	require.Equal(t, program.NameFixed, seen[0].Strip.Program)
	require.True(t, seen[0].LightsEnabled)

	unsubscribe()

	require.NoError(t, r.engine.SetProgramSpeed(t.Context(), 2))
	require.Len(t, seen, 1)
}
