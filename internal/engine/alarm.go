package engine

import (
	"context"

	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
	"github.com/oshokin/lightshow/internal/program"
)

// AlarmStarted switches the ring and strip to the pulsing alarm color until
// AlarmStopped. Calling it while the alarm is active does nothing.
func (e *Engine) AlarmStarted(ctx context.Context) {
	e.mu.Lock()

	if e.alarm != nil {
		e.mu.Unlock()
		logger.Warn(ctx, "Alarm already active")

		return
	}

	e.programs.Alarm.Use()

	e.alarm = &alarmSnapshot{
		fixedColor: e.programs.Fixed.Color(),
		before:     e.assignments,
	}

	e.assign(ctx, lights.TargetRing, e.programs.Fixed, true)
	e.assign(ctx, lights.TargetStrip, e.programs.Fixed, true)

	e.mu.Unlock()

	logger.Info(ctx, "Alarm started")
	e.notify()
}

// AlarmStopped ends the alarm override, restoring the Fixed color and the
// ring and strip programs from settings. Calling it without an active alarm
// does nothing.
func (e *Engine) AlarmStopped(ctx context.Context) {
	e.mu.Lock()

	snapshot := e.alarm
	if snapshot == nil {
		e.mu.Unlock()
		logger.Warn(ctx, "Alarm is not active")

		return
	}

	e.programs.Alarm.Release()
	e.programs.Fixed.SetColor(snapshot.fixedColor)

	e.restoreAfterAlarm(ctx, lights.TargetRing, snapshot.before[lights.TargetRing])
	e.restoreAfterAlarm(ctx, lights.TargetStrip, snapshot.before[lights.TargetStrip])

	e.alarm = nil

	e.mu.Unlock()

	logger.Info(ctx, "Alarm stopped")
	e.notify()
}

// AlarmActive reports whether the alarm override is active.
func (e *Engine) AlarmActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.alarm != nil
}

// restoreAfterAlarm puts back the stored program and previous program of a
// target, falling back to what it ran before the alarm. The caller holds e.mu.
func (e *Engine) restoreAfterAlarm(ctx context.Context, target lights.Target, before assignment) {
	if !e.connected(target) {
		return
	}

	e.assign(ctx, target, e.lookupStored(ctx, target.ProgramKey(), target, before.current), true)
	e.assignments[target].previous = e.lookupStored(ctx, target.LastProgramKey(), target, before.previous)
}

// lookupStored resolves the program stored under key, or fallback when the
// key is missing, unreadable or names an unusable program.
func (e *Engine) lookupStored(
	ctx context.Context,
	key string,
	target lights.Target,
	fallback program.Program,
) program.Program {
	name, err := e.settings.Get(ctx, key, fallback.Name())
	if err != nil {
		logger.ErrorKV(ctx, "Failed to read setting", "key", key, "error", err)

		return fallback
	}

	p, ok := e.programs.Get(name)
	if !ok || !supports(target, p) {
		return fallback
	}

	return p
}
