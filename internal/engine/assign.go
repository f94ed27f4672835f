package engine

import (
	"context"

	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
	"github.com/oshokin/lightshow/internal/program"
)

// assign makes p the target's current program. The caller holds e.mu.
//
// It does nothing when the target's device is not connected or p is already
// current. A non-transient assignment is persisted; the alarm override and
// the lights toggle use transient ones so the stored choice survives them.
func (e *Engine) assign(ctx context.Context, target lights.Target, p program.Program, transient bool) {
	if !e.connected(target) {
		return
	}

	a := &e.assignments[target]
	if a.current == p {
		return
	}

	a.current.Release()
	p.Use()

	a.previous, a.current = a.current, p

	if !transient {
		e.persist(ctx, target.ProgramKey(), a.current.Name())
		e.persist(ctx, target.LastProgramKey(), a.previous.Name())
	}

	if target == lights.TargetScreen {
		e.quality.Reset()
	}

	e.updateGate()

	if e.disabled(p) {
		e.clear(target)
	}

	logger.DebugKV(ctx, "Program assigned",
		"target", target.String(),
		"program", a.current.Name(),
		"previous", a.previous.Name(),
		"transient", transient)
}

// persist stores a setting, logging failures: a lost write only affects the
// next restart.
func (e *Engine) persist(ctx context.Context, key, value string) {
	if err := e.settings.Put(ctx, key, value); err != nil {
		logger.ErrorKV(ctx, "Failed to persist setting", "key", key, "error", err)
	}
}

// updateGate opens the render loop gate unless every target is disabled.
func (e *Engine) updateGate() {
	if e.programs.Disabled.Consumers() < lights.TargetCount {
		e.gate.Set()
	} else {
		e.gate.Clear()
	}
}

// clear blanks the target's device.
func (e *Engine) clear(target lights.Target) {
	switch target {
	case lights.TargetRing:
		e.ring.Clear()
	case lights.TargetStrip:
		e.strip.Clear()
	case lights.TargetScreen:
		e.screen.Clear()
	}
}

// current returns the target's current program. The caller holds e.mu.
func (e *Engine) current(target lights.Target) program.Program {
	return e.assignments[target].current
}

// disabled reports whether p is the null program.
func (e *Engine) disabled(p program.Program) bool {
	return p == program.Program(e.programs.Disabled)
}
