package engine

import (
	"context"
	"slices"
	"time"

	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
	"github.com/oshokin/lightshow/internal/program"
)

// maxTickDelta caps the animation step after the loop was parked.
const maxTickDelta = time.Second

// Start launches the render loop. It runs until ctx is done or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		return errAlreadyRunning
	}

	ctx, cancel := context.WithCancel(logger.WithName(ctx, "render"))
	done := make(chan struct{})

	e.cancel = cancel
	e.done = done

	go e.run(ctx, done)

	return nil
}

// Stop halts the render loop and waits for it to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// run is the render loop: wait for the gate, draw a frame, feed the quality
// controller and sleep for the rest of the frame budget.
func (e *Engine) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	logger.InfoKV(ctx, "Render loop started", "frame_budget", e.budget)
	defer logger.Info(ctx, "Render loop stopped")

	timer := time.NewTimer(e.budget)
	defer timer.Stop()

	for {
		if err := e.gate.Wait(ctx); err != nil {
			return
		}

		elapsed := e.step()
		e.observe(ctx, elapsed)

		remaining := e.budget - elapsed
		if remaining <= 0 {
			if ctx.Err() != nil {
				return
			}

			continue
		}

		timer.Reset(remaining)

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// step renders one frame and returns how long it took.
func (e *Engine) step() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()

	delta := e.budget
	if !e.lastFrame.IsZero() {
		delta = min(start.Sub(e.lastFrame), maxTickDelta)
	}

	e.lastFrame = start
	tick := program.Tick{Delta: delta, Speed: e.speed}

	// A program advances once per frame however many roles it plays.
	advanced := make([]any, 0, len(lights.Targets())+2)
	advance := func(p any) {
		if slices.Contains(advanced, p) {
			return
		}

		advanced = append(advanced, p)

		if a, ok := p.(program.Advancer); ok {
			a.Advance(tick)
		}
	}

	for _, p := range e.programs.Ambient() {
		advance(p)
	}

	ringProgram := e.current(lights.TargetRing)
	stripProgram := e.current(lights.TargetStrip)
	screenProgram := e.current(lights.TargetScreen)

	if !e.disabled(screenProgram) {
		advance(screenProgram)

		if r, ok := screenProgram.(program.ScreenRenderer); ok {
			e.screen.Draw(r.DrawScreen(e.screen.Resolution()))
		}
	}

	advance(ringProgram)
	advance(stripProgram)

	if !e.disabled(ringProgram) {
		e.drawRing(ringProgram)
	}

	if !e.disabled(stripProgram) {
		if s, ok := stripProgram.(program.StripColorSource); ok {
			e.strip.SetColor(s.StripColor())
		}
	}

	return e.now().Sub(start)
}

// drawRing writes the ring program's colors. The caller holds e.mu.
func (e *Engine) drawRing(p program.Program) {
	count := e.ring.LEDCount()

	if e.ring.Monochrome() {
		if s, ok := p.(program.StripColorSource); ok {
			e.ring.SetColors(lights.Repeat(s.StripColor(), count))

			return
		}
	}

	if r, ok := p.(program.RingColorSource); ok {
		e.ring.SetColors(r.RingColors(count))
	}
}

// observe feeds the frame cost to the quality controller while a screen
// program runs and applies its verdict.
func (e *Engine) observe(ctx context.Context, elapsed time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disabled(e.current(lights.TargetScreen)) {
		return
	}

	var changed bool

	adjustment := e.quality.Observe(elapsed)
	switch adjustment {
	case AdjustDecrease:
		changed = e.screen.DecreaseResolution()
	case AdjustIncrease:
		changed = e.screen.IncreaseResolution()
	case AdjustNone:
		return
	}

	if changed {
		resolution := e.screen.Resolution()
		logger.DebugKV(ctx, "Screen resolution adjusted",
			"adjustment", adjustment.String(),
			"width", resolution.X,
			"height", resolution.Y)
	}
}
