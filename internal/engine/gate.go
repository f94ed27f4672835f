package engine

import (
	"context"
	"sync"
)

// gate blocks the render loop while every target is disabled.
type gate struct {
	mu sync.Mutex
	// open is closed while the gate is open.
	open chan struct{}
	// isOpen mirrors the state of open.
	isOpen bool
}

func newGate() *gate {
	return &gate{open: make(chan struct{})}
}

// Set opens the gate, releasing waiters.
func (g *gate) Set() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isOpen {
		close(g.open)
		g.isOpen = true
	}
}

// Clear closes the gate.
func (g *gate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.isOpen {
		g.open = make(chan struct{})
		g.isOpen = false
	}
}

// IsSet reports whether the gate is open.
func (g *gate) IsSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.isOpen
}

// Wait blocks until the gate is open or ctx is done.
func (g *gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	open := g.open
	g.mu.Unlock()

	select {
	case <-open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
