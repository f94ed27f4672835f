// Package engine runs the real-time lighting loop.
//
// Engine owns every program and the per-target assignments, drives the ring,
// strip and screen at a fixed rate, tunes the screen resolution from measured
// frame cost, and overrides the LEDs while an alarm plays. All mutable state
// is guarded by one lock shared by the render loop and the control operations.
package engine
