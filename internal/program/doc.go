// Package program implements the animation programs the lighting engine
// assigns to its outputs.
//
// A program is a named unit with a consumer count. What it can produce is
// expressed by the capability interfaces it implements: Advancer,
// RingColorSource, StripColorSource and ScreenRenderer. Registry owns one
// instance of every program for the lifetime of the engine.
package program
