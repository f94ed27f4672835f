// Package device declares the narrow output interfaces the lighting engine
// writes to. Concrete drivers live in the ring, strip and screen subpackages;
// package fake provides in-memory devices for tests.
package device
