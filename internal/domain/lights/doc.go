// Package lights contains the core domain types of the lighting engine.
//
// It defines Color (linear RGB in [0, 1] with hex triplet codec), Target (the
// ring, strip and screen outputs) and State (the serializable snapshot pushed
// to clients after every change).
package lights
