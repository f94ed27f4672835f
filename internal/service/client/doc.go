// Package client runs lightctl operations against the lightshow daemon.
//
// Each command dials the daemon with the configured address and control
// token, performs one call and prints the resulting state as text or JSON.
package client
