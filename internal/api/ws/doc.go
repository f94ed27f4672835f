// Package ws pushes engine state snapshots to websocket clients.
package ws
