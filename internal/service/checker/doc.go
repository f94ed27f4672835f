// Package checker polls the lightshow daemon and reports state changes.
package checker
