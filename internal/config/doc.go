// Package config defines the lightshow settings file and provides helpers to
// load, validate and save it in YAML format.
//
// The Config type holds the transport addresses, the settings store location,
// the render rate and the per-device hardware parameters.
package config
