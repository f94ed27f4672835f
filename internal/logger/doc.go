// Package logger wraps zap for the lightshow binaries.
//
// It keeps one global sugared logger (console or JSON encoded), parses level
// names from configuration, and carries scoped loggers through a context so
// that the engine, the device drivers and the transports log with their own
// name and fields.
package logger
