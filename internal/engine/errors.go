package engine

import "errors"

var (
	// ErrUnknownProgram is returned for a program name not in the registry.
	ErrUnknownProgram = errors.New("unknown program")
	// ErrUnsupportedProgram is returned when a program cannot drive the target.
	ErrUnsupportedProgram = errors.New("program does not support target")
	// ErrUnsupportedTarget is returned when an operation does not apply to the target.
	ErrUnsupportedTarget = errors.New("operation does not support target")
	// ErrInvalidBrightness is returned for brightness outside [0, 1].
	ErrInvalidBrightness = errors.New("brightness must be within [0, 1]")
	// ErrInvalidSpeed is returned for a non-positive or non-finite program speed.
	ErrInvalidSpeed = errors.New("program speed must be a positive number")
	// ErrDeviceNotConnected is returned when the target's device is not initialized.
	ErrDeviceNotConnected = errors.New("device not connected")
	// ErrScreenProgramActive is returned by AdjustScreen while a screen program runs.
	ErrScreenProgramActive = errors.New("disable the screen program before readjusting")
	// errAlreadyRunning is returned by Start on a running engine.
	errAlreadyRunning = errors.New("engine already running")
)
