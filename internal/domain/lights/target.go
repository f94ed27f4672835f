package lights

import (
	"errors"
	"fmt"
	"strings"
)

// Target is one of the physical output channels.
type Target int

const (
	// TargetRing is the addressable LED ring.
	TargetRing Target = iota
	// TargetStrip is the single-color LED strip.
	TargetStrip
	// TargetScreen is the pixel screen.
	TargetScreen
)

// TargetCount is the number of output channels.
const TargetCount = 3

// ErrUnknownTarget is returned when a target name cannot be parsed.
var ErrUnknownTarget = errors.New("unknown target")

// Targets lists every target in engine order.
func Targets() [TargetCount]Target {
	return [TargetCount]Target{TargetRing, TargetStrip, TargetScreen}
}

// String returns the lowercase target name used in settings keys and APIs.
func (t Target) String() string {
	switch t {
	case TargetRing:
		return "ring"
	case TargetStrip:
		return "strip"
	case TargetScreen:
		return "screen"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// ProgramKey is the settings key holding the target's current program.
func (t Target) ProgramKey() string {
	return t.String() + "_program"
}

// LastProgramKey is the settings key holding the target's previous program.
func (t Target) LastProgramKey() string {
	return "last_" + t.String() + "_program"
}

// ParseTarget converts "ring", "strip" or "screen" to a Target.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ring":
		return TargetRing, nil
	case "strip":
		return TargetStrip, nil
	case "screen":
		return TargetScreen, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTarget, s)
	}
}
