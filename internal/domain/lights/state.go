package lights

// RingState describes the ring in a State snapshot.
type RingState struct {
	// Connected reports whether the ring device is initialized.
	Connected bool `json:"connected"`
	// Program is the name of the program assigned to the ring.
	Program string `json:"program"`
	// Brightness is the ring brightness in [0, 1].
	Brightness float64 `json:"brightness"`
	// Monochrome reports whether every LED shows the program's strip color.
	Monochrome bool `json:"monochrome"`
}

// StripState describes the strip in a State snapshot.
type StripState struct {
	// Connected reports whether the strip device is initialized.
	Connected bool `json:"connected"`
	// Program is the name of the program assigned to the strip.
	Program string `json:"program"`
	// Brightness is the strip brightness in [0, 1].
	Brightness float64 `json:"brightness"`
}

// ScreenState describes the screen in a State snapshot.
type ScreenState struct {
	// Connected reports whether the screen device is initialized.
	Connected bool `json:"connected"`
	// Program is the name of the program assigned to the screen.
	Program string `json:"program"`
	// Width is the current render width in pixels.
	Width int `json:"width"`
	// Height is the current render height in pixels.
	Height int `json:"height"`
}

// State is the snapshot of the lighting engine exposed to clients.
// It holds values only, so copies never share memory.
type State struct {
	// LightsEnabled reports whether the ring or the strip runs a program.
	LightsEnabled bool `json:"lights_enabled"`
	// Alarm reports whether the alarm override is active.
	Alarm bool `json:"alarm"`
	// Ring is the ring snapshot.
	Ring RingState `json:"ring"`
	// Strip is the strip snapshot.
	Strip StripState `json:"strip"`
	// Screen is the screen snapshot.
	Screen ScreenState `json:"screen"`
	// ProgramSpeed is the global animation speed multiplier.
	ProgramSpeed float64 `json:"program_speed"`
	// FixedColor is the Fixed program's color as "#rrggbb".
	FixedColor string `json:"fixed_color"`
}

// Program returns the program name assigned to the target.
func (s *State) Program(t Target) string {
	switch t {
	case TargetRing:
		return s.Ring.Program
	case TargetStrip:
		return s.Strip.Program
	case TargetScreen:
		return s.Screen.Program
	default:
		return ""
	}
}
