package program

import (
	"context"

	"github.com/oshokin/lightshow/internal/domain/lights"
)

// Registry owns one instance of every program. Programs live as long as the
// registry; a program without consumers is idle, not destroyed.
type Registry struct {
	// Disabled is the null program.
	Disabled *Disabled
	// Fixed is the static color program.
	Fixed *Fixed
	// Alarm is the ambient alarm pulse.
	Alarm *Alarm
	// Cava is the ambient audio analyser.
	Cava *Cava

	// ordered lists assignable programs in display order.
	ordered []Program
	// byName indexes ordered.
	byName map[string]Program
}

// NewRegistry creates every program. A nil analyzer makes the
// audio-reactive programs silent.
func NewRegistry(ctx context.Context, analyzer Analyzer, bars int) *Registry {
	fixed := NewFixed(lights.Color{R: 1, G: 1, B: 1})
	cava := NewCava(ctx, analyzer, bars)

	r := &Registry{
		Disabled: NewDisabled(),
		Fixed:    fixed,
		Alarm:    NewAlarm(fixed),
		Cava:     cava,
	}

	r.ordered = []Program{
		r.Disabled,
		r.Fixed,
		r.Alarm,
		NewRainbow(),
		NewAdaptive(cava),
		NewCircle(cava),
	}

	r.byName = make(map[string]Program, len(r.ordered))
	for _, p := range r.ordered {
		r.byName[p.Name()] = p
	}

	return r
}

// Get returns the assignable program with the given name.
func (r *Registry) Get(name string) (Program, bool) {
	p, ok := r.byName[name]

	return p, ok
}

// Ambient returns the programs advanced every frame regardless of assignment.
func (r *Registry) Ambient() []Advancer {
	return []Advancer{r.Cava, r.Alarm}
}

// ColorPrograms lists the names of programs that can drive the LEDs.
func (r *Registry) ColorPrograms() []string {
	var names []string

	for _, p := range r.ordered {
		if _, ok := p.(RingColorSource); ok {
			names = append(names, p.Name())
		}
	}

	return names
}

// ScreenPrograms lists the names of programs that can draw on the screen.
func (r *Registry) ScreenPrograms() []string {
	var names []string

	for _, p := range r.ordered {
		if _, ok := p.(ScreenRenderer); ok {
			names = append(names, p.Name())
		}
	}

	return names
}
