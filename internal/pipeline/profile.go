package pipeline

import (
	"io"

	"github.com/google/pprof/profile"
)

// PhaseTiming is one named pipeline stage's wall-clock duration, recorded by
// the caller (cmd/tylc's main) around each Run sub-step and handed to
// WriteProfile for -profile.
type PhaseTiming struct {
	Name  string
	Nanos int64
}

// WriteProfile serializes timings as a pprof CPU-style profile (one sample
// per phase, a single-frame stack named after the phase) to w. This is a
// compile-time profile of the compiler's own phases, not a profile of the
// emitted program.
func WriteProfile(w io.Writer, timings []PhaseTiming) error {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "wall", Unit: "nanoseconds"}},
		PeriodType: &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
		Period:     1,
	}
	for i, t := range timings {
		id := uint64(i + 1)
		fn := &profile.Function{ID: id, Name: t.Name}
		loc := &profile.Location{ID: id, Line: []profile.Line{{Function: fn, Line: 1}}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{t.Nanos},
		})
	}
	return p.Write(w)
}
