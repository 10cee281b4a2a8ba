// Package timing converts oscillator rate settings and a tempo into cycle
// durations and display labels.
package timing

import (
	"fmt"
	"math"
)

// Info describes the musical length of one oscillator cycle.
type Info struct {
	// CycleMs is the cycle duration in milliseconds. +Inf when frozen.
	CycleMs float64
	// Steps is the cycle length in 16th-note sequencer steps.
	Steps float64
	// NoteLabel names the nearest standard subdivision ("1/16", "1 bar",
	// "2 bars"), prefixed with "~" when the cycle falls between divisions.
	// Display only; it never feeds back into the numeric path.
	NoteLabel string
	// Frozen is set when the rate settings stop phase advancement entirely.
	Frozen bool
}

// Compute derives the cycle timing for a speed/multiplier pair at the given
// tempo. The product |speed|*multiplier maps to musical time with 128 meaning
// exactly one 4/4 bar per cycle. A zero speed (or tempo) freezes the phase;
// the result carries an infinite cycle time rather than NaN so downstream
// math stays defined.
func Compute(speed float64, multiplier int, bpm float64) Info {
	product := math.Abs(speed) * float64(multiplier)
	if product <= 0 || bpm <= 0 {
		return Info{
			CycleMs:   math.Inf(1),
			Steps:     math.Inf(1),
			NoteLabel: "frozen",
			Frozen:    true,
		}
	}
	bars := 128 / product
	msPerBar := 4 * (60000 / bpm)
	return Info{
		CycleMs:   bars * msPerBar,
		Steps:     bars * 16,
		NoteLabel: noteLabel(bars),
	}
}

// noteLabel snaps a cycle length in bars to the nearest power-of-two
// subdivision.
func noteLabel(bars float64) string {
	exp := int(math.Round(math.Log2(bars)))
	snapped := math.Pow(2, float64(exp))
	prefix := ""
	if math.Abs(bars-snapped)/snapped > 0.01 {
		prefix = "~"
	}
	switch {
	case exp >= 1:
		return fmt.Sprintf("%s%.0f bars", prefix, snapped)
	case exp == 0:
		return prefix + "1 bar"
	default:
		return fmt.Sprintf("%s1/%.0f", prefix, math.Pow(2, float64(-exp)))
	}
}
