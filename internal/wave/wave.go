package wave

import "math"

// Shape identifies an oscillator waveform.
type Shape int

const (
	Triangle Shape = iota
	Sine
	Square
	Saw
	Exponential
	Ramp
	Random
)

// StepsPerCycle is the number of sample-and-hold steps in one Random cycle.
const StepsPerCycle = 8

// expCurve sets the exponential waveform curvature.
const expCurve = 4.0

var expDenom = math.Exp(expCurve) - 1

// Unipolar reports whether a shape produces samples in [0,1] rather than [-1,1].
func Unipolar(s Shape) bool {
	return s == Exponential || s == Ramp
}

// Sample returns the waveform value at phase in [0, 1). Bipolar shapes span
// [-1, 1], unipolar shapes (Exponential, Ramp) span [0, 1]. Out-of-range
// shapes fall back to Triangle.
//
// Random is evaluated against the hold step within a single cycle; callers
// tracking phase across cycles should use Hold/HoldSlew with a step index
// that carries the cycle count, so each cycle gets fresh values.
func Sample(s Shape, phase float64) float64 {
	switch s {
	case Sine:
		return math.Sin(2 * math.Pi * phase)
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Saw:
		return 2*phase - 1
	case Exponential:
		return (math.Exp(expCurve*phase) - 1) / expDenom
	case Ramp:
		return 1 - phase
	case Random:
		return Hold(int64(phase * StepsPerCycle))
	default: // Triangle
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	}
}

// Hold returns the held random value in [-1, 1] for a sample-and-hold step.
// It is a pure function of the step index (Knuth LCG multiply plus an xor
// fold), so two observers of the same step always agree and sequences replay
// identically. Negative steps are valid: reversed phase walks the same values
// back.
func Hold(step int64) float64 {
	h := uint64(step)*6364136223846793005 + 1442695040888963407
	h ^= h >> 33
	return float64(h%127)/63.0 - 1.0
}

// HoldSlew returns the Random value for a step with slew smoothing applied.
// pos is the position within the step in [0, 1); slew in [0, 127] scales how
// far the value glides toward the next step's value (0 = hard steps, 127 =
// full linear glide).
func HoldSlew(step int64, pos float64, slew int) float64 {
	cur := Hold(step)
	if slew <= 0 {
		return cur
	}
	t := pos * float64(slew) / 127.0
	if t > 1 {
		t = 1
	}
	return cur + (Hold(step+1)-cur)*t
}
