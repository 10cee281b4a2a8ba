// Package modmap maps oscillator output onto a bounded destination
// parameter.
package modmap

import "math"

// Range describes the destination parameter being modulated. Bipolar marks
// parameters whose natural rest point is the middle of the range (pan,
// tune) rather than the bottom; the mapper math depends only on Min/Max.
type Range struct {
	Min     float64
	Max     float64
	Bipolar bool
}

// Swing returns the maximum half-range excursion of the destination.
func Swing(r Range) float64 {
	return (r.Max - r.Min) / 2
}

// Value maps an oscillator output sample onto the destination around a
// center value, clamped to the destination range. The sample arrives
// depth-scaled and fade-scaled, so a full-depth bipolar waveform spans
// [center-swing, center+swing] and a unipolar waveform swings to one side
// of center only, the side picked by the depth sign already baked into the
// sample.
func Value(output, center float64, r Range) float64 {
	return clamp(center+output*Swing(r), r.Min, r.Max)
}

// Bounds returns the static lower/upper extremes the mapped value can reach
// for a given depth, for display. Unipolar waveforms pin one bound to the
// center: positive depth swings only upward, negative only downward.
func Bounds(depth int, center float64, r Range, unipolarWave bool) (lower, upper float64) {
	scale := math.Abs(float64(depth)) / 63
	if scale > 1 {
		scale = 1
	}
	swing := Swing(r) * scale
	lower, upper = center-swing, center+swing
	if unipolarWave {
		if depth >= 0 {
			lower = center
		} else {
			upper = center
		}
	}
	return clamp(lower, r.Min, r.Max), clamp(upper, r.Min, r.Max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
