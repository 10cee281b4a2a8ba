// Package fade implements the trigger-relative envelope that ramps an
// oscillator's effective depth in or out after a trigger.
package fade

// Duration returns the fraction of one cycle over which a fade completes.
// Larger |amount| means a faster fade.
func Duration(amount int) float64 {
	a := amount
	if a < 0 {
		a = -a
	}
	return float64(64-a) / 64
}

// Multiplier returns the envelope value in [0, 1] for the given progress
// since the last trigger, measured in cycles. Negative amounts fade in,
// positive amounts fade out, zero disables the envelope. Free-running
// oscillators have no trigger origin to fade from, so free == true always
// yields 1.
func Multiplier(amount int, free bool, sinceTrigger float64) float64 {
	if amount == 0 || free {
		return 1
	}
	d := Duration(amount)
	if amount < 0 {
		if d <= 0 || sinceTrigger >= d {
			return 1
		}
		return sinceTrigger / d
	}
	if sinceTrigger >= d {
		return 0
	}
	return 1 - sinceTrigger/d
}
