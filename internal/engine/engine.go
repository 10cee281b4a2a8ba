// Package engine implements the stateful phase/trigger core of an
// oscillator: it owns the current phase and running flag and converts
// elapsed time plus trigger and transport events into output samples.
package engine

import (
	"math"

	"github.com/brentvatne/wtlfo-sub001/internal/fade"
	"github.com/brentvatne/wtlfo-sub001/internal/timing"
	"github.com/brentvatne/wtlfo-sub001/internal/wave"
)

// Mode selects how the oscillator reacts to trigger and transport events.
type Mode int

const (
	// ModeFree runs continuously and ignores triggers; fade is inert.
	ModeFree Mode = iota
	// ModeTrigger restarts phase and the fade origin on every trigger.
	ModeTrigger
	// ModeHold freezes output in place on a trigger; a second trigger
	// resumes from the held phase.
	ModeHold
	// ModeOneShot restarts on trigger and self-stops after one full cycle.
	ModeOneShot
	// ModeHalf restarts on trigger and self-stops after half a cycle.
	ModeHalf
)

// Params is the validated parameter set the engine runs with. Callers
// validate domains before handing params over; the engine trusts them.
type Params struct {
	Shape wave.Shape
	Mode  Mode
	// Speed is the signed rate; only its sign matters here (magnitude is
	// folded into the cycle time by the timing calculator).
	Speed float64
	// Depth in [-64, 63] scales and signs the output.
	Depth int
	// Fade in [-64, 63]: negative fades in, positive fades out.
	Fade int
	// StartPhase in [0, 127] is the phase offset applied on reset. The
	// Random shape repurposes this slot as the slew amount between hold
	// steps.
	StartPhase int
}

// startOffset returns the normalized phase a reset lands on.
func (p Params) startOffset() float64 {
	if p.Shape == wave.Random {
		return 0
	}
	return float64(p.StartPhase) / 128
}

// cycleLimit returns how much cycle progress may accumulate past the
// trigger origin before the engine self-stops.
func (p Params) cycleLimit() float64 {
	switch p.Mode {
	case ModeOneShot:
		return 1
	case ModeHalf:
		return 0.5
	}
	return math.Inf(1)
}

// Result is one engine step: the phase, the depth- and fade-scaled output
// in [-1, 1], and edge flags for the step that produced it.
type Result struct {
	Phase   float64
	Output  float64
	Running bool
	// Wrapped is set when this step crossed a cycle boundary.
	Wrapped bool
	// Stopped is set when this step completed a one-shot or half-cycle run.
	Stopped bool
}

// Engine advances oscillator phase from wall-clock deltas. It is a plain
// single-owner state machine: every method is synchronous and the zero
// delta case (paused, stale or repeated timestamps) never moves phase.
type Engine struct {
	params Params

	phase        float64
	running      bool
	done         bool    // one-shot/half-cycle completed; cleared by restart
	sinceTrigger float64 // accumulated cycle progress since the trigger origin
	turns        int64   // signed whole-cycle wrap count; drives Random hold steps
	lastMs       float64
	hasLast      bool
	lastResult   Result
}

// New returns a running engine positioned at the start offset.
func New(p Params) *Engine {
	e := &Engine{params: p, running: true}
	e.phase = p.startOffset()
	e.refresh()
	return e
}

// Params returns the current parameter set.
func (e *Engine) Params() Params { return e.params }

// Running reports whether phase advances on the next step.
func (e *Engine) Running() bool { return e.running }

// Last returns the most recent result without advancing.
func (e *Engine) Last() Result { return e.lastResult }

// Phase returns the current normalized phase in [0, 1).
func (e *Engine) Phase() float64 { return e.phase }

// SetParams swaps the parameter set without resetting phase, so live edits
// stay continuous. Switching mode clears a finished one-shot latch.
func (e *Engine) SetParams(p Params) {
	if p.Mode != e.params.Mode {
		e.done = false
	}
	e.params = p
	e.refresh()
}

// Trigger applies a trigger event according to the mode: ignored when free,
// toggles the freeze when holding, otherwise restarts phase and the fade
// origin.
func (e *Engine) Trigger() {
	switch e.params.Mode {
	case ModeFree:
	case ModeHold:
		if e.running {
			e.running = false
		} else {
			e.hasLast = false
			e.running = true
		}
		e.refresh()
	default:
		e.restart()
	}
}

// ResetAndRun handles a transport start: every mode restarts from the start
// offset except free, which has no trigger origin and simply resumes.
func (e *Engine) ResetAndRun() {
	if e.params.Mode == ModeFree {
		e.Resume()
		return
	}
	e.restart()
}

// Resume continues from the held phase without resetting it. A finished
// one-shot stays stopped until the next trigger.
func (e *Engine) Resume() {
	if e.done || e.running {
		return
	}
	e.hasLast = false
	e.running = true
	e.refresh()
}

// Pause freezes phase in place. The clock reference keeps following
// Advance calls while paused so resuming never applies the pause duration
// as a delta.
func (e *Engine) Pause() {
	e.running = false
	e.refresh()
}

func (e *Engine) restart() {
	if !e.running {
		e.hasLast = false
	}
	e.phase = e.params.startOffset()
	e.sinceTrigger = 0
	e.turns = 0
	e.running = true
	e.done = false
	e.refresh()
}

// Advance moves phase by the elapsed time since the previous call and
// returns the new sample. Timestamps are milliseconds on any monotonic
// scale; a stale or repeated timestamp yields a zero delta. Trigger and
// transport events must be applied before Advance within the same tick.
func (e *Engine) Advance(nowMs float64, t timing.Info) Result {
	if !e.running {
		e.lastMs, e.hasLast = nowMs, true
		return e.lastResult
	}
	var dt float64
	if e.hasLast && nowMs > e.lastMs {
		dt = nowMs - e.lastMs
	}
	e.lastMs, e.hasLast = nowMs, true

	var wrapped, stopped bool
	if !t.Frozen && dt > 0 {
		prog := dt / t.CycleMs
		if limit := e.params.cycleLimit(); e.sinceTrigger+prog >= limit {
			prog = limit - e.sinceTrigger
			if prog < 0 {
				prog = 0
			}
			stopped = true
		}
		delta := prog
		if e.params.Speed < 0 {
			delta = -prog
		}
		before := e.turns
		e.phase += delta
		e.wrapPhase()
		wrapped = e.turns != before
		e.sinceTrigger += prog
		if stopped {
			e.phase = e.stopPhase()
			e.running = false
			e.done = true
		}
	}

	res := Result{
		Phase:   e.phase,
		Output:  e.compute(),
		Running: e.running,
		Wrapped: wrapped,
		Stopped: stopped,
	}
	e.lastResult = res
	e.lastResult.Wrapped, e.lastResult.Stopped = false, false
	return res
}

// wrapPhase folds phase back into [0, 1), bookkeeping whole-cycle turns in
// either direction.
func (e *Engine) wrapPhase() {
	if e.phase >= 0 && e.phase < 1 {
		return
	}
	f := math.Floor(e.phase)
	e.turns += int64(f)
	e.phase -= f
	if e.phase >= 1 { // float rounding at the boundary
		e.phase = 0
		e.turns++
	}
}

// stopPhase is the exact phase a one-shot or half-cycle run ends on.
func (e *Engine) stopPhase() float64 {
	limit := e.params.cycleLimit()
	p := e.params.startOffset()
	if e.params.Speed < 0 {
		p -= limit
	} else {
		p += limit
	}
	p -= math.Floor(p)
	if p >= 1 {
		p = 0
	}
	return p
}

// Sample returns the depth-scaled waveform value at a phase, without fade
// or run state. Cycle plots use it to draw the steady-state shape.
func Sample(p Params, phase float64) float64 {
	return rawSample(p, phase, 0) * depthScale(p.Depth)
}

// compute samples the waveform at the current phase and applies depth and
// fade scaling.
func (e *Engine) compute() float64 {
	raw := rawSample(e.params, e.phase, e.turns)
	free := e.params.Mode == ModeFree
	return raw * depthScale(e.params.Depth) * fade.Multiplier(e.params.Fade, free, e.sinceTrigger)
}

// rawSample evaluates the waveform before depth and fade. turns carries
// the whole-cycle wrap count so Random holds fresh values every cycle.
func rawSample(p Params, phase float64, turns int64) float64 {
	if p.Shape == wave.Random {
		steps := phase * wave.StepsPerCycle
		idx := int64(steps)
		step := turns*wave.StepsPerCycle + idx
		return wave.HoldSlew(step, steps-float64(idx), p.StartPhase)
	}
	return wave.Sample(p.Shape, phase)
}

// depthScale maps depth to the signed scale factor, clamped to [-1, 1]
// because the negative domain reaches -64 while the positive tops out at
// 63.
func depthScale(depth int) float64 {
	scale := float64(depth) / 63
	if scale > 1 {
		return 1
	}
	if scale < -1 {
		return -1
	}
	return scale
}

// refresh recomputes the held result after a state mutation so queries
// between steps reflect the mutation immediately.
func (e *Engine) refresh() {
	e.lastResult = Result{Phase: e.phase, Output: e.compute(), Running: e.running}
}
