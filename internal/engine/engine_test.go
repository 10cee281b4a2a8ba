package engine

import (
	"math"
	"testing"

	"github.com/brentvatne/wtlfo-sub001/internal/timing"
	"github.com/brentvatne/wtlfo-sub001/internal/wave"
)

// oneBar is a 2000ms cycle: |16|*8 == 128 at 120 BPM.
var oneBar = timing.Compute(16, 8, 120)

func TestFreeAdvance(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeFree, Speed: 16, Depth: 63})

	r := e.Advance(0, oneBar)
	if r.Phase != 0 || r.Output != 0 {
		t.Fatalf("first step: got phase %v output %v, want 0 0", r.Phase, r.Output)
	}

	tests := []struct {
		now         float64
		phase, want float64
	}{
		{500, 0.25, 1},
		{1000, 0.5, 0},
		{1500, 0.75, -1},
	}
	for _, tt := range tests {
		r = e.Advance(tt.now, oneBar)
		if r.Phase != tt.phase {
			t.Errorf("at %vms: phase %v, want %v", tt.now, r.Phase, tt.phase)
		}
		if r.Output != tt.want {
			t.Errorf("at %vms: output %v, want %v", tt.now, r.Output, tt.want)
		}
		if !r.Running {
			t.Errorf("at %vms: not running", tt.now)
		}
	}
}

func TestPhaseWrapInvariant(t *testing.T) {
	e := New(Params{Shape: wave.Sine, Mode: ModeFree, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)

	// Uneven steps summing to exactly two cycles.
	now := 0.0
	for _, dt := range []float64{137, 263, 400, 1200, 500, 700, 800} {
		now += dt
		r := e.Advance(now, oneBar)
		if r.Phase < 0 || r.Phase >= 1 {
			t.Fatalf("at %vms: phase %v outside [0, 1)", now, r.Phase)
		}
	}
	p := e.Phase()
	if dist := math.Min(p, 1-p); dist > 1e-9 {
		t.Errorf("after two whole cycles: phase %v, want 0 (mod 1)", p)
	}
}

func TestNegativeSpeedReverses(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeFree, Speed: -16, Depth: 63})
	e.Advance(0, oneBar)
	r := e.Advance(500, oneBar)
	if r.Phase != 0.75 {
		t.Errorf("phase: got %v, want 0.75", r.Phase)
	}
	if r.Output != -1 {
		t.Errorf("output: got %v, want -1", r.Output)
	}
}

func TestFrozenSpeedHoldsPhase(t *testing.T) {
	frozen := timing.Compute(0, 8, 120)
	e := New(Params{Shape: wave.Sine, Mode: ModeFree, Speed: 0, Depth: 63})
	e.Advance(0, frozen)
	r := e.Advance(5000, frozen)
	if r.Phase != 0 {
		t.Errorf("phase moved while frozen: %v", r.Phase)
	}
	if !r.Running {
		t.Error("frozen is not stopped: engine should stay running")
	}
	if math.IsNaN(r.Output) || math.IsInf(r.Output, 0) {
		t.Errorf("frozen output not finite: %v", r.Output)
	}
}

func TestStaleTimestampIgnored(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeFree, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	e.Advance(1000, oneBar)
	r := e.Advance(900, oneBar)
	if r.Phase != 0.5 {
		t.Errorf("stale timestamp moved phase: got %v, want 0.5", r.Phase)
	}
	r = e.Advance(1000, oneBar)
	if r.Phase != 0.5 {
		t.Errorf("repeated timestamp moved phase: got %v, want 0.5", r.Phase)
	}
}

func TestTriggerModeRestart(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeTrigger, Speed: 16, Depth: 63, StartPhase: 64})
	if e.Phase() != 0.5 {
		t.Fatalf("initial phase: got %v, want 0.5", e.Phase())
	}
	e.Advance(0, oneBar)
	e.Advance(500, oneBar)
	if e.Phase() != 0.75 {
		t.Fatalf("pre-trigger phase: got %v, want 0.75", e.Phase())
	}

	e.Trigger()
	if e.Phase() != 0.5 {
		t.Errorf("trigger did not restart: phase %v, want 0.5", e.Phase())
	}
	r := e.Advance(600, oneBar)
	if r.Phase != 0.55 {
		t.Errorf("post-trigger advance: got %v, want 0.55", r.Phase)
	}
}

func TestFreeModeIgnoresTrigger(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeFree, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	e.Advance(500, oneBar)
	e.Trigger()
	if e.Phase() != 0.25 {
		t.Errorf("trigger moved a free-running phase: %v", e.Phase())
	}
	if !e.Running() {
		t.Error("trigger stopped a free-running engine")
	}
}

func TestHoldModeToggles(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeHold, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	e.Advance(500, oneBar)

	e.Trigger()
	if e.Running() {
		t.Fatal("first trigger did not freeze")
	}
	r := e.Advance(1500, oneBar)
	if r.Phase != 0.25 || r.Output != 1 {
		t.Errorf("held: got phase %v output %v, want 0.25 1", r.Phase, r.Output)
	}

	// The second trigger resumes from the held phase without a jump.
	e.Trigger()
	if !e.Running() {
		t.Fatal("second trigger did not resume")
	}
	e.Advance(2000, oneBar)
	r = e.Advance(2100, oneBar)
	if r.Phase != 0.3 {
		t.Errorf("resumed phase: got %v, want 0.3", r.Phase)
	}
}

func TestOneShotStopsAfterOneCycle(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeOneShot, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	r := e.Advance(1999, oneBar)
	if !r.Running {
		t.Fatal("stopped before one full cycle")
	}

	r = e.Advance(2100, oneBar)
	if r.Running {
		t.Fatal("still running past one full cycle")
	}
	if !r.Stopped {
		t.Error("auto-stop step not flagged")
	}
	if r.Phase != 0 {
		t.Errorf("stop phase: got %v, want exactly 0", r.Phase)
	}

	// Frozen afterwards.
	r2 := e.Advance(3000, oneBar)
	if r2.Phase != r.Phase || r2.Output != r.Output || r2.Running {
		t.Error("stopped one-shot kept moving")
	}
}

func TestHalfCycleStopsAtHalf(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeHalf, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	r := e.Advance(999, oneBar)
	if !r.Running {
		t.Fatal("stopped before half a cycle")
	}
	r = e.Advance(1100, oneBar)
	if r.Running {
		t.Fatal("still running past half a cycle")
	}
	if r.Phase != 0.5 {
		t.Errorf("stop phase: got %v, want exactly 0.5", r.Phase)
	}
}

func TestOneShotRetrigger(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeOneShot, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	e.Advance(2100, oneBar)
	if e.Running() {
		t.Fatal("still running past one full cycle")
	}

	e.Trigger()
	if !e.Running() {
		t.Fatal("trigger did not restart a finished one-shot")
	}
	e.Advance(3000, oneBar)
	r := e.Advance(3500, oneBar)
	if r.Phase != 0.25 {
		t.Errorf("restarted phase: got %v, want 0.25", r.Phase)
	}
}

func TestOneShotResumeStaysStopped(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeOneShot, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	e.Advance(2100, oneBar)

	// Transport continue must not resurrect a finished one-shot.
	e.Resume()
	if e.Running() {
		t.Error("resume restarted a finished one-shot")
	}
}

func TestFadeInProgress(t *testing.T) {
	e := New(Params{Shape: wave.Square, Mode: ModeTrigger, Speed: 16, Depth: 63, Fade: -32})
	r := e.Advance(0, oneBar)
	if r.Output != 0 {
		t.Fatalf("at trigger origin: output %v, want 0", r.Output)
	}
	r = e.Advance(500, oneBar)
	if r.Output != 0.5 {
		t.Errorf("quarter cycle in: output %v, want 0.5", r.Output)
	}
	r = e.Advance(1000, oneBar)
	if r.Output != -1 {
		t.Errorf("fade complete: output %v, want -1", r.Output)
	}
}

func TestFadeSaturatesAcrossCycles(t *testing.T) {
	e := New(Params{Shape: wave.Square, Mode: ModeTrigger, Speed: 16, Depth: 63, Fade: -32})
	e.Advance(0, oneBar)
	// One jump of 2.25 cycles: the fade origin does not wrap with phase.
	r := e.Advance(4500, oneBar)
	if r.Phase != 0.25 {
		t.Fatalf("phase: got %v, want 0.25", r.Phase)
	}
	if r.Output != 1 {
		t.Errorf("output: got %v, want fully faded-in 1", r.Output)
	}
}

func TestFadeOutSilences(t *testing.T) {
	e := New(Params{Shape: wave.Square, Mode: ModeTrigger, Speed: 16, Depth: 63, Fade: 32})
	r := e.Advance(0, oneBar)
	if r.Output != 1 {
		t.Fatalf("at trigger origin: output %v, want 1", r.Output)
	}
	r = e.Advance(1500, oneBar)
	if r.Output != 0 {
		t.Errorf("past fade-out: output %v, want 0", r.Output)
	}
}

func TestRandomFreshValuesEachCycle(t *testing.T) {
	e := New(Params{Shape: wave.Random, Mode: ModeFree, Speed: 16, Depth: 63})
	r := e.Advance(0, oneBar)
	if r.Output != 0 {
		t.Fatalf("cycle 0 step 0: got %v, want 0", r.Output)
	}
	// Same step position one cycle later holds a different value.
	r = e.Advance(2100, oneBar)
	if r.Output != 0.6666666666666667 {
		t.Errorf("cycle 1 step 0: got %v, want 0.6666666666666667", r.Output)
	}
}

func TestRandomReversedWalksBack(t *testing.T) {
	e := New(Params{Shape: wave.Random, Mode: ModeFree, Speed: -16, Depth: 63})
	e.Advance(0, oneBar)
	// 100ms backwards lands in the last hold step of the previous cycle.
	r := e.Advance(100, oneBar)
	if r.Phase != 0.95 {
		t.Fatalf("phase: got %v, want 0.95", r.Phase)
	}
	if r.Output != 0.873015873015873 {
		t.Errorf("previous cycle step: got %v, want 0.873015873015873", r.Output)
	}
}

func TestRandomSlew(t *testing.T) {
	e := New(Params{Shape: wave.Random, Mode: ModeFree, Speed: 16, Depth: 63, StartPhase: 127})
	e.Advance(0, oneBar)
	r := e.Advance(875, oneBar) // phase 0.4375: step 3, halfway through
	want := wave.HoldSlew(3, 0.5, 127)
	if math.Abs(r.Output-want) > 1e-9 {
		t.Errorf("slewed output: got %v, want %v", r.Output, want)
	}
}

func TestDepthSignInversion(t *testing.T) {
	mk := func(depth int) *Engine {
		e := New(Params{Shape: wave.Sine, Mode: ModeFree, Speed: 16, Depth: depth})
		e.Advance(0, oneBar)
		e.Advance(500, oneBar)
		return e
	}
	pos, neg := mk(32), mk(-32)
	if pos.lastResult.Output != -neg.lastResult.Output {
		t.Errorf("depth 32 gave %v, depth -32 gave %v; want sign inversion",
			pos.lastResult.Output, neg.lastResult.Output)
	}

	// Depth -64 clamps to the same magnitude as full positive depth.
	full, over := mk(63), mk(-64)
	if full.lastResult.Output != -over.lastResult.Output {
		t.Errorf("depth 63 gave %v, depth -64 gave %v; want equal magnitude",
			full.lastResult.Output, over.lastResult.Output)
	}
}

func TestPauseResumeContinuity(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeFree, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	e.Advance(500, oneBar)

	e.Pause()
	r := e.Advance(1500, oneBar)
	if r.Phase != 0.25 || r.Running {
		t.Fatalf("paused: got phase %v running %v", r.Phase, r.Running)
	}

	e.Resume()
	e.Advance(2000, oneBar)
	r = e.Advance(2100, oneBar)
	if r.Phase != 0.3 {
		t.Errorf("resumed phase: got %v, want 0.3 (no jump)", r.Phase)
	}
}

func TestResetAndRun(t *testing.T) {
	// Free mode resumes without resetting phase.
	free := New(Params{Shape: wave.Triangle, Mode: ModeFree, Speed: 16, Depth: 63})
	free.Advance(0, oneBar)
	free.Advance(600, oneBar)
	free.Pause()
	free.ResetAndRun()
	if !free.Running() {
		t.Error("free: not running after transport start")
	}
	if free.Phase() != 0.3 {
		t.Errorf("free: transport start reset phase to %v, want 0.3", free.Phase())
	}

	// Trigger mode restarts from the start offset.
	trig := New(Params{Shape: wave.Triangle, Mode: ModeTrigger, Speed: 16, Depth: 63, StartPhase: 32})
	trig.Advance(0, oneBar)
	trig.Advance(1000, oneBar)
	trig.ResetAndRun()
	if trig.Phase() != 0.25 {
		t.Errorf("trigger: transport start left phase %v, want 0.25", trig.Phase())
	}
}

func TestSetParamsKeepsPhase(t *testing.T) {
	e := New(Params{Shape: wave.Triangle, Mode: ModeFree, Speed: 16, Depth: 63})
	e.Advance(0, oneBar)
	e.Advance(500, oneBar)

	p := e.Params()
	p.Shape = wave.Saw
	e.SetParams(p)
	if e.Phase() != 0.25 {
		t.Errorf("shape edit moved phase: %v", e.Phase())
	}
	r := e.Advance(500, oneBar)
	if r.Output != -0.5 {
		t.Errorf("saw output at 0.25: got %v, want -0.5", r.Output)
	}
}

func TestSampleStateless(t *testing.T) {
	p := Params{Shape: wave.Saw, Speed: 16, Depth: 63}
	if got := Sample(p, 0.25); got != -0.5 {
		t.Fatalf("Sample(saw, 0.25) = %v, want -0.5", got)
	}
	p.Depth = -63
	if got := Sample(p, 0.25); got != 0.5 {
		t.Fatalf("Sample(saw inverted, 0.25) = %v, want 0.5", got)
	}
	p.Depth = 0
	if got := Sample(p, 0.25); got != 0 {
		t.Fatalf("Sample(saw, zero depth) = %v, want 0", got)
	}
}

func BenchmarkAdvance(b *testing.B) {
	e := New(Params{Shape: wave.Sine, Mode: ModeFree, Speed: 16, Depth: 63})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Advance(float64(i)*16.7, oneBar)
	}
}
