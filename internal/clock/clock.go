// Package clock bridges an external MIDI clock or an internal tempo into
// the BPM and transport signals the oscillator engine consumes.
package clock

import (
	"sync"
	"time"
)

// Signal is a latched transport command. Commands are last-write-wins
// between updates: the engine only cares about the current transport
// state, not the full event sequence.
type Signal int

const (
	SignalNone Signal = iota
	// SignalStart restarts the engine from its start offset.
	SignalStart
	// SignalContinue resumes without a phase reset.
	SignalContinue
	// SignalStop freezes phase in place.
	SignalStop
)

// ticksPerBeat is the MIDI clock rate: 24 pulses per quarter note.
const ticksPerBeat = 24

// intervalWindow is how many inter-tick gaps the tempo estimate averages
// over (one beat's worth), smoothing per-tick jitter.
const intervalWindow = 24

// lossTimeoutMs is how long the external clock may go silent before the
// synchronizer declares it lost and falls back.
const lossTimeoutMs = 2000

// Tempo estimates outside this range are treated as wire jitter and
// discarded rather than latched.
const (
	minBPM = 20
	maxBPM = 999
)

// Snapshot is the synchronizer state as read once per engine update.
// Signal stays latched; Seq increments on every new transport command, so
// any number of consumers can each apply a command exactly once by
// remembering the last Seq they acted on.
type Snapshot struct {
	BPM    float64
	Signal Signal
	Seq    uint64
	// External reports that a live external clock currently drives BPM.
	External bool
	// Lost reports an attached external clock that stopped ticking; BPM
	// holds the last-known estimate so the engine keeps a defined rate.
	Lost bool
}

// Options configure a Synchronizer.
type Options struct {
	// BPM is the internal tempo used when no external clock drives the
	// synchronizer. Defaults to 120.
	BPM float64
	// Now returns the current time in milliseconds on a monotonic scale.
	// Defaults to the wall clock.
	Now func() float64
}

// Synchronizer derives a stable tempo from external clock ticks and
// latches transport commands for the engine to consume. Tick and transport
// callbacks arrive from a MIDI driver goroutine, so all state is guarded.
type Synchronizer struct {
	mu  sync.Mutex
	now func() float64

	internalBPM float64
	attached    bool
	estimate    float64 // latched external tempo; 0 means none yet
	intervals   []float64
	lastTickMs  float64
	hasTick     bool
	signal      Signal
	seq         uint64
}

// New returns a synchronizer running on its internal tempo.
func New(opts Options) *Synchronizer {
	if opts.BPM <= 0 {
		opts.BPM = 120
	}
	if opts.Now == nil {
		start := time.Now()
		opts.Now = func() float64 {
			return float64(time.Since(start)) / float64(time.Millisecond)
		}
	}
	return &Synchronizer{now: opts.Now, internalBPM: opts.BPM}
}

// SetBPM changes the internal tempo. It has no effect while an external
// clock is driving.
func (s *Synchronizer) SetBPM(bpm float64) {
	if bpm <= 0 {
		return
	}
	s.mu.Lock()
	s.internalBPM = bpm
	s.mu.Unlock()
}

// Attach marks an external clock source as present, starting from a clean
// tick history.
func (s *Synchronizer) Attach() {
	s.mu.Lock()
	s.attached = true
	s.estimate = 0
	s.intervals = s.intervals[:0]
	s.hasTick = false
	s.mu.Unlock()
}

// Detach drops the external clock source entirely. Unlike clock loss, a
// deliberate detach also forgets the latched tempo estimate.
func (s *Synchronizer) Detach() {
	s.mu.Lock()
	s.attached = false
	s.estimate = 0
	s.intervals = s.intervals[:0]
	s.hasTick = false
	s.mu.Unlock()
}

// Tick records one external clock pulse at 24 PPQN and refreshes the tempo
// estimate from the moving mean of inter-tick gaps.
func (s *Synchronizer) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.attached = true
	if s.hasTick {
		if gap := now - s.lastTickMs; gap > 0 {
			if len(s.intervals) == intervalWindow {
				copy(s.intervals, s.intervals[1:])
				s.intervals[intervalWindow-1] = gap
			} else {
				s.intervals = append(s.intervals, gap)
			}
			var sum float64
			for _, g := range s.intervals {
				sum += g
			}
			mean := sum / float64(len(s.intervals))
			if bpm := 60000 / (mean * ticksPerBeat); bpm >= minBPM && bpm <= maxBPM {
				s.estimate = bpm
			}
		}
	}
	s.lastTickMs, s.hasTick = now, true
}

// TransportStart latches a transport start.
func (s *Synchronizer) TransportStart() { s.setSignal(SignalStart) }

// TransportContinue latches a transport continue.
func (s *Synchronizer) TransportContinue() { s.setSignal(SignalContinue) }

// TransportStop latches a transport stop.
func (s *Synchronizer) TransportStop() { s.setSignal(SignalStop) }

func (s *Synchronizer) setSignal(sig Signal) {
	s.mu.Lock()
	s.signal = sig
	s.seq++
	s.mu.Unlock()
}

// Snapshot returns the current state. Transport commands are not cleared:
// consumers compare Seq against the last value they applied.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{BPM: s.internalBPM, Signal: s.signal, Seq: s.seq}
	if !s.attached {
		return snap
	}
	if s.hasTick && s.now()-s.lastTickMs > lossTimeoutMs {
		snap.Lost = true
		if s.estimate > 0 {
			snap.BPM = s.estimate
		}
		return snap
	}
	if s.estimate > 0 {
		snap.External = true
		snap.BPM = s.estimate
	}
	return snap
}
