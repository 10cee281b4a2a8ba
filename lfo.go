package wtlfo

import (
	"errors"
	"fmt"
	"math"
	"sync"

	intclock "github.com/brentvatne/wtlfo-sub001/internal/clock"
	intengine "github.com/brentvatne/wtlfo-sub001/internal/engine"
	intmodmap "github.com/brentvatne/wtlfo-sub001/internal/modmap"
	inttiming "github.com/brentvatne/wtlfo-sub001/internal/timing"
	intwave "github.com/brentvatne/wtlfo-sub001/internal/wave"
)

// Event carries oscillator edges from Watch().
type Event struct {
	Kind  int // EventTriggered, EventCycleCompleted, EventAutoStopped, or EventClockLost
	Phase float64
}

const (
	EventTriggered int = iota
	EventCycleCompleted
	EventAutoStopped
	EventClockLost
)

// Waveform selects the oscillator shape. Exponential and Ramp are unipolar
// (samples in [0,1]); all others are bipolar (samples in [-1,1]).
type Waveform int

const (
	WaveformTriangle Waveform = iota
	WaveformSine
	WaveformSquare
	WaveformSaw
	WaveformExponential
	WaveformRamp
	WaveformRandom
)

var waveformNames = [...]string{"triangle", "sine", "square", "saw", "exponential", "ramp", "random"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// Unipolar reports whether the waveform's raw samples stay in [0,1]; the
// final sign still comes from the depth setting.
func (w Waveform) Unipolar() bool {
	return intwave.Unipolar(intwave.Shape(w))
}

func ParseWaveform(s string) (Waveform, error) {
	for i, name := range waveformNames {
		if s == name {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("invalid waveform %q (expected triangle, sine, square, saw, exponential, ramp, or random)", s)
}

// Mode selects the trigger-response policy.
type Mode int

const (
	ModeFree Mode = iota
	ModeTrigger
	ModeHold
	ModeOneShot
	ModeHalfCycle
)

var modeNames = [...]string{"free", "trigger", "hold", "oneshot", "half"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("invalid mode %q (expected free, trigger, hold, oneshot, or half)", s)
}

// Config is the full oscillator parameter set, replaced wholesale on edit.
type Config struct {
	Waveform Waveform
	// Speed is the signed rate in [-64, 64). The sign reverses phase
	// direction; zero freezes phase.
	Speed float64
	// Multiplier is a power of two in {1, 2, 4, ..., 2048}. The product
	// |Speed|*Multiplier sets the cycle length: 128 is one bar.
	Multiplier int
	// FixedRate pins the tempo reference to 120 BPM instead of following
	// the ambient tempo.
	FixedRate bool
	// StartPhase in [0, 127] is the phase offset a trigger resets to,
	// mapped to StartPhase/128. The Random waveform reinterprets this slot
	// as the slew amount between hold steps.
	StartPhase int
	Mode       Mode
	// Depth in [-64, 63] scales the output by |Depth|/63; negative values
	// invert the waveform.
	Depth int
	// Fade in [-64, 63]: negative fades in after a trigger, positive fades
	// out, zero disables. Inert in free mode.
	Fade int
}

// DefaultConfig is a free-running triangle at one bar per cycle, full depth.
func DefaultConfig() Config {
	return Config{
		Waveform:   WaveformTriangle,
		Speed:      16,
		Multiplier: 8,
		Mode:       ModeFree,
		Depth:      63,
	}
}

// Validate checks every field against its domain. Out-of-domain values are
// rejected, never clamped, so authoring mistakes in presets surface
// immediately.
func (c Config) Validate() error {
	if c.Waveform < WaveformTriangle || c.Waveform > WaveformRandom {
		return fmt.Errorf("invalid waveform %d", int(c.Waveform))
	}
	if math.IsNaN(c.Speed) || c.Speed < -64 || c.Speed >= 64 {
		return fmt.Errorf("speed %v outside [-64, 64)", c.Speed)
	}
	if c.Multiplier < 1 || c.Multiplier > 2048 || c.Multiplier&(c.Multiplier-1) != 0 {
		return fmt.Errorf("multiplier %d not a power of two in [1, 2048]", c.Multiplier)
	}
	if c.StartPhase < 0 || c.StartPhase > 127 {
		return fmt.Errorf("start phase %d outside [0, 127]", c.StartPhase)
	}
	if c.Mode < ModeFree || c.Mode > ModeHalfCycle {
		return fmt.Errorf("invalid mode %d", int(c.Mode))
	}
	if c.Depth < -64 || c.Depth > 63 {
		return fmt.Errorf("depth %d outside [-64, 63]", c.Depth)
	}
	if c.Fade < -64 || c.Fade > 63 {
		return fmt.Errorf("fade %d outside [-64, 63]", c.Fade)
	}
	return nil
}

// Destination describes the modulated target parameter: a bounded numeric
// range plus whether its rest point sits mid-range (pan, tune) or at the
// bottom (cutoff, level).
type Destination struct {
	Min     float64
	Max     float64
	Bipolar bool
}

func (d Destination) validate() error {
	if !(d.Max > d.Min) {
		return fmt.Errorf("destination range [%v, %v] is empty", d.Min, d.Max)
	}
	return nil
}

// Frame is one oscillator step: normalized phase, the depth- and
// fade-scaled output in [-1, 1], and that output mapped onto the
// destination range.
type Frame struct {
	Phase   float64
	Output  float64
	Value   float64
	Running bool
}

// Timing describes the musical length of one cycle at some tempo.
type Timing struct {
	CycleMs   float64 // +Inf when frozen
	Steps     float64 // length in 16th-note sequencer steps
	NoteLabel string  // nearest subdivision, display only
	Frozen    bool
}

// ClockStatus reports the tempo source feeding the oscillator.
type ClockStatus struct {
	BPM      float64
	External bool // a live external clock drives the tempo
	Lost     bool // external clock went silent; tempo holds the last estimate
}

// fixedRateBPM is the pinned tempo reference used when Config.FixedRate is
// set.
const fixedRateBPM = 120

type Option func(*lfoOptions)

type lfoOptions struct {
	bpm       float64
	now       func() float64
	dest      Destination
	center    float64
	centerSet bool
	clk       *intclock.Synchronizer
}

func defaultLFOOptions() lfoOptions {
	return lfoOptions{bpm: 120, dest: Destination{Min: 0, Max: 127}}
}

func WithBPM(bpm float64) Option {
	return func(o *lfoOptions) {
		o.bpm = bpm
	}
}

// WithNow installs the millisecond timestamp source used for tempo
// estimation and clock-loss detection. Defaults to the wall clock.
func WithNow(now func() float64) Option {
	return func(o *lfoOptions) {
		o.now = now
	}
}

func WithDestination(d Destination) Option {
	return func(o *lfoOptions) {
		o.dest = d
	}
}

func WithCenter(v float64) Option {
	return func(o *lfoOptions) {
		o.center = v
		o.centerSet = true
	}
}

// withSynchronizer shares one tempo source between oscillators (see Bank).
func withSynchronizer(clk *intclock.Synchronizer) Option {
	return func(o *lfoOptions) {
		o.clk = clk
	}
}

// LFO is a tempo-synced modulation source: it advances a normalized phase
// through a waveform at a musical rate and maps the result onto a bounded
// destination value. All methods are safe for concurrent use; the update
// path itself is synchronous and non-blocking.
type LFO struct {
	mu        sync.Mutex
	cfg       Config
	eng       *intengine.Engine
	clk       *intclock.Synchronizer
	sigSeq    uint64 // last transport command applied from the synchronizer
	dest      Destination
	center    float64
	lost      bool
	last      Frame
	eventCh   chan Event
	eventChMu sync.Mutex
}

func New(cfg Config, opts ...Option) (*LFO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := defaultLFOOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.bpm <= 0 {
		return nil, errors.New("bpm must be positive")
	}
	if err := o.dest.validate(); err != nil {
		return nil, err
	}
	center := o.center
	if !o.centerSet {
		center = (o.dest.Min + o.dest.Max) / 2
	}
	if center < o.dest.Min || center > o.dest.Max {
		return nil, fmt.Errorf("center %v outside destination range [%v, %v]", center, o.dest.Min, o.dest.Max)
	}
	clk := o.clk
	if clk == nil {
		clk = intclock.New(intclock.Options{BPM: o.bpm, Now: o.now})
	}
	l := &LFO{
		cfg:    cfg,
		eng:    intengine.New(engineParams(cfg)),
		clk:    clk,
		sigSeq: clk.Snapshot().Seq, // transport history predating us is not ours to apply
		dest:   o.dest,
		center: center,
	}
	l.last = l.frame(l.eng.Last())
	return l, nil
}

// Update advances the oscillator to nowMs (milliseconds on any monotonic
// scale) and returns the new frame. Pending transport signals are consumed
// first, so a start arriving in the same tick never applies its time delta
// to the pre-reset phase. Call rate does not matter: movement follows
// elapsed time, and stale or repeated timestamps leave phase unchanged.
func (l *LFO) Update(nowMs float64) Frame {
	l.mu.Lock()
	snap := l.clk.Snapshot()
	started := false
	if snap.Seq != l.sigSeq {
		l.sigSeq = snap.Seq
		switch snap.Signal {
		case intclock.SignalStart:
			l.eng.ResetAndRun()
			started = true
		case intclock.SignalContinue:
			l.eng.Resume()
		case intclock.SignalStop:
			l.eng.Pause()
		}
	}
	clockLost := snap.Lost && !l.lost
	l.lost = snap.Lost
	ti := inttiming.Compute(l.cfg.Speed, l.cfg.Multiplier, l.effectiveBPM(snap))
	res := l.eng.Advance(nowMs, ti)
	f := l.frame(res)
	l.last = f
	l.mu.Unlock()

	if started {
		l.sendEvent(Event{Kind: EventTriggered, Phase: f.Phase})
	}
	if clockLost {
		l.sendEvent(Event{Kind: EventClockLost, Phase: f.Phase})
	}
	if res.Wrapped {
		l.sendEvent(Event{Kind: EventCycleCompleted, Phase: f.Phase})
	}
	if res.Stopped {
		l.sendEvent(Event{Kind: EventAutoStopped, Phase: f.Phase})
	}
	return f
}

// Trigger fires a local trigger: ignored in free mode, toggles the freeze
// in hold mode, restarts phase and the fade origin otherwise.
func (l *LFO) Trigger() {
	l.mu.Lock()
	l.eng.Trigger()
	f := l.frame(l.eng.Last())
	l.last = f
	fired := l.cfg.Mode != ModeFree
	l.mu.Unlock()
	if fired {
		l.sendEvent(Event{Kind: EventTriggered, Phase: f.Phase})
	}
}

// Start mirrors a transport start: phase restarts from the start offset in
// every mode except free, which resumes without a reset.
func (l *LFO) Start() {
	l.mu.Lock()
	l.eng.ResetAndRun()
	f := l.frame(l.eng.Last())
	l.last = f
	l.mu.Unlock()
	l.sendEvent(Event{Kind: EventTriggered, Phase: f.Phase})
}

// Continue resumes phase advancement from the held phase.
func (l *LFO) Continue() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eng.Resume()
	l.last = l.frame(l.eng.Last())
}

// Stop freezes phase in place; Continue or Start resumes it.
func (l *LFO) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eng.Pause()
	l.last = l.frame(l.eng.Last())
}

// SetConfig replaces the parameter set. Phase and run state carry over so
// live edits stay continuous.
func (l *LFO) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
	l.eng.SetParams(engineParams(cfg))
	l.last = l.frame(l.eng.Last())
	return nil
}

func (l *LFO) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// SetBPM changes the internal tempo. An attached external clock overrides
// it while ticking.
func (l *LFO) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return errors.New("bpm must be positive")
	}
	l.clk.SetBPM(bpm)
	return nil
}

// SetCenter moves the modulation center within the destination range.
func (l *LFO) SetCenter(v float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v < l.dest.Min || v > l.dest.Max {
		return fmt.Errorf("center %v outside destination range [%v, %v]", v, l.dest.Min, l.dest.Max)
	}
	l.center = v
	l.last = l.frame(l.eng.Last())
	return nil
}

func (l *LFO) Center() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.center
}

// SetDestination retargets the oscillator. The center is left where it is;
// mapped values clamp to the new range either way.
func (l *LFO) SetDestination(d Destination) error {
	if err := d.validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dest = d
	l.last = l.frame(l.eng.Last())
	return nil
}

func (l *LFO) Destination() Destination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dest
}

// Bounds returns the lower/upper destination values the current settings
// can reach, for range indicators. It uses the same swing math as Update,
// so the two never disagree.
func (l *LFO) Bounds() (lower, upper float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return intmodmap.Bounds(l.cfg.Depth, l.center, l.destRange(), l.cfg.Waveform.Unipolar())
}

// Timing reports the cycle length of the current settings at the effective
// tempo.
func (l *LFO) Timing() Timing {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := l.clk.Snapshot()
	return timingFrom(inttiming.Compute(l.cfg.Speed, l.cfg.Multiplier, l.effectiveBPM(snap)))
}

// Clock reports the tempo source state.
func (l *LFO) Clock() ClockStatus {
	snap := l.clk.Snapshot()
	return ClockStatus{BPM: snap.BPM, External: snap.External, Lost: snap.Lost}
}

// AttachMIDI drives tempo and transport from a MIDI input port carrying
// 24-PPQN clock ticks and start/continue/stop messages. The returned stop
// function releases the port. The process must load a MIDI driver first
// (blank-import rtmididrv in main) and close it with midi.CloseDriver on
// shutdown. If the clock goes silent the oscillator keeps running on the
// last-known tempo and an EventClockLost is emitted.
func (l *LFO) AttachMIDI(port string) (func(), error) {
	return intclock.ListenMIDI(port, l.clk)
}

// MIDIInPorts lists the MIDI input ports available to AttachMIDI.
func MIDIInPorts() ([]string, error) {
	return intclock.InPorts()
}

// Current returns the last computed frame without advancing.
func (l *LFO) Current() Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// TimingInfo computes cycle timing for a rate setting at a tempo,
// independent of any oscillator instance.
func TimingInfo(speed float64, multiplier int, bpm float64) Timing {
	return timingFrom(inttiming.Compute(speed, multiplier, bpm))
}

// Watch returns a channel that receives oscillator events:
//   - EventTriggered: a trigger or transport start restarted the cycle
//   - EventCycleCompleted: phase wrapped a whole cycle
//   - EventAutoStopped: a one-shot or half-cycle run finished
//   - EventClockLost: the external clock went silent and tempo fell back
//
// The channel is buffered (cap 8); receive promptly or events are dropped.
// Only the most recent Watch() channel receives events.
func (l *LFO) Watch() <-chan Event {
	ch := make(chan Event, 8)
	l.eventChMu.Lock()
	l.eventCh = ch
	l.eventChMu.Unlock()
	return ch
}

func (l *LFO) sendEvent(ev Event) {
	l.eventChMu.Lock()
	ch := l.eventCh
	l.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

func (l *LFO) effectiveBPM(snap intclock.Snapshot) float64 {
	if l.cfg.FixedRate {
		return fixedRateBPM
	}
	return snap.BPM
}

func (l *LFO) destRange() intmodmap.Range {
	return intmodmap.Range{Min: l.dest.Min, Max: l.dest.Max, Bipolar: l.dest.Bipolar}
}

func (l *LFO) frame(res intengine.Result) Frame {
	return Frame{
		Phase:   res.Phase,
		Output:  res.Output,
		Value:   intmodmap.Value(res.Output, l.center, l.destRange()),
		Running: res.Running,
	}
}

func engineParams(cfg Config) intengine.Params {
	return intengine.Params{
		Shape:      intwave.Shape(cfg.Waveform),
		Mode:       intengine.Mode(cfg.Mode),
		Speed:      cfg.Speed,
		Depth:      cfg.Depth,
		Fade:       cfg.Fade,
		StartPhase: cfg.StartPhase,
	}
}

func timingFrom(t inttiming.Info) Timing {
	return Timing{CycleMs: t.CycleMs, Steps: t.Steps, NoteLabel: t.NoteLabel, Frozen: t.Frozen}
}
