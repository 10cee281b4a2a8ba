package wtlfo

import (
	"errors"
	"sort"
	"sync"

	intclock "github.com/brentvatne/wtlfo-sub001/internal/clock"
)

// Bank groups oscillators on one shared tempo and transport source, like
// the per-track modulation slots of a hardware sequencer. Members stay
// fully independent otherwise: each owns its phase and may be updated in
// any order.
type Bank struct {
	mu   sync.Mutex
	clk  *intclock.Synchronizer
	lfos map[int]*LFO
}

// NewBank creates an empty bank. WithBPM and WithNow configure the shared
// clock; destination options belong on the members instead.
func NewBank(opts ...Option) (*Bank, error) {
	o := defaultLFOOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.bpm <= 0 {
		return nil, errors.New("bpm must be positive")
	}
	return &Bank{
		clk:  intclock.New(intclock.Options{BPM: o.bpm, Now: o.now}),
		lfos: make(map[int]*LFO),
	}, nil
}

// Add creates an oscillator on the shared clock and registers it under the
// given slot, replacing any previous occupant.
func (b *Bank) Add(slot int, cfg Config, opts ...Option) (*LFO, error) {
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, withSynchronizer(b.clk))
	l, err := New(cfg, all...)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.lfos[slot] = l
	b.mu.Unlock()
	return l, nil
}

// Get returns the oscillator registered under slot.
func (b *Bank) Get(slot int) (*LFO, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.lfos[slot]
	return l, ok
}

// Remove drops the oscillator registered under slot.
func (b *Bank) Remove(slot int) {
	b.mu.Lock()
	delete(b.lfos, slot)
	b.mu.Unlock()
}

// Slots returns the occupied slot numbers in ascending order.
func (b *Bank) Slots() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	slots := make([]int, 0, len(b.lfos))
	for s := range b.lfos {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}

// All returns the members in slot order.
func (b *Bank) All() []*LFO {
	b.mu.Lock()
	defer b.mu.Unlock()
	slots := make([]int, 0, len(b.lfos))
	for s := range b.lfos {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	out := make([]*LFO, 0, len(slots))
	for _, s := range slots {
		out = append(out, b.lfos[s])
	}
	return out
}

// Update advances every member to nowMs. Transport commands latched on the
// shared clock stay visible to all members, so the first to update does
// not starve the rest.
func (b *Bank) Update(nowMs float64) {
	for _, l := range b.All() {
		l.Update(nowMs)
	}
}

// SetBPM changes the shared internal tempo.
func (b *Bank) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return errors.New("bpm must be positive")
	}
	b.clk.SetBPM(bpm)
	return nil
}

// Start latches a transport start for every member; each applies it on its
// next update so the reset is never applied mid-step.
func (b *Bank) Start() { b.clk.TransportStart() }

// Continue latches a transport continue for every member.
func (b *Bank) Continue() { b.clk.TransportContinue() }

// Stop latches a transport stop for every member.
func (b *Bank) Stop() { b.clk.TransportStop() }

// Trigger fires a local trigger on every member; free-running members
// ignore it as usual.
func (b *Bank) Trigger() {
	for _, l := range b.All() {
		l.Trigger()
	}
}

// Clock reports the shared tempo source state.
func (b *Bank) Clock() ClockStatus {
	snap := b.clk.Snapshot()
	return ClockStatus{BPM: snap.BPM, External: snap.External, Lost: snap.Lost}
}

// AttachMIDI drives the shared clock from a MIDI input port; see
// LFO.AttachMIDI for driver requirements.
func (b *Bank) AttachMIDI(port string) (func(), error) {
	return intclock.ListenMIDI(port, b.clk)
}
