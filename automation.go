package wtlfo

import (
	"errors"
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// automationPPQ is the tick resolution of exported automation files.
const automationPPQ = 960

// ExportAutomation renders the oscillator's value curve as control-change
// automation in a Standard MIDI File: a tempo track at bpm plus one CC
// lane spanning the given number of cycles, sampled eventsPerCycle times
// per cycle. Repeated values are deduplicated, so a square wave exports
// two events per cycle regardless of the sample density. Values round to
// the nearest integer and clamp to the CC domain [0, 127].
func ExportAutomation(cfg Config, bpm float64, cycles, eventsPerCycle int, channel, controller uint8, opts ...Option) (*smf.SMF, error) {
	if cycles <= 0 {
		return nil, errors.New("cycles must be positive")
	}
	if eventsPerCycle <= 0 {
		return nil, errors.New("eventsPerCycle must be positive")
	}
	if channel > 15 {
		return nil, fmt.Errorf("midi channel %d outside [0, 15]", channel)
	}
	if controller > 127 {
		return nil, fmt.Errorf("controller %d outside [0, 127]", controller)
	}
	all := append(append([]Option(nil), opts...), WithBPM(bpm))
	l, err := New(cfg, all...)
	if err != nil {
		return nil, err
	}
	ti := l.Timing()
	if ti.Frozen {
		return nil, errors.New("cycle length is not finite at speed 0")
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(automationPPQ)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(bpm))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return nil, fmt.Errorf("adding tempo track: %w", err)
	}

	// One cycle spans Steps sixteenths, i.e. Steps/4 quarter notes.
	ticksPerCycle := ti.Steps / 4 * automationPPQ
	stepMs := ti.CycleMs / float64(eventsPerCycle)
	n := cycles * eventsPerCycle

	var lane smf.Track
	prevTick := uint32(0)
	havePrev := false
	var prevVal uint8
	for i := 0; i <= n; i++ {
		f := l.Update(float64(i) * stepMs)
		v := ccValue(f.Value)
		if havePrev && v == prevVal {
			continue
		}
		tick := uint32(math.Round(float64(i) * ticksPerCycle / float64(eventsPerCycle)))
		lane.Add(tick-prevTick, midi.ControlChange(channel, controller, v))
		prevTick = tick
		prevVal, havePrev = v, true
	}
	end := uint32(math.Round(ticksPerCycle * float64(cycles)))
	lane.Close(end - prevTick)
	if err := sm.Add(lane); err != nil {
		return nil, fmt.Errorf("adding automation track: %w", err)
	}
	return sm, nil
}

func ccValue(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 127 {
		return 127
	}
	return uint8(r)
}
