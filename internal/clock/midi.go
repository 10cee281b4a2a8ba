package clock

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// InPorts returns the names of the available MIDI input ports.
func InPorts() ([]string, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// ListenMIDI attaches the synchronizer to a MIDI input port, feeding clock
// ticks and transport messages as they arrive. The port is matched against
// the available inputs by name. The returned stop function releases the
// port and detaches the synchronizer.
//
// Callers must load a MIDI driver (usually a blank import of rtmididrv in
// the main package) and close it with midi.CloseDriver on shutdown.
func ListenMIDI(port string, s *Synchronizer) (func(), error) {
	in, err := midi.FindInPort(port)
	if err != nil {
		return nil, fmt.Errorf("midi input %q: %w", port, err)
	}
	s.Attach()
	// UseTimeCode keeps the driver from filtering the 0xF8 timing clock
	// bytes the tempo estimate runs on.
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		switch msg.Type() {
		case midi.TimingClockMsg:
			s.Tick()
		case midi.StartMsg:
			s.TransportStart()
		case midi.ContinueMsg:
			s.TransportContinue()
		case midi.StopMsg:
			s.TransportStop()
		}
	}, midi.UseTimeCode())
	if err != nil {
		s.Detach()
		return nil, fmt.Errorf("midi listen on %q: %w", port, err)
	}
	return func() {
		stop()
		s.Detach()
	}, nil
}
