package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/brentvatne/wtlfo-sub001"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	var (
		waveName   = flag.String("wave", "triangle", "waveform: triangle|sine|square|saw|exponential|ramp|random")
		modeName   = flag.String("mode", "free", "trigger mode: free|trigger|hold|oneshot|half")
		speed      = flag.Float64("speed", 16, "signed rate in [-64, 64); zero freezes phase")
		mult       = flag.Int("mult", 8, "rate multiplier, power of two in [1, 2048]")
		depth      = flag.Int("depth", 63, "modulation depth in [-64, 63]; negative inverts")
		fade       = flag.Int("fade", 0, "fade in [-64, 63]: negative fades in, positive fades out")
		start      = flag.Int("start", 0, "start phase in [0, 127] (slew amount for random)")
		fixed      = flag.Bool("fixed", false, "pin the rate reference to 120 BPM")
		bpm        = flag.Float64("bpm", 120, "tempo in beats per minute")
		cycles     = flag.Int("cycles", 2, "number of cycles to render")
		wavPath    = flag.String("wav", "", "write the output curve to a WAV file")
		rate       = flag.Int("rate", 48000, "sample rate for -wav")
		smfPath    = flag.String("smf", "", "write CC automation to a MIDI file")
		csvPath    = flag.String("csv", "", "write the frame dump to a CSV file")
		controller = flag.Int("cc", 74, "controller number for -smf")
		channel    = flag.Int("channel", 0, "MIDI channel for -smf")
		events     = flag.Int("events", 128, "samples per cycle for -smf and -csv")
		midiPort   = flag.String("midi", "", "follow MIDI clock from this input port")
		listPorts  = flag.Bool("list-midi", false, "list MIDI input ports and exit")
	)
	flag.Parse()
	defer midi.CloseDriver()

	if *listPorts {
		ports, err := wtlfo.MIDIInPorts()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	wf, err := wtlfo.ParseWaveform(*waveName)
	if err != nil {
		log.Fatal(err)
	}
	md, err := wtlfo.ParseMode(*modeName)
	if err != nil {
		log.Fatal(err)
	}
	cfg := wtlfo.Config{
		Waveform:   wf,
		Speed:      *speed,
		Multiplier: *mult,
		FixedRate:  *fixed,
		StartPhase: *start,
		Mode:       md,
		Depth:      *depth,
		Fade:       *fade,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	switch {
	case *wavPath != "":
		ti := wtlfo.TimingInfo(cfg.Speed, cfg.Multiplier, *bpm)
		if ti.Frozen {
			log.Fatal("speed 0 freezes phase; nothing to render")
		}
		seconds := ti.CycleMs * float64(*cycles) / 1000
		data, err := wtlfo.RenderWAV(cfg, *bpm, seconds, *rate)
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*wavPath, data, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s: %d cycles of %s (%.0f ms each) at %d Hz\n", *wavPath, *cycles, ti.NoteLabel, ti.CycleMs, *rate)
	case *smfPath != "":
		if *channel < 0 || *channel > 15 {
			log.Fatalf("invalid -channel %d (expected 0..15)", *channel)
		}
		if *controller < 0 || *controller > 127 {
			log.Fatalf("invalid -cc %d (expected 0..127)", *controller)
		}
		sm, err := wtlfo.ExportAutomation(cfg, *bpm, *cycles, *events, uint8(*channel), uint8(*controller))
		if err != nil {
			log.Fatal(err)
		}
		if err := sm.WriteFile(*smfPath); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s: CC %d on channel %d, %d cycles\n", *smfPath, *controller, *channel, *cycles)
	case *csvPath != "":
		if *events <= 0 {
			log.Fatalf("invalid -events %d (expected > 0)", *events)
		}
		ti := wtlfo.TimingInfo(cfg.Speed, cfg.Multiplier, *bpm)
		if ti.Frozen {
			log.Fatal("speed 0 freezes phase; nothing to render")
		}
		step := ti.CycleMs / float64(*events)
		frames, err := wtlfo.RenderRun(cfg, *bpm, ti.CycleMs*float64(*cycles), step)
		if err != nil {
			log.Fatal(err)
		}
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Fatal(err)
		}
		w := csv.NewWriter(f)
		w.Write([]string{"ms", "phase", "output", "value", "running"})
		for i, fr := range frames {
			w.Write([]string{
				strconv.FormatFloat(float64(i)*step, 'f', 3, 64),
				strconv.FormatFloat(fr.Phase, 'f', 6, 64),
				strconv.FormatFloat(fr.Output, 'f', 6, 64),
				strconv.FormatFloat(fr.Value, 'f', 6, 64),
				strconv.FormatBool(fr.Running),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			log.Fatal(err)
		}
		if err := f.Close(); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s: %d frames\n", *csvPath, len(frames))
	case *midiPort != "":
		monitor(cfg, *midiPort, *bpm)
	default:
		printTable(cfg, *bpm, *cycles)
	}
}

// printTable dumps one frame per sequencer step so a curve can be eyeballed
// without opening a WAV editor.
func printTable(cfg wtlfo.Config, bpm float64, cycles int) {
	ti := wtlfo.TimingInfo(cfg.Speed, cfg.Multiplier, bpm)
	if ti.Frozen {
		log.Fatal("speed 0 freezes phase; nothing to render")
	}
	step := ti.CycleMs / 16
	frames, err := wtlfo.RenderRun(cfg, bpm, ti.CycleMs*float64(cycles), step)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s at %.0f BPM: %.0f ms per cycle, %.0f steps\n", ti.NoteLabel, bpm, ti.CycleMs, ti.Steps)
	for i, f := range frames {
		mark := ""
		if !f.Running {
			mark = "  (stopped)"
		}
		fmt.Printf("%8.1f ms  phase %.3f  out %+.3f  value %7.2f%s\n", float64(i)*step, f.Phase, f.Output, f.Value, mark)
	}
}

// monitor follows an external MIDI clock and prints the oscillator state a
// few times a second until interrupted.
func monitor(cfg wtlfo.Config, port string, bpm float64) {
	l, err := wtlfo.New(cfg, wtlfo.WithBPM(bpm))
	if err != nil {
		log.Fatal(err)
	}
	stop, err := l.AttachMIDI(port)
	if err != nil {
		log.Fatal(err)
	}
	defer stop()
	fmt.Printf("following MIDI clock on %q; ctrl-c to quit\n", port)

	events := l.Watch()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	epoch := time.Now()
	for {
		select {
		case <-sig:
			return
		case ev := <-events:
			switch ev.Kind {
			case wtlfo.EventTriggered:
				fmt.Printf("triggered at phase %.3f\n", ev.Phase)
			case wtlfo.EventAutoStopped:
				fmt.Println("one-shot finished")
			case wtlfo.EventClockLost:
				fmt.Println("clock lost; holding last tempo")
			}
		case <-ticker.C:
			f := l.Update(float64(time.Since(epoch).Microseconds()) / 1000)
			cs := l.Clock()
			src := "internal"
			if cs.External {
				src = "external"
			}
			if cs.Lost {
				src = "lost"
			}
			fmt.Printf("%6.1f BPM (%s)  phase %.3f  value %7.2f\n", cs.BPM, src, f.Phase, f.Value)
		}
	}
}
