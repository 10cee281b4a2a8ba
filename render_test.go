package wtlfo

import (
	"encoding/binary"
	"math"
	"testing"
)

func wavSample(t *testing.T, buf []byte, i int) float32 {
	t.Helper()
	off := 44 + i*4
	if off+4 > len(buf) {
		t.Fatalf("sample %d past end of %d-byte file", i, len(buf))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

func TestRenderCycleTriangle(t *testing.T) {
	out, err := RenderCycle(DefaultConfig(), 4)
	if err != nil {
		t.Fatalf("RenderCycle: %v", err)
	}
	want := []float64{0, 1, 0, -1}
	for i, w := range want {
		if out[i] != w {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestRenderCycleDepth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Depth = -63
	out, err := RenderCycle(cfg, 4)
	if err != nil {
		t.Fatalf("RenderCycle: %v", err)
	}
	want := []float64{0, -1, 0, 1}
	for i, w := range want {
		if out[i] != w {
			t.Fatalf("inverted out[%d] = %v, want %v", i, out[i], w)
		}
	}

	cfg.Depth = 0
	out, err = RenderCycle(cfg, 4)
	if err != nil {
		t.Fatalf("RenderCycle: %v", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("zero depth out[%d] = %v, want 0", i, v)
		}
	}
}

func TestRenderCycleUnipolarShapes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Waveform = WaveformRamp
	out, err := RenderCycle(cfg, 4)
	if err != nil {
		t.Fatalf("RenderCycle: %v", err)
	}
	want := []float64{1, 0.75, 0.5, 0.25}
	for i, w := range want {
		if out[i] != w {
			t.Fatalf("ramp out[%d] = %v, want %v", i, out[i], w)
		}
	}

	cfg.Waveform = WaveformExponential
	out, err = RenderCycle(cfg, 64)
	if err != nil {
		t.Fatalf("RenderCycle: %v", err)
	}
	for i, v := range out {
		if v < 0 || v > 1 {
			t.Fatalf("exponential out[%d] = %v outside [0, 1]", i, v)
		}
	}
}

func TestRenderCycleRandomHolds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Waveform = WaveformRandom
	out, err := RenderCycle(cfg, 16)
	if err != nil {
		t.Fatalf("RenderCycle: %v", err)
	}
	// Two samples per hold step: flat within, stepping between.
	for i := 0; i < 16; i += 2 {
		if out[i] != out[i+1] {
			t.Fatalf("step %d not held: %v vs %v", i/2, out[i], out[i+1])
		}
	}
	if out[0] == out[2] {
		t.Fatalf("adjacent steps both %v, want distinct values", out[0])
	}
}

func TestRenderCycleRejects(t *testing.T) {
	if _, err := RenderCycle(DefaultConfig(), 0); err == nil {
		t.Fatal("expected error for n = 0")
	}
	cfg := DefaultConfig()
	cfg.Depth = 99
	if _, err := RenderCycle(cfg, 8); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestRenderRunTriangleDefaults(t *testing.T) {
	// One bar at 120 BPM is 2000 ms, stepped quarter-cycle at a time.
	frames, err := RenderRun(DefaultConfig(), 120, 2000, 500)
	if err != nil {
		t.Fatalf("RenderRun: %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("len(frames) = %d, want 5", len(frames))
	}
	phases := []float64{0, 0.25, 0.5, 0.75, 0}
	values := []float64{63.5, 127, 63.5, 0, 63.5}
	for i := range frames {
		if frames[i].Phase != phases[i] {
			t.Fatalf("frames[%d].Phase = %v, want %v", i, frames[i].Phase, phases[i])
		}
		if frames[i].Value != values[i] {
			t.Fatalf("frames[%d].Value = %v, want %v", i, frames[i].Value, values[i])
		}
		if !frames[i].Running {
			t.Fatalf("frames[%d] not running", i)
		}
	}
}

func TestRenderRunOneShotStops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeOneShot
	frames, err := RenderRun(cfg, 120, 3000, 500)
	if err != nil {
		t.Fatalf("RenderRun: %v", err)
	}
	if len(frames) != 7 {
		t.Fatalf("len(frames) = %d, want 7", len(frames))
	}
	if !frames[3].Running {
		t.Fatal("frames[3] should still be running")
	}
	for i := 4; i < 7; i++ {
		if frames[i].Running {
			t.Fatalf("frames[%d] still running after one full cycle", i)
		}
		if frames[i].Phase != 0 {
			t.Fatalf("frames[%d].Phase = %v, want 0 after auto-stop", i, frames[i].Phase)
		}
	}
}

func TestRenderRunRejects(t *testing.T) {
	if _, err := RenderRun(DefaultConfig(), 120, 0, 10); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if _, err := RenderRun(DefaultConfig(), 120, 1000, 0); err == nil {
		t.Fatal("expected error for zero step")
	}
	if _, err := RenderRun(DefaultConfig(), -1, 1000, 10); err == nil {
		t.Fatal("expected error for negative bpm")
	}
	cfg := DefaultConfig()
	cfg.Multiplier = 3
	if _, err := RenderRun(cfg, 120, 1000, 10); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestRenderTriggersRestart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeTrigger
	frames, err := RenderTriggers(cfg, 120, 1000, 250, 600)
	if err != nil {
		t.Fatalf("RenderTriggers: %v", err)
	}
	want := []float64{0, 0.125, 0.25, 0.125, 0.25}
	if len(frames) != len(want) {
		t.Fatalf("len(frames) = %d, want %d", len(frames), len(want))
	}
	for i, w := range want {
		if frames[i].Phase != w {
			t.Fatalf("frames[%d].Phase = %v, want %v", i, frames[i].Phase, w)
		}
	}
}

func TestRenderTriggersFadeReorigin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeTrigger
	cfg.Fade = -32
	frames, err := RenderTriggers(cfg, 120, 1000, 250, 600)
	if err != nil {
		t.Fatalf("RenderTriggers: %v", err)
	}
	// Fade-in over half a cycle: half done by 500 ms.
	if got := frames[2].Output; got != 0.5 {
		t.Fatalf("frames[2].Output = %v, want 0.5", got)
	}
	// The 600 ms trigger restarts the fade origin, pulling output back down.
	if got := frames[3].Output; got != 0.125 {
		t.Fatalf("frames[3].Output after retrigger = %v, want 0.125", got)
	}
}

func TestRenderValues(t *testing.T) {
	values, err := RenderValues(DefaultConfig(), 120, 2000, 500)
	if err != nil {
		t.Fatalf("RenderValues: %v", err)
	}
	want := []float64{63.5, 127, 63.5, 0, 63.5}
	if len(values) != len(want) {
		t.Fatalf("len(values) = %d, want %d", len(values), len(want))
	}
	for i, w := range want {
		if values[i] != w {
			t.Fatalf("values[%d] = %v, want %v", i, values[i], w)
		}
	}
}

func TestRenderWAVHeader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Waveform = WaveformSquare
	buf, err := RenderWAV(cfg, 120, 0.1, 1000)
	if err != nil {
		t.Fatalf("RenderWAV: %v", err)
	}
	if len(buf) != 444 {
		t.Fatalf("len(buf) = %d, want 444", len(buf))
	}
	if string(buf[0:4]) != "RIFF" || string(buf[8:12]) != "WAVE" {
		t.Fatalf("bad RIFF magic: %q %q", buf[0:4], buf[8:12])
	}
	if got := binary.LittleEndian.Uint32(buf[4:8]); got != 436 {
		t.Fatalf("chunk size = %d, want 436", got)
	}
	if got := binary.LittleEndian.Uint16(buf[20:22]); got != 3 {
		t.Fatalf("format tag = %d, want 3 (IEEE float)", got)
	}
	if got := binary.LittleEndian.Uint16(buf[22:24]); got != 1 {
		t.Fatalf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(buf[24:28]); got != 1000 {
		t.Fatalf("sample rate = %d, want 1000", got)
	}
	if got := binary.LittleEndian.Uint32(buf[28:32]); got != 4000 {
		t.Fatalf("byte rate = %d, want 4000", got)
	}
	if got := binary.LittleEndian.Uint16(buf[32:34]); got != 4 {
		t.Fatalf("block align = %d, want 4", got)
	}
	if got := binary.LittleEndian.Uint16(buf[34:36]); got != 32 {
		t.Fatalf("bits per sample = %d, want 32", got)
	}
	if got := binary.LittleEndian.Uint32(buf[40:44]); got != 400 {
		t.Fatalf("data size = %d, want 400", got)
	}
}

func TestRenderWAVSquareSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Waveform = WaveformSquare
	// One cycle is 2000 ms at 120 BPM; at 1000 Hz the square flips near
	// sample 1000.
	buf, err := RenderWAV(cfg, 120, 1.8, 1000)
	if err != nil {
		t.Fatalf("RenderWAV: %v", err)
	}
	if got := wavSample(t, buf, 0); got != 1 {
		t.Fatalf("sample 0 = %v, want 1", got)
	}
	if got := wavSample(t, buf, 900); got != 1 {
		t.Fatalf("sample 900 = %v, want 1", got)
	}
	if got := wavSample(t, buf, 1100); got != -1 {
		t.Fatalf("sample 1100 = %v, want -1", got)
	}
	if got := wavSample(t, buf, 1799); got != -1 {
		t.Fatalf("sample 1799 = %v, want -1", got)
	}
}

func TestRenderWAVRejects(t *testing.T) {
	if _, err := RenderWAV(DefaultConfig(), 120, 0, 1000); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if _, err := RenderWAV(DefaultConfig(), 120, 1, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	cfg := DefaultConfig()
	cfg.Fade = 99
	if _, err := RenderWAV(cfg, 120, 1, 1000); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestEncodeWAVFloat32LE(t *testing.T) {
	samples := []float32{0.5, -0.5, 1, 0}
	buf := EncodeWAVFloat32LE(samples, 48000, 2)
	if len(buf) != 44+16 {
		t.Fatalf("len(buf) = %d, want 60", len(buf))
	}
	if got := binary.LittleEndian.Uint16(buf[22:24]); got != 2 {
		t.Fatalf("channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(buf[28:32]); got != 384000 {
		t.Fatalf("byte rate = %d, want 384000", got)
	}
	if got := binary.LittleEndian.Uint16(buf[32:34]); got != 8 {
		t.Fatalf("block align = %d, want 8", got)
	}
	for i, s := range samples {
		if got := wavSample(t, buf, i); got != s {
			t.Fatalf("sample %d = %v, want %v", i, got, s)
		}
	}

	if got := len(EncodeWAVFloat32LE(nil, 44100, 1)); got != 44 {
		t.Fatalf("empty encode length = %d, want 44", got)
	}
}
