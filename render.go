package wtlfo

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"

	intengine "github.com/brentvatne/wtlfo-sub001/internal/engine"
)

// RenderCycle samples one steady-state cycle of the configured waveform
// with depth applied, for plotting. Trigger-relative fade is excluded; a
// cycle plot shows the shape, not the envelope.
func RenderCycle(cfg Config, n int) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, errors.New("n must be positive")
	}
	p := engineParams(cfg)
	out := make([]float64, n)
	for i := range out {
		out[i] = intengine.Sample(p, float64(i)/float64(n))
	}
	return out, nil
}

// RenderRun simulates an oscillator from a fresh trigger, returning one
// frame per step including trigger-relative behavior: fades, one-shot
// stops, and fresh random values on later cycles.
func RenderRun(cfg Config, bpm, durationMs, stepMs float64, opts ...Option) ([]Frame, error) {
	if durationMs <= 0 {
		return nil, errors.New("durationMs must be positive")
	}
	if stepMs <= 0 {
		return nil, errors.New("stepMs must be positive")
	}
	all := append(append([]Option(nil), opts...), WithBPM(bpm))
	l, err := New(cfg, all...)
	if err != nil {
		return nil, err
	}
	n := int(durationMs/stepMs) + 1
	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, l.Update(float64(i)*stepMs))
	}
	return frames, nil
}

// RenderTriggers is RenderRun with a trigger schedule: the oscillator is
// retriggered at each listed time, so reset and fade behavior across
// repeated triggers can be rendered in one pass. Each trigger fires just
// before the first frame at or past its time.
func RenderTriggers(cfg Config, bpm, durationMs, stepMs float64, triggerAtMs ...float64) ([]Frame, error) {
	if durationMs <= 0 {
		return nil, errors.New("durationMs must be positive")
	}
	if stepMs <= 0 {
		return nil, errors.New("stepMs must be positive")
	}
	l, err := New(cfg, WithBPM(bpm))
	if err != nil {
		return nil, err
	}
	sched := append([]float64(nil), triggerAtMs...)
	sort.Float64s(sched)
	n := int(durationMs/stepMs) + 1
	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		now := float64(i) * stepMs
		for len(sched) > 0 && sched[0] <= now {
			l.Trigger()
			sched = sched[1:]
		}
		frames = append(frames, l.Update(now))
	}
	return frames, nil
}

// RenderValues is RenderRun reduced to the mapped destination values.
func RenderValues(cfg Config, bpm, durationMs, stepMs float64, opts ...Option) ([]float64, error) {
	frames, err := RenderRun(cfg, bpm, durationMs, stepMs, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f.Value
	}
	return out, nil
}

// RenderWAV renders the oscillator output as a mono 32-bit float WAV, one
// sample per audio frame, so a modulation curve can be inspected in a
// waveform editor.
func RenderWAV(cfg Config, bpm, seconds float64, sampleRate int) ([]byte, error) {
	if seconds <= 0 {
		return nil, errors.New("seconds must be positive")
	}
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	l, err := New(cfg, WithBPM(bpm))
	if err != nil {
		return nil, err
	}
	frames := int(float64(sampleRate) * seconds)
	stepMs := 1000 / float64(sampleRate)
	out := make([]float32, frames)
	for i := range out {
		f := l.Update(float64(i) * stepMs)
		out[i] = float32(f.Output)
	}
	return EncodeWAVFloat32LE(out, sampleRate, 1), nil
}

// EncodeWAVFloat32LE encodes interleaved float32 samples as a WAV file
// (format 3, IEEE float, 32-bit little-endian).
func EncodeWAVFloat32LE(samples []float32, sampleRate, channels int) []byte {
	dataSize := len(samples) * 4
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 3) // IEEE float
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*channels*4))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(channels*4))
	binary.LittleEndian.PutUint16(buf[34:36], 32)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[44+i*4:48+i*4], math.Float32bits(s))
	}
	return buf
}
