package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"time"

	"github.com/brentvatne/wtlfo-sub001"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const (
	windowW    = 1100
	windowH    = 640
	minWindowW = 900
	minWindowH = 560

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	traceLen = 512
)

var (
	bgColor     = color.RGBA{192, 192, 192, 255}
	panelColor  = color.RGBA{192, 192, 192, 255}
	borderColor = color.RGBA{128, 128, 128, 255}
	buttonColor = color.RGBA{192, 192, 192, 255}

	// 3D bevel colors for old-school embossed look.
	bevelLight  = color.RGBA{255, 255, 255, 255}
	bevelDarker = color.RGBA{64, 64, 64, 255}

	// Sunken panel interiors.
	sunkenBgColor = color.RGBA{24, 24, 32, 255}

	// Slider fill accent.
	sliderFillColor = color.RGBA{0, 0, 128, 255}

	shapeColor  = color.RGBA{80, 200, 255, 220}
	traceColor  = color.RGBA{120, 255, 140, 220}
	markerColor = color.RGBA{255, 200, 80, 220}
	gridColor   = color.RGBA{40, 44, 58, 180}
	boundColor  = color.RGBA{90, 70, 130, 255}
)

const (
	sliderNone = iota
	sliderSpeed
	sliderDepth
	sliderFade
	sliderStart
	sliderCenter
	sliderBPM
)

type game struct {
	lfo      *wtlfo.LFO
	events   <-chan wtlfo.Event
	stopMIDI func()
	epoch    time.Time

	cfg wtlfo.Config

	// Normalized destination values, ring buffer, oldest overwritten.
	trace      []float64
	tracePos   int
	traceCount int

	// Cached steady-state cycle plot; rebuilt when the config changes.
	shape      []float64
	shapeDirty bool

	dragging int

	status    string
	statusErr bool

	frameTick int
	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(midiPort string) (*game, error) {
	cfg := wtlfo.DefaultConfig()
	l, err := wtlfo.New(cfg, wtlfo.WithBPM(120))
	if err != nil {
		return nil, err
	}

	g := &game{
		lfo:        l,
		events:     l.Watch(),
		epoch:      time.Now(),
		cfg:        cfg,
		trace:      make([]float64, traceLen),
		shapeDirty: true,
		status:     "Ready",
		textCache:  make(map[string]*ebiten.Image, 1024),
		viewW:      windowW,
		viewH:      windowH,
	}
	if midiPort != "" {
		stop, err := l.AttachMIDI(midiPort)
		if err != nil {
			return nil, err
		}
		g.stopMIDI = stop
		g.status = "Following MIDI clock on " + midiPort
	}
	return g, nil
}

func (g *game) Update() error {
	g.frameTick++
	now := float64(time.Since(g.epoch).Microseconds()) / 1000
	f := g.lfo.Update(now)

	d := g.lfo.Destination()
	norm := (f.Value - d.Min) / (d.Max - d.Min)
	g.trace[g.tracePos] = norm
	g.tracePos = (g.tracePos + 1) % traceLen
	if g.traceCount < traceLen {
		g.traceCount++
	}

	g.pollEvents()
	g.handleMouse()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	l := g.layoutRects()

	g.drawSunkenPanel(screen, l.shape)
	g.drawSunkenPanel(screen, l.trace)
	g.drawButton(screen, l.wave, g.cfg.Waveform.String())
	g.drawButton(screen, l.mode, g.cfg.Mode.String())
	g.drawButton(screen, l.mult, fmt.Sprintf("x%d", g.cfg.Multiplier))
	g.drawButton(screen, l.fixed, g.fixedLabel())
	g.drawButton(screen, l.trig, "Trigger")
	g.drawButton(screen, l.play, g.playLabel())
	g.drawSlider(screen, l.speed, fmt.Sprintf("Speed %+.0f", g.cfg.Speed), (g.cfg.Speed+64)/127)
	g.drawSlider(screen, l.depth, fmt.Sprintf("Depth %+d", g.cfg.Depth), float64(g.cfg.Depth+64)/127)
	g.drawSlider(screen, l.bpm, g.bpmLabel(), (g.lfo.Clock().BPM-20)/280)
	g.drawSlider(screen, l.fade, fmt.Sprintf("Fade %+d", g.cfg.Fade), float64(g.cfg.Fade+64)/127)
	g.drawSlider(screen, l.start, fmt.Sprintf("Start %d", g.cfg.StartPhase), float64(g.cfg.StartPhase)/127)
	g.drawSlider(screen, l.center, fmt.Sprintf("Ctr %.1f", g.lfo.Center()), g.centerFrac())
	g.drawSunkenPanel(screen, l.status)

	g.drawShape(screen, l.shape)
	g.drawTrace(screen, l.trace)
	g.drawStatus(screen, l.status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW < minWindowW {
		outsideW = minWindowW
	}
	if outsideH < minWindowH {
		outsideH = minWindowH
	}
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) Close() {
	if g.stopMIDI != nil {
		g.stopMIDI()
	}
}

func (g *game) pollEvents() {
	for {
		select {
		case ev, ok := <-g.events:
			if !ok {
				return
			}
			switch ev.Kind {
			case wtlfo.EventTriggered:
				g.setStatus(fmt.Sprintf("Triggered at phase %.2f", ev.Phase))
			case wtlfo.EventAutoStopped:
				g.setStatus("One-shot finished")
			case wtlfo.EventClockLost:
				g.setError("Clock lost; holding last tempo")
			}
		default:
			return
		}
	}
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.wave):
			g.cycleWaveform()
			return
		case pointInRect(mx, my, l.mode):
			g.cycleMode()
			return
		case pointInRect(mx, my, l.mult):
			g.cycleMultiplier()
			return
		case pointInRect(mx, my, l.fixed):
			g.toggleFixed()
			return
		case pointInRect(mx, my, l.trig):
			g.lfo.Trigger()
			return
		case pointInRect(mx, my, l.play):
			g.togglePlay()
			return
		case pointInRect(mx, my, l.speed):
			g.dragging = sliderSpeed
		case pointInRect(mx, my, l.depth):
			g.dragging = sliderDepth
		case pointInRect(mx, my, l.bpm):
			g.dragging = sliderBPM
		case pointInRect(mx, my, l.fade):
			g.dragging = sliderFade
		case pointInRect(mx, my, l.start):
			g.dragging = sliderStart
		case pointInRect(mx, my, l.center):
			g.dragging = sliderCenter
		}
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.dragging = sliderNone
	}
	if g.dragging != sliderNone {
		g.applySlider(g.dragging, mx, l)
	}
}

type uiLayout struct {
	shape, trace        image.Rectangle
	wave, mode, mult    image.Rectangle
	fixed, trig, play   image.Rectangle
	speed, depth, bpm   image.Rectangle
	fade, start, center image.Rectangle
	status              image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w := g.viewW
	h := g.viewH
	if w < minWindowW {
		w = minWindowW
	}
	if h < minWindowH {
		h = minWindowH
	}

	pad := 20
	rowH := 44
	statusH := 40
	gap := 12

	statusTop := h - pad - statusH
	sliders2Top := statusTop - 8 - rowH
	sliders1Top := sliders2Top - 8 - rowH
	buttonsTop := sliders1Top - 8 - rowH
	contentBottom := buttonsTop - gap

	shapeW := 320
	shapeRect := image.Rect(pad, pad, pad+shapeW, contentBottom)
	traceRect := image.Rect(shapeRect.Max.X+gap, pad, w-pad, contentBottom)

	buttonW := (w - pad*2 - gap*5) / 6
	row := func(top, i, cellW int) image.Rectangle {
		x := pad + i*(cellW+gap)
		return image.Rect(x, top, x+cellW, top+rowH)
	}

	sliderW := (w - pad*2 - gap*2) / 3

	return uiLayout{
		shape:  shapeRect,
		trace:  traceRect,
		wave:   row(buttonsTop, 0, buttonW),
		mode:   row(buttonsTop, 1, buttonW),
		mult:   row(buttonsTop, 2, buttonW),
		fixed:  row(buttonsTop, 3, buttonW),
		trig:   row(buttonsTop, 4, buttonW),
		play:   row(buttonsTop, 5, buttonW),
		speed:  row(sliders1Top, 0, sliderW),
		depth:  row(sliders1Top, 1, sliderW),
		bpm:    row(sliders1Top, 2, sliderW),
		fade:   row(sliders2Top, 0, sliderW),
		start:  row(sliders2Top, 1, sliderW),
		center: row(sliders2Top, 2, sliderW),
		status: image.Rect(pad, statusTop, w-pad, statusTop+statusH),
	}
}

func (g *game) drawShape(screen *ebiten.Image, rect image.Rectangle) {
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8+lineH, rect.Max.X-8, rect.Max.Y-8)
	width := inner.Dx()
	height := inner.Dy()
	if width < 2 || height < 4 {
		return
	}
	g.drawText(screen, "Cycle", rect.Min.X+8, rect.Min.Y+6)

	if g.shapeDirty || len(g.shape) != width {
		curve, err := wtlfo.RenderCycle(g.cfg, width)
		if err != nil {
			g.setError(err.Error())
			return
		}
		g.shape = curve
		g.shapeDirty = false
	}

	midY := inner.Min.Y + height/2
	ebitenutil.DrawRect(screen, float64(inner.Min.X), float64(midY), float64(width), 1, gridColor)

	gain := float64(height/2 - 2)
	prevX := inner.Min.X
	prevY := midY - int(g.shape[0]*gain)
	for px := 1; px < width; px++ {
		y := midY - int(g.shape[px]*gain)
		ebitenutil.DrawLine(screen, float64(prevX), float64(prevY), float64(inner.Min.X+px), float64(y), shapeColor)
		prevX = inner.Min.X + px
		prevY = y
	}

	// Phase cursor.
	f := g.lfo.Current()
	cx := inner.Min.X + int(f.Phase*float64(width))
	ebitenutil.DrawRect(screen, float64(cx), float64(inner.Min.Y), 1, float64(height), markerColor)
}

func (g *game) drawTrace(screen *ebiten.Image, rect image.Rectangle) {
	const meterW = 18
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8+lineH, rect.Max.X-8-meterW-6, rect.Max.Y-8)
	meter := image.Rect(rect.Max.X-8-meterW, inner.Min.Y, rect.Max.X-8, inner.Max.Y)
	width := inner.Dx()
	height := inner.Dy()
	if width < 2 || height < 4 {
		return
	}
	g.drawText(screen, g.timingLabel(), rect.Min.X+8, rect.Min.Y+6)

	// Reachable bounds of the current settings.
	d := g.lfo.Destination()
	lower, upper := g.lfo.Bounds()
	span := d.Max - d.Min
	yFor := func(v float64) int {
		frac := (v - d.Min) / span
		return inner.Max.Y - int(frac*float64(height))
	}
	ebitenutil.DrawRect(screen, float64(inner.Min.X), float64(yFor(lower)), float64(width), 1, boundColor)
	ebitenutil.DrawRect(screen, float64(inner.Min.X), float64(yFor(upper)), float64(width), 1, boundColor)

	g.drawMeter(screen, meter, lower, upper, yFor)

	if g.traceCount < 2 {
		return
	}
	n := g.traceCount
	start := (g.tracePos - n + traceLen) % traceLen
	prevX := inner.Min.X
	prevY := yFor(d.Min + g.trace[start]*span)
	for px := 1; px < width; px++ {
		si := start + px*n/width
		v := g.trace[si%traceLen]
		y := yFor(d.Min + v*span)
		ebitenutil.DrawLine(screen, float64(prevX), float64(prevY), float64(inner.Min.X+px), float64(y), traceColor)
		prevX = inner.Min.X + px
		prevY = y
	}
}

// drawMeter draws the live destination value as a vertical level bar beside
// the trace, with ticks at the reachable bounds.
func (g *game) drawMeter(screen *ebiten.Image, rect image.Rectangle, lower, upper float64, yFor func(float64) int) {
	x := float64(rect.Min.X)
	w := float64(rect.Dx())
	ebitenutil.DrawRect(screen, x, float64(rect.Min.Y), w, float64(rect.Dy()), bevelDarker)
	ebitenutil.DrawRect(screen, x, float64(yFor(lower)), w, 1, boundColor)
	ebitenutil.DrawRect(screen, x, float64(yFor(upper)), w, 1, boundColor)

	vy := yFor(g.lfo.Current().Value)
	if vy < rect.Min.Y {
		vy = rect.Min.Y
	}
	if vy > rect.Max.Y-1 {
		vy = rect.Max.Y - 1
	}
	ebitenutil.DrawRect(screen, x+1, float64(vy), w-2, float64(rect.Max.Y-vy-1), traceColor)
	ebitenutil.DrawRect(screen, x, float64(vy), w, 1, markerColor)
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) timingLabel() string {
	ti := g.lfo.Timing()
	cs := g.lfo.Clock()
	src := "internal"
	if cs.External {
		src = "external"
	}
	if cs.Lost {
		src = "LOST"
	}
	if ti.Frozen {
		return fmt.Sprintf("frozen  %.1f BPM (%s)", cs.BPM, src)
	}
	return fmt.Sprintf("%s  %.0f ms  %.1f BPM (%s)", ti.NoteLabel, ti.CycleMs, cs.BPM, src)
}

func (g *game) fixedLabel() string {
	if g.cfg.FixedRate {
		return "120 fixed"
	}
	return "tempo"
}

func (g *game) playLabel() string {
	if g.lfo.Current().Running {
		return "Stop"
	}
	return "Start"
}

func (g *game) bpmLabel() string {
	cs := g.lfo.Clock()
	if cs.External {
		return fmt.Sprintf("BPM %.1f ext", cs.BPM)
	}
	return fmt.Sprintf("BPM %.0f", cs.BPM)
}

func (g *game) centerFrac() float64 {
	d := g.lfo.Destination()
	return (g.lfo.Center() - d.Min) / (d.Max - d.Min)
}

func (g *game) cycleWaveform() {
	cfg := g.cfg
	cfg.Waveform = (cfg.Waveform + 1) % (wtlfo.WaveformRandom + 1)
	g.applyConfig(cfg)
	g.setStatus("Waveform: " + cfg.Waveform.String())
}

func (g *game) cycleMode() {
	cfg := g.cfg
	cfg.Mode = (cfg.Mode + 1) % (wtlfo.ModeHalfCycle + 1)
	g.applyConfig(cfg)
	g.setStatus("Mode: " + cfg.Mode.String())
}

func (g *game) cycleMultiplier() {
	cfg := g.cfg
	cfg.Multiplier *= 2
	if cfg.Multiplier > 2048 {
		cfg.Multiplier = 1
	}
	g.applyConfig(cfg)
	g.setStatus(fmt.Sprintf("Multiplier: x%d", cfg.Multiplier))
}

func (g *game) toggleFixed() {
	cfg := g.cfg
	cfg.FixedRate = !cfg.FixedRate
	g.applyConfig(cfg)
	if cfg.FixedRate {
		g.setStatus("Rate pinned to 120 BPM")
	} else {
		g.setStatus("Rate follows tempo")
	}
}

func (g *game) togglePlay() {
	if g.lfo.Current().Running {
		g.lfo.Stop()
		g.setStatus("Stopped")
		return
	}
	g.lfo.Start()
	g.setStatus("Started")
}

func (g *game) applyConfig(cfg wtlfo.Config) {
	if err := g.lfo.SetConfig(cfg); err != nil {
		g.setError(err.Error())
		return
	}
	g.cfg = cfg
	g.shapeDirty = true
}

func (g *game) applySlider(id int, mx int, l uiLayout) {
	switch id {
	case sliderSpeed:
		frac := sliderFrac(mx, l.speed)
		cfg := g.cfg
		cfg.Speed = math.Round(-64 + frac*127)
		g.applyConfig(cfg)
		g.setStatus(fmt.Sprintf("Speed: %+.0f", cfg.Speed))
	case sliderDepth:
		frac := sliderFrac(mx, l.depth)
		cfg := g.cfg
		cfg.Depth = int(math.Round(-64 + frac*127))
		g.applyConfig(cfg)
		g.setStatus(fmt.Sprintf("Depth: %+d", cfg.Depth))
	case sliderFade:
		frac := sliderFrac(mx, l.fade)
		cfg := g.cfg
		cfg.Fade = int(math.Round(-64 + frac*127))
		g.applyConfig(cfg)
		g.setStatus(fmt.Sprintf("Fade: %+d", cfg.Fade))
	case sliderStart:
		frac := sliderFrac(mx, l.start)
		cfg := g.cfg
		cfg.StartPhase = int(math.Round(frac * 127))
		g.applyConfig(cfg)
		g.setStatus(fmt.Sprintf("Start phase: %d", cfg.StartPhase))
	case sliderCenter:
		frac := sliderFrac(mx, l.center)
		d := g.lfo.Destination()
		v := d.Min + frac*(d.Max-d.Min)
		if err := g.lfo.SetCenter(v); err != nil {
			g.setError(err.Error())
			return
		}
		g.setStatus(fmt.Sprintf("Center: %.1f", v))
	case sliderBPM:
		frac := sliderFrac(mx, l.bpm)
		bpm := math.Round(20 + frac*280)
		if err := g.lfo.SetBPM(bpm); err != nil {
			g.setError(err.Error())
			return
		}
		g.setStatus(fmt.Sprintf("BPM: %.0f", bpm))
	}
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), buttonColor)
	drawBorder(screen, rect)
	label = shortenEnd(label, max(4, (rect.Dx()-8)/charW))
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

func (g *game) drawSlider(screen *ebiten.Image, rect image.Rectangle, label string, frac float64) {
	g.drawPanel(screen, rect)
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+8)

	trackX := rect.Min.X + 170
	trackW := rect.Dx() - 186
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	// Sunken track groove.
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)
	// Fill.
	fillW := int(float64(trackW) * clamp(frac, 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	// Raised knob.
	knobX := trackX + fillW - 5
	if knobX < trackX-5 {
		knobX = trackX - 5
	}
	if knobX > trackX+trackW-5 {
		knobX = trackX + trackW - 5
	}
	knobRect := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
	drawBorder(screen, knobRect)
}

func sliderFrac(mx int, rect image.Rectangle) float64 {
	trackX := rect.Min.X + 170
	trackW := rect.Dx() - 186
	if trackW <= 0 {
		return 0
	}
	return clamp(float64(mx-trackX)/float64(trackW), 0, 1)
}

// drawBorder draws a raised 3D bevel (highlight top/left, shadow bottom/right).
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	// Outer highlight: top and left.
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	// Outer shadow: bottom and right.
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	// Inner shadow: bottom and right.
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder draws a sunken 3D bevel (shadow top/left, highlight bottom/right).
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	// Outer shadow: top and left.
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	// Outer highlight: bottom and right.
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	// Inner shadow: top and left.
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 3000 {
			g.textCache = make(map[string]*ebiten.Image, 1024)
		}
		g.textCache[msg] = img
	}
	// Embossed shadow (dark offset behind text).
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	// Main text (white).
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func main() {
	midiPort := flag.String("midi", "", "follow MIDI clock from this input port")
	flag.Parse()
	defer midi.CloseDriver()

	g, err := newGame(*midiPort)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("wtlfo scope")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
