package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/zeozeozeo/modpcm/pkg/mod"
	"github.com/zeozeozeo/modpcm/pkg/speaker"
	"github.com/zeozeozeo/modpcm/pkg/wavfile"
)

var backgroundColour = tcell.GetColor("#282a36")
var effectColour = tcell.GetColor("#88DEEB")
var songColour = tcell.GetColor("#F879C0")
var patternNoteFgColour = tcell.GetColor("#F879C0")
var patternSampleFgColour = tcell.GetColor("#ffb86c")

var sampleBgColour = tcell.GetColor("#282a36")
var sampleFgColour = tcell.GetColor("#626A86")
var sampleHighlightBgColour = tcell.GetColor("#526A9E")
var sampleHighlightFgColour = tcell.GetColor("#bc91f3")

var patternHighlightBgColor = tcell.GetColor("#526A9E")
var patternHighlightFgColor = tcell.GetColor("#bc91f3")

var boxBgColour = tcell.GetColor("#282a36")
var boxFgColour = tcell.GetColor("#526A9E")

var meterColour1 = tcell.GetColor("#E1FA8C")
var meterColour2 = tcell.GetColor("#50FA7B")

var songStyle = tcell.StyleDefault.Background(backgroundColour).Bold(true).Foreground(songColour)
var sampleStyle = tcell.StyleDefault.Background(sampleBgColour).Foreground(sampleFgColour)
var sampleHighlightStyle = tcell.StyleDefault.Background(sampleHighlightBgColour).Foreground(sampleHighlightFgColour).Bold(true)

// app is the state shared by the draw loop and the key handler.
type app struct {
	mu        sync.Mutex
	cfg       *config
	player    *mod.Player
	song      *mod.Song
	rendering *mod.Rendering
	buffer    *speaker.Buffer
	renderDur time.Duration
}

func (a *app) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	song, err := parseModule(data, a.cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	a.mu.Lock()
	a.song = song
	a.mu.Unlock()
	return nil
}

// render plays the current song into a fresh buffer. Playback resumes
// at the same offset unless restart is set.
func (a *app) render(ctx context.Context, restart bool) error {
	a.mu.Lock()
	song := a.song
	a.mu.Unlock()

	start := time.Now()
	r, err := a.player.Render(ctx, song)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.rendering = r
	a.renderDur = time.Since(start)
	a.mu.Unlock()

	if restart {
		a.buffer.Reset(r.PCM)
	} else {
		a.buffer.Replace(r.PCM)
	}
	return nil
}

// position returns the row currently heard.
func (a *app) position() (mod.Position, bool) {
	a.mu.Lock()
	r := a.rendering
	a.mu.Unlock()
	if r == nil {
		return mod.Position{}, false
	}
	return r.PositionAt(a.buffer.Position())
}

func drawSamples(s tcell.Screen, a *app) {
	xPos, yPos := 1, 1
	width, height := 27, 33

	drawBox(s, xPos, yPos, xPos+width, yPos+height)
	xPos++
	yPos++

	drawText(s, xPos, yPos, width-2, 1, songStyle, a.song.Name)
	yPos++

	currentlyPlaying := make(map[int]bool, a.song.NumChannels)
	if pos, ok := a.position(); ok {
		for _, note := range a.song.Patterns[pos.Pattern].Rows[pos.Row] {
			if note.SampleNumber > 0 {
				currentlyPlaying[note.SampleNumber-1] = true
			}
		}
	}

	for idx, sample := range a.song.Samples {
		if yPos >= height+1 {
			break
		}
		if val := currentlyPlaying[idx]; val {
			drawText(s, xPos, yPos, width-2, 1, sampleHighlightStyle, fmt.Sprintf("%02d %-20s", idx+1, sample.Name))
		} else {
			drawText(s, xPos, yPos, width-2, 1, sampleStyle, fmt.Sprintf("%02d %-20s", idx+1, sample.Name))
		}
		yPos++
	}
}

var meterSize = 8
var meanValues = make([]float64, meterSize)
var peakValues = make([]float64, meterSize)

func decibels(v float64) float64 {
	db := 20 * math.Log10(v)
	if db > 0 {
		db = 0
	}
	if db < -48 {
		db = -48
	}
	return db
}

func drawMeter(s tcell.Screen, x, y, width int, style tcell.Style, db float64) {
	runes := []string{"▏", "▎", "▍", "▌", "▋", "▊", "▉", "█"}
	length := float64(width) * (48 + db) / 48

	for i := 0; i < int(length); i++ {
		drawText(s, x, y, 1, 1, style, runes[7])
		x++
	}
	remainder := length - float64(int(length))
	if remainder >= 0.125 {
		idx := int(remainder*8) - 1
		drawText(s, x, y, 1, 1, style, runes[idx])
	}
}

func drawMeters(s tcell.Screen, a *app) {
	x, y := 1, 35
	width, height := 126, 3
	drawBox(s, x, y, x+width, y+height)

	// One tick at 125 BPM is a fiftieth of a second.
	mean, peak := a.buffer.Level(a.player.SampleRate / 50)

	meanValues = append(meanValues[1:], mean)
	peakValues = append(peakValues[1:], peak)

	var meanSum, peakSum float64
	for i := 0; i < meterSize; i++ {
		meanSum += meanValues[i]
		peakSum += peakValues[i]
	}

	meanStyle := tcell.StyleDefault.Background(backgroundColour).Foreground(meterColour1)
	peakStyle := tcell.StyleDefault.Background(backgroundColour).Foreground(meterColour2)
	drawMeter(s, x+1, y+1, width-2, meanStyle, decibels(meanSum/float64(meterSize)))
	drawMeter(s, x+1, y+2, width-2, peakStyle, decibels(peakSum/float64(meterSize)))
}

func drawPatterns(s tcell.Screen, a *app) {
	x, y := 33, 1
	width, height := 94, 33
	drawBox(s, x, y, x+width, y+height)
	xPos := x + 1
	yPos := y + 1

	pos, ok := a.position()
	if !ok {
		return
	}

	defaultStyle := tcell.StyleDefault.Background(backgroundColour).Foreground(tcell.GetColor("#626A86"))
	highlightStyle := tcell.StyleDefault.Background(patternHighlightBgColor).Foreground(patternHighlightFgColor).Bold(true)
	numRows := 32
	var lineIdx int
	if pos.Row < 16 {
		lineIdx = 0
	} else if pos.Row > 48 {
		lineIdx = 32
	} else {
		lineIdx = pos.Row - 16
	}

	pattern := a.song.Patterns[pos.Pattern]
	for rowNum := 0; rowNum < numRows && lineIdx < mod.RowsPerPattern; rowNum++ {
		var style tcell.Style
		if lineIdx == pos.Row {
			style = highlightStyle
		} else {
			style = defaultStyle
		}

		row := pattern.Rows[lineIdx]

		rowNumber := fmt.Sprintf("%02d.%02d", pos.Order, lineIdx)
		drawText(s, xPos, yPos, width-2, 1, style, rowNumber)
		xPos += 5

		for idx, note := range row {
			// Only the first eight channels fit.
			if idx >= 8 {
				break
			}
			drawText(s, xPos, yPos, 1, 1, style, "│")
			xPos++
			noteStyle := style
			sampleStyle := style
			effectStyle := style

			if !a.player.Muted(idx) {
				noteStyle = style.Foreground(patternNoteFgColour)
				sampleStyle = style.Foreground(patternSampleFgColour)
				effectStyle = style.Foreground(effectColour)
			}

			if note.Period > 0 {
				drawText(s, xPos, yPos, 4, 1, noteStyle, mod.NoteName(note.Period)+" ")
			} else {
				drawText(s, xPos, yPos, 4, 1, style, "... ")
			}
			xPos += 4

			if note.SampleNumber > 0 {
				sampleNumber := fmt.Sprintf("%02d", note.SampleNumber)
				drawText(s, xPos, yPos, 3, 1, sampleStyle, sampleNumber)
			} else {
				drawText(s, xPos, yPos, 3, 1, style, "..")
			}
			xPos += 3

			if note.Effect.Kind != mod.EffectNone {
				drawText(s, xPos, yPos, 3, 1, effectStyle, note.Effect.String())
			} else {
				drawText(s, xPos, yPos, 3, 1, style, "...")
			}
			xPos += 3
		}
		lineIdx++
		xPos = x + 1
		yPos++
	}
}

func drawStatus(s tcell.Screen, a *app, defStyle tcell.Style) {
	xPos, yPos := 2, 0

	drawText(s, xPos, yPos, 1, 1, defStyle.Foreground(sampleFgColour).Bold(true).Underline(true), "S")
	xPos++
	drawText(s, xPos, yPos, 9, 1, defStyle.Foreground(sampleFgColour).Bold(true), "tandard:")
	xPos += 9
	drawText(s, xPos, yPos, 8, 1, defStyle.Foreground(effectColour), string(a.player.Standard))

	xPos = 30
	drawText(s, xPos, yPos, 8, 1, defStyle.Foreground(sampleFgColour).Bold(true), "Muted:")
	xPos += 7
	muted := ""
	for ch := 0; ch < a.song.NumChannels && ch < 8; ch++ {
		if a.player.Muted(ch) {
			muted += fmt.Sprintf("%d", ch+1)
		} else {
			muted += "."
		}
	}
	drawText(s, xPos, yPos, 8, 1, defStyle.Foreground(effectColour), muted)

	xPos = 50
	drawText(s, xPos, yPos, 8, 1, defStyle.Foreground(sampleFgColour).Bold(true), "Format:")
	xPos += 8
	drawText(s, xPos, yPos, 5, 1, defStyle.Foreground(patternSampleFgColour), a.song.Format.Tag)
	xPos += 6

	pos, _ := a.position()
	drawText(s, xPos, yPos, 9, 1, defStyle.Foreground(sampleFgColour).Bold(true), "Position:")
	xPos += 10
	drawText(s, xPos, yPos, 8, 1, defStyle.Foreground(patternSampleFgColour), fmt.Sprintf("%d/%d", pos.Order, a.song.SongLength))

	xPos = 80
	a.mu.Lock()
	elapsed := time.Duration(a.buffer.Position()) * time.Second / time.Duration(a.player.SampleRate)
	total := a.rendering.Duration()
	renderDur := a.renderDur
	a.mu.Unlock()
	drawText(s, xPos, yPos, 6, 1, defStyle.Foreground(sampleFgColour).Bold(true), "Time:")
	xPos += 6
	drawText(s, xPos, yPos, 15, 1, defStyle.Foreground(effectColour), fmt.Sprintf("%s/%s", elapsed.Truncate(time.Second), total.Truncate(time.Second)))

	xPos = 104
	drawText(s, xPos, yPos, 13, 1, defStyle.Foreground(sampleFgColour).Bold(true), "Render time:")
	xPos += 13
	drawText(s, xPos, yPos, 12, 1, defStyle.Foreground(effectColour), renderDur.Truncate(time.Millisecond).String())
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("modpcm: ")

	cfg, err := loadConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	player := mod.NewModPlayer(cfg.sampleRate)
	player.SetStandard(cfg.standard)

	a := &app{
		cfg:    cfg,
		player: player,
		buffer: speaker.NewBuffer(nil),
	}

	path := cfg.path
	if path == "" {
		path, err = browse(cfg.dir)
		if err != nil {
			log.Fatal(err)
		}
	}
	if err := a.load(path); err != nil {
		log.Fatal(err)
	}
	if err := a.render(ctx, true); err != nil {
		log.Fatal(err)
	}

	if cfg.output != "" {
		if err := wavfile.WriteFile(cfg.output, a.rendering.PCM, a.rendering.SampleRate); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s (%v of audio, %d rows)", cfg.output, a.rendering.Duration().Truncate(time.Millisecond), len(a.rendering.Positions))
		return
	}

	if err := speaker.Init(cfg.sampleRate, cfg.sampleRate/100); err != nil {
		log.Fatal(err)
	}
	defer speaker.Close()

	if cfg.noUI {
		done := make(chan struct{})
		speaker.Play(a.buffer, func() {
			close(done)
		})
		log.Printf("playing %q (%v)", a.song.Name, a.rendering.Duration().Truncate(time.Second))
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}

	if err := runUI(ctx, a); err != nil {
		speaker.Close()
		log.Fatal(err)
	}
}

func runUI(ctx context.Context, a *app) error {
	defStyle := tcell.StyleDefault.Background(backgroundColour).Foreground(tcell.ColorReset)

	// Initialize screen
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()
	s.SetStyle(defStyle)
	s.Clear()

	finished := func() {
		s.PostEvent(tcell.NewEventInterrupt(nil))
	}
	speaker.Play(a.buffer, finished)

	var drawMu sync.Mutex
	stopDraw := make(chan struct{})
	defer close(stopDraw)

	go func() {
		ticker := time.NewTicker(time.Second / 60)
		defer ticker.Stop()
		for {
			select {
			case <-stopDraw:
				return
			case <-ticker.C:
				drawMu.Lock()
				drawSamples(s, a)
				drawPatterns(s, a)
				drawMeters(s, a)
				drawStatus(s, a, defStyle)
				s.Show()
				drawMu.Unlock()
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		// Poll event
		ev := s.PollEvent()

		// Process event
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			return nil
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			switch r := ev.Rune(); r {
			case 'L', 'l':
				drawMu.Lock()
				s.Suspend()
				path, err := browse(a.cfg.dir)
				if err == nil {
					err = a.load(path)
				}
				if err == nil {
					err = a.render(ctx, true)
				}
				s.Resume()
				s.Clear()
				drawMu.Unlock()
				if errors.Is(err, errNoSelection) {
					break
				}
				if err != nil {
					return err
				}
				speaker.Play(a.buffer, finished)
			case '1', '2', '3', '4', '5', '6', '7', '8':
				ch := int(r - '1')
				if ch >= a.song.NumChannels {
					break
				}
				drawMu.Lock()
				a.player.Mute(ch, !a.player.Muted(ch))
				err := a.render(ctx, false)
				drawMu.Unlock()
				if err != nil {
					return err
				}
			case 's', 'S':
				drawMu.Lock()
				if a.player.Standard == mod.NTSC {
					a.player.SetStandard(mod.PAL)
				} else {
					a.player.SetStandard(mod.NTSC)
				}
				err := a.render(ctx, false)
				drawMu.Unlock()
				if err != nil {
					return err
				}
			case 'q', 'Q':
				return nil
			}
		}
	}
}
