package mod

import "context"

// maxRows caps a render. Pattern loops issued on different channels can
// keep re-arming each other and never reach the end of the song.
const maxRows = 128 * RowsPerPattern * 16

// sequencer walks the order table row by row and drives the voices.
// All sequencing state lives here and is rebuilt for every render.
type sequencer struct {
	song    *Song
	samples []*Sample
	voices  []*Voice
	mixer   *mixer
	rate    int

	order int
	row   int

	breakRequested bool
	nextOrder      int
	nextRow        int
	jumped         bool

	speed          int
	tempo          int
	ticksPerSecond float64
	samplesPerTick int
	patternDelay   int
	stopped        bool

	positions []Position
}

func newSequencer(song *Song, clock float64, sampleRate int, muted []bool) *sequencer {
	// Voices may change a sample's fine-tune, so each render works on
	// its own copies of the headers. Waveform data is shared.
	samples := make([]*Sample, len(song.Samples))
	for i, s := range song.Samples {
		c := *s
		samples[i] = &c
	}

	voices := make([]*Voice, song.NumChannels)
	for i := range voices {
		voices[i] = newVoice(clock, sampleRate)
	}

	s := &sequencer{
		song:    song,
		samples: samples,
		voices:  voices,
		mixer:   &mixer{muted: muted},
		rate:    sampleRate,
		speed:   song.Speed,
	}
	s.setTempo(song.Tempo)
	return s
}

func (s *sequencer) setTempo(bpm int) {
	s.tempo = bpm
	s.ticksPerSecond = ticksPerSecond(bpm)
	s.samplesPerTick = samplesPerTick(s.rate, bpm)
}

// run plays from the given order until the song ends, checking ctx
// between rows.
func (s *sequencer) run(ctx context.Context, order int) error {
	s.order = order
	s.row = 0
	for s.order < s.song.SongLength && !s.stopped && len(s.positions) < maxRows {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.playRow()
		s.advance()
	}
	return nil
}

func (s *sequencer) playRow() {
	notes := s.song.Pattern(s.order).Rows[s.row]

	s.positions = append(s.positions, Position{
		Order:   s.order,
		Pattern: int(s.song.Orders[s.order]),
		Row:     s.row,
		Offset:  len(s.mixer.out),
	})

	s.breakRequested = false
	s.jumped = false
	s.patternDelay = 0
	for ch, v := range s.voices {
		v.latchRow(notes[ch])
	}

	// patternDelay is only known after tick 0 of the first pass.
	for repeat := 0; repeat <= s.patternDelay && (repeat == 0 || !s.stopped); repeat++ {
		for tick := 0; tick == 0 || tick < s.speed; tick++ {
			effectTick := repeat*s.speed + tick
			for ch, v := range s.voices {
				s.stepVoice(v, notes[ch], repeat, tick, effectTick)
			}
			s.mixer.mixTick(s.voices, s.samplesPerTick)
		}
	}
}

func (s *sequencer) stepVoice(v *Voice, note Note, repeat, tick, effectTick int) {
	switch {
	case repeat == 0 && tick == 0:
		if v.delayTick == 0 {
			v.triggerNote(s.samples, note)
			v.startEffect(note)
		}
		s.startEffect(v, note)
	case v.delayTick > 0 && repeat == s.patternDelay && tick == v.delayTick:
		// A delayed note only sounds on the last repeat of its row.
		v.triggerNote(s.samples, note)
		v.startEffect(note)
	case v.retrigTicks > 0 && effectTick%v.retrigTicks == 0:
		v.triggerNote(s.samples, note)
		v.restart()
	default:
		v.updateEffect(effectTick, note)
	}
}

// startEffect handles the effects that act on the song position rather
// than on a single voice.
func (s *sequencer) startEffect(v *Voice, note Note) {
	e := note.Effect

	switch e.Kind {
	case EffectPositionJump:
		target := int(e.Param)
		if target > len(s.song.Orders)-1 {
			target = len(s.song.Orders) - 1
		}
		s.requestBreak(target, 0)
		s.jumped = true
	case EffectPatternBreak:
		row := int(e.X)*10 + int(e.Y)
		if row >= RowsPerPattern {
			row = 0
		}
		order := s.order + 1
		if s.jumped {
			order = s.nextOrder
		}
		s.requestBreak(order, row)
	case EffectPatternLoop:
		if e.Y == 0 {
			v.loopRow = s.row
			return
		}
		if v.loopCount == 0 {
			v.loopCount = int(e.Y)
		} else {
			v.loopCount--
		}
		if v.loopCount > 0 {
			s.requestBreak(s.order, v.loopRow)
			s.jumped = false
		}
	case EffectPatternDelay:
		if s.patternDelay == 0 {
			s.patternDelay = int(e.Y)
		}
	case EffectSetSpeed:
		switch {
		case e.Param == 0:
			// The row ends after the current tick.
			s.stopped = true
			s.speed = 0
		case e.Param < 32:
			s.speed = int(e.Param)
		default:
			s.setTempo(int(e.Param))
		}
	}
}

// backward reports whether the requested break lands on a row that has
// already been played.
func (s *sequencer) backward() bool {
	if s.nextOrder != s.order {
		return s.nextOrder < s.order
	}
	return s.nextRow <= s.row
}

func (s *sequencer) requestBreak(order, row int) {
	s.breakRequested = true
	s.nextOrder = order
	s.nextRow = row
}

// advance moves to the next row, honouring any break requested by the
// row just played.
func (s *sequencer) advance() {
	prev := s.order
	switch {
	case s.jumped && s.backward():
		// Jumping back replays the song forever; a render is bounded,
		// so a backward jump ends it. This includes Bxx to order 0 on
		// the final order.
		s.order = s.song.SongLength
	case s.breakRequested:
		s.order = s.nextOrder
		s.row = s.nextRow
	default:
		s.row++
		if s.row >= RowsPerPattern {
			s.row = 0
			s.order++
		}
	}

	if s.order != prev {
		for _, v := range s.voices {
			v.loopRow = 0
			v.loopCount = 0
		}
	}
}
