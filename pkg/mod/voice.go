package mod

import "math"

// oscillator drives vibrato and tremolo. Control selects the waveform in
// its low two bits; values of 4 and above keep the phase running across
// new notes.
type oscillator struct {
	pos     int
	depth   int
	speed   int
	control int
}

func (o *oscillator) retrigger() {
	if o.control < 4 {
		o.pos = 0
	}
}

// latch keeps the previous speed or depth when the new nibble is zero.
func (o *oscillator) latch(e Effect) {
	if e.X > 0 {
		o.speed = int(e.X)
	}
	if e.Y > 0 {
		o.depth = int(e.Y)
	}
}

// advance steps the phase and returns the waveform value in [-1, 1].
func (o *oscillator) advance() float64 {
	o.pos += o.speed
	phase := o.pos & 63
	switch o.control & 3 {
	case 0:
		return math.Sin(float64(phase) / 64.0 * 2 * math.Pi)
	case 1:
		return 1 - float64(phase)/32.0
	default:
		// 3 is "random" on paper; ProTracker plays it as a square.
		if phase < 32 {
			return 1
		}
		return -1
	}
}

// Voice is the runtime state of one channel.
type Voice struct {
	clock float64
	rate  float64

	sample *Sample

	period    float64
	frequency float64
	pitch     float64

	pos        float64
	lastOffset float64

	volume       int
	hwVolume     int
	volumeFactor float64

	portaSpeed  int
	portaTarget int

	vibrato oscillator
	tremolo oscillator

	loopRow   int
	loopCount int

	delayTick   int
	retrigTicks int
}

func newVoice(clock float64, sampleRate int) *Voice {
	return &Voice{
		clock: clock,
		rate:  float64(sampleRate),
	}
}

func (v *Voice) setHardwareVolume(volume int) {
	v.hwVolume = clampVolume(volume)
	v.volumeFactor = float64(v.hwVolume) / VolumeMax
}

// setNotePeriod stores period and derives the note frequency using the
// bound sample's fine-tune.
func (v *Voice) setNotePeriod(period float64) {
	v.period = period
	fineTune := 0
	if v.sample != nil {
		fineTune = v.sample.FineTune
	}
	v.frequency = periodFrequency(v.clock, period, fineTune)
}

func (v *Voice) setHardwareFrequency(frequency float64) {
	v.pitch = frequency / v.rate
}

func (v *Voice) slidePeriod(delta int) {
	if v.period == 0 {
		return
	}
	v.setNotePeriod(clampPeriod(v.period + float64(delta)))
	v.setHardwareFrequency(v.frequency)
}

func (v *Voice) slideVolume(delta int) {
	v.setHardwareVolume(v.hwVolume + delta)
	v.volume = v.hwVolume
}

func (v *Voice) portamento() {
	if v.period == 0 || v.portaTarget == 0 {
		return
	}
	target := float64(v.portaTarget)
	period := v.period
	if period < target {
		period += float64(v.portaSpeed)
		if period > target {
			period = target
		}
	} else if period > target {
		period -= float64(v.portaSpeed)
		if period < target {
			period = target
		}
	}
	v.setNotePeriod(clampPeriod(period))
	v.setHardwareFrequency(v.frequency)
}

func (v *Voice) vibratoStep() {
	n := int(float64(v.vibrato.depth) * 2.0 * v.vibrato.advance())
	v.setHardwareFrequency(v.frequency * math.Pow(2.0, float64(n)/(12.0*16.0)))
}

// latchRow records the tick offsets of a delayed or retriggered note for
// the row that is about to play.
func (v *Voice) latchRow(note Note) {
	v.delayTick = 0
	v.retrigTicks = 0
	switch note.Effect.Kind {
	case EffectNoteDelay:
		v.delayTick = int(note.Effect.Y)
	case EffectRetrigger:
		v.retrigTicks = int(note.Effect.Y)
	}
}

// triggerNote starts a new note on tick 0 (or on its delayed tick).
func (v *Voice) triggerNote(samples []*Sample, note Note) {
	if note.SampleNumber > 0 && note.SampleNumber <= len(samples) {
		sample := samples[note.SampleNumber-1]
		v.sample = sample
		v.setHardwareVolume(sample.Volume)
		v.volume = v.hwVolume
		v.pos = 0
	}

	if note.Period > 0 {
		v.vibrato.retrigger()
		v.tremolo.retrigger()

		kind := note.Effect.Kind
		if kind != EffectTonePortamento && kind != EffectTonePortamentoVolumeSlide {
			v.setNotePeriod(float64(note.Period))
			v.setHardwareFrequency(v.frequency)
		}
	}
}

// restart rewinds the sample for a retriggered note.
func (v *Voice) restart() {
	v.pos = 0
}

// nextOutputSample returns the current sample value scaled by volume
// and advances the read position by the pitch factor.
func (v *Voice) nextOutputSample() int8 {
	if v.sample == nil {
		return 0
	}
	s := v.sample
	i := int(v.pos)

	var value int8
	if s.Looped && i > s.LoopEnd {
		idx := s.LoopStart + (i-s.LoopEnd-1)%s.LoopLength
		if idx < len(s.Data) {
			value = s.Data[idx]
		}
	} else if i < len(s.Data) {
		value = s.Data[i]
	}

	v.pos += v.pitch
	return int8(float64(value) * v.volumeFactor)
}
