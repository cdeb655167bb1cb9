package mod

import "math"

// startEffect applies the tick 0 half of a note's effect.
func (v *Voice) startEffect(note Note) {
	e := note.Effect

	switch e.Kind {
	case EffectTonePortamento:
		if e.Param > 0 {
			v.portaSpeed = int(e.Param)
		}
		if note.Period > 0 {
			v.portaTarget = note.Period
		}
	case EffectTonePortamentoVolumeSlide:
		if note.Period > 0 {
			v.portaTarget = note.Period
		}
	case EffectVibrato:
		v.vibrato.latch(e)
	case EffectTremolo:
		v.tremolo.latch(e)
	case EffectSampleOffset:
		if e.Param != 0 {
			v.pos = float64(int(e.Param) << 8)
			v.lastOffset = v.pos
		} else {
			v.pos = v.lastOffset
		}
	case EffectSetVolume:
		v.setHardwareVolume(int(e.Param))
		v.volume = v.hwVolume
	case EffectFineSlideUp:
		v.slidePeriod(-int(e.Y))
	case EffectFineSlideDown:
		v.slidePeriod(int(e.Y))
	case EffectVibratoWaveform:
		v.vibrato.control = int(e.Y)
	case EffectTremoloWaveform:
		v.tremolo.control = int(e.Y)
	case EffectSetFineTune:
		if v.sample != nil {
			v.sample.FineTune = signedNibble(e.Y)
			if note.Period > 0 {
				v.setNotePeriod(float64(note.Period))
				v.setHardwareFrequency(v.frequency)
			}
		}
	case EffectFineVolumeUp:
		v.slideVolume(int(e.Y))
	case EffectFineVolumeDown:
		v.slideVolume(-int(e.Y))
	case EffectNoteCut:
		if e.Y == 0 {
			v.slideVolume(-VolumeMax)
		}
	}
}

// updateEffect applies the per-tick half of a note's effect. tick counts
// from the start of the row and is never 0 here.
func (v *Voice) updateEffect(tick int, note Note) {
	e := note.Effect

	switch e.Kind {
	case EffectNone:
		v.setHardwareFrequency(v.frequency)
	case EffectArpeggio:
		switch (tick - 1) % 3 {
		case 0:
			v.setHardwareFrequency(v.frequency)
		case 1:
			v.setHardwareFrequency(v.frequency * math.Pow(2, float64(e.X)/12.0))
		case 2:
			v.setHardwareFrequency(v.frequency * math.Pow(2, float64(e.Y)/12.0))
		}
	case EffectSlideUp:
		v.slidePeriod(-int(e.Param))
	case EffectSlideDown:
		v.slidePeriod(int(e.Param))
	case EffectTonePortamento:
		v.portamento()
	case EffectVibrato:
		v.vibratoStep()
	case EffectTonePortamentoVolumeSlide:
		v.portamento()
		v.slideVolume(e.volumeSlide())
	case EffectVibratoVolumeSlide:
		v.vibratoStep()
		v.slideVolume(e.volumeSlide())
	case EffectTremolo:
		n := int(float64(v.tremolo.depth) * 4.0 * v.tremolo.advance())
		v.setHardwareVolume(v.volume + n)
	case EffectVolumeSlide:
		v.slideVolume(e.volumeSlide())
	case EffectNoteCut:
		if tick == int(e.Y) {
			v.slideVolume(-VolumeMax)
		}
	}
}
