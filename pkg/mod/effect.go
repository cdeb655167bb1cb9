package mod

import "fmt"

// EffectKind identifies a pattern effect command, extended (Exy)
// commands included.
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectArpeggio
	EffectSlideUp
	EffectSlideDown
	EffectTonePortamento
	EffectVibrato
	EffectTonePortamentoVolumeSlide
	EffectVibratoVolumeSlide
	EffectTremolo
	EffectPan
	EffectSampleOffset
	EffectVolumeSlide
	EffectPositionJump
	EffectSetVolume
	EffectPatternBreak
	EffectSetSpeed

	EffectSetFilter
	EffectFineSlideUp
	EffectFineSlideDown
	EffectGlissando
	EffectVibratoWaveform
	EffectSetFineTune
	EffectPatternLoop
	EffectTremoloWaveform
	EffectCoarsePan
	EffectRetrigger
	EffectFineVolumeUp
	EffectFineVolumeDown
	EffectNoteCut
	EffectNoteDelay
	EffectPatternDelay
	EffectInvertLoop
)

var mainEffects = [16]EffectKind{
	EffectArpeggio,
	EffectSlideUp,
	EffectSlideDown,
	EffectTonePortamento,
	EffectVibrato,
	EffectTonePortamentoVolumeSlide,
	EffectVibratoVolumeSlide,
	EffectTremolo,
	EffectPan,
	EffectSampleOffset,
	EffectVolumeSlide,
	EffectPositionJump,
	EffectSetVolume,
	EffectPatternBreak,
	0, // extended, see extendedEffects
	EffectSetSpeed,
}

var extendedEffects = [16]EffectKind{
	EffectSetFilter,
	EffectFineSlideUp,
	EffectFineSlideDown,
	EffectGlissando,
	EffectVibratoWaveform,
	EffectSetFineTune,
	EffectPatternLoop,
	EffectTremoloWaveform,
	EffectCoarsePan,
	EffectRetrigger,
	EffectFineVolumeUp,
	EffectFineVolumeDown,
	EffectNoteCut,
	EffectNoteDelay,
	EffectPatternDelay,
	EffectInvertLoop,
}

// Effect is a decoded effect command. X and Y are the two parameter
// nibbles; for extended commands X is the sub-command and Y its value.
type Effect struct {
	Kind   EffectKind
	Number uint8
	Param  uint8
	X      uint8
	Y      uint8
}

// DecodeEffect splits an effect number and parameter byte into an Effect.
func DecodeEffect(number, param uint8) Effect {
	number &= 0x0f
	e := Effect{
		Number: number,
		Param:  param,
		X:      param >> 4,
		Y:      param & 0x0f,
	}
	switch {
	case number == 0 && param == 0:
		e.Kind = EffectNone
	case number == 0x0e:
		e.Kind = extendedEffects[e.X]
	default:
		e.Kind = mainEffects[number]
	}
	return e
}

// HasVolumeSlide reports whether the effect slides volume every tick.
func (e Effect) HasVolumeSlide() bool {
	switch e.Kind {
	case EffectVolumeSlide, EffectTonePortamentoVolumeSlide, EffectVibratoVolumeSlide:
		return true
	}
	return false
}

// volumeSlide returns the per-tick volume change of an Axy style
// parameter. Both nibbles set cancel out.
func (e Effect) volumeSlide() int {
	slide := 0
	if e.X > 0 {
		slide = int(e.X)
	}
	if e.Y > 0 {
		slide = -int(e.Y)
	}
	if e.X > 0 && e.Y > 0 {
		slide = 0
	}
	return slide
}

func (e Effect) String() string {
	if e.Kind == EffectNone {
		return "..."
	}
	return fmt.Sprintf("%X%02X", e.Number, e.Param)
}
