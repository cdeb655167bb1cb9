package mod

import (
	"fmt"
	"math"
	"sort"
)

// Standard controls the Paula clock used to turn periods into frequencies
type Standard string

const (
	// PAL machines clock Paula at 3.546895 MHz
	PAL Standard = "PAL"
	// NTSC machines clock Paula at 3.579545 MHz
	NTSC Standard = "NTSC"
)

var clockTicksPerSecond = map[Standard]float64{
	PAL:  3546895,
	NTSC: 3579545,
}

// Valid Amiga period range. Slides never leave it.
const (
	PeriodMin = 108
	PeriodMax = 907
	VolumeMax = 64
)

// FrequencyTable holds the finetune 0 periods from C-1 to B-3, highest
// period (lowest note) first.
var FrequencyTable = []int{
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

// NoteTable names the twelve notes of an octave
var NoteTable = []string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// NoteName returns the tracker name of the note closest to period, or
// "???" when it lies outside the three standard octaves.
func NoteName(period int) string {
	if period < FrequencyTable[len(FrequencyTable)-1]-4 || period > FrequencyTable[0]+24 {
		return "???"
	}
	// FrequencyTable is descending; search for the first entry <= period.
	idx := sort.Search(len(FrequencyTable), func(i int) bool {
		return FrequencyTable[i] <= period
	})
	if idx == len(FrequencyTable) {
		idx--
	} else if idx > 0 && FrequencyTable[idx-1]-period < period-FrequencyTable[idx] {
		idx--
	}
	return fmt.Sprintf("%s%d", NoteTable[idx%len(NoteTable)], idx/len(NoteTable)+1)
}

// periodFrequency returns the playback frequency of period on the given
// clock, shifted by fineTune eighths of a semitone.
func periodFrequency(clock, period float64, fineTune int) float64 {
	return clock / period * math.Pow(2.0, float64(fineTune)/96.0)
}

func clampPeriod(period float64) float64 {
	if period < PeriodMin {
		return PeriodMin
	}
	if period > PeriodMax {
		return PeriodMax
	}
	return period
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > VolumeMax {
		return VolumeMax
	}
	return volume
}
