package mod

// ticksPerSecond converts a tempo to the tick rate: 125 BPM is 50 Hz.
func ticksPerSecond(bpm int) float64 {
	return 2 * float64(bpm) / 5
}

func samplesPerTick(sampleRate, bpm int) int {
	return int(float64(sampleRate) / ticksPerSecond(bpm))
}

// mixer sums the voices into a mono signed 8-bit stream
type mixer struct {
	out   []int8
	muted []bool
}

// mixTick renders n output samples. Every voice is advanced even when
// muted so that unmuting does not shift its playback position.
func (m *mixer) mixTick(voices []*Voice, n int) {
	for i := 0; i < n; i++ {
		sum := 0
		for ch, v := range voices {
			value := int(v.nextOutputSample()) / 2
			if ch < len(m.muted) && m.muted[ch] {
				continue
			}
			sum += value
		}
		m.out = append(m.out, clampSample(sum))
	}
}

func clampSample(v int) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}
