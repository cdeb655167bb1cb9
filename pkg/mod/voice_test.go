package mod

import (
	"math"
	"math/rand"
	"testing"
)

func testVoice(samples ...*Sample) (*Voice, []*Sample) {
	return newVoice(clockTicksPerSecond[NTSC], DefaultSampleRate), samples
}

func loopedSample(n, loopStart, loopLength int) *Sample {
	return &Sample{
		Length:     n,
		Volume:     64,
		LoopStart:  loopStart,
		LoopLength: loopLength,
		LoopEnd:    loopStart + loopLength - 1,
		Looped:     loopLength > 2,
		Data:       rampSample(n),
	}
}

func note(sample, period int, effect, param uint8) Note {
	return Note{SampleNumber: sample, Period: period, Effect: DecodeEffect(effect, param)}
}

func TestNextOutputSampleWithoutSample(t *testing.T) {
	v, _ := testVoice()
	for i := 0; i < 4; i++ {
		if got := v.nextOutputSample(); got != 0 {
			t.Fatalf("Expected silence, got %d", got)
		}
	}
}

func TestNextOutputSampleNoLoop(t *testing.T) {
	for _, loopLength := range []int{0, 2} {
		s := loopedSample(16, 0, loopLength)
		v, samples := testVoice(s)
		v.triggerNote(samples, note(1, 0, 0, 0))
		v.pitch = 1

		for i := 0; i < 16; i++ {
			if got := v.nextOutputSample(); got != s.Data[i] {
				t.Fatalf("loop %d: sample %d: expected %d, got %d", loopLength, i, s.Data[i], got)
			}
		}
		for i := 0; i < 32; i++ {
			if got := v.nextOutputSample(); got != 0 {
				t.Fatalf("loop %d: expected silence past the end, got %d", loopLength, got)
			}
		}
	}
}

func TestNextOutputSampleLoopWrap(t *testing.T) {
	s := loopedSample(64, 10, 20)
	v, samples := testVoice(s)
	v.triggerNote(samples, note(1, 0, 0, 0))
	v.pitch = 0

	for k := 1; k <= 3*s.LoopLength+1; k++ {
		v.pos = float64(s.LoopEnd + k)
		want := s.Data[s.LoopStart+(k-1)%s.LoopLength]
		if got := v.nextOutputSample(); got != want {
			t.Fatalf("k=%d: expected %d, got %d", k, want, got)
		}
	}
}

func TestNextOutputSampleScalesByVolume(t *testing.T) {
	s := &Sample{Length: 4, Volume: 32, Data: []int8{100, -100, 127, -128}}
	v, samples := testVoice(s)
	v.triggerNote(samples, note(1, 0, 0, 0))
	v.pitch = 1

	for i, want := range []int8{50, -50, 63, -64} {
		if got := v.nextOutputSample(); got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestTriggerNoteSetsPitch(t *testing.T) {
	s := loopedSample(32, 0, 0)
	v, samples := testVoice(s)
	v.triggerNote(samples, note(1, 428, 0, 0))

	want := 3579545.0 / 428.0 / DefaultSampleRate
	if math.Abs(v.pitch-want) > 1e-12 {
		t.Errorf("Expected pitch %f, got %f", want, v.pitch)
	}
	if v.hwVolume != 64 || v.volume != 64 {
		t.Errorf("Expected sample volume 64, got %d/%d", v.hwVolume, v.volume)
	}
}

func TestTriggerNoteFineTune(t *testing.T) {
	s := loopedSample(32, 0, 0)
	s.FineTune = -8
	v, samples := testVoice(s)
	v.triggerNote(samples, note(1, 428, 0, 0))

	want := 3579545.0 / 428.0 * math.Pow(2, -8.0/96.0)
	if math.Abs(v.frequency-want) > 1e-9 {
		t.Errorf("Expected frequency %f, got %f", want, v.frequency)
	}
}

func TestTonePortamentoKeepsPitch(t *testing.T) {
	s := loopedSample(32, 0, 0)
	v, samples := testVoice(s)
	v.triggerNote(samples, note(1, 428, 0, 0))

	porta := note(0, 320, 0x3, 0x10)
	v.triggerNote(samples, porta)
	v.startEffect(porta)
	if v.period != 428 {
		t.Fatalf("Expected period to stay 428, got %f", v.period)
	}
	if v.portaTarget != 320 || v.portaSpeed != 16 {
		t.Fatalf("Expected target 320 speed 16, got %d %d", v.portaTarget, v.portaSpeed)
	}

	var periods []float64
	for tick := 1; tick <= 8; tick++ {
		v.updateEffect(tick, porta)
		periods = append(periods, v.period)
	}
	want := []float64{412, 396, 380, 364, 348, 332, 320, 320}
	for i := range want {
		if periods[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, periods)
		}
	}

	// 300 with no speed keeps the latched speed and target.
	again := note(0, 0, 0x3, 0x00)
	v.startEffect(again)
	if v.portaTarget != 320 || v.portaSpeed != 16 {
		t.Errorf("Expected latched target/speed, got %d %d", v.portaTarget, v.portaSpeed)
	}
}

func TestArpeggioCycle(t *testing.T) {
	s := loopedSample(32, 0, 0)
	v, samples := testVoice(s)
	arp := note(1, 428, 0x0, 0x47)
	v.triggerNote(samples, arp)
	v.startEffect(arp)

	f := v.frequency
	want := []float64{f, f * math.Pow(2, 4.0/12.0), f * math.Pow(2, 7.0/12.0)}
	for tick := 1; tick <= 9; tick++ {
		v.updateEffect(tick, arp)
		got := v.pitch * DefaultSampleRate
		w := want[(tick-1)%3]
		if math.Abs(got-w) > 1e-6 {
			t.Errorf("tick %d: expected %f Hz, got %f Hz", tick, w, got)
		}
	}
}

func TestVolumeSlide(t *testing.T) {
	testCases := []struct {
		name  string
		param uint8
		want  int
	}{
		{"Up", 0x20, 40},
		{"Down", 0x03, 20},
		{"Both nibbles cancel", 0x23, 32},
		{"Clamp up", 0xf0, 64},
		{"Clamp down", 0x0f, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, _ := testVoice()
			v.setHardwareVolume(32)
			v.volume = 32
			n := note(0, 0, 0xa, tc.param)
			for tick := 1; tick <= 4; tick++ {
				v.updateEffect(tick, n)
			}
			if v.hwVolume != tc.want || v.volume != tc.want {
				t.Errorf("Expected volume %d, got %d/%d", tc.want, v.hwVolume, v.volume)
			}
		})
	}
}

func TestFineSlidesApplyOnce(t *testing.T) {
	s := loopedSample(32, 0, 0)
	v, samples := testVoice(s)
	up := note(1, 428, 0xe, 0x14)
	v.triggerNote(samples, up)
	v.startEffect(up)
	if v.period != 424 {
		t.Fatalf("Expected fine slide to 424, got %f", v.period)
	}
	for tick := 1; tick < 6; tick++ {
		v.updateEffect(tick, up)
	}
	if v.period != 424 {
		t.Errorf("Expected fine slide not to repeat, got %f", v.period)
	}

	down := note(0, 0, 0xe, 0x2f)
	v.startEffect(down)
	if v.period != 439 {
		t.Errorf("Expected fine slide to 439, got %f", v.period)
	}
}

func TestFineVolumeSlides(t *testing.T) {
	v, _ := testVoice()
	v.setHardwareVolume(60)
	v.startEffect(note(0, 0, 0xe, 0xa8))
	if v.hwVolume != 64 {
		t.Errorf("Expected 64, got %d", v.hwVolume)
	}
	v.startEffect(note(0, 0, 0xe, 0xb5))
	if v.hwVolume != 59 || v.volume != 59 {
		t.Errorf("Expected 59, got %d/%d", v.hwVolume, v.volume)
	}
}

func TestSampleOffsetReplaysLast(t *testing.T) {
	s := loopedSample(2048, 0, 0)
	v, samples := testVoice(s)

	first := note(1, 428, 0x9, 0x04)
	v.triggerNote(samples, first)
	v.startEffect(first)
	if v.pos != 1024 {
		t.Fatalf("Expected offset 1024, got %f", v.pos)
	}

	again := note(1, 428, 0x9, 0x00)
	v.triggerNote(samples, again)
	v.startEffect(again)
	if v.pos != 1024 {
		t.Errorf("Expected replayed offset 1024, got %f", v.pos)
	}
}

func TestSetFineTuneEffect(t *testing.T) {
	s := loopedSample(32, 0, 0)
	v, samples := testVoice(s)
	n := note(1, 428, 0xe, 0x5f)
	v.triggerNote(samples, n)
	v.startEffect(n)

	if s.FineTune != -1 {
		t.Errorf("Expected fine-tune -1, got %d", s.FineTune)
	}
	want := 3579545.0 / 428.0 * math.Pow(2, -1.0/96.0)
	if math.Abs(v.frequency-want) > 1e-9 {
		t.Errorf("Expected frequency %f, got %f", want, v.frequency)
	}
}

func TestNoteCut(t *testing.T) {
	s := loopedSample(32, 0, 0)
	v, samples := testVoice(s)
	cut := note(1, 428, 0xe, 0xc3)
	v.triggerNote(samples, cut)
	v.startEffect(cut)

	for tick := 1; tick < 6; tick++ {
		v.updateEffect(tick, cut)
		if tick < 3 && v.hwVolume != 64 {
			t.Fatalf("tick %d: expected volume 64 before the cut, got %d", tick, v.hwVolume)
		}
		if tick >= 3 && v.hwVolume != 0 {
			t.Fatalf("tick %d: expected cut volume, got %d", tick, v.hwVolume)
		}
	}

	v.triggerNote(samples, note(1, 428, 0, 0))
	v.startEffect(note(0, 0, 0xe, 0xc0))
	if v.hwVolume != 0 {
		t.Errorf("Expected EC0 to cut on tick 0, got %d", v.hwVolume)
	}
}

func TestVibratoPhaseRetrigger(t *testing.T) {
	s := loopedSample(32, 0, 0)
	v, samples := testVoice(s)
	vib := note(1, 428, 0x4, 0x48)
	v.triggerNote(samples, vib)
	v.startEffect(vib)
	if v.vibrato.speed != 4 || v.vibrato.depth != 8 {
		t.Fatalf("Expected speed 4 depth 8, got %d %d", v.vibrato.speed, v.vibrato.depth)
	}
	v.updateEffect(1, vib)
	v.updateEffect(2, vib)
	if v.vibrato.pos != 8 {
		t.Fatalf("Expected phase 8, got %d", v.vibrato.pos)
	}

	v.triggerNote(samples, vib)
	if v.vibrato.pos != 0 {
		t.Errorf("Expected phase reset on a new note, got %d", v.vibrato.pos)
	}

	v.startEffect(note(0, 0, 0xe, 0x44))
	v.updateEffect(1, vib)
	v.triggerNote(samples, vib)
	if v.vibrato.pos != 4 {
		t.Errorf("Expected phase kept with waveform control 4, got %d", v.vibrato.pos)
	}

	// zero nibbles keep the previous speed and depth
	v.startEffect(note(0, 0, 0x4, 0x00))
	if v.vibrato.speed != 4 || v.vibrato.depth != 8 {
		t.Errorf("Expected latched speed/depth, got %d %d", v.vibrato.speed, v.vibrato.depth)
	}
}

func TestOscillatorWaveforms(t *testing.T) {
	testCases := []struct {
		name    string
		control int
		want    []float64
	}{
		{"Sine", 0, []float64{math.Sin(math.Pi / 2), math.Sin(math.Pi), math.Sin(3 * math.Pi / 2), 0}},
		{"Ramp down", 1, []float64{0.5, 0, -0.5, 1}},
		{"Square", 2, []float64{1, -1, -1, 1}},
		{"Random plays square", 3, []float64{1, -1, -1, 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := oscillator{speed: 16, control: tc.control}
			for i, want := range tc.want {
				if got := o.advance(); math.Abs(got-want) > 1e-9 {
					t.Errorf("step %d: expected %f, got %f", i, want, got)
				}
			}
		})
	}
}

func TestTremoloLeavesLogicalVolume(t *testing.T) {
	s := loopedSample(32, 0, 0)
	v, samples := testVoice(s)
	trem := note(1, 428, 0x7, 0x8f)
	v.triggerNote(samples, trem)
	v.startEffect(note(0, 0, 0xc, 0x20))
	v.startEffect(trem)

	v.updateEffect(1, trem)
	if v.volume != 32 {
		t.Errorf("Expected logical volume 32, got %d", v.volume)
	}
	if v.hwVolume == 32 {
		t.Errorf("Expected tremolo to move the hardware volume")
	}
}

// TestVoiceRangesUnderRandomEffects drives a voice with random effect
// commands and checks that period and volume never leave their ranges.
func TestVoiceRangesUnderRandomEffects(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := loopedSample(256, 32, 128)
	v, samples := testVoice(s)

	for row := 0; row < 5000; row++ {
		period := 0
		if rng.Intn(3) == 0 {
			period = PeriodMin + rng.Intn(PeriodMax-PeriodMin+1)
		}
		n := note(rng.Intn(2), period, uint8(rng.Intn(16)), uint8(rng.Intn(256)))

		v.latchRow(n)
		v.triggerNote(samples, n)
		v.startEffect(n)
		check(t, v, row, 0)
		for tick := 1; tick < 6; tick++ {
			v.updateEffect(tick, n)
			check(t, v, row, tick)
			v.nextOutputSample()
		}
	}
}

func check(t *testing.T, v *Voice, row, tick int) {
	t.Helper()
	if v.period != 0 && (v.period < PeriodMin || v.period > PeriodMax) {
		t.Fatalf("row %d tick %d: period %f out of range", row, tick, v.period)
	}
	if v.hwVolume < 0 || v.hwVolume > VolumeMax || v.volume < 0 || v.volume > VolumeMax {
		t.Fatalf("row %d tick %d: volume %d/%d out of range", row, tick, v.hwVolume, v.volume)
	}
}
