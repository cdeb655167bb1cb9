package mod

import (
	"context"
	"encoding/binary"
	"testing"
)

type testSample struct {
	name       string
	data       []int8
	fineTune   uint8
	volume     uint8
	loopStart  int
	loopLength int
}

// moduleBuilder assembles module bytes in the 1084-byte-offset layout.
type moduleBuilder struct {
	title       string
	channels    int
	instruments int
	songLength  int
	orders      [128]uint8
	samples     []testSample
	notes       map[[3]int]uint32
}

func newModuleBuilder(channels, instruments int) *moduleBuilder {
	return &moduleBuilder{
		title:       "test song",
		channels:    channels,
		instruments: instruments,
		songLength:  1,
		notes:       map[[3]int]uint32{},
	}
}

func noteWord(sample, period int, effect, param uint8) uint32 {
	return uint32(sample&0xf0)<<24 |
		uint32(period&0x0fff)<<16 |
		uint32(sample&0x0f)<<12 |
		uint32(effect&0x0f)<<8 |
		uint32(param)
}

func (b *moduleBuilder) sample(s testSample) *moduleBuilder {
	b.samples = append(b.samples, s)
	return b
}

func (b *moduleBuilder) order(orders ...uint8) *moduleBuilder {
	b.songLength = len(orders)
	copy(b.orders[:], orders)
	return b
}

func (b *moduleBuilder) note(pattern, row, channel, sample, period int, effect, param uint8) *moduleBuilder {
	b.notes[[3]int{pattern, row, channel}] = noteWord(sample, period, effect, param)
	return b
}

func (b *moduleBuilder) bytes() []byte {
	var out []byte
	title := make([]byte, 20)
	copy(title, b.title)
	out = append(out, title...)

	for i := 0; i < b.instruments; i++ {
		var s testSample
		if i < len(b.samples) {
			s = b.samples[i]
		}
		header := make([]byte, 30)
		copy(header, s.name)
		binary.BigEndian.PutUint16(header[22:], uint16(len(s.data)/2))
		header[24] = s.fineTune
		header[25] = s.volume
		binary.BigEndian.PutUint16(header[26:], uint16(s.loopStart/2))
		binary.BigEndian.PutUint16(header[28:], uint16(s.loopLength/2))
		out = append(out, header...)
	}

	out = append(out, byte(b.songLength), 0x7f)
	out = append(out, b.orders[:]...)
	out = append(out, "M.K."...)

	numPatterns := 0
	for _, o := range b.orders {
		if int(o) > numPatterns {
			numPatterns = int(o)
		}
	}
	numPatterns++

	word := make([]byte, 4)
	for p := 0; p < numPatterns; p++ {
		for row := 0; row < RowsPerPattern; row++ {
			for ch := 0; ch < b.channels; ch++ {
				binary.BigEndian.PutUint32(word, b.notes[[3]int{p, row, ch}])
				out = append(out, word...)
			}
		}
	}

	for i := 0; i < b.instruments; i++ {
		if i < len(b.samples) {
			for _, v := range b.samples[i].data {
				out = append(out, byte(v))
			}
		}
	}
	return out
}

func (b *moduleBuilder) song(t *testing.T) *Song {
	t.Helper()
	song, err := Parse(b.bytes(), b.channels, b.instruments)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return song
}

func render(t *testing.T, song *Song) *Rendering {
	t.Helper()
	r, err := NewModPlayer(DefaultSampleRate).Render(context.Background(), song)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return r
}

// constantSample returns n bytes of the same value.
func constantSample(n int, value int8) []int8 {
	data := make([]int8, n)
	for i := range data {
		data[i] = value
	}
	return data
}

// rampSample returns n bytes counting up from -64.
func rampSample(n int) []int8 {
	data := make([]int8, n)
	for i := range data {
		data[i] = int8(i%128 - 64)
	}
	return data
}
