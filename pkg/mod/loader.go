package mod

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	maxChannels    = 32
	maxInstruments = 31
	defaultTempo   = 125
	defaultSpeed   = 6
)

// reader walks a module forward once. Every read is bounds checked and
// fails with a ParseError naming the field.
type reader struct {
	data   []byte
	offset int
}

func (r *reader) bytes(field string, n int) ([]byte, error) {
	if n < 0 || r.offset+n > len(r.data) {
		return nil, malformed(field, r.offset, "need %d bytes, %d left", n, len(r.data)-r.offset)
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *reader) uint8(field string) (uint8, error) {
	b, err := r.bytes(field, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint16(field string) (uint16, error) {
	b, err := r.bytes(field, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) uint32(field string) (uint32, error) {
	b, err := r.bytes(field, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Parse decodes a module. The channel and instrument counts are not
// stored in the file and must be supplied by the caller; DetectFormat
// can guess them from the format tag.
func Parse(data []byte, channels, instruments int) (*Song, error) {
	if channels < 1 || channels > maxChannels {
		return nil, malformed("channel count", 0, "%d channels out of range", channels)
	}
	if instruments < 1 || instruments > maxInstruments {
		return nil, malformed("instrument count", 0, "%d instruments out of range", instruments)
	}

	r := &reader{data: data}
	title, err := r.bytes("song title", 20)
	if err != nil {
		return nil, err
	}

	samples := make([]*Sample, instruments)
	for i := range samples {
		s, err := newSample(r)
		if err != nil {
			return nil, err
		}
		samples[i] = s
	}

	songLength, err := r.uint8("song length")
	if err != nil {
		return nil, err
	}
	if _, err := r.uint8("restart position"); err != nil {
		return nil, err
	}
	orderTable, err := r.bytes("order table", 128)
	if err != nil {
		return nil, err
	}

	song := &Song{
		Name:        decodeName(title),
		NumChannels: channels,
		Samples:     samples,
		SongLength:  int(songLength),
		Tempo:       defaultTempo,
		Speed:       defaultSpeed,
	}
	if song.SongLength > len(song.Orders) {
		song.SongLength = len(song.Orders)
	}

	numPatterns := 0
	for i, p := range orderTable {
		song.Orders[i] = p
		if int(p) > numPatterns {
			numPatterns = int(p)
		}
	}
	numPatterns++

	tag, err := r.bytes("format tag", 4)
	if err != nil {
		return nil, err
	}
	song.Format = FormatDescription{
		Tag:         string(tag),
		NumChannels: channels,
		NumSamples:  instruments,
	}

	song.Patterns = make([]Pattern, numPatterns)
	for i := range song.Patterns {
		p, err := newPattern(r, channels)
		if err != nil {
			return nil, err
		}
		song.Patterns[i] = p
	}

	for i, s := range samples {
		raw, err := r.bytes(fmt.Sprintf("sample %d data", i+1), s.Length)
		if err != nil {
			return nil, err
		}
		s.Data = make([]int8, len(raw))
		for pos, b := range raw {
			s.Data[pos] = int8(b)
		}
	}

	return song, nil
}

// LoadModule reads a whole module from r and parses it.
func LoadModule(r io.Reader, channels, instruments int) (*Song, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, channels, instruments)
}
