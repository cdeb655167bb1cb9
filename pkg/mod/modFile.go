package mod

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const (
	formatTagOffset = 1080
	sampleHeaderLen = 30
	noteLen         = 4
)

// DetectFormat guesses the channel and sample counts from the tag at
// offset 1080. Unknown or missing tags fall back to 4 channels and 31
// samples.
func DetectFormat(data []byte) FormatDescription {
	fd := FormatDescription{
		NumChannels: 4,
		NumSamples:  31,
	}
	if len(data) < formatTagOffset+4 {
		return fd
	}
	tag := string(data[formatTagOffset : formatTagOffset+4])

	switch tag {
	case "M.K.", "FLT4", "M!K!", "4CHN":
		fd.Tag = tag
	case "6CHN":
		fd.Tag = tag
		fd.NumChannels = 6
	case "8CHN", "CD81", "OKTA", "FLT8":
		fd.Tag = tag
		fd.NumChannels = 8
	default:
		// xCHN and xxCH
		var digits string
		switch {
		case strings.HasSuffix(tag, "CHN"):
			digits = tag[:1]
		case strings.HasSuffix(tag, "CH"):
			digits = tag[:2]
		}
		if n, err := strconv.Atoi(digits); err == nil && n > 0 && n <= maxChannels {
			fd.Tag = tag
			fd.NumChannels = n
		}
	}
	return fd
}

// decodeName turns a fixed-width Latin-1 field into a string, dropping
// everything from the first NUL and trailing spaces.
func decodeName(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	name, err := charmap.ISO8859_1.NewDecoder().Bytes(field)
	if err != nil {
		return strings.TrimRight(string(field), " ")
	}
	return strings.TrimRight(string(name), " ")
}

func newSample(r *reader) (*Sample, error) {
	name, err := r.bytes("sample name", 22)
	if err != nil {
		return nil, err
	}
	length, err := r.uint16("sample length")
	if err != nil {
		return nil, err
	}
	fineTune, err := r.uint8("sample finetune")
	if err != nil {
		return nil, err
	}
	volume, err := r.uint8("sample volume")
	if err != nil {
		return nil, err
	}
	loopStart, err := r.uint16("sample loop start")
	if err != nil {
		return nil, err
	}
	loopLength, err := r.uint16("sample loop length")
	if err != nil {
		return nil, err
	}

	s := &Sample{
		Name:       decodeName(name),
		Length:     int(length) * 2,
		FineTune:   signedNibble(fineTune),
		Volume:     clampVolume(int(volume)),
		LoopStart:  int(loopStart) * 2,
		LoopLength: int(loopLength) * 2,
	}

	// Some trackers store loops that run past the end of the sample.
	if s.LoopStart >= s.Length {
		s.LoopStart = 0
		s.LoopLength = 0
	} else if s.LoopStart+s.LoopLength > s.Length {
		s.LoopLength = s.Length - s.LoopStart
	}
	s.LoopEnd = s.LoopStart + s.LoopLength - 1
	s.Looped = s.LoopLength > 2
	return s, nil
}

// signedNibble sign-extends the low nibble: 8..15 become -8..-1.
func signedNibble(v uint8) int {
	n := int(v & 0x0f)
	if n > 7 {
		n -= 16
	}
	return n
}

func newNote(word uint32) Note {
	return Note{
		SampleNumber: int((word&0xf0000000)>>24 | (word&0xf000)>>12),
		Period:       int((word & 0x0fff0000) >> 16),
		Effect:       DecodeEffect(uint8((word&0x0f00)>>8), uint8(word&0xff)),
	}
}

func newPattern(r *reader, numChannels int) (Pattern, error) {
	rows := make([]Row, RowsPerPattern)
	for rowIndex := range rows {
		row := make(Row, numChannels)
		for channel := range row {
			word, err := r.uint32("pattern note")
			if err != nil {
				return Pattern{}, err
			}
			row[channel] = newNote(word)
		}
		rows[rowIndex] = row
	}
	return Pattern{Rows: rows}, nil
}
