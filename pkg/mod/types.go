package mod

import "fmt"

// Song represents a parsed module. It is never modified by rendering.
type Song struct {
	Name        string
	NumChannels int
	Samples     []*Sample
	SongLength  int
	Orders      [128]uint8
	Patterns    []Pattern
	Tempo       int
	Speed       int
	Format      FormatDescription
}

// Sample stores the raw sample data as well as loop and volume metadata
type Sample struct {
	Name       string
	Length     int
	FineTune   int
	Volume     int
	LoopStart  int
	LoopLength int
	LoopEnd    int
	Looped     bool
	Data       []int8
}

// Note defines a sample, period, and effect
type Note struct {
	SampleNumber int
	Period       int
	Effect       Effect
}

func (n Note) String() string {
	name := "..."
	if n.Period > 0 {
		name = NoteName(n.Period)
	}
	sample := ".."
	if n.SampleNumber > 0 {
		sample = fmt.Sprintf("%02d", n.SampleNumber)
	}
	return fmt.Sprintf("%s %s %s", name, sample, n.Effect)
}

// Row is just an array of notes, 1 per channel
type Row []Note

// Pattern defines the 64 rows that make up a pattern
type Pattern struct {
	Rows []Row
}

// RowsPerPattern is fixed for every module in the family.
const RowsPerPattern = 64

// Pattern returns the pattern played at the given order position.
func (s *Song) Pattern(order int) *Pattern {
	if order < 0 || order >= len(s.Orders) {
		return nil
	}
	idx := int(s.Orders[order])
	if idx >= len(s.Patterns) {
		return nil
	}
	return &s.Patterns[idx]
}

// Validate checks that a song can be rendered. Parse always produces a
// valid song; hand-built ones may not be.
func (s *Song) Validate() error {
	if s.NumChannels < 1 || s.NumChannels > maxChannels {
		return fmt.Errorf("%d channels: %w", s.NumChannels, ErrMalformedModule)
	}
	if s.SongLength < 0 || s.SongLength > len(s.Orders) {
		return fmt.Errorf("song length %d: %w", s.SongLength, ErrMalformedModule)
	}
	if s.Tempo <= 0 || s.Speed <= 0 {
		return fmt.Errorf("tempo %d speed %d: %w", s.Tempo, s.Speed, ErrMalformedModule)
	}
	for i, sample := range s.Samples {
		if sample == nil {
			return fmt.Errorf("sample %d missing: %w", i+1, ErrMalformedModule)
		}
	}
	for order := 0; order < s.SongLength; order++ {
		p := s.Pattern(order)
		if p == nil {
			return fmt.Errorf("order %d plays pattern %d of %d: %w", order, s.Orders[order], len(s.Patterns), ErrMalformedModule)
		}
		if len(p.Rows) < RowsPerPattern {
			return fmt.Errorf("pattern %d has %d rows: %w", s.Orders[order], len(p.Rows), ErrMalformedModule)
		}
		for r, row := range p.Rows[:RowsPerPattern] {
			if len(row) < s.NumChannels {
				return fmt.Errorf("pattern %d row %d has %d of %d channels: %w", s.Orders[order], r, len(row), s.NumChannels, ErrMalformedModule)
			}
		}
	}
	return nil
}

// FormatDescription stores the parsed data of a particular mod format/version
type FormatDescription struct {
	Tag         string
	NumChannels int
	NumSamples  int
}

// Position marks where a row starts in the rendered output.
type Position struct {
	Order   int
	Pattern int
	Row     int
	Offset  int
}
