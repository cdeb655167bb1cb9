// Package wavfile writes rendered 8-bit PCM as RIFF/WAVE.
package wavfile

import (
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// Streamer feeds signed 8-bit mono samples to beep as float frames.
type Streamer struct {
	pcm []int8
	pos int
}

// NewStreamer returns a Streamer over pcm, starting at its first sample.
func NewStreamer(pcm []int8) *Streamer {
	return &Streamer{pcm: pcm}
}

// Stream fills samples with the same value on both channels, scaled to
// [-1, 1). It returns false once the PCM is drained.
func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.pcm) {
		return 0, false
	}
	for n < len(samples) && s.pos < len(s.pcm) {
		v := float64(s.pcm[s.pos]) / 128
		samples[n][0] = v
		samples[n][1] = v
		n++
		s.pos++
	}
	return n, true
}

// Err always returns nil; reading from memory cannot fail.
func (s *Streamer) Err() error {
	return nil
}

// Format is the WAV layout used for exports: mono, 8 bits per sample.
func Format(sampleRate int) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   1,
	}
}

// Encode writes pcm to w as a mono 8-bit WAV file.
func Encode(w io.WriteSeeker, pcm []int8, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("wavfile: invalid sample rate %d", sampleRate)
	}
	if err := wav.Encode(w, NewStreamer(pcm), Format(sampleRate)); err != nil {
		return fmt.Errorf("wavfile: encode: %w", err)
	}
	return nil
}

// WriteFile creates path and encodes pcm into it.
func WriteFile(path string, pcm []int8, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavfile: %w", err)
	}
	if err := Encode(f, pcm, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
