package speaker

import "sync"

// Buffer streams a rendered PCM buffer and tracks the playback position.
type Buffer struct {
	mu  sync.Mutex
	pcm []int8
	pos int
}

// NewBuffer returns a Buffer positioned at the start of pcm.
func NewBuffer(pcm []int8) *Buffer {
	return &Buffer{pcm: pcm}
}

// Stream implements Streamer.
func (b *Buffer) Stream(samples []int8) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pos >= len(b.pcm) {
		return 0, false
	}
	n := copy(samples, b.pcm[b.pos:])
	b.pos += n
	return n, true
}

// Position is the offset of the next sample to be played.
func (b *Buffer) Position() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

// Replace swaps in a new rendering of the same song and keeps playing
// from the current offset.
func (b *Buffer) Replace(pcm []int8) {
	b.mu.Lock()
	b.pcm = pcm
	b.mu.Unlock()
}

// Reset starts a new buffer from the beginning.
func (b *Buffer) Reset(pcm []int8) {
	b.mu.Lock()
	b.pcm = pcm
	b.pos = 0
	b.mu.Unlock()
}

// Level returns the mean and peak amplitude of the last window samples
// played, both in [0, 1].
func (b *Buffer) Level(window int) (mean, peak float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := b.pos
	if end > len(b.pcm) {
		end = len(b.pcm)
	}
	start := end - window
	if start < 0 {
		start = 0
	}
	if start == end {
		return 0, 0
	}

	var sum, top int
	for _, s := range b.pcm[start:end] {
		v := int(s)
		if v < 0 {
			v = -v
		}
		sum += v
		if v > top {
			top = v
		}
	}
	mean = float64(sum) / float64(end-start) / 128
	peak = float64(top) / 128
	return mean, peak
}
