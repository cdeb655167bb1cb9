package speaker

// Loosely based on the speaker in https://github.com/faiface/beep

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/oto"
)

// Streamer provides signed 8-bit mono samples. It returns false once it
// has nothing left to play.
type Streamer interface {
	Stream(samples []int8) (n int, ok bool)
}

var (
	mu       sync.Mutex
	samples  []int8
	buf      []byte
	context  *oto.Context
	player   *oto.Player
	done     chan struct{}
	streamer Streamer
	callback func()
)

// Init initializes audio playback through speaker. Must be called before using this package.
//
// The bufferSize argument specifies the number of samples of the speaker's buffer. Bigger
// bufferSize means lower CPU usage and more reliable playback. Lower bufferSize means better
// responsiveness and less delay.
func Init(sampleRate, bufferSize int) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	samples = make([]int8, bufferSize)
	buf = make([]byte, bufferSize*2)

	var err error
	context, err = oto.NewContext(sampleRate, 1, 2, len(buf))
	if err != nil {
		return fmt.Errorf("speaker: could not initialise: %w", err)
	}
	player = context.NewPlayer()

	done = make(chan struct{})
	go loop(done)

	return nil
}

// Close stops playback and releases the audio device.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if player == nil {
		return
	}
	close(done)
	player.Close()
	context.Close()
	player = nil
	context = nil
	done = nil
	streamer = nil
	callback = nil
}

// Play replaces whatever is playing with s. callback runs once s is
// drained; it may be nil.
func Play(s Streamer, cb func()) {
	mu.Lock()
	streamer = s
	callback = cb
	mu.Unlock()
}

func loop(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
			update()
		}
	}
}

// update pulls one buffer from the streamer and blocks in the device
// write. Silence is written while nothing is playing.
func update() {
	mu.Lock()
	p := player
	if p == nil {
		mu.Unlock()
		return
	}

	n, ok := 0, true
	if streamer != nil {
		n, ok = streamer.Stream(samples)
	}
	for i := n; i < len(samples); i++ {
		samples[i] = 0
	}
	encode(buf, samples)

	var finished func()
	if !ok {
		streamer = nil
		finished = callback
		callback = nil
	}
	mu.Unlock()

	if finished != nil {
		finished()
	}
	p.Write(buf)
}

// encode converts signed 8-bit samples to 16-bit little endian.
func encode(dst []byte, src []int8) {
	for i, s := range src {
		v := int16(s) << 8
		dst[i*2] = byte(v)
		dst[i*2+1] = byte(v >> 8)
	}
}
