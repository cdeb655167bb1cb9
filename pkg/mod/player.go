package mod

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"
)

// DefaultSampleRate is the CD rate, used when no rate is given
const DefaultSampleRate = 44100

// Player renders songs to signed 8-bit mono PCM
type Player struct {
	SampleRate          int
	Standard            Standard
	clockTicksPerSecond float64
	muted               []bool
}

// NewModPlayer instantiates the mod player. It uses the NTSC clock
// until SetStandard says otherwise.
func NewModPlayer(sampleRate int) *Player {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	p := &Player{
		SampleRate: sampleRate,
	}
	p.SetStandard(NTSC)
	return p
}

// SetStandard selects the PAL or NTSC clock. Unknown values are ignored.
func (p *Player) SetStandard(standard Standard) {
	clock, ok := clockTicksPerSecond[standard]
	if !ok {
		return
	}
	p.Standard = standard
	p.clockTicksPerSecond = clock
}

// Mute excludes a channel from the mix of subsequent renders.
func (p *Player) Mute(channel int, muted bool) {
	if channel < 0 {
		return
	}
	for len(p.muted) <= channel {
		p.muted = append(p.muted, false)
	}
	p.muted[channel] = muted
}

// Muted reports whether a channel is excluded from the mix.
func (p *Player) Muted(channel int) bool {
	return channel >= 0 && channel < len(p.muted) && p.muted[channel]
}

// Render plays the whole song into a PCM buffer.
func (p *Player) Render(ctx context.Context, song *Song) (*Rendering, error) {
	return p.RenderFrom(ctx, song, 0)
}

// RenderFrom plays the song starting at the given order position.
func (p *Player) RenderFrom(ctx context.Context, song *Song, order int) (*Rendering, error) {
	if song == nil {
		return nil, fmt.Errorf("render: no song")
	}
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if order < 0 || (order >= song.SongLength && song.SongLength > 0) {
		return nil, fmt.Errorf("render: start order %d outside song length %d", order, song.SongLength)
	}

	muted := append([]bool(nil), p.muted...)
	seq := newSequencer(song, p.clockTicksPerSecond, p.SampleRate, muted)
	if err := seq.run(ctx, order); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	return &Rendering{
		PCM:        seq.mixer.out,
		SampleRate: p.SampleRate,
		Positions:  seq.positions,
	}, nil
}

// Rendering is a finished playthrough.
type Rendering struct {
	PCM        []int8
	SampleRate int
	// Positions lists every played row in order with the offset of its
	// first output sample.
	Positions []Position
}

// Bytes returns the PCM as raw signed 8-bit bytes.
func (r *Rendering) Bytes() []byte {
	b := make([]byte, len(r.PCM))
	for i, s := range r.PCM {
		b[i] = byte(s)
	}
	return b
}

// WriteTo hands the PCM to a sink as signed 8-bit bytes.
func (r *Rendering) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// Duration is the playing time of the rendering.
func (r *Rendering) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(r.PCM)) * time.Second / time.Duration(r.SampleRate)
}

// PositionAt returns the row playing at the given output sample.
func (r *Rendering) PositionAt(offset int) (Position, bool) {
	i := sort.Search(len(r.Positions), func(i int) bool {
		return r.Positions[i].Offset > offset
	})
	if i == 0 {
		return Position{}, false
	}
	return r.Positions[i-1], true
}
