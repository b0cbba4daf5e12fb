// ABOUTME: Oto-based playback backend implementing player.Backend
// ABOUTME: Also acts as the sample event source feeding the peak pipeline
package backend

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/google/uuid"

	"github.com/waveplay-audio/waveplay-go/pkg/audio"
	"github.com/waveplay-audio/waveplay-go/pkg/bus"
	"github.com/waveplay-audio/waveplay-go/pkg/player"
	"github.com/waveplay-audio/waveplay-go/pkg/waveform"
)

// maxChunk bounds how much PCM one pull from oto may consume, so
// position and sample events keep a steady cadence (~200ms at 44.1kHz
// stereo).
const maxChunk = 32 * 1024

// Oto plays local media files through the system audio device. While
// audio is being pulled by the device it publishes waveform.SamplesReceived
// events on the bus, which makes the backend the Sample Event Source of
// the peak pipeline. Rate changes and balance are not supported.
type Oto struct {
	bus    *bus.Bus // may be nil; then no sample events are published
	events chan player.Event

	evMu     sync.RWMutex
	evClosed bool

	mu        sync.Mutex
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	media     *media
	volume    int
	closed    bool
}

// media is one decoded file. Its Read method is pulled from oto's own
// goroutine, which is where position and sample events originate.
type media struct {
	owner  *Oto
	id     uuid.UUID
	format audio.Format
	pcm    []byte

	mu  sync.Mutex
	pos int
	eof bool
}

// NewOto creates the backend. Pass a bus to receive sample events, or
// nil to play without feeding the peak pipeline.
func NewOto(b *bus.Bus) *Oto {
	return &Oto{
		bus:    b,
		events: make(chan player.Event, 128),
		volume: 100,
	}
}

// Events implements player.Backend.
func (o *Oto) Events() <-chan player.Event {
	return o.events
}

// Load implements player.Backend. It decodes the file up front so
// duration is known immediately.
func (o *Oto) Load(uri string) error {
	format, pcm, err := decodeFile(uri)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return player.ErrClosed
	}

	if err := o.ensureContext(format); err != nil {
		return err
	}

	o.media = &media{owner: o, id: uuid.New(), format: format, pcm: pcm}
	o.otoPlayer = o.otoCtx.NewPlayer(o.media)
	o.otoPlayer.SetVolume(float64(o.volume) / 100.0)

	o.emit(player.Event{Kind: player.EventMediaChanged})
	o.emit(player.Event{Kind: player.EventLengthChanged, Length: format.Duration(len(pcm))})

	log.Printf("backend: loaded %s (%dHz %dch, %.1fs)",
		uri, format.SampleRate, format.Channels, format.Duration(len(pcm)))
	return nil
}

// ensureContext creates the process-wide oto context on first use. Oto
// allows a single context per process, so a later format change keeps
// the original device configuration.
func (o *Oto) ensureContext(format audio.Format) error {
	if o.otoCtx != nil {
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("oto context: %w", err)
	}
	<-ready
	o.otoCtx = ctx
	return nil
}

// Unload implements player.Backend.
func (o *Oto) Unload() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unloadLocked()
	return nil
}

func (o *Oto) unloadLocked() {
	if o.otoPlayer != nil {
		o.otoPlayer.Close()
		o.otoPlayer = nil
	}
	o.media = nil
}

// Play implements player.Backend.
func (o *Oto) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.media == nil || o.otoPlayer == nil {
		return fmt.Errorf("backend: no media loaded")
	}

	// After end of media the oto player has seen EOF and will not pull
	// again; rebuild it around the same decoded stream.
	if o.media.rewindIfEnded() {
		o.otoPlayer.Close()
		o.otoPlayer = o.otoCtx.NewPlayer(o.media)
		o.otoPlayer.SetVolume(float64(o.volume) / 100.0)
	}

	o.otoPlayer.Play()
	o.emit(player.Event{Kind: player.EventPlaying})
	return nil
}

// Pause implements player.Backend.
func (o *Oto) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.otoPlayer == nil {
		return fmt.Errorf("backend: no media loaded")
	}
	o.otoPlayer.Pause()
	o.emit(player.Event{Kind: player.EventPaused})
	return nil
}

// Stop implements player.Backend. Oto has no stop primitive; pause plus
// a rewind is equivalent.
func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.otoPlayer != nil {
		o.otoPlayer.Pause()
	}
	if o.media != nil {
		o.media.seek(0)
	}
	o.emit(player.Event{Kind: player.EventStopped})
	return nil
}

// Position implements player.Backend.
func (o *Oto) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.media == nil {
		return 0
	}
	return o.media.fraction()
}

// SetPosition implements player.Backend.
func (o *Oto) SetPosition(fraction float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.media == nil {
		return fmt.Errorf("backend: no media loaded")
	}
	o.media.seekFraction(fraction)
	o.emit(player.Event{Kind: player.EventPositionChanged, Fraction: o.media.fraction()})
	return nil
}

// Volume implements player.Backend.
func (o *Oto) Volume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// SetVolume implements player.Backend.
func (o *Oto) SetVolume(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = percent
	if o.otoPlayer != nil {
		o.otoPlayer.SetVolume(float64(percent) / 100.0)
	}
	return nil
}

// SetRate implements player.Backend. Oto plays at device rate only.
func (o *Oto) SetRate(rate float64) error {
	return fmt.Errorf("backend: playback rate not supported")
}

// Close implements player.Backend.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	o.unloadLocked()
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}

	o.evMu.Lock()
	o.evClosed = true
	close(o.events)
	o.evMu.Unlock()
	return nil
}

// emit queues an event without blocking device callbacks. The channel is
// sized for bursts; a full channel drops the oldest pending event first.
func (o *Oto) emit(ev player.Event) {
	o.evMu.RLock()
	defer o.evMu.RUnlock()
	if o.evClosed {
		return
	}

	select {
	case o.events <- ev:
		return
	default:
	}
	select {
	case <-o.events:
	default:
	}
	select {
	case o.events <- ev:
	default:
	}
}

// Read feeds PCM to oto and is the origin of position and sample events.
// It runs on oto's pull goroutine, never the caller's.
func (m *media) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.pos >= len(m.pcm) {
		m.eof = true
		m.mu.Unlock()
		m.owner.emit(player.Event{Kind: player.EventMediaEnded})
		return 0, io.EOF
	}

	n := len(p)
	if n > maxChunk {
		n = maxChunk
	}
	if rest := len(m.pcm) - m.pos; n > rest {
		n = rest
	}
	frame := m.format.BytesPerFrame()
	n -= n % frame
	if n == 0 {
		m.mu.Unlock()
		return 0, nil
	}

	start := m.pos
	copy(p, m.pcm[start:start+n])
	m.pos += n
	fraction := float64(m.pos) / float64(len(m.pcm))
	m.mu.Unlock()

	m.owner.emit(player.Event{Kind: player.EventPositionChanged, Fraction: fraction})

	if m.owner.bus != nil {
		m.owner.bus.Publish(waveform.SamplesReceived{
			Source:    m.id,
			Start:     m.format.Duration(start),
			Data:      m.pcm[start : start+n],
			Format:    m.format,
			AudioTime: m.format.Duration(start),
		})
	}

	return n, nil
}

func (m *media) fraction() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pcm) == 0 {
		return 0
	}
	return float64(m.pos) / float64(len(m.pcm))
}

func (m *media) seek(pos int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	frame := m.format.BytesPerFrame()
	pos -= pos % frame
	if pos < 0 {
		pos = 0
	}
	if pos > len(m.pcm) {
		pos = len(m.pcm)
	}
	m.pos = pos
	m.eof = false
}

func (m *media) seekFraction(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	m.seek(int(fraction * float64(len(m.pcm))))
}

func (m *media) rewindIfEnded() bool {
	m.mu.Lock()
	ended := m.eof
	m.mu.Unlock()
	if ended {
		m.seek(0)
	}
	return ended
}
