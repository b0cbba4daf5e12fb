// ABOUTME: Bridges raw sample events to peak events on the bus
// ABOUTME: Stateless transform stage, subscribed for the process lifetime
package waveform

import (
	"github.com/waveplay-audio/waveplay-go/pkg/bus"
)

// Publisher listens for SamplesReceived events, reduces each buffer with
// its Sampler and republishes the result as PeaksReceived. Buffers that
// produce no peaks are dropped silently. There is no unsubscribe path;
// a Publisher lives as long as its bus.
type Publisher struct {
	bus     *bus.Bus
	sampler *Sampler
}

// NewPublisher wires a publisher onto b. The subscription is taken
// immediately. A nil sampler gets the default window width.
func NewPublisher(b *bus.Bus, sampler *Sampler) *Publisher {
	if b == nil {
		panic("waveform: nil bus")
	}
	if sampler == nil {
		sampler = NewSampler(DefaultSamplesPerPeak)
	}

	p := &Publisher{bus: b, sampler: sampler}
	bus.Subscribe(b, p.handleSamples)
	return p
}

// handleSamples runs on the publishing goroutine of the sample source.
// Sampler panics propagate to that caller; a single bad buffer should be
// visible, and dropping one buffer never stalls the stream.
func (p *Publisher) handleSamples(ev SamplesReceived) {
	peaks := p.sampler.Sample(ev.Format, ev.Data)
	if len(peaks) == 0 {
		return
	}

	p.bus.Publish(PeaksReceived{
		Source:    ev.Source,
		Start:     ev.Start,
		End:       ev.Start + ev.Format.Duration(len(ev.Data)),
		Peaks:     peaks,
		AudioTime: ev.AudioTime,
	})
}
