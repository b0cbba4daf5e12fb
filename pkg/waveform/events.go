// ABOUTME: Event types for the sample-to-peak pipeline
// ABOUTME: Raw sample buffers in, downsampled peak spans out
package waveform

import (
	"github.com/google/uuid"

	"github.com/waveplay-audio/waveplay-go/pkg/audio"
)

// Peak holds the signed amplitude extrema of one downsampled window.
// Values are left-justified 24-bit, matching audio.SampleFromInt16.
type Peak struct {
	Min int32
	Max int32
}

// SamplesReceived carries one raw PCM buffer from a playing stream.
// Buffers are immutable once published and consumed exactly once.
type SamplesReceived struct {
	Source    uuid.UUID    // identity of the emitting stream
	Start     float64      // stream offset of the first byte, seconds
	Data      []byte       // raw PCM bytes
	Format    audio.Format // how to interpret Data
	AudioTime float64      // playhead position the buffer corresponds to, seconds
}

// PeaksReceived carries the peaks reduced from one sample buffer.
// End - Start always equals the buffer's byte length over the format's
// byte rate.
type PeaksReceived struct {
	Source    uuid.UUID
	Start     float64 // seconds
	End       float64 // seconds
	Peaks     []Peak
	AudioTime float64
}
