// ABOUTME: Min/max peak reduction over raw PCM buffers
// ABOUTME: Pure, deterministic, safe for concurrent use on separate buffers
package waveform

import (
	"encoding/binary"

	"github.com/waveplay-audio/waveplay-go/pkg/audio"
)

// DefaultSamplesPerPeak is the window width used when none is configured.
const DefaultSamplesPerPeak = 1024

// Sampler reduces PCM buffers into peak pairs. The reduction is
// channel-mixed: every sample of every channel inside a window competes
// for the same min and max, so a window covers samplesPerPeak frames
// regardless of channel count.
type Sampler struct {
	samplesPerPeak int // frames per window
}

// NewSampler creates a sampler with the given window width in frames.
// Non-positive widths fall back to DefaultSamplesPerPeak.
func NewSampler(samplesPerPeak int) *Sampler {
	if samplesPerPeak <= 0 {
		samplesPerPeak = DefaultSamplesPerPeak
	}
	return &Sampler{samplesPerPeak: samplesPerPeak}
}

// SamplesPerPeak returns the configured window width in frames.
func (s *Sampler) SamplesPerPeak() int {
	return s.samplesPerPeak
}

// Sample partitions data into full windows of samplesPerPeak frames and
// returns one Peak per window. Trailing bytes that do not fill a whole
// frame, and trailing frames that do not fill a whole window, are
// ignored. A buffer shorter than one window yields nil.
func (s *Sampler) Sample(format audio.Format, data []byte) []Peak {
	if !format.Valid() {
		return nil
	}

	frameSize := format.BytesPerFrame()
	frames := len(data) / frameSize
	windows := frames / s.samplesPerPeak
	if windows == 0 {
		return nil
	}

	sampleSize := format.BytesPerSample()
	peaks := make([]Peak, 0, windows)

	for w := 0; w < windows; w++ {
		base := w * s.samplesPerPeak * frameSize
		min := int32(audio.Max24Bit)
		max := int32(audio.Min24Bit)

		for i := 0; i < s.samplesPerPeak*format.Channels; i++ {
			v := decodeSample(data[base+i*sampleSize:], format.BitDepth)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}

		peaks = append(peaks, Peak{Min: min, Max: max})
	}

	return peaks
}

func decodeSample(b []byte, bitDepth int) int32 {
	if bitDepth == 24 {
		return audio.SampleFrom24Bit([3]byte{b[0], b[1], b[2]})
	}
	return audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(b)))
}
