// ABOUTME: Tests for min/max peak reduction
// ABOUTME: Window partitioning, short buffers and channel mixing
package waveform

import (
	"encoding/binary"
	"testing"

	"github.com/waveplay-audio/waveplay-go/pkg/audio"
)

func pcm16(samples ...int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func monoFormat() audio.Format {
	return audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16}
}

func TestSampleShortBufferYieldsNothing(t *testing.T) {
	s := NewSampler(4)

	peaks := s.Sample(monoFormat(), pcm16(1, 2, 3))
	if len(peaks) != 0 {
		t.Errorf("expected no peaks for a sub-window buffer, got %d", len(peaks))
	}

	if got := s.Sample(monoFormat(), nil); len(got) != 0 {
		t.Errorf("expected no peaks for empty buffer, got %d", len(got))
	}
}

func TestSampleExactWindows(t *testing.T) {
	s := NewSampler(2)

	peaks := s.Sample(monoFormat(), pcm16(100, -200, 300, -50, 7, 7))
	if len(peaks) != 3 {
		t.Fatalf("expected 3 peaks for 3 windows, got %d", len(peaks))
	}

	want := []Peak{
		{Min: audio.SampleFromInt16(-200), Max: audio.SampleFromInt16(100)},
		{Min: audio.SampleFromInt16(-50), Max: audio.SampleFromInt16(300)},
		{Min: audio.SampleFromInt16(7), Max: audio.SampleFromInt16(7)},
	}
	for i, p := range peaks {
		if p != want[i] {
			t.Errorf("peak %d: expected %+v, got %+v", i, want[i], p)
		}
		if p.Min > p.Max {
			t.Errorf("peak %d: min %d > max %d", i, p.Min, p.Max)
		}
	}
}

func TestSampleIgnoresTrailingPartialWindow(t *testing.T) {
	s := NewSampler(2)

	// Two full windows plus one leftover frame.
	peaks := s.Sample(monoFormat(), pcm16(1, 2, 3, 4, 30000))
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(peaks))
	}
	for _, p := range peaks {
		if p.Max == audio.SampleFromInt16(30000) {
			t.Error("trailing partial window leaked into a peak")
		}
	}
}

func TestSampleIgnoresTrailingPartialFrame(t *testing.T) {
	s := NewSampler(2)

	data := append(pcm16(1, 2, 3, 4), 0x55) // stray half-sample byte
	peaks := s.Sample(monoFormat(), data)
	if len(peaks) != 2 {
		t.Errorf("expected partial frame ignored, got %d peaks", len(peaks))
	}
}

func TestSampleMixesChannels(t *testing.T) {
	s := NewSampler(2)
	stereo := audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

	// Two frames: L/R interleaved. Extremes sit on different channels.
	peaks := s.Sample(stereo, pcm16(100, -900, 800, 5))
	if len(peaks) != 1 {
		t.Fatalf("expected 1 peak, got %d", len(peaks))
	}
	if peaks[0].Min != audio.SampleFromInt16(-900) || peaks[0].Max != audio.SampleFromInt16(800) {
		t.Errorf("expected channel-mixed extrema, got %+v", peaks[0])
	}
}

func TestSample24Bit(t *testing.T) {
	s := NewSampler(1)
	format := audio.Format{SampleRate: 48000, Channels: 1, BitDepth: 24}

	lo := audio.SampleTo24Bit(-100000)
	hi := audio.SampleTo24Bit(200000)
	data := append(lo[:], hi[:]...)

	peaks := s.Sample(format, data)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(peaks))
	}
	if peaks[0].Min != -100000 || peaks[1].Max != 200000 {
		t.Errorf("unexpected 24-bit peaks: %+v", peaks)
	}
}

func TestSampleInvalidFormat(t *testing.T) {
	s := NewSampler(2)
	if got := s.Sample(audio.Format{}, pcm16(1, 2, 3, 4)); got != nil {
		t.Errorf("expected nil for invalid format, got %v", got)
	}
}

func TestSampleDeterministic(t *testing.T) {
	s := NewSampler(3)
	data := pcm16(5, -5, 10, -10, 15, -15)

	first := s.Sample(monoFormat(), data)
	second := s.Sample(monoFormat(), data)
	if len(first) != len(second) {
		t.Fatalf("nondeterministic peak count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("peak %d differs between runs", i)
		}
	}
}

func BenchmarkSample(b *testing.B) {
	s := NewSampler(DefaultSamplesPerPeak)
	format := audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
	data := make([]byte, 44100*format.BytesPerFrame()) // one second
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Sample(format, data)
	}
}

func TestDefaultWindow(t *testing.T) {
	if NewSampler(0).SamplesPerPeak() != DefaultSamplesPerPeak {
		t.Error("expected default window for non-positive width")
	}
	if NewSampler(-3).SamplesPerPeak() != DefaultSamplesPerPeak {
		t.Error("expected default window for negative width")
	}
}
