// ABOUTME: Tests for PCM format math and sample codecs
package audio

import "testing"

func TestFormatByteMath(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

	if f.BytesPerSample() != 2 {
		t.Errorf("expected 2 bytes per sample, got %d", f.BytesPerSample())
	}
	if f.BytesPerFrame() != 4 {
		t.Errorf("expected 4 bytes per frame, got %d", f.BytesPerFrame())
	}
	if f.AverageBytesPerSecond() != 176400 {
		t.Errorf("expected 176400 bytes/s, got %d", f.AverageBytesPerSecond())
	}
}

func TestFormatDuration(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 1, BitDepth: 16}

	// One second of mono 16-bit audio.
	if got := f.Duration(88200); got != 1.0 {
		t.Errorf("expected 1.0s, got %v", got)
	}
	if got := (Format{}).Duration(1000); got != 0 {
		t.Errorf("expected 0 for zero byte rate, got %v", got)
	}
}

func TestFormatValid(t *testing.T) {
	cases := []struct {
		format Format
		want   bool
	}{
		{Format{SampleRate: 44100, Channels: 2, BitDepth: 16}, true},
		{Format{SampleRate: 48000, Channels: 1, BitDepth: 24}, true},
		{Format{}, false},
		{Format{SampleRate: 44100, Channels: 2, BitDepth: 8}, false},
		{Format{SampleRate: 44100, Channels: 0, BitDepth: 16}, false},
		{Format{SampleRate: 0, Channels: 2, BitDepth: 16}, false},
	}
	for _, tc := range cases {
		if got := tc.format.Valid(); got != tc.want {
			t.Errorf("Valid(%+v): expected %v, got %v", tc.format, tc.want, got)
		}
	}
}

func TestSampleInt16RoundTrip(t *testing.T) {
	for _, s := range []int16{0, 1, -1, 32767, -32768} {
		if got := SampleToInt16(SampleFromInt16(s)); got != s {
			t.Errorf("round trip of %d gave %d", s, got)
		}
	}
}

func TestSample24BitRoundTrip(t *testing.T) {
	for _, s := range []int32{0, 1, -1, Max24Bit, Min24Bit, 123456, -654321} {
		if got := SampleFrom24Bit(SampleTo24Bit(s)); got != s {
			t.Errorf("round trip of %d gave %d", s, got)
		}
	}
}

func TestSampleFrom24BitSignExtends(t *testing.T) {
	if got := SampleFrom24Bit([3]byte{0xFF, 0xFF, 0xFF}); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
	if got := SampleFrom24Bit([3]byte{0x00, 0x00, 0x80}); got != Min24Bit {
		t.Errorf("expected %d, got %d", Min24Bit, got)
	}
}
