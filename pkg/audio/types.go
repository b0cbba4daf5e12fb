// ABOUTME: PCM wave format descriptor and sample codecs
// ABOUTME: Converts between byte offsets, frames, seconds and sample values
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a raw PCM stream.
type Format struct {
	SampleRate int // frames per second
	Channels   int
	BitDepth   int // 16 or 24
}

// BytesPerSample returns the storage size of one sample value.
func (f Format) BytesPerSample() int {
	return f.BitDepth / 8
}

// BytesPerFrame returns the storage size of one frame (one sample per channel).
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BytesPerSample()
}

// AverageBytesPerSecond returns the raw byte rate of the stream.
func (f Format) AverageBytesPerSecond() int {
	return f.SampleRate * f.BytesPerFrame()
}

// Duration returns the play time in seconds of a byte span in this format.
func (f Format) Duration(byteLen int) float64 {
	bps := f.AverageBytesPerSecond()
	if bps == 0 {
		return 0
	}
	return float64(byteLen) / float64(bps)
}

// Valid reports whether the format is complete enough to interpret bytes.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0 && (f.BitDepth == 16 || f.BitDepth == 24)
}

// SampleToInt16 converts an int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts an int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
