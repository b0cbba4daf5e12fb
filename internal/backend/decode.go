// ABOUTME: Local media file decoding for the oto backend
// ABOUTME: Decodes wav, mp3 and flac files to interleaved 16-bit PCM
package backend

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"

	"github.com/waveplay-audio/waveplay-go/pkg/audio"
)

// decodeFile reads an audio file into interleaved little-endian 16-bit
// PCM. The container is picked by file extension.
func decodeFile(path string) (audio.Format, []byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".mp3":
		return decodeMP3(path)
	case ".flac":
		return decodeFLAC(path)
	default:
		return audio.Format{}, nil, fmt.Errorf("unsupported media type: %s", path)
	}
}

func decodeWAV(path string) (audio.Format, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Format{}, nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("wav decode: %w", err)
	}
	if buf.Format == nil {
		return audio.Format{}, nil, fmt.Errorf("wav decode: no format in %s", path)
	}

	format := audio.Format{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   16,
	}

	return format, bufferToPCM16(buf), nil
}

// bufferToPCM16 flattens a decoded sample buffer to interleaved
// little-endian 16-bit PCM, shifting down sources with more depth.
func bufferToPCM16(buf *gaudio.IntBuffer) []byte {
	shift := uint(0)
	if buf.SourceBitDepth > 16 {
		shift = uint(buf.SourceBitDepth - 16)
	}

	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s>>shift)))
	}
	return pcm
}

func decodeMP3(path string) (audio.Format, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Format{}, nil, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("mp3 decode: %w", err)
	}

	// go-mp3 always emits 16-bit stereo at the stream's sample rate.
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("mp3 decode: %w", err)
	}

	format := audio.Format{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}
	return format, pcm, nil
}

func decodeFLAC(path string) (audio.Format, []byte, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("flac decode: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	format := audio.Format{
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   16,
	}

	shift := uint(0)
	if info.BitsPerSample > 16 {
		shift = uint(info.BitsPerSample - 16)
	}

	var pcm []byte
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return audio.Format{}, nil, fmt.Errorf("flac decode: %w", err)
		}

		n := len(frame.Subframes[0].Samples)
		chunk := make([]byte, n*format.Channels*2)
		for i := 0; i < n; i++ {
			for ch := 0; ch < format.Channels; ch++ {
				s := int16(frame.Subframes[ch].Samples[i] >> shift)
				binary.LittleEndian.PutUint16(chunk[(i*format.Channels+ch)*2:], uint16(s))
			}
		}
		pcm = append(pcm, chunk...)
	}
	return format, pcm, nil
}
