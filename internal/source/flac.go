// ABOUTME: FLAC file source
// ABOUTME: Decodes FLAC frames and keeps partly consumed frames between reads
package source

import (
	"fmt"
	"log"
	"os"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// frameParser is the part of flac.Stream used for decoding
type frameParser interface {
	ParseNext() (*frame.Frame, error)
}

// FLACSource reads from a FLAC file
type FLACSource struct {
	file       *os.File
	stream     frameParser
	sampleRate int
	channels   int
	bitDepth   int
	title      string

	// pending is the current frame and offset its next unread sample
	pending *frame.Frame
	offset  int
}

// NewFLAC opens a FLAC file
func NewFLAC(path string) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	title := titleFromPath(path)

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, info.SampleRate, info.NChannels, info.BitsPerSample)

	return &FLACSource{
		file:       f,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		title:      title,
	}, nil
}

func (s *FLACSource) Read(samples []int32) (int, error) {
	// only whole frames of interleaved samples
	limit := len(samples) - len(samples)%s.channels
	samplesRead := 0

	for samplesRead < limit {
		if s.pending == nil {
			f, err := s.stream.ParseNext()
			if err != nil {
				if samplesRead > 0 {
					return samplesRead, nil
				}
				return 0, err
			}
			s.pending = f
			s.offset = 0
		}

		block := int(s.pending.BlockSize)
		for s.offset < block && samplesRead < limit {
			for ch := 0; ch < s.channels; ch++ {
				samples[samplesRead] = scaleTo24(s.pending.Subframes[ch].Samples[s.offset], s.bitDepth)
				samplesRead++
			}
			s.offset++
		}

		if s.offset >= block {
			s.pending = nil
		}
	}

	return samplesRead, nil
}

// scaleTo24 moves a sample of the given bit depth into 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	shift := bitDepth - 24
	switch {
	case shift > 0:
		return sample >> shift
	case shift < 0:
		return audio.ClampTo24Bit(int64(sample) << -shift)
	}
	return sample
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Title() string   { return s.title }
func (s *FLACSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
