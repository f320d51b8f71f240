// ABOUTME: WAV file source
// ABOUTME: Decodes integer PCM WAVE files with go-audio
package source

import (
	"fmt"
	"io"
	"log"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource reads from a WAV file
type WAVSource struct {
	file       *os.File
	decoder    *wav.Decoder
	sampleRate int
	channels   int
	bitDepth   int
	title      string
	buf        goaudio.IntBuffer
}

// NewWAV opens a 16, 24 or 32 bit PCM WAV file
func NewWAV(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("failed to decode WAV: invalid file format")
	}

	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported WAV bit depth: %d (supported: 16, 24, 32)", bitDepth)
	}

	title := titleFromPath(path)
	log.Printf("Loaded WAV: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, decoder.SampleRate, decoder.NumChans, bitDepth)

	return &WAVSource{
		file:       f,
		decoder:    decoder,
		sampleRate: int(decoder.SampleRate),
		channels:   int(decoder.NumChans),
		bitDepth:   bitDepth,
		title:      title,
	}, nil
}

func (s *WAVSource) Read(samples []int32) (int, error) {
	if cap(s.buf.Data) < len(samples) {
		s.buf.Data = make([]int, len(samples))
	}
	s.buf.Data = s.buf.Data[:len(samples)]

	n, err := s.decoder.PCMBuffer(&s.buf)
	if err != nil {
		return 0, fmt.Errorf("error reading WAV data: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	for i := 0; i < n; i++ {
		samples[i] = scaleTo24(int32(s.buf.Data[i]), s.bitDepth)
	}
	return n, nil
}

func (s *WAVSource) SampleRate() int { return s.sampleRate }
func (s *WAVSource) Channels() int   { return s.channels }
func (s *WAVSource) Title() string   { return s.title }
func (s *WAVSource) Close() error {
	return s.file.Close()
}
