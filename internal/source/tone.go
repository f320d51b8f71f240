// ABOUTME: Test tone generator
// ABOUTME: Generates a 440Hz sine wave at half scale
package source

import (
	"io"
	"math"
)

// ToneFrequency is the pitch of the test tone (A4)
const ToneFrequency = 440.0

// ToneSource generates a sine test tone
type ToneSource struct {
	sampleRate  int
	channels    int
	total       uint64 // frames to produce, 0 = endless
	sampleIndex uint64
}

// NewTone creates a tone lasting the given number of seconds (0 = endless)
func NewTone(sampleRate, channels int, seconds float64) *ToneSource {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	var total uint64
	if seconds > 0 {
		total = uint64(seconds * float64(sampleRate))
	}
	return &ToneSource{
		sampleRate: sampleRate,
		channels:   channels,
		total:      total,
	}
}

func (s *ToneSource) Read(samples []int32) (int, error) {
	frames := uint64(len(samples) / s.channels)
	if s.total > 0 {
		if s.sampleIndex >= s.total {
			return 0, io.EOF
		}
		if remaining := s.total - s.sampleIndex; frames > remaining {
			frames = remaining
		}
	}

	for i := uint64(0); i < frames; i++ {
		t := float64(s.sampleIndex+i) / float64(s.sampleRate)
		value := int32(math.Sin(2*math.Pi*ToneFrequency*t) * 8388607.0 * 0.5)
		for ch := 0; ch < s.channels; ch++ {
			samples[int(i)*s.channels+ch] = value
		}
	}

	s.sampleIndex += frames
	return int(frames) * s.channels, nil
}

func (s *ToneSource) SampleRate() int { return s.sampleRate }
func (s *ToneSource) Channels() int   { return s.channels }
func (s *ToneSource) Title() string   { return "Test Tone" }
func (s *ToneSource) Close() error    { return nil }
