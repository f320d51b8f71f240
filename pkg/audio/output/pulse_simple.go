//go:build pulsesimple

// ABOUTME: libpulse-simple PulseAudio connection (cgo)
// ABOUTME: Blocking pa_simple stream used when built with -tags pulsesimple
package output

import (
	"fmt"

	pulse "github.com/mesilliac/pulse-simple"
)

func defaultPulseDialer() PulseDialer {
	return SimplePulseDialer{}
}

// SimplePulseDialer connects through libpulse-simple
type SimplePulseDialer struct{}

// Dial opens a blocking playback stream
func (SimplePulseDialer) Dial(params PulseStreamParams) (PulseStream, error) {
	if params.Format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", params.Format.BitDepth)
	}

	spec := &pulse.SampleSpec{
		Format:   pulse.SAMPLE_S16LE,
		Rate:     uint32(params.Format.SampleRate),
		Channels: uint8(params.Format.Channels),
	}

	stream, err := pulse.NewStream(params.Server, params.AppName, pulse.STREAM_PLAYBACK,
		params.Sink, params.StreamName, spec, nil, nil)
	if err != nil {
		return nil, err
	}
	return &simplePulseStream{stream: stream}, nil
}

type simplePulseStream struct {
	stream *pulse.Stream
}

func (s *simplePulseStream) Write(data []byte) error {
	_, err := s.stream.Write(data)
	return err
}

func (s *simplePulseStream) Drain() error {
	return s.stream.Drain()
}

func (s *simplePulseStream) Flush() error {
	return s.stream.Flush()
}

func (s *simplePulseStream) Close() error {
	s.stream.Free()
	return nil
}
