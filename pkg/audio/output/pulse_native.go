// ABOUTME: Pure-Go PulseAudio native protocol connection
// ABOUTME: Bridges blocking writes to the pull-based jfreymuth/pulse playback stream
package output

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

const (
	// nativeBufferMs is how much audio the client side holds before Write blocks
	nativeBufferMs = 500

	// nativeWatchInterval is how often a stream is checked for a stall
	nativeWatchInterval = 200 * time.Millisecond

	// nativeStallTimeout is how long a full ring may go unread before
	// blocked writers are failed
	nativeStallTimeout = 3 * time.Second

	// nativeSampleBytes is the size of one S16 sample
	nativeSampleBytes = 2
)

// NativePulseDialer connects with the pure-Go native protocol client
type NativePulseDialer struct{}

// Dial connects to the server and starts a playback stream
func (NativePulseDialer) Dial(params PulseStreamParams) (PulseStream, error) {
	format := params.Format
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample spec: %s", format)
	}

	opts := []pulse.ClientOption{pulse.ClientApplicationName(params.AppName)}
	if params.Server != "" {
		opts = append(opts, pulse.ClientServerString(params.Server))
	}

	client, err := pulse.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	playOpts := []pulse.PlaybackOption{
		pulse.PlaybackSampleRate(format.SampleRate),
		channelOption(format.Channels),
	}
	if params.StreamName != "" {
		playOpts = append(playOpts, pulse.PlaybackMediaName(params.StreamName))
	}
	if params.Sink != "" {
		sink, err := client.SinkByID(params.Sink)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to find sink %q: %w", params.Sink, err)
		}
		playOpts = append(playOpts, pulse.PlaybackSink(sink))
	}

	s := newNativePulseStream(nativeBufferBytes(format.SampleRate, format.Channels))
	s.client = client

	stream, err := client.NewPlayback(pulse.Int16Reader(s.fill), playOpts...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create playback stream: %w", err)
	}
	s.stream = stream

	stream.Start()
	go s.watch(nativeWatchInterval, nativeStallTimeout)

	return s, nil
}

// nativeBufferBytes sizes the client-side ring to whole frames
func nativeBufferBytes(sampleRate, channels int) int {
	frame := channels * nativeSampleBytes
	size := sampleRate * frame * nativeBufferMs / 1000
	size -= size % frame
	if size < frame {
		size = frame
	}
	return size
}

// channelOption maps a channel count to a channel map option
func channelOption(channels int) pulse.PlaybackOption {
	return pulse.PlaybackChannels(channelMap(channels))
}

// channelMap returns mono, left/right, or AUX0.. positions for larger layouts
func channelMap(channels int) proto.ChannelMap {
	switch channels {
	case 1:
		return proto.ChannelMap{proto.ChannelMono}
	case 2:
		return proto.ChannelMap{proto.ChannelLeft, proto.ChannelRight}
	}

	m := make(proto.ChannelMap, channels)
	for i := range m {
		m[i] = proto.ChannelAux0 + byte(i)
	}
	return m
}

// nativePulseStream is a PulseStream backed by jfreymuth/pulse
type nativePulseStream struct {
	client *pulse.Client
	stream *pulse.PlaybackStream
	ring   *RingBuffer

	scratch []byte // only touched from the stream's reader callback

	// lastPull is the UnixNano time of the latest reader callback
	lastPull atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

func newNativePulseStream(bufferBytes int) *nativePulseStream {
	s := &nativePulseStream{
		ring: NewAlignedRingBuffer(bufferBytes, nativeSampleBytes),
		done: make(chan struct{}),
	}
	s.lastPull.Store(time.Now().UnixNano())
	return s
}

// fill is the stream's reader callback: samples are little-endian int16
func (s *nativePulseStream) fill(out []int16) (int, error) {
	s.lastPull.Store(time.Now().UnixNano())

	size := len(out) * nativeSampleBytes
	if cap(s.scratch) < size {
		s.scratch = make([]byte, size)
	}
	buf := s.scratch[:size]

	n, ok := s.ring.Read(buf)
	if !ok {
		return 0, pulse.EndOfData
	}

	samples := n / nativeSampleBytes
	for i := 0; i < samples; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*nativeSampleBytes:]))
	}
	return samples, nil
}

// watch fails pending writes once the server stops pulling audio while the
// ring is full. The stream's own error and state fields are written by the
// library's goroutine without a lock, so only the pull time seen by fill is
// used here.
func (s *nativePulseStream) watch(interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			if s.ring.Free() > 0 {
				continue
			}
			idle := now.Sub(time.Unix(0, s.lastPull.Load()))
			if idle >= timeout {
				s.ring.Fail(fmt.Errorf("stream stalled: no data requested for %s", idle.Round(time.Millisecond)))
				return
			}
		}
	}
}

// Write blocks until all of data is queued for the server
func (s *nativePulseStream) Write(data []byte) error {
	return s.ring.Write(data)
}

// Drain lets the queued audio play out, then ends the stream. The request
// is sent directly since the stream may already have gone idle on EndOfData.
func (s *nativePulseStream) Drain() error {
	s.ring.Drain()
	return s.client.RawRequest(&proto.DrainPlaybackStream{StreamIndex: s.stream.StreamIndex()}, nil)
}

// Flush drops audio queued locally and at the server
func (s *nativePulseStream) Flush() error {
	s.ring.Reset()
	return s.client.RawRequest(&proto.FlushPlaybackStream{StreamIndex: s.stream.StreamIndex()}, nil)
}

// Close stops the stream and disconnects
func (s *nativePulseStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.ring.Fail(errRingClosed)
		if s.stream != nil {
			s.stream.Close()
		}
		if s.client != nil {
			s.client.Close()
		}
	})
	return nil
}
