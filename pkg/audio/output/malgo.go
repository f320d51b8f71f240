//go:build malgo

// ABOUTME: Malgo-based local audio output plugin with 24-bit support
// ABOUTME: Feeds the miniaudio device callback from a blocking PCM ring buffer
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
	"github.com/gen2brain/malgo"
)

// MalgoPluginName is the "type" value selecting the miniaudio output
const MalgoPluginName = "malgo"

const (
	// malgoBufferMs is how much audio is queued before Play blocks
	malgoBufferMs = 500

	// malgoDrainTimeout bounds how long Close waits for queued audio
	malgoDrainTimeout = 2 * time.Second
)

// MalgoPlugin creates miniaudio outputs
type MalgoPlugin struct{}

func init() {
	Register(MalgoPlugin{})
}

// Name returns "malgo"
func (MalgoPlugin) Name() string {
	return MalgoPluginName
}

// TestDefaultDevice makes sure a miniaudio context can be created
func (MalgoPlugin) TestDefaultDevice() error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		logger.Warnf("Cannot initialize miniaudio: %v", err)
		return err
	}
	if err := ctx.Uninit(); err != nil {
		logger.Warnf("miniaudio context uninit error: %v", err)
	}
	ctx.Free()
	return nil
}

// Init creates a closed output
func (MalgoPlugin) Init(desc *Descriptor, _ audio.Format, _ *Block) (Output, error) {
	return &Malgo{desc: desc, log: logger}, nil
}

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	desc *Descriptor
	log  Logger

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	ring     *RingBuffer
	format   audio.Format
}

// Open starts a playback device. 16, 24 and 32 bit are passed through,
// any other depth becomes 16 bit.
func (m *Malgo) Open(format *audio.Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sampleFormat malgo.FormatType
	switch format.BitDepth {
	case 24:
		sampleFormat = malgo.FormatS24
	case 32:
		sampleFormat = malgo.FormatS32
	default:
		format.BitDepth = 16
		sampleFormat = malgo.FormatS16
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		m.log.Errorf("Cannot open malgo output \"%s\": %v", m.desc.Name(), err)
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	ring := NewAlignedRingBuffer(format.SampleRate*format.FrameSize()*malgoBufferMs/1000, format.FrameSize())

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = sampleFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, _ uint32) {
			n, _ := ring.Read(pOutput)
			for i := n; i < len(pOutput); i++ {
				pOutput[i] = 0
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		m.freeContext(ctx)
		m.log.Errorf("Cannot open malgo output \"%s\": %v", m.desc.Name(), err)
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		m.freeContext(ctx)
		m.log.Errorf("Cannot start malgo output \"%s\": %v", m.desc.Name(), err)
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.malgoCtx = ctx
	m.device = device
	m.ring = ring
	m.format = *format

	m.log.Debugf("malgo output \"%s\" playing %s (%s)",
		m.desc.Name(), format, formatName(sampleFormat))
	return nil
}

// Play queues one chunk, blocking while the ring is full
func (m *Malgo) Play(chunk []byte) error {
	m.mu.Lock()
	ring := m.ring
	m.mu.Unlock()

	if ring == nil {
		return ErrNotConnected
	}

	if err := ring.Write(chunk); err != nil {
		m.log.Errorf("malgo output \"%s\" write error: %v", m.desc.Name(), err)
		m.Close()
		return fmt.Errorf("ring write failed: %w", err)
	}
	return nil
}

// Cancel drops queued audio
func (m *Malgo) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ring != nil {
		m.ring.Reset()
	}
}

// Close lets queued audio play out, then releases the device
func (m *Malgo) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return
	}

	m.ring.Drain()
	deadline := time.Now().Add(malgoDrainTimeout)
	for m.ring.Available() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	m.ring.Fail(errRingClosed)

	if err := m.device.Stop(); err != nil {
		m.log.Warnf("malgo output \"%s\": device stop error: %v", m.desc.Name(), err)
	}
	m.device.Uninit()
	m.device = nil
	m.ring = nil

	m.freeContext(m.malgoCtx)
	m.malgoCtx = nil
}

// Finish has nothing to release
func (m *Malgo) Finish() {}

func (m *Malgo) freeContext(ctx *malgo.AllocatedContext) {
	if ctx == nil {
		return
	}
	if err := ctx.Uninit(); err != nil {
		m.log.Warnf("malgo context uninit error: %v", err)
	}
	ctx.Free()
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
