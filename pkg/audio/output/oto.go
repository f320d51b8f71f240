// ABOUTME: Oto-based local audio output plugin
// ABOUTME: Plays PCM on the local sound card with software volume control using oto library
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// OtoPluginName is the "type" value selecting the oto output
const OtoPluginName = "oto"

// oto allows only one context per process, so every Oto output shares it
var (
	otoMu         sync.Mutex
	otoCtx        *oto.Context
	otoSampleRate int
	otoChannels   int
)

// sharedOtoContext returns the process-wide context, creating it with the
// given format on first use. The returned rate and channel count are those
// of the context, which may differ from the request.
func sharedOtoContext(sampleRate, channels int) (*oto.Context, int, int, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if err := otoCtx.Err(); err != nil {
			return nil, 0, 0, fmt.Errorf("oto context failed: %w", err)
		}
		return otoCtx, otoSampleRate, otoChannels, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoSampleRate = sampleRate
	otoChannels = channels
	return otoCtx, otoSampleRate, otoChannels, nil
}

// OtoPlugin creates local sound card outputs
type OtoPlugin struct{}

func init() {
	Register(OtoPlugin{})
}

// Name returns "oto"
func (OtoPlugin) Name() string {
	return OtoPluginName
}

// TestDefaultDevice makes sure the local context can be created
func (OtoPlugin) TestDefaultDevice() error {
	if _, _, _, err := sharedOtoContext(44100, 2); err != nil {
		logger.Warnf("Cannot open local audio device: %v", err)
		return err
	}
	return nil
}

// Init creates a closed output. The optional "volume" parameter (0-100)
// sets the software volume.
func (OtoPlugin) Init(desc *Descriptor, _ audio.Format, block *Block) (Output, error) {
	volume := 100
	if v, ok := block.Param("volume"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid volume %q: %w", v, err)
		}
		volume = clampVolume(n)
	}

	o := &Oto{
		desc: desc,
		log:  logger,
	}
	o.volume.Store(int32(volume))
	return o, nil
}

// Oto output implementation using oto library. Volume and mute may be
// changed from another goroutine while playing.
type Oto struct {
	desc       *Descriptor
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	ctx        *oto.Context
	volume     atomic.Int32
	muted      atomic.Bool
	log        Logger
}

// Open starts a player on the shared context. oto only supports 16-bit
// output and a single context per process, so bit depth is forced to 16 and
// rate and channels are rewritten to the context's format.
func (o *Oto) Open(format *audio.Format) error {
	ctx, rate, channels, err := sharedOtoContext(format.SampleRate, format.Channels)
	if err != nil {
		o.log.Errorf("Cannot open oto output \"%s\": %v", o.desc.Name(), err)
		return err
	}

	if rate != format.SampleRate || channels != format.Channels {
		o.log.Warnf("oto output \"%s\": format change (%dHz %dch -> %dHz %dch) not supported, using existing context",
			o.desc.Name(), format.SampleRate, format.Channels, rate, channels)
	}

	format.BitDepth = 16
	format.SampleRate = rate
	format.Channels = channels

	o.ctx = ctx
	o.startPlayer()

	o.log.Debugf("oto output \"%s\" playing %d bit, %d channel audio at %d Hz",
		o.desc.Name(), format.BitDepth, format.Channels, format.SampleRate)

	return nil
}

// startPlayer creates a persistent player that reads from a fresh pipe
func (o *Oto) startPlayer() {
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.ctx.NewPlayer(o.pipeReader)
	o.player.Play()
}

// stopPlayer tears down the player and its pipe
func (o *Oto) stopPlayer() {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			o.log.Warnf("oto output \"%s\": player close error: %v", o.desc.Name(), err)
		}
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
}

// Play writes 16-bit little-endian PCM (blocks until written)
func (o *Oto) Play(chunk []byte) error {
	if o.pipeWriter == nil {
		return ErrNotConnected
	}

	output := applyVolume(chunk, int(o.volume.Load()), o.muted.Load())

	if _, err := o.pipeWriter.Write(output); err != nil {
		o.log.Errorf("oto output \"%s\" write error: %v", o.desc.Name(), err)
		o.Close()
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Cancel drops buffered audio by replacing the player
func (o *Oto) Cancel() {
	if o.player == nil {
		return
	}
	o.stopPlayer()
	o.startPlayer()
}

// Close releases the player. The shared context stays alive.
func (o *Oto) Close() {
	o.stopPlayer()
}

// Finish has nothing to release
func (o *Oto) Finish() {}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	volume = clampVolume(volume)
	o.volume.Store(int32(volume))
	o.log.Debugf("oto output \"%s\" volume set to %d", o.desc.Name(), volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.muted.Store(muted)
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	return int(o.volume.Load())
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	return o.muted.Load()
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}

// applyVolume applies volume and mute to 16-bit little-endian samples
func applyVolume(chunk []byte, volume int, muted bool) []byte {
	multiplier := getVolumeMultiplier(volume, muted)
	if multiplier == 1.0 {
		return chunk
	}

	result := make([]byte, len(chunk)&^1)
	for i := 0; i+1 < len(chunk); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(chunk[i:]))
		scaled := int16(float64(sample) * multiplier)
		binary.LittleEndian.PutUint16(result[i:], uint16(scaled))
	}
	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
