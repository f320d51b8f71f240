// ABOUTME: Playback driver feeding a source into an output plugin
// ABOUTME: Opens the output with retries, converts samples and reports status
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Sendspin/sendspin-pulse/internal/source"
	"github.com/Sendspin/sendspin-pulse/pkg/audio"
	"github.com/Sendspin/sendspin-pulse/pkg/audio/output"
	"github.com/Sendspin/sendspin-pulse/pkg/audio/resample"
)

const (
	// DefaultRetryInterval is the wait between failed Open calls
	DefaultRetryInterval = 5 * time.Second

	// ChunkDurationMs is the amount of audio handed to Play at once
	ChunkDurationMs = 100

	// requestedBitDepth is what the driver asks for before any override
	requestedBitDepth = 24
)

// Status is a snapshot of the driver state
type Status struct {
	Output      string
	Connected   bool
	Format      audio.Format
	Attempts    int
	BytesPlayed int64
	Failures    int
	Err         error
}

// Driver plays one source through one output
type Driver struct {
	Output     output.Output
	Descriptor *output.Descriptor
	Source     source.Source

	// Forced overrides fields of the format requested from the output
	Forced audio.Format

	RetryInterval time.Duration
	OnStatus      func(Status)

	status     Status
	resampler  *resample.Resampler
	negotiated audio.Format
}

// attemptCounter is implemented by outputs that track connection attempts
type attemptCounter interface {
	Attempts() int
}

// Run plays the source until it ends or ctx is cancelled. On cancellation
// buffered audio is dropped and ctx.Err() is returned.
func (d *Driver) Run(ctx context.Context) error {
	if d.RetryInterval <= 0 {
		d.RetryInterval = DefaultRetryInterval
	}
	d.status.Output = d.Descriptor.Name()

	for {
		if err := d.open(ctx); err != nil {
			return err
		}

		err := d.play(ctx)
		if errors.Is(err, errPlayFailed) {
			// the output closed itself; start over
			continue
		}
		return err
	}
}

var errPlayFailed = errors.New("play failed")

// open calls Output.Open until it succeeds or ctx is done
func (d *Driver) open(ctx context.Context) error {
	requested := audio.Format{
		SampleRate: d.Source.SampleRate(),
		Channels:   d.Source.Channels(),
		BitDepth:   requestedBitDepth,
	}.Override(d.Forced)

	for {
		format := requested
		err := d.Output.Open(&format)
		d.updateAttempts()

		if err == nil {
			d.negotiated = format
			d.resampler = nil
			if format.SampleRate != d.Source.SampleRate() {
				d.resampler = resample.New(d.Source.SampleRate(), format.SampleRate, d.Source.Channels())
			}
			d.status.Connected = true
			d.status.Format = format
			d.status.Err = nil
			d.report()
			log.Printf("Output \"%s\" opened: %s", d.Descriptor.Name(), format)
			return nil
		}

		d.status.Connected = false
		d.status.Failures++
		d.status.Err = err
		d.report()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.RetryInterval):
		}
	}
}

// play streams chunks until the source ends, ctx is done or Play fails
func (d *Driver) play(ctx context.Context) error {
	srcChannels := d.Source.Channels()
	buf := make([]int32, d.Source.SampleRate()*srcChannels*ChunkDurationMs/1000)
	var resampled []int32

	for {
		select {
		case <-ctx.Done():
			d.Output.Cancel()
			d.Output.Close()
			d.status.Connected = false
			d.report()
			return ctx.Err()
		default:
		}

		n, readErr := d.Source.Read(buf)
		if n > 0 {
			samples := buf[:n]
			if d.resampler != nil {
				size := d.resampler.OutputSamplesNeeded(n)
				if cap(resampled) < size {
					resampled = make([]int32, size)
				}
				m := d.resampler.Resample(samples, resampled[:size])
				samples = resampled[:m]
			}
			samples = RemapChannels(samples, srcChannels, d.negotiated.Channels)

			pcm := EncodePCM(samples, d.negotiated.BitDepth)
			if err := d.Output.Play(pcm); err != nil {
				d.status.Connected = false
				d.status.Failures++
				d.status.Err = err
				d.report()
				return errPlayFailed
			}
			d.status.BytesPlayed += int64(len(pcm))
			d.report()
		}

		if errors.Is(readErr, io.EOF) {
			d.Output.Close()
			d.status.Connected = false
			d.report()
			log.Printf("Finished playing %s", d.Source.Title())
			return nil
		}
		if readErr != nil {
			d.Output.Close()
			d.status.Connected = false
			d.status.Err = readErr
			d.report()
			return fmt.Errorf("source read failed: %w", readErr)
		}
	}
}

func (d *Driver) updateAttempts() {
	if c, ok := d.Output.(attemptCounter); ok {
		d.status.Attempts = c.Attempts()
	}
}

func (d *Driver) report() {
	if d.OnStatus != nil {
		d.OnStatus(d.status)
	}
}

// Status returns the last reported state
func (d *Driver) Status() Status {
	return d.status
}
