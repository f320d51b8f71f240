// ABOUTME: PulseAudio output plugin
// ABOUTME: Streams 16-bit PCM to a PulseAudio server with throttled reconnects
package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
)

const (
	// PulsePluginName is the "type" value selecting the PulseAudio output
	PulsePluginName = "pulse"

	// PulseAppName is the client name announced to the server
	PulseAppName = "mpd"

	// ConnAttemptInterval is the minimum wait after a failed connection
	// attempt before the server is contacted again
	ConnAttemptInterval = 60 * time.Second
)

// ErrThrottled is returned by Open when the previous connection attempt
// failed less than ConnAttemptInterval ago.
var ErrThrottled = errors.New("connection attempt throttled")

// PulsePlugin creates PulseAudio outputs
type PulsePlugin struct {
	dialer PulseDialer
	now    func() time.Time
}

// NewPulsePlugin creates the plugin. A nil dialer selects the connection
// library chosen at build time; a nil clock selects time.Now.
func NewPulsePlugin(dialer PulseDialer, now func() time.Time) *PulsePlugin {
	if dialer == nil {
		dialer = defaultPulseDialer()
	}
	if now == nil {
		now = time.Now
	}
	return &PulsePlugin{dialer: dialer, now: now}
}

func init() {
	Register(NewPulsePlugin(nil, nil))
}

// Name returns "pulse"
func (p *PulsePlugin) Name() string {
	return PulsePluginName
}

// TestDefaultDevice opens and immediately releases a stream on the default
// server and sink.
func (p *PulsePlugin) TestDefaultDevice() error {
	s, err := p.dialer.Dial(PulseStreamParams{
		AppName:    PulseAppName,
		StreamName: PulseAppName,
		Format:     audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16},
	})
	if err != nil {
		logger.Warnf("Cannot connect to default PulseAudio server: %v", err)
		return err
	}

	s.Close()
	return nil
}

// Init creates a closed output. The requested format is not used until Open.
// Init never fails.
func (p *PulsePlugin) Init(desc *Descriptor, _ audio.Format, block *Block) (Output, error) {
	server, _ := block.Param("server")
	sink, _ := block.Param("sink")

	return &Pulse{
		desc:   desc,
		server: server,
		sink:   sink,
		dialer: p.dialer,
		now:    p.now,
		log:    logger,
	}, nil
}

// Pulse is one PulseAudio output instance. It is not safe for concurrent use;
// the host serializes calls.
type Pulse struct {
	desc *Descriptor

	stream PulseStream // non-nil only while open
	server string
	sink   string

	attempts    int
	lastAttempt time.Time

	dialer PulseDialer
	now    func() time.Time
	log    Logger
}

// Open connects to the server. The bit depth of format is forced to 16; rate
// and channel count are used as requested.
//
// After a failed attempt the server is not contacted again until
// ConnAttemptInterval has passed; calls inside that window fail with
// ErrThrottled but still count as attempts.
func (p *Pulse) Open(format *audio.Format) error {
	t := p.now()

	if p.attempts != 0 && t.Sub(p.lastAttempt) < ConnAttemptInterval {
		p.attempts++
		p.log.Debugf("PulseAudio output \"%s\" not reconnecting yet (attempt %d, %s left)",
			p.desc.Name(), p.attempts, ConnAttemptInterval-t.Sub(p.lastAttempt))
		return ErrThrottled
	}

	p.attempts++
	p.lastAttempt = t

	// Only signed 16-bit native-endian samples are sent to the server
	format.BitDepth = 16

	stream, err := p.dialer.Dial(PulseStreamParams{
		Server:     p.server,
		AppName:    PulseAppName,
		Sink:       p.sink,
		StreamName: p.desc.Name(),
		Format:     *format,
	})
	if err != nil {
		p.log.Errorf("Cannot connect to server in PulseAudio output \"%s\" (attempt %d): %v",
			p.desc.Name(), p.attempts, err)
		return fmt.Errorf("pulse connect failed: %w", err)
	}

	p.attempts = 0
	p.stream = stream

	p.log.Debugf("PulseAudio output \"%s\" connected and playing %d bit, %d channel audio at %d Hz",
		p.desc.Name(), format.BitDepth, format.Channels, format.SampleRate)

	return nil
}

// Play writes one chunk, blocking until the server accepts it. A write error
// closes the connection so the next Open reconnects.
func (p *Pulse) Play(chunk []byte) error {
	if p.stream == nil {
		return ErrNotConnected
	}

	if err := p.stream.Write(chunk); err != nil {
		p.log.Errorf("PulseAudio output \"%s\" disconnecting due to write error: %v",
			p.desc.Name(), err)
		p.Close()
		return fmt.Errorf("pulse write failed: %w", err)
	}

	return nil
}

// Cancel drops audio buffered at the server. Failure is only logged.
func (p *Pulse) Cancel() {
	if p.stream == nil {
		return
	}

	if err := p.stream.Flush(); err != nil {
		p.log.Warnf("Flush failed in PulseAudio output \"%s\": %v", p.desc.Name(), err)
	}
}

// Close drains and releases the connection. Drain errors are ignored.
func (p *Pulse) Close() {
	if p.stream == nil {
		return
	}

	_ = p.stream.Drain()
	_ = p.stream.Close()
	p.stream = nil
}

// Finish releases the configuration strings
func (p *Pulse) Finish() {
	p.server = ""
	p.sink = ""
}

// Connected reports whether the output holds an open connection
func (p *Pulse) Connected() bool {
	return p.stream != nil
}

// Attempts returns the number of connection attempts since the last success
func (p *Pulse) Attempts() int {
	return p.attempts
}
