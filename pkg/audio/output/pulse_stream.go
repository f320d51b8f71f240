// ABOUTME: Sound-server connection abstraction for the PulseAudio output
// ABOUTME: A blocking playback stream and the dialer that opens it
package output

import (
	"github.com/Sendspin/sendspin-pulse/pkg/audio"
)

// PulseStream is an open playback connection to a PulseAudio server.
type PulseStream interface {
	// Write blocks until the server has accepted all of data
	Write(data []byte) error

	// Drain blocks until buffered audio has been played
	Drain() error

	// Flush drops audio buffered at the server
	Flush() error

	// Close releases the connection
	Close() error
}

// PulseStreamParams identifies a playback stream. Empty Server and Sink
// select the defaults.
type PulseStreamParams struct {
	Server     string
	AppName    string
	Sink       string
	StreamName string
	Format     audio.Format // signed native-endian samples
}

// PulseDialer opens playback streams.
type PulseDialer interface {
	Dial(params PulseStreamParams) (PulseStream, error)
}

// PulseDialerFunc adapts a function to PulseDialer
type PulseDialerFunc func(params PulseStreamParams) (PulseStream, error)

// Dial calls f(params)
func (f PulseDialerFunc) Dial(params PulseStreamParams) (PulseStream, error) {
	return f(params)
}
