// ABOUTME: Audio output plugin contract
// ABOUTME: Output and Plugin interfaces plus the slot descriptor and config block types
package output

import (
	"errors"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
)

// ErrNotConnected is returned when an output is used before a successful Open.
var ErrNotConnected = errors.New("output not connected")

// Output is one configured instance of an output plugin.
//
// The host serializes every call into one instance and drives it as
// Open -> (Play | Cancel)* -> Close, any number of times, then Finish once.
type Output interface {
	// Open connects the device. It may rewrite fields of format to what the
	// device will actually accept; the caller must send data in that format.
	Open(format *audio.Format) error

	// Play hands one chunk of PCM data to the device (blocks until accepted)
	Play(chunk []byte) error

	// Cancel drops audio buffered by the device
	Cancel()

	// Close disconnects the device. Safe to call when not open.
	Close()

	// Finish releases the instance. The output must be closed first.
	Finish()
}

// Plugin creates Outputs of one kind.
type Plugin interface {
	// Name is the value of the "type" key selecting this plugin
	Name() string

	// TestDefaultDevice reports whether the plugin's default device is usable
	TestDefaultDevice() error

	// Init creates a closed Output for the given slot and configuration
	Init(desc *Descriptor, format audio.Format, block *Block) (Output, error)
}

// Descriptor identifies an output slot of the host. Outputs only use it to
// name themselves in log lines.
type Descriptor struct {
	name   string
	plugin string
}

// NewDescriptor creates a slot descriptor
func NewDescriptor(name, plugin string) *Descriptor {
	return &Descriptor{name: name, plugin: plugin}
}

// Name returns the user-visible output name
func (d *Descriptor) Name() string {
	if d == nil {
		return ""
	}
	return d.name
}

// PluginName returns the plugin type of the slot
func (d *Descriptor) PluginName() string {
	if d == nil {
		return ""
	}
	return d.plugin
}

// Block is one audio_output configuration block.
type Block struct {
	Name   string
	Type   string
	Params map[string]string
}

// Param returns a named string parameter of the block. A nil block has no
// parameters.
func (b *Block) Param(key string) (string, bool) {
	if b == nil || b.Params == nil {
		return "", false
	}
	v, ok := b.Params[key]
	return v, ok
}

// ParamDefault returns a named parameter or def when it is not set
func (b *Block) ParamDefault(key, def string) string {
	if v, ok := b.Param(key); ok {
		return v
	}
	return def
}
