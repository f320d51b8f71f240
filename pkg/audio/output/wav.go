// ABOUTME: WAV file output plugin
// ABOUTME: Records the played PCM into a RIFF/WAVE file using go-audio
package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVPluginName is the "type" value selecting the WAV file output
const WAVPluginName = "wav"

// wavFormatPCM is the WAVE format tag for integer PCM
const wavFormatPCM = 1

// ErrNoDefaultDevice is returned by plugins that need explicit configuration
var ErrNoDefaultDevice = errors.New("plugin has no default device")

// WAVPlugin creates file outputs
type WAVPlugin struct{}

func init() {
	Register(WAVPlugin{})
}

// Name returns "wav"
func (WAVPlugin) Name() string {
	return WAVPluginName
}

// TestDefaultDevice always fails: a file output needs a path
func (WAVPlugin) TestDefaultDevice() error {
	return ErrNoDefaultDevice
}

// Init requires the "path" parameter
func (WAVPlugin) Init(desc *Descriptor, _ audio.Format, block *Block) (Output, error) {
	path, ok := block.Param("path")
	if !ok || path == "" {
		return nil, fmt.Errorf("wav output \"%s\": missing path", desc.Name())
	}
	return &WAV{desc: desc, path: path, log: logger}, nil
}

// WAV writes every chunk to a file. Each Open truncates the file.
type WAV struct {
	desc *Descriptor
	path string
	log  Logger

	file    *os.File
	encoder *wav.Encoder
	format  audio.Format
	buf     goaudio.IntBuffer
}

// Open creates the file. 16, 24 and 32 bit are written as requested, any
// other depth becomes 16 bit.
func (w *WAV) Open(format *audio.Format) error {
	switch format.BitDepth {
	case 16, 24, 32:
	default:
		format.BitDepth = 16
	}

	f, err := os.Create(w.path)
	if err != nil {
		w.log.Errorf("Cannot create file for wav output \"%s\": %v", w.desc.Name(), err)
		return fmt.Errorf("wav create failed: %w", err)
	}

	w.file = f
	w.format = *format
	w.encoder = wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM)
	w.buf = goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		SourceBitDepth: format.BitDepth,
	}

	w.log.Debugf("wav output \"%s\" recording %s to %s", w.desc.Name(), format, w.path)
	return nil
}

// Play appends little-endian PCM at the opened bit depth
func (w *WAV) Play(chunk []byte) error {
	if w.encoder == nil {
		return ErrNotConnected
	}

	w.buf.Data = decodeLE(w.buf.Data[:0], chunk, w.format.BytesPerSample())
	if err := w.encoder.Write(&w.buf); err != nil {
		w.log.Errorf("wav output \"%s\" write error: %v", w.desc.Name(), err)
		w.Close()
		return fmt.Errorf("wav write failed: %w", err)
	}
	return nil
}

// Cancel has nothing buffered to drop
func (w *WAV) Cancel() {}

// Close finalizes the RIFF header and closes the file
func (w *WAV) Close() {
	if w.encoder == nil {
		return
	}
	if err := w.encoder.Close(); err != nil {
		w.log.Warnf("wav output \"%s\": finalize failed: %v", w.desc.Name(), err)
	}
	_ = w.file.Close()
	w.encoder = nil
	w.file = nil
}

// Finish has nothing to release
func (w *WAV) Finish() {}

// decodeLE appends the signed little-endian samples of data to dst
func decodeLE(dst []int, data []byte, width int) []int {
	for i := 0; i+width <= len(data); i += width {
		switch width {
		case 2:
			dst = append(dst, int(int16(binary.LittleEndian.Uint16(data[i:]))))
		case 3:
			var b [3]byte
			copy(b[:], data[i:i+3])
			dst = append(dst, int(audio.SampleFrom24Bit(b)))
		case 4:
			dst = append(dst, int(int32(binary.LittleEndian.Uint32(data[i:]))))
		}
	}
	return dst
}
