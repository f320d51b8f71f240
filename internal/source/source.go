// ABOUTME: Audio source abstraction for playing files or generating test tones
// ABOUTME: Picks an MP3, FLAC or WAV decoder by file extension
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source provides PCM audio samples
type Source interface {
	// Read reads interleaved samples (int32 in 24-bit range) into the buffer.
	// Returns io.EOF once the source is exhausted.
	Read(samples []int32) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Title returns a display name
	Title() string
	// Close closes the audio source
	Close() error
}

// Tone defaults used when no file is given
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
)

// Open creates a source from a file path. An empty path yields an endless
// test tone.
func Open(path string) (Source, error) {
	if path == "" {
		return NewTone(DefaultSampleRate, DefaultChannels, 0), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return NewMP3(path)
	case ".flac":
		return NewFLAC(path)
	case ".wav":
		return NewWAV(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .wav)", ext)
	}
}

// titleFromPath uses the file name without extension as title
func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
