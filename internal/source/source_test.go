// ABOUTME: Tests for audio sources
// ABOUTME: Tests tone generation, file selection, FLAC buffering and WAV decoding
package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac/frame"
)

func TestOpenEmptyPathIsTone(t *testing.T) {
	src, err := Open("")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if src.Title() != "Test Tone" {
		t.Errorf("expected test tone, got %q", src.Title())
	}
	if src.SampleRate() != DefaultSampleRate || src.Channels() != DefaultChannels {
		t.Errorf("unexpected tone format %d/%d", src.SampleRate(), src.Channels())
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	ogg := filepath.Join(dir, "song.ogg")
	if err := os.WriteFile(ogg, []byte("OggS"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing", filepath.Join(dir, "nope.mp3"), "audio file not found"},
		{"unsupported", ogg, "unsupported audio format: .ogg"},
		{"bad mp3", writeFile(t, dir, "bad.mp3"), "failed to decode MP3"},
		{"bad flac", writeFile(t, dir, "bad.FLAC"), "failed to decode FLAC"},
		{"bad wav", writeFile(t, dir, "bad.wav"), "failed to decode WAV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTitleFromPath(t *testing.T) {
	if got := titleFromPath("/music/Artist - Song.flac"); got != "Artist - Song" {
		t.Errorf("unexpected title %q", got)
	}
}

func TestToneDuration(t *testing.T) {
	src := NewTone(1000, 2, 0.5)

	total := 0
	buf := make([]int32, 300)
	for {
		n, err := src.Read(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if total != 1000 {
		t.Errorf("expected 1000 samples (500 frames x 2), got %d", total)
	}
}

func TestToneEndless(t *testing.T) {
	src := NewTone(44100, 1, 0)
	buf := make([]int32, 4410)

	for i := 0; i < 20; i++ {
		n, err := src.Read(buf)
		if err != nil || n != len(buf) {
			t.Fatalf("read %d: n=%d err=%v", i, n, err)
		}
	}
}

func TestToneSamples(t *testing.T) {
	src := NewTone(44100, 2, 1)
	buf := make([]int32, 200)
	src.Read(buf)

	if buf[0] != 0 {
		t.Errorf("expected sine to start at 0, got %d", buf[0])
	}
	for i := 0; i < len(buf); i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("frame %d: channels differ", i/2)
		}
		if buf[i] > 4194304 || buf[i] < -4194304 {
			t.Fatalf("sample %d exceeds half scale: %d", i, buf[i])
		}
	}
}

type fakeFrames struct {
	frames []*frame.Frame
}

func (f *fakeFrames) ParseNext() (*frame.Frame, error) {
	if len(f.frames) == 0 {
		return nil, io.EOF
	}
	next := f.frames[0]
	f.frames = f.frames[1:]
	return next, nil
}

func stereoFrame(left, right []int32) *frame.Frame {
	return &frame.Frame{
		Header: frame.Header{BlockSize: uint16(len(left))},
		Subframes: []*frame.Subframe{
			{Samples: left},
			{Samples: right},
		},
	}
}

func TestFLACReadKeepsPartialFrame(t *testing.T) {
	src := &FLACSource{
		stream: &fakeFrames{frames: []*frame.Frame{
			stereoFrame([]int32{1, 2, 3}, []int32{-1, -2, -3}),
			stereoFrame([]int32{4}, []int32{-4}),
		}},
		channels: 2,
		bitDepth: 24,
	}

	var got []int32
	buf := make([]int32, 4)
	for {
		n, err := src.Read(buf)
		got = append(got, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []int32{1, -1, 2, -2, 3, -3, 4, -4}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestScaleTo24(t *testing.T) {
	tests := []struct {
		sample   int32
		bitDepth int
		expected int32
	}{
		{32767, 16, 32767 << 8},
		{-32768, 16, -32768 << 8},
		{8388607, 24, 8388607},
		{1 << 30, 32, 1 << 22},
		{100, 8, 100 << 16},
	}

	for _, tt := range tests {
		if got := scaleTo24(tt.sample, tt.bitDepth); got != tt.expected {
			t.Errorf("scaleTo24(%d, %d) = %d, expected %d", tt.sample, tt.bitDepth, got, tt.expected)
		}
	}
}

func writeWAV(t *testing.T, path string, rate, channels, bitDepth int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWAVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Beep.wav")
	writeWAV(t, path, 22050, 2, 16, []int{100, -100, 32767, -32768, 0, 1})

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 22050 || src.Channels() != 2 {
		t.Errorf("unexpected format %d/%d", src.SampleRate(), src.Channels())
	}
	if src.Title() != "Beep" {
		t.Errorf("unexpected title %q", src.Title())
	}

	var got []int32
	buf := make([]int32, 4)
	for {
		n, err := src.Read(buf)
		got = append(got, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []int32{100 << 8, -100 << 8, 32767 << 8, -32768 << 8, 0, 1 << 8}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestWAVUnsupportedDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "low.wav")
	writeWAV(t, path, 8000, 1, 8, []int{1, 2, 3, 4})

	if _, err := NewWAV(path); err == nil || !strings.Contains(err.Error(), "unsupported WAV bit depth: 8") {
		t.Errorf("expected bit depth error, got %v", err)
	}
}
