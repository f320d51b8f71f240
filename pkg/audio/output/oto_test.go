// ABOUTME: Tests for the oto output
// ABOUTME: Tests volume control and plugin configuration
package output

import (
	"encoding/binary"
	"testing"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
	var _ Plugin = OtoPlugin{}
}

func TestVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume   int
		muted    bool
		expected float64
	}{
		{100, false, 1.0},
		{50, false, 0.5},
		{0, false, 0.0},
		{80, true, 0.0}, // Muted overrides volume
	}

	for _, tt := range tests {
		result := getVolumeMultiplier(tt.volume, tt.muted)
		if result != tt.expected {
			t.Errorf("volume=%d, muted=%v: expected %f, got %f",
				tt.volume, tt.muted, tt.expected, result)
		}
	}
}

func TestApplyVolume(t *testing.T) {
	samples := []int16{1000, -1000, 500, -500}
	chunk := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(chunk[i*2:], uint16(s))
	}

	result := applyVolume(chunk, 50, false)

	got0 := int16(binary.LittleEndian.Uint16(result[0:]))
	got1 := int16(binary.LittleEndian.Uint16(result[2:]))
	if got0 != 500 {
		t.Errorf("expected 500, got %d", got0)
	}
	if got1 != -500 {
		t.Errorf("expected -500, got %d", got1)
	}

	// Full volume passes the chunk through untouched
	if full := applyVolume(chunk, 100, false); &full[0] != &chunk[0] {
		t.Error("expected full volume to reuse the input chunk")
	}
}

func TestOtoInitVolume(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]string
		expected int
		wantErr  bool
	}{
		{"default", nil, 100, false},
		{"half", map[string]string{"volume": "50"}, 50, false},
		{"clamped", map[string]string{"volume": "250"}, 100, false},
		{"invalid", map[string]string{"volume": "loud"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := OtoPlugin{}.Init(NewDescriptor("local", OtoPluginName), audio.Format{}, &Block{Params: tt.params})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			if got := out.(*Oto).GetVolume(); got != tt.expected {
				t.Errorf("expected volume %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestOtoPlayNotOpen(t *testing.T) {
	o := &Oto{desc: NewDescriptor("local", OtoPluginName), log: logger}
	if err := o.Play([]byte{0, 0}); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	// Close and Cancel before Open are no-ops
	o.Cancel()
	o.Close()
}
