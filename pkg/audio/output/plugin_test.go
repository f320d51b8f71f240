// ABOUTME: Tests for the output plugin registry
// ABOUTME: Verifies registration, lookup and output creation from config blocks
package output

import (
	"errors"
	"testing"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
)

// stubPlugin is a registry test double
type stubPlugin struct {
	name     string
	probeErr error
	initErr  error
}

func (s *stubPlugin) Name() string              { return s.name }
func (s *stubPlugin) TestDefaultDevice() error { return s.probeErr }
func (s *stubPlugin) Init(desc *Descriptor, _ audio.Format, _ *Block) (Output, error) {
	if s.initErr != nil {
		return nil, s.initErr
	}
	return &Pulse{desc: desc, log: logger, dialer: &fakeDialer{}}, nil
}

func TestBuiltinPluginsRegistered(t *testing.T) {
	for _, name := range []string{PulsePluginName, OtoPluginName, WAVPluginName} {
		p, err := Lookup(name)
		if err != nil {
			t.Fatalf("expected plugin %q to be registered: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("expected name %q, got %q", name, p.Name())
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("alsa"); err == nil {
		t.Error("expected error for unknown plugin")
	}
}

func TestPluginsSorted(t *testing.T) {
	plugins := Plugins()
	for i := 1; i < len(plugins); i++ {
		if plugins[i-1].Name() > plugins[i].Name() {
			t.Errorf("plugins not sorted: %q before %q", plugins[i-1].Name(), plugins[i].Name())
		}
	}
}

func TestNewUsesTypeAsDefaultName(t *testing.T) {
	Register(&stubPlugin{name: "stub"})

	out, desc, err := New(&Block{Type: "stub"}, audio.Format{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if out == nil {
		t.Fatal("expected output to be created")
	}
	if desc.Name() != "stub" {
		t.Errorf("expected default name 'stub', got %q", desc.Name())
	}
	if desc.PluginName() != "stub" {
		t.Errorf("expected plugin name 'stub', got %q", desc.PluginName())
	}
}

func TestNewInitError(t *testing.T) {
	initErr := errors.New("bad params")
	Register(&stubPlugin{name: "broken", initErr: initErr})

	_, _, err := New(&Block{Type: "broken", Name: "Kitchen"}, audio.Format{})
	if !errors.Is(err, initErr) {
		t.Errorf("expected init error to be wrapped, got %v", err)
	}
}

func TestNewMissingBlock(t *testing.T) {
	if _, _, err := New(nil, audio.Format{}); err == nil {
		t.Error("expected error for nil block")
	}
}

func TestBlockParam(t *testing.T) {
	var nilBlock *Block
	if _, ok := nilBlock.Param("server"); ok {
		t.Error("expected nil block to have no params")
	}

	b := &Block{Params: map[string]string{"server": "tcp:host", "sink": ""}}
	if v, ok := b.Param("server"); !ok || v != "tcp:host" {
		t.Errorf("expected server param, got %q %v", v, ok)
	}
	if v, ok := b.Param("sink"); !ok || v != "" {
		t.Errorf("expected empty sink param to be present, got %q %v", v, ok)
	}
	if v := b.ParamDefault("volume", "100"); v != "100" {
		t.Errorf("expected default value, got %q", v)
	}
}

func TestDescriptorNil(t *testing.T) {
	var d *Descriptor
	if d.Name() != "" || d.PluginName() != "" {
		t.Error("expected nil descriptor to have empty names")
	}
}

// withRegistry swaps the registry for the duration of a test
func withRegistry(t *testing.T, plugins ...Plugin) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = map[string]Plugin{}
	for _, p := range plugins {
		registry[p.Name()] = p
	}
	registryMu.Unlock()

	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

func TestProbeDefault(t *testing.T) {
	down := errors.New("Connection refused")

	tests := []struct {
		name    string
		plugins []Plugin
		want    string
		wantErr bool
	}{
		{
			name: "pulse preferred",
			plugins: []Plugin{
				&stubPlugin{name: OtoPluginName},
				&stubPlugin{name: PulsePluginName},
			},
			want: PulsePluginName,
		},
		{
			name: "falls back to oto",
			plugins: []Plugin{
				&stubPlugin{name: PulsePluginName, probeErr: down},
				&stubPlugin{name: OtoPluginName},
			},
			want: OtoPluginName,
		},
		{
			name: "missing pulse skipped",
			plugins: []Plugin{
				&stubPlugin{name: OtoPluginName},
			},
			want: OtoPluginName,
		},
		{
			name: "other plugins never probed",
			plugins: []Plugin{
				&stubPlugin{name: WAVPluginName},
				&stubPlugin{name: PulsePluginName, probeErr: down},
			},
			wantErr: true,
		},
		{
			name: "nothing works",
			plugins: []Plugin{
				&stubPlugin{name: PulsePluginName, probeErr: down},
				&stubPlugin{name: OtoPluginName, probeErr: down},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRegistry(t, tt.plugins...)

			p, err := ProbeDefault()
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got plugin %q", p.Name())
				}
				return
			}
			if err != nil {
				t.Fatalf("ProbeDefault failed: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, p.Name())
			}
		})
	}
}
