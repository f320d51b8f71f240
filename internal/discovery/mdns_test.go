// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests server browsing with a stubbed query and server string rendering
package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.Timeout != 3*time.Second {
		t.Errorf("expected default timeout 3s, got %v", mgr.config.Timeout)
	}
	mgr.Stop()
}

func TestPulseServer(t *testing.T) {
	tests := []struct {
		server   ServerInfo
		expected string
	}{
		{ServerInfo{Host: "192.168.1.20", Port: 4713}, "tcp:192.168.1.20:4713"},
		{ServerInfo{Host: "fe80::1", Port: 4713}, "tcp:[fe80::1]:4713"},
	}

	for _, tt := range tests {
		if got := tt.server.PulseServer(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}

func TestLookupFindsServer(t *testing.T) {
	mgr := NewManager(Config{Timeout: 10 * time.Millisecond})
	defer mgr.Stop()

	mgr.query = func(params *mdns.QueryParam) error {
		if params.Service != ServiceType {
			t.Errorf("expected service %q, got %q", ServiceType, params.Service)
		}
		params.Entries <- &mdns.ServiceEntry{Name: "no-address"}
		params.Entries <- &mdns.ServiceEntry{
			Name:   "studio@pulse",
			AddrV4: net.ParseIP("10.0.0.5"),
			Port:   4713,
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	server, err := mgr.lookup(ctx)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if server.Name != "studio@pulse" || server.Host != "10.0.0.5" || server.Port != 4713 {
		t.Errorf("unexpected server %+v", server)
	}
}

func TestLookupTimeout(t *testing.T) {
	mgr := NewManager(Config{Timeout: 5 * time.Millisecond})
	defer mgr.Stop()

	mgr.query = func(params *mdns.QueryParam) error {
		return errors.New("no multicast")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := mgr.lookup(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}
