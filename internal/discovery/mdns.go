// ABOUTME: mDNS discovery of PulseAudio servers
// ABOUTME: Browses for servers published by module-zeroconf-publish
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the service PulseAudio publishes for its native protocol
const ServiceType = "_pulse-server._tcp"

// Config holds discovery configuration
type Config struct {
	// Timeout bounds one browse round (default: 3s)
	Timeout time.Duration
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo

	// query is mdns.Query, replaceable in tests
	query func(*mdns.QueryParam) error
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name string
	Host string
	Port int
}

// PulseServer returns the server string understood by PulseAudio clients
func (s *ServerInfo) PulseServer() string {
	return "tcp:" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
		query:   mdns.Query,
	}
}

// Browse searches for PulseAudio servers until Stop is called
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for servers
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if err := m.browseOnce(); err != nil {
			log.Printf("mDNS query failed: %v", err)
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(m.config.Timeout):
			}
		}
	}
}

// browseOnce runs a single query round and forwards its results
func (m *Manager) browseOnce() error {
	entries := make(chan *mdns.ServiceEntry, 10)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			server := serverFromEntry(entry)
			if server == nil {
				continue
			}

			log.Printf("Discovered PulseAudio server: %s at %s:%d", server.Name, server.Host, server.Port)

			select {
			case m.servers <- server:
			case <-m.ctx.Done():
			}
		}
	}()

	params := &mdns.QueryParam{
		Service:     ServiceType,
		Domain:      "local",
		Timeout:     m.config.Timeout,
		Entries:     entries,
		DisableIPv6: true,
	}

	err := m.query(params)
	close(entries)
	<-done
	return err
}

// serverFromEntry converts an mDNS answer, skipping entries without address
func serverFromEntry(entry *mdns.ServiceEntry) *ServerInfo {
	var host string
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	default:
		return nil
	}

	return &ServerInfo{
		Name: entry.Name,
		Host: host,
		Port: entry.Port,
	}
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// Lookup browses until the first server is found or ctx is done
func Lookup(ctx context.Context, config Config) (*ServerInfo, error) {
	m := NewManager(config)
	defer m.Stop()
	return m.lookup(ctx)
}

func (m *Manager) lookup(ctx context.Context) (*ServerInfo, error) {
	m.Browse()

	select {
	case server := <-m.Servers():
		return server, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no PulseAudio server found: %w", ctx.Err())
	}
}
