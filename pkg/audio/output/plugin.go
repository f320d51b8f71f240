// ABOUTME: Output plugin registry
// ABOUTME: Plugins register themselves at init and are looked up by type name
package output

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Plugin{}

	// Order in which ProbeDefault tries plugins
	defaultOrder = []string{PulsePluginName, OtoPluginName}
)

// Register makes a plugin available by name. Registering the same name twice
// replaces the earlier plugin.
func Register(p Plugin) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name()] = p
}

// Lookup returns the plugin registered under name
func Lookup(name string) (Plugin, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown output plugin: %q", name)
	}
	return p, nil
}

// Plugins returns all registered plugins sorted by name
func Plugins() []Plugin {
	registryMu.RLock()
	defer registryMu.RUnlock()

	plugins := make([]Plugin, 0, len(registry))
	for _, p := range registry {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Name() < plugins[j].Name()
	})
	return plugins
}

// ProbeDefault returns the first plugin, in preference order, whose default
// device answers. It is used when no output is configured.
func ProbeDefault() (Plugin, error) {
	for _, name := range defaultOrder {
		p, err := Lookup(name)
		if err != nil {
			continue
		}
		if err := p.TestDefaultDevice(); err != nil {
			logger.Warnf("Output plugin %q default device unavailable: %v", name, err)
			continue
		}
		logger.Debugf("Using default output plugin %q", name)
		return p, nil
	}
	return nil, fmt.Errorf("no usable default output plugin found")
}

// New looks up the plugin named by block.Type and initializes an Output for it
func New(block *Block, format audio.Format) (Output, *Descriptor, error) {
	if block == nil {
		return nil, nil, fmt.Errorf("missing output block")
	}
	p, err := Lookup(block.Type)
	if err != nil {
		return nil, nil, err
	}

	name := block.Name
	if name == "" {
		name = block.Type
	}
	desc := NewDescriptor(name, p.Name())

	out, err := p.Init(desc, format, block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize output %q: %w", name, err)
	}
	return out, desc, nil
}
