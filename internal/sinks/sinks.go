// ABOUTME: Lists PulseAudio sinks over the server's D-Bus interface
// ABOUTME: Requires module-dbus-protocol to be loaded on the server
package sinks

import (
	"fmt"
	"os"
	"sort"

	"github.com/godbus/dbus/v5"
)

// D-Bus names of the PulseAudio core
const (
	coreInterface   = "org.PulseAudio.Core1"
	corePath        = "/org/pulseaudio/core1"
	deviceInterface = coreInterface + ".Device"

	lookupService  = "org.PulseAudio1"
	lookupPath     = "/org/pulseaudio/server_lookup1"
	lookupProperty = "org.PulseAudio.ServerLookup1.Address"

	// EnvServer overrides the D-Bus address of the server
	EnvServer = "PULSE_DBUS_SERVER"
)

// Sink describes one output device
type Sink struct {
	Name        string // value for the "sink" parameter
	Description string
	Default     bool
}

// propertyGetter is the part of dbus.BusObject used here
type propertyGetter interface {
	GetProperty(p string) (dbus.Variant, error)
}

// List connects to the server and returns its sinks sorted by name
func List() ([]Sink, error) {
	addr, err := serverAddress()
	if err != nil {
		return nil, fmt.Errorf("find PulseAudio D-Bus server: %w", err)
	}

	conn, err := dbus.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.Auth(nil); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	core := conn.Object(coreInterface, corePath)
	device := func(path dbus.ObjectPath) propertyGetter {
		return conn.Object(deviceInterface, path)
	}
	return listSinks(core, device)
}

// serverAddress asks the session bus where the PulseAudio D-Bus server
// listens, unless EnvServer is set
func serverAddress() (string, error) {
	if addr := os.Getenv(EnvServer); addr != "" {
		return addr, nil
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return "", err
	}

	var addr string
	if err := get(conn.Object(lookupService, lookupPath), lookupProperty, &addr); err != nil {
		return "", err
	}
	return addr, nil
}

func listSinks(core propertyGetter, device func(dbus.ObjectPath) propertyGetter) ([]Sink, error) {
	var paths []dbus.ObjectPath
	if err := get(core, coreInterface+".Sinks", &paths); err != nil {
		return nil, err
	}

	// unset when the server has no fallback sink
	var fallback dbus.ObjectPath
	_ = get(core, coreInterface+".FallbackSink", &fallback)

	sinks := make([]Sink, 0, len(paths))
	for _, path := range paths {
		dev := device(path)

		var name string
		if err := get(dev, deviceInterface+".Name", &name); err != nil {
			return nil, fmt.Errorf("sink %s: %w", path, err)
		}

		var props map[string][]byte
		_ = get(dev, deviceInterface+".PropertyList", &props)

		sinks = append(sinks, Sink{
			Name:        name,
			Description: propertyString(props, "device.description"),
			Default:     path == fallback,
		})
	}

	sort.Slice(sinks, func(i, j int) bool { return sinks[i].Name < sinks[j].Name })
	return sinks, nil
}

// get reads a property into dest, which must point to the property's type
func get(obj propertyGetter, property string, dest interface{}) error {
	v, err := obj.GetProperty(property)
	if err != nil {
		return err
	}
	if err := v.Store(dest); err != nil {
		return fmt.Errorf("property %s: %w", property, err)
	}
	return nil
}

// propertyString decodes a NUL-terminated property list value
func propertyString(props map[string][]byte, key string) string {
	v := props[key]
	if n := len(v); n > 0 && v[n-1] == 0 {
		v = v[:n-1]
	}
	return string(v)
}
