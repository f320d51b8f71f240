// ABOUTME: Player configuration loading
// ABOUTME: Reads audio_output blocks from YAML with .env and ${VAR} expansion
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
	"github.com/Sendspin/sendspin-pulse/pkg/audio/output"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultLogFile is used when the configuration names no log file
const DefaultLogFile = "pulse-play.log"

// EnvDebug turns on debug logging when set to a true value
const EnvDebug = "PULSE_PLAY_DEBUG"

// Config holds the player configuration
type Config struct {
	LogFile string         `yaml:"log_file"`
	Debug   bool           `yaml:"debug"`
	Outputs []OutputConfig `yaml:"audio_outputs"`
}

// OutputConfig is one audio_output block. Keys other than type, name and
// format are passed to the plugin as string parameters.
type OutputConfig struct {
	Type   string            `yaml:"type"`
	Name   string            `yaml:"name"`
	Format string            `yaml:"format"` // rate:bits:channels, "*" keeps the source value
	Params map[string]string `yaml:",inline"`
}

// AudioFormat parses the block's forced format. An empty format forces nothing.
func (o OutputConfig) AudioFormat() (audio.Format, error) {
	if o.Format == "" {
		return audio.Format{}, nil
	}
	return audio.ParseFormat(o.Format)
}

// Block converts the configuration to the block handed to the plugin
func (o OutputConfig) Block() *output.Block {
	params := make(map[string]string, len(o.Params))
	for k, v := range o.Params {
		params[k] = v
	}
	return &output.Block{
		Name:   o.Name,
		Type:   o.Type,
		Params: params,
	}
}

// LoadConfig loads configuration from a YAML file. A .env file in the
// working directory is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration data, applying environment expansion, defaults
// and validation.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without a config file: a single
// pulse output.
func Default(server, sink string) *Config {
	params := map[string]string{}
	if server != "" {
		params["server"] = server
	}
	if sink != "" {
		params["sink"] = sink
	}

	cfg := &Config{
		Outputs: []OutputConfig{{
			Type:   output.PulsePluginName,
			Params: params,
		}},
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	for i := range c.Outputs {
		o := &c.Outputs[i]
		if o.Name == "" {
			o.Name = o.Type
		}
		if o.Params == nil {
			o.Params = map[string]string{}
		}
	}
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvDebug); ok {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Debug = debug
		}
	}
}

// ErrNoOutputs is returned when a configuration declares no audio output
var ErrNoOutputs = errors.New("no audio outputs configured")

// Validate checks that there is at least one output and that every output
// has a type, a unique name and a valid format
func (c *Config) Validate() error {
	if len(c.Outputs) == 0 {
		return ErrNoOutputs
	}

	seen := make(map[string]bool, len(c.Outputs))
	for i, o := range c.Outputs {
		if o.Type == "" {
			return fmt.Errorf("audio_outputs[%d]: missing type", i)
		}
		if seen[o.Name] {
			return fmt.Errorf("audio_outputs[%d]: duplicate output name %q", i, o.Name)
		}
		seen[o.Name] = true

		if _, err := o.AudioFormat(); err != nil {
			return fmt.Errorf("audio_outputs[%d] %q: %w", i, o.Name, err)
		}
	}
	return nil
}

// Output returns the output block with the given name, or the first block
// when name is empty.
func (c *Config) Output(name string) (*OutputConfig, error) {
	if len(c.Outputs) == 0 {
		return nil, ErrNoOutputs
	}
	if name == "" {
		return &c.Outputs[0], nil
	}
	for i := range c.Outputs {
		if c.Outputs[i].Name == name {
			return &c.Outputs[i], nil
		}
	}
	return nil, fmt.Errorf("no audio output named %q", name)
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
