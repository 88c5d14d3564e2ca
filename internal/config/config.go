// Package config loads the generator's YAML configuration: the transport
// listener address, the XML template source, the script output path, the
// logging level/format, and the canned reload document path.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the generator's full configuration (spec.md §4.K).
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Templates TemplatesConfig `yaml:"templates"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Reload    ReloadConfig    `yaml:"reload"`
}

// ServerConfig configures the transport listener and static asset serving.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	StaticDir  string `yaml:"static_dir"`
}

// TemplatesConfig configures the XML template source.
type TemplatesConfig struct {
	ResourceDir    string `yaml:"resource_dir"`
	ProductVersion string `yaml:"product_version"`
}

// OutputConfig configures where the generated script is written.
type OutputConfig struct {
	ScriptPath string `yaml:"script_path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReloadConfig configures the stdin `reload` token's canned document.
type ReloadConfig struct {
	SystemInfoPath string `yaml:"system_info_path"`
}

// DefaultConfig returns the generator's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8088",
			StaticDir:  "./static",
		},
		Templates: TemplatesConfig{
			ResourceDir:    "",
			ProductVersion: "1.0.0",
		},
		Output: OutputConfig{
			ScriptPath: "./Snippet.txt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Reload: ReloadConfig{
			SystemInfoPath: "./reload-system-info.json",
		},
	}
}

// Load reads path, overlaying it onto DefaultConfig, expanding ${VAR}
// environment references before parsing. A missing file returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the invariants Load doesn't: a non-empty script path and
// listen address.
func (c *Config) Validate() error {
	if c.Output.ScriptPath == "" {
		return fmt.Errorf("config: output.script_path must not be empty")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must not be empty")
	}
	return nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
