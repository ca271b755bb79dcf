// Package config holds the launch configuration: where the embedded server
// binds, where the frontend assets live, and how patient the coordinator is
// during startup and teardown.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Assets AssetsConfig `yaml:"assets"`
	Window WindowConfig `yaml:"window"`
	Launch LaunchConfig `yaml:"launch"`
	Dev    bool         `yaml:"dev"`
}

// ServerConfig describes the embedded server's bind point. The port is fixed
// at configuration time and never renegotiated.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AssetsConfig points at the prebuilt frontend. A relative Dir is resolved
// against the executable's directory first, then the working directory.
type AssetsConfig struct {
	Dir string `yaml:"dir"`
}

// WindowConfig describes the native shell. An empty Title falls back to the
// entry document's <title>.
type WindowConfig struct {
	Title  string `yaml:"title,omitempty"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
}

// LaunchConfig holds the coordinator's timing policy.
type LaunchConfig struct {
	// MaxWait bounds the whole readiness phase: bind outcome plus probes.
	MaxWait time.Duration `yaml:"max_wait"`
	// PollInterval spaces successive readiness probes.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ShutdownGrace bounds teardown after the window closes.
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
	// WatchdogInterval spaces periodic health samples while the window is open.
	WatchdogInterval time.Duration `yaml:"watchdog_interval"`
}

// DefaultConfigFile is looked up when no --config flag is given.
const DefaultConfigFile = "appshell.yaml"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 5000},
		Assets: AssetsConfig{Dir: "frontend_build"},
		Window: WindowConfig{Width: 1280, Height: 850},
		Launch: LaunchConfig{
			MaxWait:          3 * time.Second,
			PollInterval:     100 * time.Millisecond,
			ShutdownGrace:    2 * time.Second,
			WatchdogInterval: 15 * time.Second,
		},
	}
}

// Load loads configuration from the specified file on top of the defaults.
// An empty configPath means "use appshell.yaml if it exists"; a missing
// default file is not an error, a missing explicit file is.
func Load(configPath string) (*Config, error) {
	// Load .env files first so ${VAR} expansion below can see them.
	loadEnvFiles()

	cfg := Default()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %w", configPath, err)
	}

	return cfg, nil
}

// Addr returns the bind address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// BaseURL returns the address the window and the readiness probes load from.
func (c *Config) BaseURL() string {
	return "http://" + c.Addr()
}
