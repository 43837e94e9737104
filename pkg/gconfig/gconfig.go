// Package gconfig is the gset CLI's own configuration file: which backend
// connection to use by default, the settings for each named connection, and
// a couple of CLI preferences (output format, log level). It is named
// gconfig, not config, to stay clear of pkg/backend/fileconfig, which is a
// settings Backend in its own right rather than the CLI's bookkeeping.
package gconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Connection describes how to reach one named backend: which concrete
// backend to dial and that backend's connection parameters. Fields unused
// by the chosen Backend are simply left zero.
type Connection struct {
	Backend   string   `yaml:"backend"`
	Endpoints []string `yaml:"endpoints,omitempty"`
	Username  string   `yaml:"username,omitempty"`
	Password  string   `yaml:"password,omitempty"`
	Path      string   `yaml:"path,omitempty"`
}

// Config is the entire CLI configuration file.
type Config struct {
	Connections       map[string]*Connection `yaml:"connections"`
	CurrentConnection string                  `yaml:"current-connection,omitempty"`
	LogLevel          string                  `yaml:"log-level,omitempty"`
	DefaultFormat     string                  `yaml:"default-format,omitempty"`
}

// EnvVar, when set, overrides the default config file location.
const EnvVar = "GSETCONFIG"

// GetConfigPath returns the path to the CLI config file.
func GetConfigPath() (string, error) {
	if envPath := os.Getenv(EnvVar); envPath != "" {
		return envPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("gconfig: failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "gset", "config.yaml"), nil
}

// LoadConfig loads the CLI configuration, returning an empty Config if the
// file doesn't exist yet.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	info, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		return &Config{Connections: make(map[string]*Connection)}, nil
	}
	if statErr != nil {
		return nil, fmt.Errorf("gconfig: failed to stat %s: %w", path, statErr)
	}

	if mode := info.Mode().Perm(); mode&0077 != 0 {
		fmt.Fprintf(os.Stderr, "Warning: config file %s has permissions %o; consider 0600\n", path, mode)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gconfig: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("gconfig: failed to parse %s: %w", path, err)
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]*Connection)
	}

	return &cfg, nil
}

// SaveConfig writes cfg to the CLI config file with restrictive permissions.
func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("gconfig: failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("gconfig: failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("gconfig: failed to write %s: %w", path, err)
	}

	return nil
}

// CurrentConnection returns the connection named by CurrentConnection, or
// (nil, "", nil) if none is set.
func CurrentConnection() (*Connection, string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, "", err
	}
	if cfg.CurrentConnection == "" {
		return nil, "", nil
	}
	conn, ok := cfg.Connections[cfg.CurrentConnection]
	if !ok {
		return nil, "", fmt.Errorf("gconfig: current connection %q not found", cfg.CurrentConnection)
	}
	return conn, cfg.CurrentConnection, nil
}

// SetConnection adds or replaces a named connection, optionally making it
// current. It becomes current unconditionally if no connection is current
// yet.
func SetConnection(name string, conn *Connection, makeCurrent bool) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	cfg.Connections[name] = conn
	if makeCurrent || cfg.CurrentConnection == "" {
		cfg.CurrentConnection = name
	}

	return SaveConfig(cfg)
}

// DeleteConnection removes a named connection. If CurrentConnection pointed
// at the one removed, it moves to one of the remaining connections (which
// one is not defined), or is cleared when none remain.
func DeleteConnection(name string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	if _, ok := cfg.Connections[name]; !ok {
		return fmt.Errorf("gconfig: connection %q not found", name)
	}
	delete(cfg.Connections, name)

	if cfg.CurrentConnection == name {
		cfg.CurrentConnection = ""
		for remaining := range cfg.Connections {
			cfg.CurrentConnection = remaining
			break
		}
	}

	return SaveConfig(cfg)
}

// UseConnection switches CurrentConnection to an already-registered name.
func UseConnection(name string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if _, ok := cfg.Connections[name]; !ok {
		return fmt.Errorf("gconfig: connection %q not found", name)
	}
	cfg.CurrentConnection = name
	return SaveConfig(cfg)
}
