package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/colkit/internal/kvstore"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// ErrUnknownBackend reports a store backend Open does not know.
var ErrUnknownBackend = errors.New("unknown store backend")

// DefaultConfigYAML returns a copy of the embedded defaults.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default decodes the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode embedded default config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults overlaid with the file at path. An empty path
// returns the defaults. The decoder is chosen by extension: .toml, .json,
// anything else is YAML.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := decode(path, data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	// Relative schema paths are relative to the config file.
	base := filepath.Dir(path)
	for name, schema := range cfg.Tables {
		if schema != "" && !filepath.IsAbs(schema) {
			cfg.Tables[name] = filepath.Join(base, schema)
		}
	}
	return cfg, cfg.Validate()
}

func decode(path string, data []byte, out *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, out)
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return yaml.Unmarshal(data, out)
	}
}

// Validate checks the backend name and option ranges.
func (c Config) Validate() error {
	switch strings.ToLower(c.Store.Backend) {
	case "", kvstore.BackendNone, kvstore.BackendMemory, kvstore.BackendFile, kvstore.BackendSQLite:
	default:
		return fmt.Errorf("%w %q: want none|memory|file|sqlite", ErrUnknownBackend, c.Store.Backend)
	}
	if c.UI.MaxColumnWidth < 0 {
		return fmt.Errorf("ui.maxColumnWidth must be non-negative, got %d", c.UI.MaxColumnWidth)
	}
	return nil
}

// StorePath resolves the backend path: "~/" expands to the home directory
// and an empty path falls back to the user config directory.
func (c Config) StorePath() (string, error) {
	path := c.Store.Path
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if path != "" {
		return path, nil
	}

	var name string
	switch strings.ToLower(c.Store.Backend) {
	case kvstore.BackendFile:
		name = "columns.json"
	case kvstore.BackendSQLite:
		name = "columns.db"
	default:
		return "", nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "colkit", name), nil
}
