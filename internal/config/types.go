// Package config loads colkit's configuration: embedded defaults overlaid by
// an optional YAML, TOML or JSON file.
package config

// Config is the merged configuration.
type Config struct {
	// Namespace prefixes storage keys: "<namespace>:<table>:columns".
	Namespace string       `yaml:"namespace" toml:"namespace" json:"namespace"`
	Store     StoreConfig  `yaml:"store" toml:"store" json:"store"`
	UI        UIConfig     `yaml:"ui" toml:"ui" json:"ui"`
	Server    ServerConfig `yaml:"server" toml:"server" json:"server"`
	// Tables maps a table identity to its schema file.
	Tables map[string]string `yaml:"tables" toml:"tables" json:"tables"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend" toml:"backend" json:"backend"`
	Path    string `yaml:"path" toml:"path" json:"path"`
}

// UIConfig holds rendering options.
type UIConfig struct {
	NoColor        bool   `yaml:"noColor" toml:"noColor" json:"noColor"`
	SelectionLabel string `yaml:"selectionLabel" toml:"selectionLabel" json:"selectionLabel"`
	MaxColumnWidth int    `yaml:"maxColumnWidth" toml:"maxColumnWidth" json:"maxColumnWidth"`
}

// ServerConfig holds HTTP API options.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr" json:"addr"`
}
