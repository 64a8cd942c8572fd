// Package schema reads table schema and row data files.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/colkit/internal/search"
	"github.com/oakwood-commons/colkit/pkg/columns"
)

// File is the document form of a schema: a columns list with an optional
// table identity.
type File struct {
	Table   string           `yaml:"table,omitempty" toml:"table,omitempty" json:"table,omitempty"`
	Columns []columns.Column `yaml:"columns" toml:"columns" json:"columns"`
}

// Load reads a schema file. YAML and JSON documents may also be a bare list
// of columns.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read schema: %w", err)
	}
	f, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return File{}, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a schema document; ext selects the format (".toml", ".json",
// otherwise YAML).
func Parse(ext string, data []byte) (File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".toml":
		err := toml.Unmarshal(data, &f)
		return f, err
	case ".json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err := json.Unmarshal(trimmed, &f.Columns)
			return f, err
		}
		err := json.Unmarshal(data, &f)
		return f, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return f, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err := node.Content[0].Decode(&f.Columns)
		return f, err
	}
	err := node.Decode(&f)
	return f, err
}

// LoadRows reads a JSON or YAML array of objects. JSON numbers decode as
// float64.
func LoadRows(path string) ([]search.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	var rows []search.Row
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rows)
	default:
		err = json.Unmarshal(data, &rows)
	}
	if err != nil {
		return nil, fmt.Errorf("parse rows %s: %w", path, err)
	}
	return rows, nil
}
