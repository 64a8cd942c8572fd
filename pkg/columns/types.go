// Package columns implements table column configuration: identity and schema
// fingerprinting, settings reconciliation against a persisted cache, ordering
// by fixed group, drag constraints, and the mutation API a column editor uses.
package columns

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role classifies a schema column. Data columns are the default; selection
// and action columns carry built-in defaults and are never draggable.
type Role string

const (
	RoleData      Role = ""
	RoleSelection Role = "selection"
	RoleAction    Role = "action"
)

// IsControl reports whether the role is a non-data (selection/action) column.
func (r Role) IsControl() bool {
	return r == RoleSelection || r == RoleAction
}

// Fixed names the edge a column is anchored to. The zero value means the
// column flows with horizontal scroll.
type Fixed string

const (
	FixedNone  Fixed = ""
	FixedLeft  Fixed = "left"
	FixedRight Fixed = "right"
)

// Rank returns the group ordinal used as the primary ordering key:
// left=0, free=1, right=2.
func (f Fixed) Rank() int {
	switch f {
	case FixedLeft:
		return 0
	case FixedRight:
		return 2
	default:
		return 1
	}
}

// ParseFixed normalizes user input. A bare "true" means left.
func ParseFixed(s string) (Fixed, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "false", "null", "~":
		return FixedNone, nil
	case "left", "true":
		return FixedLeft, nil
	case "right":
		return FixedRight, nil
	}
	return FixedNone, fmt.Errorf("invalid fixed side %q: want left|right", s)
}

// UnmarshalJSON accepts "left", "right", true (left), false and null.
func (f *Fixed) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" {
		*f = FixedNone
		return nil
	}
	v, err := ParseFixed(raw)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (f *Fixed) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseFixed(node.Value)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// UnmarshalText lets TOML and flag decoders share the JSON rules.
func (f *Fixed) UnmarshalText(text []byte) error {
	v, err := ParseFixed(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Column is a schema column as declared by the host. It is read-only to the
// engine.
type Column struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Prop   string `json:"prop,omitempty" yaml:"prop,omitempty" toml:"prop,omitempty"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Type   Role   `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Fixed  Fixed  `json:"fixed,omitempty" yaml:"fixed,omitempty" toml:"fixed,omitempty"`
	Pinned *bool  `json:"pinned,omitempty" yaml:"pinned,omitempty" toml:"pinned,omitempty"`
	Sort   *bool  `json:"sort,omitempty" yaml:"sort,omitempty" toml:"sort,omitempty"`
	Show   *bool  `json:"show,omitempty" yaml:"show,omitempty" toml:"show,omitempty"`
	// Width is a rendering hint in cells; 0 sizes the column from content.
	Width int `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
}

// Setting is the engine's mutable per-column state.
type Setting struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	Label  string `json:"label" yaml:"label" toml:"label"`
	Show   bool   `json:"show" yaml:"show" toml:"show"`
	Order  int    `json:"order" yaml:"order" toml:"order"`
	Sort   bool   `json:"sort" yaml:"sort" toml:"sort"`
	Pinned bool   `json:"pinned" yaml:"pinned" toml:"pinned"`
	Fixed  Fixed  `json:"fixed,omitempty" yaml:"fixed,omitempty" toml:"fixed,omitempty"`
	Role   Role   `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`

	// schemaSort remembers the schema's own sort flag so sortability can be
	// recomputed after a fixed-side change.
	schemaSort bool
	column     Column
}

// Column returns the schema column this setting was built from.
func (s Setting) Column() Column {
	return s.column
}

// VisibleColumn is the projection handed to a renderer: a shown column in
// engine order with its resolved fixed side.
type VisibleColumn struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Fixed  Fixed  `json:"fixed,omitempty"`
	Column Column `json:"column"`
}

// CachedColumn is the persisted per-column override.
type CachedColumn struct {
	Show   bool   `json:"show"`
	Pinned *bool  `json:"pinned,omitempty"`
	Fixed  *Fixed `json:"fixed,omitempty"`
}

// Record is the persisted settings document.
type Record struct {
	Version string                  `json:"version"`
	Order   []string                `json:"order"`
	Columns map[string]CachedColumn `json:"columns"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
