package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"charm.land/lipgloss/v2"
	lgtable "charm.land/lipgloss/v2/table"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/colkit/pkg/columns"
)

// settingsView is the structured form of a table's settings.
type settingsView struct {
	Table    string            `json:"table" yaml:"table" toml:"table"`
	Key      string            `json:"key,omitempty" yaml:"key,omitempty" toml:"key,omitempty"`
	Version  string            `json:"version" yaml:"version" toml:"version"`
	Settings []columns.Setting `json:"settings" yaml:"settings" toml:"settings"`
}

func viewOf(env *tableEnv) settingsView {
	return settingsView{
		Table:    env.table,
		Key:      env.state.CacheKey(),
		Version:  env.state.Version(),
		Settings: env.state.Settings(),
	}
}

// writeStructured encodes v as json, yaml or toml.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case outputTOML:
		return toml.NewEncoder(w).Encode(v)
	}
	return fmt.Errorf("unsupported structured format %q", format)
}

// writeSettings prints the settings in the requested format.
func writeSettings(w io.Writer, format string, noColor bool, env *tableEnv) error {
	if format != outputTable {
		return writeStructured(w, format, viewOf(env))
	}
	_, err := fmt.Fprintln(w, settingsTable(env.state.Settings(), noColor))
	return err
}

func settingsTable(settings []columns.Setting, noColor bool) string {
	rows := make([][]string, len(settings))
	for i, s := range settings {
		rows[i] = []string{
			strconv.Itoa(s.Order),
			s.ID,
			s.Label,
			yesNo(s.Show),
			fixedText(s.Fixed),
			yesNo(s.Sort),
			yesNo(s.Pinned),
			roleText(s.Role),
		}
	}

	header := lipgloss.NewStyle().Bold(true).PaddingRight(2)
	cell := lipgloss.NewStyle().PaddingRight(2)
	hidden := cell.Foreground(lipgloss.Color("240"))
	t := lgtable.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).BorderBottom(false).BorderLeft(false).BorderRight(false).
		BorderHeader(false).BorderColumn(false).
		Headers("ORDER", "ID", "LABEL", "SHOW", "FIXED", "SORT", "PINNED", "TYPE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				if noColor {
					return lipgloss.NewStyle().PaddingRight(2)
				}
				return header
			case !noColor && row >= 0 && row < len(settings) && !settings[row].Show:
				return hidden
			}
			return cell
		})
	return t.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func fixedText(f columns.Fixed) string {
	if f == columns.FixedNone {
		return "-"
	}
	return string(f)
}

func roleText(r columns.Role) string {
	if r == columns.RoleData {
		return "data"
	}
	return string(r)
}
