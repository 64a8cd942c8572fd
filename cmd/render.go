package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/colkit/internal/limiter"
	"github.com/oakwood-commons/colkit/internal/schema"
	"github.com/oakwood-commons/colkit/internal/search"
	"github.com/oakwood-commons/colkit/internal/ui/table"
	"github.com/oakwood-commons/colkit/pkg/columns"
	"github.com/oakwood-commons/colkit/pkg/logger"
)

type renderOptions struct {
	dataFile string
	where    string
	term     string
	width    int
	limit    limiter.Config
}

func newRenderCommand(opts *rootOptions) *cobra.Command {
	ro := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print row data through the table's visible columns",
		Example: "\n  colkit render --table users --data users.json\n" +
			"  colkit render --schema users.yaml --data users.yaml --where 'row.age >= 18' --limit 20\n",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ro.dataFile == "" {
				return fmt.Errorf("--data is required")
			}
			if err := ro.limit.Validate(); err != nil {
				return fmt.Errorf("record limiting error: %w", err)
			}
			return withTable(opts, cmd, func(env *tableEnv) error {
				rows, err := ro.rows(cmd, env.state.VisibleColumns())
				if err != nil {
					return err
				}
				return writeRows(cmd, opts.output, env, rows, ro.width)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&ro.dataFile, "data", "", "row data file (JSON or YAML list of objects)")
	f.StringVar(&ro.where, "where", "", "CEL filter over each row, e.g. 'row.age > 30' or '_.name.startsWith(\"a\")'")
	f.StringVar(&ro.term, "search", "", "keep rows whose visible cells contain this text (case-insensitive)")
	f.IntVar(&ro.width, "width", 0, "output width in columns (default: terminal width)")
	addLimitFlags(f, &ro.limit)
	return cmd
}

// addLimitFlags binds the record-limiting flags to c.
func addLimitFlags(f *pflag.FlagSet, c *limiter.Config) {
	f.IntVar(&c.Limit, "limit", 0, "Limit total number of records displayed")
	f.IntVar(&c.Offset, "offset", 0, "Skip the first N records")
	f.IntVar(&c.Tail, "tail", 0, "Show the last N records (mutually exclusive with --limit; ignores --offset)")
}

// rows loads the data file and applies the CEL filter, text search and
// record window, in that order.
func (ro *renderOptions) rows(cmd *cobra.Command, visible []columns.VisibleColumn) ([]search.Row, error) {
	rows, err := schema.LoadRows(ro.dataFile)
	if err != nil {
		return nil, err
	}
	total := len(rows)

	if ro.where != "" {
		filter, err := search.Compile(ro.where)
		if err != nil {
			return nil, err
		}
		if rows, err = filter.Apply(rows); err != nil {
			return nil, err
		}
	}
	if ro.term != "" {
		keys := make([]string, len(visible))
		for i, vc := range visible {
			keys[i] = table.KeyOf(vc)
		}
		rows = search.Text(rows, keys, ro.term)
	}
	rows = limiter.Apply(ro.limit, rows)

	logger.FromContext(cmd.Context()).V(1).Info("rows selected", "total", total, "shown", len(rows))
	return rows, nil
}

func writeRows(cmd *cobra.Command, format string, env *tableEnv, rows []search.Row, width int) error {
	visible := env.state.VisibleColumns()
	if format != outputTable {
		return writeStructured(cmd.OutOrStdout(), format, map[string]any{"rows": project(visible, rows)})
	}
	if len(visible) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "all columns are hidden")
		return nil
	}

	if width <= 0 {
		width, _ = detectTerminalSize()
	}
	t := table.NewModel(visible)
	t.SetNoColor(env.cfg.UI.NoColor)
	t.SetMaxColumnWidth(fitColumnWidth(env.cfg.UI.MaxColumnWidth, width, len(visible)))
	t.SetRows(rows)
	_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return err
}

// fitColumnWidth shrinks the per-column cap so n columns fit in width.
func fitColumnWidth(maxWidth, width, n int) int {
	if maxWidth <= 0 {
		maxWidth = table.DefaultMaxColumnWidth
	}
	if width <= 0 || n == 0 {
		return maxWidth
	}
	// one cell of padding per column
	return max(min(maxWidth, width/n-1), 3)
}

// project keeps only the visible fields of each row, keyed by column id.
func project(visible []columns.VisibleColumn, rows []search.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		m := make(map[string]any, len(visible))
		for _, vc := range visible {
			if v, ok := r[table.KeyOf(vc)]; ok {
				m[vc.ID] = v
			}
		}
		out[i] = m
	}
	return out
}
