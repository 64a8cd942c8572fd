package cmd

import (
	"fmt"
	"io"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/colkit/internal/schema"
	"github.com/oakwood-commons/colkit/internal/search"
	"github.com/oakwood-commons/colkit/internal/ui"
	"github.com/oakwood-commons/colkit/internal/ui/picker"
)

func newEditCommand(opts *rootOptions) *cobra.Command {
	var dataFile string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit column settings interactively",
		Long: `Opens the column editor next to a preview of the table.

Keys: tab switches panes, / filters rows. In the column pane:
  up/k down/j  move the cursor
  space        toggle visibility
  a / A        show / hide all
  [ / ]        move the column up / down
  l / r        toggle fixed left / right
  R            reset to schema defaults
  s            save
q or ctrl+c quits without saving.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows []search.Row
			if dataFile != "" {
				var err error
				if rows, err = schema.LoadRows(dataFile); err != nil {
					return err
				}
			}

			// the picker status line shows acknowledgments
			env, err := opts.openTable(cmd.Context(), io.Discard)
			if err != nil {
				return err
			}
			defer env.Close()

			editor := picker.New(cmd.Context(), env.state)
			root := ui.NewRootModel(editor, env.state.VisibleColumns(), rows)
			root.SetNoColor(env.cfg.UI.NoColor)
			root.SetMaxColumnWidth(env.cfg.UI.MaxColumnWidth)

			p := tea.NewProgram(root, tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run editor: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataFile, "data", "", "row data to preview (JSON or YAML list of objects)")
	return cmd
}
