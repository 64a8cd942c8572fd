package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/colkit/pkg/columns"
)

// withTable opens the table env for a command and closes it afterwards.
func withTable(opts *rootOptions, cmd *cobra.Command, fn func(env *tableEnv) error) error {
	env, err := opts.openTable(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

// saveAndPrint persists the settings and prints them.
func saveAndPrint(opts *rootOptions, cmd *cobra.Command, env *tableEnv) error {
	env.state.Save(cmd.Context(), nil)
	return writeSettings(cmd.OutOrStdout(), opts.output, env.cfg.UI.NoColor, env)
}

func requireColumn(env *tableEnv, id string) (columns.Setting, error) {
	s, ok := env.state.Setting(id)
	if !ok {
		return s, fmt.Errorf("unknown column %q in table %q", id, env.table)
	}
	return s, nil
}

func newColumnsCommand(opts *rootOptions) *cobra.Command {
	var visibleOnly bool
	cmd := &cobra.Command{
		Use:     "columns",
		Aliases: []string{"ls"},
		Short:   "List the column settings of a table",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTable(opts, cmd, func(env *tableEnv) error {
				if visibleOnly {
					if opts.output == outputTable {
						for _, vc := range env.state.VisibleColumns() {
							fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", vc.ID, vc.Label, fixedText(vc.Fixed))
						}
						return nil
					}
					return writeStructured(cmd.OutOrStdout(), opts.output, map[string]any{"visible": env.state.VisibleColumns()})
				}
				return writeSettings(cmd.OutOrStdout(), opts.output, env.cfg.UI.NoColor, env)
			})
		},
	}
	cmd.Flags().BoolVar(&visibleOnly, "visible", false, "print only the visible column projection")
	return cmd
}

// newVisibilityCommand builds "show" (show=true) or "hide".
func newVisibilityCommand(opts *rootOptions, show bool) *cobra.Command {
	var all bool
	use, short := "show", "Show columns"
	if !show {
		use, short = "hide", "Hide columns"
	}
	cmd := &cobra.Command{
		Use:   use + " [ID...]",
		Short: short + " and save the settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("%s needs column ids or --all", use)
			}
			return withTable(opts, cmd, func(env *tableEnv) error {
				if all {
					env.state.SetAllVisible(show)
				}
				for _, id := range args {
					if _, err := requireColumn(env, id); err != nil {
						return err
					}
					env.state.SetVisible(id, show)
				}
				return saveAndPrint(opts, cmd, env)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "apply to every column")
	return cmd
}

func newFixCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fix ID left|right|none",
		Short: "Toggle a column's fixed side and save the settings",
		Long:  "Anchors the column to the given side, or frees it when it is already fixed there. 'none' frees it unconditionally.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, err := columns.ParseFixed(args[1])
			if err != nil {
				return err
			}
			return withTable(opts, cmd, func(env *tableEnv) error {
				s, err := requireColumn(env, args[0])
				if err != nil {
					return err
				}
				if s.Pinned {
					return fmt.Errorf("column %q is pinned and keeps its fixed side", s.ID)
				}
				switch {
				case side != columns.FixedNone:
					env.state.ToggleFixed(s.ID, side)
				case s.Fixed != columns.FixedNone:
					env.state.ToggleFixed(s.ID, s.Fixed)
				}
				return saveAndPrint(opts, cmd, env)
			})
		},
	}
}

func newMoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID RELATED",
		Short: "Move a column to another column's position and save the settings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTable(opts, cmd, func(env *tableEnv) error {
				for _, id := range args {
					if _, err := requireColumn(env, id); err != nil {
						return err
					}
				}
				if !env.state.Move(args[0], args[1]) {
					return fmt.Errorf("cannot move %q onto %q: both must be sortable, unpinned and share a fixed side", args[0], args[1])
				}
				return saveAndPrint(opts, cmd, env)
			})
		},
	}
}

func newResetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop the saved settings and restore schema defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTable(opts, cmd, func(env *tableEnv) error {
				env.state.Reset(cmd.Context())
				return writeSettings(cmd.OutOrStdout(), opts.output, env.cfg.UI.NoColor, env)
			})
		},
	}
}
