// Package cmd implements the colkit command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/colkit/pkg/logger"
	"github.com/oakwood-commons/colkit/pkg/settings"
)

const defaultFallbackTermWidth = 120

// Output formats accepted by -o.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTOML  = "toml"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	schemaFile string
	table      string
	namespace  string
	store      string
	storePath  string
	output     string
	debug      bool
	noColor    bool
}

// NewRootCommand builds the colkit command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{output: outputTable}

	cmd := &cobra.Command{
		Use:   settings.CliBinaryName,
		Short: "colkit - table column settings that survive restarts",
		Long: strings.TrimSpace(`
colkit keeps per-table column settings (visibility, order, fixed side) for a
table schema and persists them in a local store. Settings are keyed by
"<namespace>:<table>:columns" and are discarded automatically when the set of
schema columns changes.
`),
		Example: "\n  colkit columns --schema users.yaml\n  colkit hide email phone --schema users.yaml\n  colkit fix name left --table users\n  colkit render --table users --data users.json --where 'row.age > 30'\n  colkit serve --addr :8080\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// debug maps to zap.DebugLevel (-1), otherwise InfoLevel (0)
			var level int8
			if opts.debug {
				level = -1
			}
			lgr := logger.Get(level)
			lgr = logger.WithValues(lgr, logger.CommandKey, cmd.Name())

			run := settings.NewCliParams()
			run.MinLogLevel = level
			run.NoColor = opts.noColor
			run.Table = opts.table
			if opts.namespace != "" {
				run.Namespace = opts.namespace
			}

			ctx := logger.WithLogger(cmd.Context(), lgr)
			ctx = settings.IntoContext(ctx, run)
			cmd.SetContext(ctx)
			return validateOutput(opts.output)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config-file", "", "path to a YAML, TOML or JSON config file")
	pf.StringVar(&opts.schemaFile, "schema", "", "path to a table schema file (overrides the configured schema for --table)")
	pf.StringVar(&opts.table, "table", "", "table identity; settings persist under <namespace>:<table>:columns")
	pf.StringVar(&opts.namespace, "namespace", "", "storage key namespace (default from config)")
	pf.StringVar(&opts.store, "store", "", "store backend: none|memory|file|sqlite (default from config)")
	pf.StringVar(&opts.storePath, "store-path", "", "store file path (default under the user config dir)")
	pf.StringVarP(&opts.output, "output", "o", outputTable, "output format: table|json|yaml|toml")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable color output")

	cmd.AddCommand(
		newColumnsCommand(opts),
		newVisibilityCommand(opts, true),
		newVisibilityCommand(opts, false),
		newFixCommand(opts),
		newMoveCommand(opts),
		newResetCommand(opts),
		newEditCommand(opts),
		newRenderCommand(opts),
		newServeCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML, outputTOML:
		return nil
	}
	return fmt.Errorf("invalid output format %q: want table|json|yaml|toml", format)
}

// resolveConfigPath returns the explicit configFile if set, otherwise the XDG path
// ($XDG_CONFIG_HOME/colkit/config.yaml) or ~/.config/colkit/config.yaml if present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// detectTerminalSize returns the best-effort terminal width/height by probing
// stdout, stderr, and stdin, then falling back to $COLUMNS.
func detectTerminalSize() (int, int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 0
}
