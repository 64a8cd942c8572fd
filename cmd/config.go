package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/colkit/internal/config"
)

// newConfigCommand groups configuration subcommands.
func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show colkit configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			format := opts.output
			if format == outputTable {
				format = outputYAML
			}
			return writeStructured(cmd.OutOrStdout(), format, cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "default",
		Short: "Print the built-in default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), string(config.DefaultConfigYAML()))
			return err
		},
	})
	return cmd
}
