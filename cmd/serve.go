package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oakwood-commons/colkit/internal/schema"
	"github.com/oakwood-commons/colkit/internal/server"
	"github.com/oakwood-commons/colkit/pkg/columns"
	"github.com/oakwood-commons/colkit/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the column settings HTTP API",
		Long: `Serves a JSON API over every configured table (config "tables") and the
table given by --schema/--table:

  GET  /api/tables
  GET  /api/tables/{table}/columns
  PUT  /api/tables/{table}/columns/{id}/visible   {"show": bool}
  PUT  /api/tables/{table}/columns/visible        {"show": bool}
  POST /api/tables/{table}/columns/{id}/fixed     {"side": "left|right"}
  POST /api/tables/{table}/can-move               {"draggedId", "relatedId"}
  POST /api/tables/{table}/move                   {"draggedId", "relatedId"}
  POST /api/tables/{table}/order                  {"order": [ids]}
  POST /api/tables/{table}/save
  POST /api/tables/{table}/reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			srvOpts := server.Options{
				Namespace:      cfg.Namespace,
				SelectionLabel: cfg.UI.SelectionLabel,
				Tables:         cfg.Tables,
				Logger:         logger.FromContext(cmd.Context()),
			}
			if opts.schemaFile != "" {
				file, err := schema.Load(opts.schemaFile)
				if err != nil {
					return err
				}
				name := opts.table
				if name == "" {
					name = file.Table
				}
				if name == "" {
					return errors.New("--schema needs a table name: pass --table or set 'table' in the schema file")
				}
				srvOpts.Schemas = map[string][]columns.Column{name: file.Columns}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			if backend != nil {
				defer backend.Close()
				srvOpts.Store = columns.NewStore(backend)
			}

			srv := server.New(srvOpts)
			fmt.Fprintf(cmd.ErrOrStderr(), "serving %d table(s) on %s\n", len(srv.TableNames()), addr)
			return runServer(ctx, srv, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.addr)")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *server.Server, addr string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
