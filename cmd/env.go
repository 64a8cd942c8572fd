package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/oakwood-commons/colkit/internal/config"
	"github.com/oakwood-commons/colkit/internal/kvstore"
	"github.com/oakwood-commons/colkit/internal/schema"
	"github.com/oakwood-commons/colkit/pkg/columns"
	"github.com/oakwood-commons/colkit/pkg/logger"
	"github.com/oakwood-commons/colkit/pkg/settings"
)

var errNoSchema = errors.New("no schema: pass --schema or configure tables.<name> and pass --table")

// loadConfig merges the config file with the flag overrides and the run
// settings carried by ctx.
func (o *rootOptions) loadConfig(ctx context.Context) (config.Config, error) {
	run := settings.FromContextOrDefault(ctx)
	cfg, err := config.Load(resolveConfigPath(o.configFile))
	if err != nil {
		return cfg, err
	}
	if o.namespace != "" {
		cfg.Namespace = o.namespace
	}
	if cfg.Namespace == "" {
		cfg.Namespace = settings.DefaultNamespace
	}
	if o.store != "" {
		cfg.Store.Backend = o.store
	}
	if o.storePath != "" {
		cfg.Store.Path = o.storePath
	}
	if run.NoColor {
		cfg.UI.NoColor = true
	}
	return cfg, cfg.Validate()
}

// openStore opens the configured backend. A nil Backend means session-only.
func openStore(ctx context.Context, cfg config.Config) (kvstore.Backend, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	backend, err := kvstore.Open(ctx, cfg.Store.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	logger.FromContext(ctx).V(1).Info("store opened", "backend", cfg.Store.Backend, "path", path)
	return backend, nil
}

// tableEnv is everything a table command works on.
type tableEnv struct {
	cfg     config.Config
	backend kvstore.Backend
	table   string
	state   *columns.State
}

func (e *tableEnv) Close() error {
	if e == nil || e.backend == nil {
		return nil
	}
	return e.backend.Close()
}

// openTable loads config, schema and store and builds the table's settings.
// Acknowledgments go to ack.
func (o *rootOptions) openTable(ctx context.Context, ack io.Writer) (*tableEnv, error) {
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	run := settings.FromContextOrDefault(ctx)

	path := o.schemaFile
	if path == "" && run.Persistent() {
		path = cfg.Tables[run.Table]
	}
	if path == "" {
		return nil, errNoSchema
	}
	file, err := schema.Load(path)
	if err != nil {
		return nil, err
	}

	table := run.Table
	if table == "" {
		table = file.Table
	}

	backend, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var kv columns.KV
	if backend != nil {
		kv = backend
	}
	ctx = logger.WithLogger(ctx, logger.WithValues(logger.FromContext(ctx), logger.TableKey, table))
	state := columns.NewState(columns.Config{
		Store:          columns.NewStore(kv),
		CacheKey:       columns.StorageKey(cfg.Namespace, table),
		SelectionLabel: cfg.UI.SelectionLabel,
		Acknowledge: func(message string) {
			fmt.Fprintln(ack, message)
		},
	})
	state.OnSchemaChanged(ctx, file.Columns)
	if state.CacheKey() == "" {
		logger.FromContext(ctx).V(1).Info("no table identity, settings are session-only")
	}

	return &tableEnv{cfg: cfg, backend: backend, table: table, state: state}, nil
}
