// Package server exposes column settings over a JSON HTTP API so a web grid
// can drive the same engine the CLI and terminal editor use.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/colkit/internal/schema"
	"github.com/oakwood-commons/colkit/pkg/columns"
	"github.com/oakwood-commons/colkit/pkg/logger"
	"github.com/oakwood-commons/colkit/pkg/settings"
)

// ErrUnknownTable is returned for a table that is not configured.
var ErrUnknownTable = errors.New("unknown table")

// Options configures a Server.
type Options struct {
	// Namespace prefixes storage keys; empty uses settings.DefaultNamespace.
	Namespace      string
	SelectionLabel string
	Store          *columns.Store
	// Tables maps a table name to its schema file.
	Tables map[string]string
	// Schemas supplies schemas directly and wins over Tables.
	Schemas map[string][]columns.Column
	Logger  *logr.Logger
}

// tableState serializes access to one table's engine state.
type tableState struct {
	mu    sync.Mutex
	state *columns.State
}

// Server is the HTTP API over per-table column states.
type Server struct {
	opts   Options
	log    *logr.Logger
	router *chi.Mux
	server *http.Server

	mu     sync.Mutex
	tables map[string]*tableState
}

// New creates a Server with its routes installed.
func New(opts Options) *Server {
	if opts.Namespace == "" {
		opts.Namespace = settings.DefaultNamespace
	}
	lgr := opts.Logger
	if lgr == nil {
		lgr = logger.GetNoopLogger()
	}
	s := &Server{
		opts:   opts,
		log:    lgr,
		router: chi.NewRouter(),
		tables: make(map[string]*tableState),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.handleListTables)

		r.Route("/tables/{table}", func(r chi.Router) {
			r.Get("/columns", s.handleGetColumns)
			r.Put("/columns/visible", s.handleSetAllVisible)
			r.Put("/columns/{id}/visible", s.handleSetVisible)
			r.Post("/columns/{id}/fixed", s.handleToggleFixed)
			r.Post("/can-move", s.handleCanMove)
			r.Post("/move", s.handleMove)
			r.Post("/order", s.handleOrder)
			r.Post("/save", s.handleSave)
			r.Post("/reset", s.handleReset)
		})
	})
}

// requestLogger attaches a request-scoped logger to the context and logs
// each request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lgr := logger.WithValues(s.log, "request_id", middleware.GetReqID(r.Context()))
		ctx := logger.WithLogger(r.Context(), lgr)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		lgr.V(1).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown. Calling Shutdown first makes Start
// return immediately.
func (s *Server) Start(addr string) error {
	s.server.Addr = addr
	s.log.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// TableNames lists the configured tables in name order.
func (s *Server) TableNames() []string {
	seen := make(map[string]bool, len(s.opts.Tables)+len(s.opts.Schemas))
	var names []string
	for name := range s.opts.Schemas {
		seen[name] = true
		names = append(names, name)
	}
	for name := range s.opts.Tables {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// table returns the state for name, building it from its schema on first use.
func (s *Server) table(ctx context.Context, name string) (*tableState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ts, ok := s.tables[name]; ok {
		return ts, nil
	}

	cols, ok := s.opts.Schemas[name]
	if !ok {
		path, found := s.opts.Tables[name]
		if !found {
			return nil, fmt.Errorf("%w %q", ErrUnknownTable, name)
		}
		file, err := schema.Load(path)
		if err != nil {
			return nil, err
		}
		cols = file.Columns
	}

	lgr := logger.WithValues(s.log, logger.TableKey, name)
	state := columns.NewState(columns.Config{
		Store:          s.opts.Store,
		CacheKey:       columns.StorageKey(s.opts.Namespace, name),
		SelectionLabel: s.opts.SelectionLabel,
	})
	state.OnSchemaChanged(logger.WithLogger(ctx, lgr), cols)

	ts := &tableState{state: state}
	s.tables[name] = ts
	return ts, nil
}
