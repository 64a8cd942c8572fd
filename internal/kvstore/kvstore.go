// Package kvstore provides the key-value backends column settings persist
// through: process memory, a JSON document on disk, and SQLite.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oakwood-commons/colkit/pkg/columns"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("kvstore: closed")

// Backend is a closable columns.KV.
type Backend interface {
	columns.KV
	Close() error
}

// Open returns the backend named by backend. "none" (or empty) returns a nil
// Backend, which leaves column settings session-only.
func Open(ctx context.Context, backend, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		if path == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		return OpenFile(path)
	case BackendSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return OpenSQLite(ctx, path)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}
