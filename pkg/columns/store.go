package columns

import (
	"context"
	"encoding/json"

	"github.com/oakwood-commons/colkit/pkg/logger"
)

// KV is the persistence capability the settings store writes through. Get
// reports ok=false for an absent key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// StorageKey builds "<namespace>:<table>:columns". An empty table yields ""
// which the store treats as session-only.
func StorageKey(namespace, table string) string {
	if table == "" {
		return ""
	}
	return namespace + ":" + table + ":columns"
}

// Store reads and writes versioned settings records. It never returns
// errors: a nil KV, an empty key, corrupt data or a failed write all degrade
// to "no cache".
type Store struct {
	kv KV
}

// NewStore wraps kv. A nil kv makes every operation a no-op.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) usable(key string) bool {
	return s != nil && s.kv != nil && key != ""
}

// Read returns the record stored under key when it parses and its version
// equals expectedVersion.
func (s *Store) Read(ctx context.Context, key, expectedVersion string) (*Record, bool) {
	if !s.usable(key) {
		return nil, false
	}
	lgr := logger.FromContext(ctx).WithValues("key", key)

	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		lgr.V(1).Info("column cache read failed", "error", err.Error())
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		lgr.V(1).Info("column cache corrupt, ignoring", "error", err.Error())
		return nil, false
	}
	if rec.Version != expectedVersion {
		lgr.V(1).Info("column cache version mismatch, ignoring", "stored", rec.Version, "expected", expectedVersion)
		return nil, false
	}
	return &rec, true
}

// Write stores rec under key. Failures are logged and dropped.
func (s *Store) Write(ctx context.Context, key string, rec Record) {
	if !s.usable(key) {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		logger.FromContext(ctx).V(1).Info("column cache encode failed", "key", key, "error", err.Error())
		return
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		logger.FromContext(ctx).V(1).Info("column cache write failed", "key", key, "error", err.Error())
	}
}

// Remove deletes key, best effort.
func (s *Store) Remove(ctx context.Context, key string) {
	if !s.usable(key) {
		return
	}
	if err := s.kv.Remove(ctx, key); err != nil {
		logger.FromContext(ctx).V(1).Info("column cache remove failed", "key", key, "error", err.Error())
	}
}
