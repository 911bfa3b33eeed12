// Package storage contains the storage-agnostic contracts for the loader
// and transformers, plus a factory registry that concrete backends
// (postgres, sqlite, mysql) attach themselves to at init time.
//
// Callers construct a Repository via storage.New(...) and never import a
// backend package directly; importing storage/all (usually as a blank
// import in the wiring layer) makes every built-in backend available.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Rows is the minimal result-set surface the transformers consume. It is
// satisfied by database/sql.Rows directly and by a thin wrapper over
// pgx.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Session is one unit of work against the store: statement execution and
// queries. Outside a transaction the Repository itself is a Session with
// autocommit semantics; inside Tx the Session is transaction-scoped.
type Session interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Repository is an open connection to a backend. Tx runs fn inside a
// single transaction, committing when fn returns nil and rolling back
// otherwise; the loader uses one Tx per input file.
type Repository interface {
	Session
	Tx(ctx context.Context, fn func(Session) error) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string // "postgres", "sqlite", "mysql"
	DSN  string // driver connection string
}

// Factory constructs a Repository for one backend kind. Constructors are
// expected to ping the store and fail fast: an unreachable store is fatal
// to a batch run, so it must surface at startup.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register records (or replaces) the factory for a backend kind. It is
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind. Unknown kinds list the registered
// alternatives so a config typo is diagnosable from the error alone.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	fn, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
