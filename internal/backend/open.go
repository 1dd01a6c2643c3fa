package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/internal/postgrest"
	"github.com/amonks/tracker/todo"
)

// Kind names a backend.
type Kind string

const (
	KindREST     Kind = "rest"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// Store is a backend for both tasks and tokens.
type Store interface {
	todo.Backend
	auth.Backend
	Close() error
}

// OpenOptions selects and configures a Store.
type OpenOptions struct {
	Kind Kind
	// URL and APIKey configure the rest backend.
	URL    string
	APIKey string
	// DSN configures the SQL backends.
	DSN     string
	Timeout time.Duration
	// Now stamps created_at in the SQL backends.
	Now func() time.Time
}

// Open returns the Store described by opts.
func Open(ctx context.Context, opts OpenOptions) (Store, error) {
	switch opts.Kind {
	case KindREST, "":
		if strings.TrimSpace(opts.URL) == "" {
			return nil, fmt.Errorf("supabase url is required for the rest backend")
		}
		client := postgrest.NewClient(opts.URL, postgrest.Options{APIKey: opts.APIKey, Timeout: opts.Timeout})
		return NewREST(client), nil
	case KindPostgres, KindSQLite:
		dialect := DialectPostgres
		if opts.Kind == KindSQLite {
			dialect = DialectSQLite
		}
		store, err := OpenSQL(ctx, dialect, opts.DSN, SQLOptions{Now: opts.Now})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Kind)
	}
}

// Close is a no-op; REST holds no connections of its own.
func (r *REST) Close() error {
	return nil
}
