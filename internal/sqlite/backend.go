// Package sqlite implements the SQLite aggregate store for FilmDeX: the
// films table and its three ordered child tables, with every multi-step
// write running in a single transaction.
package sqlite

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	sqlitedriver "modernc.org/sqlite"

	"github.com/mesh-intelligence/filmdex/internal/search"
	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
	sqlitedriver.MustRegisterDeterministicScalarFunction(search.FoldFunc, 1, foldValue)
}

// foldValue exposes search.Fold to SQL so relational and in-memory
// matching compare the same folded strings.
func foldValue(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return search.Fold(v), nil
	case []byte:
		return search.Fold(string(v)), nil
	default:
		return search.Fold(fmt.Sprint(v)), nil
	}
}

// Backend implements types.FilmStore on a single SQLite file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for search diagnostics and imports.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens (creating when needed) the database file described by
// config and ensures the schema exists. Existing data is kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sqlx.Open(driverName, dsn(config.DBPath()))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer; a single connection serializes writers
	// without SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("connect database: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true

	b.logger.Debug("store attached", zap.String("path", config.DBPath()))
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// RequireDatabase returns ErrStorageUnavailable when the database file of
// config does not exist yet.
func RequireDatabase(config types.Config) error {
	path := config.DBPath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: database file %s does not exist", types.ErrStorageUnavailable, path)
		}
		return fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}
	return nil
}

// dsn builds the connection string with the per-connection pragmas.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	return path + "?" + q.Encode()
}

// inTx runs fn inside one transaction. Any failure rolls back everything
// and is reported as ErrTransactionFailed, except ErrNotFound which callers
// need to tell apart.
func (b *Backend) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Join(types.ErrTransactionFailed, fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return err
		}
		return errors.Join(types.ErrTransactionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Join(types.ErrTransactionFailed, fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// timestamp formats the current time the way every table stores it.
func (b *Backend) timestamp() string {
	return b.now().UTC().Format(time.RFC3339Nano)
}
