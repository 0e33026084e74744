// Package store keeps parsed log files in DuckDB.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tinytelemetry/tflog/internal/store/migrate"
)

// DefaultQueryTimeout bounds every query when no timeout is configured.
const DefaultQueryTimeout = 30 * time.Second

var (
	// ErrFileNotFound means no file with the given id is stored.
	ErrFileNotFound = errors.New("store: file not found")
	// ErrAccessDenied means the file belongs to another session.
	ErrAccessDenied = errors.New("store: file belongs to another session")
)

// Store owns the database connection. Reads share mu; writes take it exclusively.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	dbPath       string
	QueryTimeout time.Duration
}

// NewStore opens or creates the database at dbPath and applies migrations.
// An empty dbPath opens an in-memory database.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	qt := DefaultQueryTimeout
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), qt)
	defer cancel()
	if err := migrate.NewRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dbPath: dbPath, QueryTimeout: qt}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DBPath returns the database path, or "" for an in-memory store.
func (s *Store) DBPath() string { return s.dbPath }

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

// queryCtx bounds ctx by the store's query timeout.
func (s *Store) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.QueryTimeout)
}
