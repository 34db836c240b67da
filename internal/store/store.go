package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"analytics-service/internal/config"
	"analytics-service/internal/util"
)

// Store owns the embedded DuckDB instance holding the append-only event
// tables. One Store is constructed at startup and shared for the process
// lifetime; reads and writes may run concurrently.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New opens the DuckDB database at cfg.Store.Path. An empty path opens an
// in-memory database.
func New(cfg *config.Config, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Open("duckdb", cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb at %q: %w", cfg.Store.Path, err)
	}

	// Queries are single local statements; a small pool is plenty.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	util.Info("DuckDB store opened",
		zap.String("path", cfg.Store.Path),
		zap.Bool("in_memory", cfg.Store.Path == ""),
	)

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// DB exposes the underlying handle for the aggregation engine's read queries
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// HealthCheck verifies the database is reachable
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			util.Error("Failed to close DuckDB store", zap.Error(err))
			return err
		}
		util.Info("DuckDB store closed")
	}
	return nil
}
