package store

import (
	"context"
	"fmt"
)

// Table DDL matches the analytics contract: three independent append-only
// tables keyed by user_id, no cross-table constraints. user_id is VARCHAR
// because this service does not mint caller identifiers.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS document_events (
		id UUID NOT NULL,
		user_id VARCHAR NOT NULL,
		document_id VARCHAR,
		event_type VARCHAR NOT NULL,
		document_type VARCHAR,
		ai_service VARCHAR,
		duration_seconds DOUBLE,
		status VARCHAR NOT NULL,
		metadata JSON,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS blockchain_events (
		id UUID NOT NULL,
		user_id VARCHAR NOT NULL,
		document_id VARCHAR,
		transaction_id VARCHAR,
		network VARCHAR NOT NULL,
		transaction_type VARCHAR NOT NULL,
		duration_seconds DOUBLE,
		status VARCHAR NOT NULL,
		gas_used BIGINT,
		metadata JSON,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id UUID NOT NULL,
		user_id VARCHAR NOT NULL,
		session_start TIMESTAMP NOT NULL,
		session_end TIMESTAMP,
		ip_address VARCHAR,
		user_agent VARCHAR,
		actions_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
}

// InitSchema ensures the event tables exist. It is idempotent and safe to
// call on every process start.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	s.logger.Info("Analytics schema ensured")
	return nil
}
