package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"analytics-service/internal/models"
	"analytics-service/internal/util"
)

// ErrValidation marks a caller contract violation: a missing or malformed
// required field, rejected before the payload reaches storage.
var ErrValidation = errors.New("invalid event payload")

const insertDocumentEventQuery = `
	INSERT INTO document_events
		(id, user_id, document_id, event_type, document_type, ai_service, duration_seconds, status, metadata, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertBlockchainEventQuery = `
	INSERT INTO blockchain_events
		(id, user_id, document_id, transaction_id, network, transaction_type, duration_seconds, status, gas_used, metadata, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertUserSessionQuery = `
	INSERT INTO user_sessions
		(id, user_id, session_start, session_end, ip_address, user_agent, actions_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// InsertDocumentEvent appends exactly one immutable document event row,
// assigning its id and created_at. Returns the assigned row id.
func (s *Store) InsertDocumentEvent(ctx context.Context, in *models.DocumentEventInput) (string, error) {
	if in.UserID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if in.EventType == "" {
		return "", fmt.Errorf("%w: event_type is required", ErrValidation)
	}
	if in.Status == "" {
		return "", fmt.Errorf("%w: status is required", ErrValidation)
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return "", fmt.Errorf("%w: duration_seconds must be non-negative", ErrValidation)
	}

	metadata, err := marshalMetadata(in.Metadata)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()

	if _, err := s.db.ExecContext(ctx, insertDocumentEventQuery,
		id, in.UserID, in.DocumentID, in.EventType, in.DocumentType,
		in.AIService, in.DurationSeconds, in.Status, metadata, createdAt,
	); err != nil {
		return "", fmt.Errorf("failed to insert document event: %w", err)
	}

	s.logger.Debug("Document event recorded",
		util.String("event_id", id),
		util.String("user_id", in.UserID),
		util.String("event_type", in.EventType),
	)
	return id, nil
}

// InsertBlockchainEvent appends exactly one immutable blockchain event row,
// assigning its id and created_at. Returns the assigned row id.
func (s *Store) InsertBlockchainEvent(ctx context.Context, in *models.BlockchainEventInput) (string, error) {
	if in.UserID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if in.Network == "" {
		return "", fmt.Errorf("%w: network is required", ErrValidation)
	}
	if in.TransactionType == "" {
		return "", fmt.Errorf("%w: transaction_type is required", ErrValidation)
	}
	if in.Status == "" {
		return "", fmt.Errorf("%w: status is required", ErrValidation)
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return "", fmt.Errorf("%w: duration_seconds must be non-negative", ErrValidation)
	}
	if in.GasUsed != nil && *in.GasUsed < 0 {
		return "", fmt.Errorf("%w: gas_used must be non-negative", ErrValidation)
	}

	metadata, err := marshalMetadata(in.Metadata)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()

	if _, err := s.db.ExecContext(ctx, insertBlockchainEventQuery,
		id, in.UserID, in.DocumentID, in.TransactionID, in.Network,
		in.TransactionType, in.DurationSeconds, in.Status, in.GasUsed, metadata, createdAt,
	); err != nil {
		return "", fmt.Errorf("failed to insert blockchain event: %w", err)
	}

	s.logger.Debug("Blockchain event recorded",
		util.String("event_id", id),
		util.String("user_id", in.UserID),
		util.String("network", in.Network),
	)
	return id, nil
}

// InsertUserSession appends exactly one immutable session row, assigning its
// id and created_at. session_end, when present, must not precede
// session_start. Returns the assigned row id.
func (s *Store) InsertUserSession(ctx context.Context, in *models.UserSessionInput) (string, error) {
	if in.UserID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if in.SessionStart == "" {
		return "", fmt.Errorf("%w: session_start is required", ErrValidation)
	}
	if in.ActionsCount < 0 {
		return "", fmt.Errorf("%w: actions_count must be non-negative", ErrValidation)
	}

	sessionStart, err := time.Parse(time.RFC3339, in.SessionStart)
	if err != nil {
		return "", fmt.Errorf("%w: session_start must be an RFC 3339 timestamp", ErrValidation)
	}
	var sessionEnd *time.Time
	if in.SessionEnd != nil {
		parsed, err := time.Parse(time.RFC3339, *in.SessionEnd)
		if err != nil {
			return "", fmt.Errorf("%w: session_end must be an RFC 3339 timestamp", ErrValidation)
		}
		if parsed.Before(sessionStart) {
			return "", fmt.Errorf("%w: session_end must not precede session_start", ErrValidation)
		}
		utc := parsed.UTC()
		sessionEnd = &utc
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()

	if _, err := s.db.ExecContext(ctx, insertUserSessionQuery,
		id, in.UserID, sessionStart.UTC(), sessionEnd,
		in.IPAddress, in.UserAgent, in.ActionsCount, createdAt,
	); err != nil {
		return "", fmt.Errorf("failed to insert user session: %w", err)
	}

	s.logger.Debug("User session recorded",
		util.String("session_id", id),
		util.String("user_id", in.UserID),
	)
	return id, nil
}

// marshalMetadata serializes the open-ended metadata blob to JSON text for
// the JSON column; nil maps become SQL NULL.
func marshalMetadata(metadata map[string]any) (*string, error) {
	if metadata == nil {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata is not serializable", ErrValidation)
	}
	text := string(raw)
	return &text, nil
}
