package models

import "time"

// DocumentEvent is one immutable row in the document_events table
type DocumentEvent struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	DocumentID      *string   `db:"document_id" json:"document_id,omitempty"`
	EventType       string    `db:"event_type" json:"event_type"`
	DocumentType    *string   `db:"document_type" json:"document_type,omitempty"`
	AIService       *string   `db:"ai_service" json:"ai_service,omitempty"`
	DurationSeconds *float64  `db:"duration_seconds" json:"duration_seconds,omitempty"`
	Status          string    `db:"status" json:"status"`
	Metadata        *string   `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// DocumentEventInput is the ingest payload for a document event.
// ID and CreatedAt are assigned by the store at insert time.
type DocumentEventInput struct {
	UserID          string         `json:"user_id"`
	DocumentID      *string        `json:"document_id"`
	EventType       string         `json:"event_type"`
	DocumentType    *string        `json:"document_type"`
	AIService       *string        `json:"ai_service"`
	DurationSeconds *float64       `json:"duration_seconds"`
	Status          string         `json:"status"`
	Metadata        map[string]any `json:"metadata"`
}
