package models

import "time"

// BlockchainEvent is one immutable row in the blockchain_events table
type BlockchainEvent struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	DocumentID      *string   `db:"document_id" json:"document_id,omitempty"`
	TransactionID   *string   `db:"transaction_id" json:"transaction_id,omitempty"`
	Network         string    `db:"network" json:"network"`
	TransactionType string    `db:"transaction_type" json:"transaction_type"`
	DurationSeconds *float64  `db:"duration_seconds" json:"duration_seconds,omitempty"`
	Status          string    `db:"status" json:"status"`
	GasUsed         *int64    `db:"gas_used" json:"gas_used,omitempty"`
	Metadata        *string   `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// BlockchainEventInput is the ingest payload for a blockchain event
type BlockchainEventInput struct {
	UserID          string         `json:"user_id"`
	DocumentID      *string        `json:"document_id"`
	TransactionID   *string        `json:"transaction_id"`
	Network         string         `json:"network"`
	TransactionType string         `json:"transaction_type"`
	DurationSeconds *float64       `json:"duration_seconds"`
	Status          string         `json:"status"`
	GasUsed         *int64         `json:"gas_used"`
	Metadata        map[string]any `json:"metadata"`
}
