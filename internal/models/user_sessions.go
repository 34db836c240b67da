package models

import "time"

// UserSession is one immutable row in the user_sessions table
type UserSession struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	SessionStart time.Time  `db:"session_start" json:"session_start"`
	SessionEnd   *time.Time `db:"session_end" json:"session_end,omitempty"`
	IPAddress    *string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent    *string    `db:"user_agent" json:"user_agent,omitempty"`
	ActionsCount int        `db:"actions_count" json:"actions_count"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// UserSessionInput is the ingest payload for a user session.
// Timestamps are RFC 3339 strings.
type UserSessionInput struct {
	UserID       string  `json:"user_id"`
	SessionStart string  `json:"session_start"`
	SessionEnd   *string `json:"session_end"`
	IPAddress    *string `json:"ip_address"`
	UserAgent    *string `json:"user_agent"`
	ActionsCount int     `json:"actions_count"`
}
