package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"analytics-service/internal/config"
	"analytics-service/internal/models"
)

// newTestStore opens a store on a temporary database file with schema ensured
func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.Config{
		Store: config.StoreConfig{Path: filepath.Join(t.TempDir(), "analytics.db")},
	}
	s, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema returned error: %v", err)
	}
	return s
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var count int
	if err := s.DB().Get(&count, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("counting rows in %s: %v", table, err)
	}
	return count
}

func strPtr(v string) *string { return &v }

func f64Ptr(v float64) *float64 { return &v }

func i64Ptr(v int64) *int64 { return &v }

func TestInitSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertDocumentEvent(ctx, &models.DocumentEventInput{
		UserID:    "u1",
		EventType: "generation",
		Status:    "success",
	}); err != nil {
		t.Fatalf("InsertDocumentEvent returned error: %v", err)
	}

	// Re-running schema initialization must not drop or duplicate rows
	for i := 0; i < 3; i++ {
		if err := s.InitSchema(ctx); err != nil {
			t.Fatalf("InitSchema run %d returned error: %v", i+2, err)
		}
	}

	if got := countRows(t, s, "document_events"); got != 1 {
		t.Errorf("document_events count after repeated InitSchema = %d, want 1", got)
	}
}

func TestInsertDocumentEventAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	id, err := s.InsertDocumentEvent(context.Background(), &models.DocumentEventInput{
		UserID:          "u1",
		EventType:       "generation",
		DocumentType:    strPtr("contract"),
		AIService:       strPtr("openai"),
		DurationSeconds: f64Ptr(2.5),
		Status:          "success",
		Metadata:        map[string]any{"source": "test", "attempt": 1},
	})
	if err != nil {
		t.Fatalf("InsertDocumentEvent returned error: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("assigned id %q is not a UUID: %v", id, err)
	}

	var event models.DocumentEvent
	if err := s.DB().Get(&event, "SELECT user_id, event_type, status, created_at FROM document_events WHERE id = ?", id); err != nil {
		t.Fatalf("reading back inserted row: %v", err)
	}
	if event.UserID != "u1" || event.EventType != "generation" || event.Status != "success" {
		t.Errorf("row mismatch: %+v", event)
	}
	if event.CreatedAt.IsZero() {
		t.Error("created_at was not assigned")
	}
}

func TestInsertDocumentEventValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input models.DocumentEventInput
	}{
		{"missing user_id", models.DocumentEventInput{EventType: "generation", Status: "success"}},
		{"missing event_type", models.DocumentEventInput{UserID: "u1", Status: "success"}},
		{"missing status", models.DocumentEventInput{UserID: "u1", EventType: "generation"}},
		{"negative duration", models.DocumentEventInput{
			UserID: "u1", EventType: "generation", Status: "success", DurationSeconds: f64Ptr(-1),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.InsertDocumentEvent(ctx, &tc.input)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("got error %v, want ErrValidation", err)
			}
		})
	}

	// A rejected payload must never reach storage
	if got := countRows(t, s, "document_events"); got != 0 {
		t.Errorf("document_events count after rejected inserts = %d, want 0", got)
	}
}

func TestInsertBlockchainEventValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input models.BlockchainEventInput
	}{
		{"missing user_id", models.BlockchainEventInput{Network: "polygon", TransactionType: "mint", Status: "success"}},
		{"missing network", models.BlockchainEventInput{UserID: "u1", TransactionType: "mint", Status: "success"}},
		{"missing transaction_type", models.BlockchainEventInput{UserID: "u1", Network: "polygon", Status: "success"}},
		{"missing status", models.BlockchainEventInput{UserID: "u1", Network: "polygon", TransactionType: "mint"}},
		{"negative gas", models.BlockchainEventInput{
			UserID: "u1", Network: "polygon", TransactionType: "mint", Status: "success", GasUsed: i64Ptr(-5),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.InsertBlockchainEvent(ctx, &tc.input)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("got error %v, want ErrValidation", err)
			}
		})
	}

	if got := countRows(t, s, "blockchain_events"); got != 0 {
		t.Errorf("blockchain_events count after rejected inserts = %d, want 0", got)
	}
}

func TestInsertBlockchainEventNullableFields(t *testing.T) {
	s := newTestStore(t)

	id, err := s.InsertBlockchainEvent(context.Background(), &models.BlockchainEventInput{
		UserID:          "u1",
		Network:         "polygon",
		TransactionType: "mint",
		Status:          "success",
	})
	if err != nil {
		t.Fatalf("InsertBlockchainEvent returned error: %v", err)
	}

	var nullCount int
	err = s.DB().Get(&nullCount,
		`SELECT COUNT(*) FROM blockchain_events
		 WHERE id = ? AND duration_seconds IS NULL AND gas_used IS NULL AND metadata IS NULL`, id)
	if err != nil {
		t.Fatalf("reading back inserted row: %v", err)
	}
	if nullCount != 1 {
		t.Error("absent optional fields should be stored as NULL")
	}
}

func TestInsertUserSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertUserSession(ctx, &models.UserSessionInput{
		UserID:       "u1",
		SessionStart: "2026-08-01T10:00:00Z",
		SessionEnd:   strPtr("2026-08-01T10:30:00Z"),
		IPAddress:    strPtr("10.0.0.1"),
		UserAgent:    strPtr("test-agent"),
		ActionsCount: 12,
	}); err != nil {
		t.Fatalf("InsertUserSession returned error: %v", err)
	}
	if got := countRows(t, s, "user_sessions"); got != 1 {
		t.Errorf("user_sessions count = %d, want 1", got)
	}

	// session_end preceding session_start is a contract violation
	_, err := s.InsertUserSession(ctx, &models.UserSessionInput{
		UserID:       "u1",
		SessionStart: "2026-08-01T10:00:00Z",
		SessionEnd:   strPtr("2026-08-01T09:00:00Z"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got error %v, want ErrValidation", err)
	}

	_, err = s.InsertUserSession(ctx, &models.UserSessionInput{
		UserID:       "u1",
		SessionStart: "not-a-timestamp",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got error %v, want ErrValidation", err)
	}

	if got := countRows(t, s, "user_sessions"); got != 1 {
		t.Errorf("user_sessions count after rejected inserts = %d, want 1", got)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s := newTestStore(t)
	const n = 50

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, err := s.InsertDocumentEvent(context.Background(), &models.DocumentEventInput{
				UserID:    fmt.Sprintf("user-%d", i%5),
				EventType: "generation",
				Status:    "success",
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent insert failed: %v", err)
	}

	if got := countRows(t, s, "document_events"); got != n {
		t.Errorf("document_events count after %d concurrent inserts = %d, want %d", n, got, n)
	}
}
