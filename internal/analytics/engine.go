package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"analytics-service/internal/store"
)

// Engine computes rollups over the event store. Every operation is a pure
// read of current store state; trailing windows are anchored at the wall
// clock in UTC when the operation is invoked. Day bucketing truncates UTC
// timestamps to calendar dates.
type Engine struct {
	store  *store.Store
	logger *zap.Logger
}

// NewEngine creates the aggregation engine over an opened store
func NewEngine(st *store.Store, logger *zap.Logger) *Engine {
	return &Engine{
		store:  st,
		logger: logger,
	}
}

// DocumentSummary holds per-user document event metrics
type DocumentSummary struct {
	Total             int64   `json:"total" db:"total"`
	Successful        int64   `json:"successful" db:"successful"`
	Failed            int64   `json:"failed" db:"failed"`
	AvgGenerationTime float64 `json:"avg_generation_time" db:"avg_generation_time"`
	StatusChanges     int64   `json:"status_changes" db:"status_changes"`
}

// TypeCount is one group of the document type distribution
type TypeCount struct {
	Type  string `json:"type" db:"document_type"`
	Count int64  `json:"count" db:"count"`
}

// ActivityBucket is one (event_type, day) group of recent activity
type ActivityBucket struct {
	EventType string `json:"event_type" db:"event_type"`
	Count     int64  `json:"count" db:"count"`
	Date      string `json:"date" db:"day"`
}

// BlockchainSummary holds per-user blockchain transaction metrics
type BlockchainSummary struct {
	TotalTransactions      int64   `json:"total_transactions" db:"total_transactions"`
	SuccessfulTransactions int64   `json:"successful_transactions" db:"successful_transactions"`
	AvgTransactionTime     float64 `json:"avg_transaction_time" db:"avg_transaction_time"`
	TotalGasUsed           int64   `json:"total_gas_used" db:"total_gas_used"`
}

// TrendPoint is one day of the performance trend, chronological order
type TrendPoint struct {
	Date        string  `json:"date" db:"day"`
	AvgDuration float64 `json:"avg_duration" db:"avg_duration"`
	EventCount  int64   `json:"event_count" db:"event_count"`
}

// UserAnalytics is the assembled per-user response
type UserAnalytics struct {
	UserID           string            `json:"user_id"`
	Documents        DocumentSummary   `json:"documents"`
	DocumentTypes    []TypeCount       `json:"document_types"`
	RecentActivity   []ActivityBucket  `json:"recent_activity"`
	Blockchain       BlockchainSummary `json:"blockchain"`
	PerformanceTrend []TrendPoint      `json:"performance_trend"`
}

// SystemSummary is the system-wide response
type SystemSummary struct {
	TotalUsers            int64   `json:"total_users" db:"total_users"`
	TotalDocuments        int64   `json:"total_documents" db:"total_documents"`
	TotalTransactions     int64   `json:"total_transactions" db:"total_transactions"`
	AvgDocGenerationTime  float64 `json:"avg_document_generation_time" db:"avg_doc_time"`
	AvgBlockchainTxTime   float64 `json:"avg_blockchain_transaction_time" db:"avg_tx_time"`
}

const userDocumentSummaryQuery = `
	SELECT
		COUNT(*) AS total,
		COUNT(CASE WHEN status = 'success' THEN 1 END) AS successful,
		COUNT(CASE WHEN status = 'error' THEN 1 END) AS failed,
		COALESCE(AVG(duration_seconds), 0) AS avg_generation_time,
		COUNT(CASE WHEN event_type = 'status_change' THEN 1 END) AS status_changes
	FROM document_events
	WHERE user_id = ?`

const documentTypeDistributionQuery = `
	SELECT document_type, COUNT(*) AS count
	FROM document_events
	WHERE user_id = ? AND document_type IS NOT NULL
	GROUP BY document_type
	ORDER BY count DESC, document_type ASC`

const recentActivityQuery = `
	SELECT event_type, COUNT(*) AS count, strftime(created_at, '%Y-%m-%d') AS day
	FROM document_events
	WHERE user_id = ? AND created_at >= ?
	GROUP BY event_type, day
	ORDER BY day DESC, event_type ASC
	LIMIT 30`

const performanceTrendQuery = `
	SELECT
		strftime(created_at, '%Y-%m-%d') AS day,
		COALESCE(AVG(duration_seconds), 0) AS avg_duration,
		COUNT(*) AS event_count
	FROM document_events
	WHERE user_id = ? AND created_at >= ?
	GROUP BY day
	ORDER BY day ASC`

const blockchainSummaryQuery = `
	SELECT
		COUNT(*) AS total_transactions,
		COUNT(CASE WHEN status = 'success' THEN 1 END) AS successful_transactions,
		COALESCE(AVG(duration_seconds), 0) AS avg_transaction_time,
		CAST(COALESCE(SUM(gas_used), 0) AS BIGINT) AS total_gas_used
	FROM blockchain_events
	WHERE user_id = ?`

const systemSummaryQuery = `
	SELECT
		(SELECT COUNT(DISTINCT user_id) FROM (
			SELECT user_id FROM document_events
			UNION
			SELECT user_id FROM blockchain_events
			UNION
			SELECT user_id FROM user_sessions
		) AS all_users) AS total_users,
		(SELECT COUNT(*) FROM document_events WHERE event_type = 'generation') AS total_documents,
		(SELECT COUNT(*) FROM blockchain_events) AS total_transactions,
		(SELECT COALESCE(AVG(duration_seconds), 0) FROM document_events
			WHERE event_type = 'generation' AND status = 'success') AS avg_doc_time,
		(SELECT COALESCE(AVG(duration_seconds), 0) FROM blockchain_events
			WHERE status = 'success') AS avg_tx_time`

// UserDocumentSummary computes the five document metrics for one user in a
// single pass. Absent durations are excluded from the average; an empty row
// set yields zeros.
func (e *Engine) UserDocumentSummary(ctx context.Context, userID string) (*DocumentSummary, error) {
	var summary DocumentSummary
	if err := e.store.DB().GetContext(ctx, &summary, userDocumentSummaryQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to query document summary: %w", err)
	}
	summary.AvgGenerationTime = round2(summary.AvgGenerationTime)
	return &summary, nil
}

// DocumentTypeDistribution groups a user's document events by type, ordered
// by descending count with ascending type name as the tie-break.
func (e *Engine) DocumentTypeDistribution(ctx context.Context, userID string) ([]TypeCount, error) {
	types := []TypeCount{}
	if err := e.store.DB().SelectContext(ctx, &types, documentTypeDistributionQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to query document type distribution: %w", err)
	}
	return types, nil
}

// RecentActivity counts a user's document events per (event_type, day) over
// the trailing 30 days, newest day first, capped at 30 groups.
func (e *Engine) RecentActivity(ctx context.Context, userID string, now time.Time) ([]ActivityBucket, error) {
	cutoff := now.UTC().AddDate(0, 0, -30)
	activity := []ActivityBucket{}
	if err := e.store.DB().SelectContext(ctx, &activity, recentActivityQuery, userID, cutoff); err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	return activity, nil
}

// PerformanceTrend computes per-day average duration and event count over the
// trailing 7 days, chronological order.
func (e *Engine) PerformanceTrend(ctx context.Context, userID string, now time.Time) ([]TrendPoint, error) {
	cutoff := now.UTC().AddDate(0, 0, -7)
	trend := []TrendPoint{}
	if err := e.store.DB().SelectContext(ctx, &trend, performanceTrendQuery, userID, cutoff); err != nil {
		return nil, fmt.Errorf("failed to query performance trend: %w", err)
	}
	for i := range trend {
		trend[i].AvgDuration = round2(trend[i].AvgDuration)
	}
	return trend, nil
}

// BlockchainSummary computes a user's transaction metrics. NULL durations are
// excluded from the average and NULL gas from the sum; empty sets yield zeros.
func (e *Engine) BlockchainSummary(ctx context.Context, userID string) (*BlockchainSummary, error) {
	var summary BlockchainSummary
	if err := e.store.DB().GetContext(ctx, &summary, blockchainSummaryQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to query blockchain summary: %w", err)
	}
	summary.AvgTransactionTime = round2(summary.AvgTransactionTime)
	return &summary, nil
}

// SystemSummary computes the system-wide metrics. Distinct users are counted
// across all three event tables.
func (e *Engine) SystemSummary(ctx context.Context) (*SystemSummary, error) {
	var summary SystemSummary
	if err := e.store.DB().GetContext(ctx, &summary, systemSummaryQuery); err != nil {
		return nil, fmt.Errorf("failed to query system summary: %w", err)
	}
	summary.AvgDocGenerationTime = round2(summary.AvgDocGenerationTime)
	summary.AvgBlockchainTxTime = round2(summary.AvgBlockchainTxTime)
	return &summary, nil
}

// UserAnalytics assembles the five per-user rollups into one response. The
// legs run concurrently; they are independent read-only scans.
func (e *Engine) UserAnalytics(ctx context.Context, userID string) (*UserAnalytics, error) {
	now := time.Now().UTC()
	result := &UserAnalytics{UserID: userID}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := e.UserDocumentSummary(ctx, userID)
		if err != nil {
			return err
		}
		result.Documents = *summary
		return nil
	})
	g.Go(func() error {
		types, err := e.DocumentTypeDistribution(ctx, userID)
		if err != nil {
			return err
		}
		result.DocumentTypes = types
		return nil
	})
	g.Go(func() error {
		activity, err := e.RecentActivity(ctx, userID, now)
		if err != nil {
			return err
		}
		result.RecentActivity = activity
		return nil
	})
	g.Go(func() error {
		summary, err := e.BlockchainSummary(ctx, userID)
		if err != nil {
			return err
		}
		result.Blockchain = *summary
		return nil
	})
	g.Go(func() error {
		trend, err := e.PerformanceTrend(ctx, userID, now)
		if err != nil {
			return err
		}
		result.PerformanceTrend = trend
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// round2 rounds to 2 decimal places at the response boundary only, so
// composed metrics never compound rounding error.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
