package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
)

// InsertAPICall logs an API call to the database.
func (db *DB) InsertAPICall(call *models.APICall) error {
	query := `
		INSERT INTO api_calls (
			timestamp, method, path, status_code, duration_ms, outcome, error, request_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := call.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	outcome := call.Outcome
	if outcome == "" {
		outcome = "ok"
	}

	result, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format(sqlTimeLayout),
		call.Method,
		call.Path,
		call.StatusCode,
		call.DurationMs,
		outcome,
		nullString(call.Error),
		nullString(call.RequestID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert API call: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		call.ID = id
	}

	return nil
}

// GetRecentAPICalls returns the most recent API calls.
func (db *DB) GetRecentAPICalls(limit int) ([]models.APICall, error) {
	query := `
		SELECT id, timestamp, method, path, status_code, duration_ms,
			   outcome, error, request_id
		FROM api_calls
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent API calls: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var calls []models.APICall
	for rows.Next() {
		var call models.APICall
		var ts string
		var errStr, reqID sql.NullString

		err := rows.Scan(
			&call.ID,
			&ts,
			&call.Method,
			&call.Path,
			&call.StatusCode,
			&call.DurationMs,
			&call.Outcome,
			&errStr,
			&reqID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API call: %w", err)
		}

		call.Timestamp = parseSQLTime(ts)
		call.Error = errStr.String
		call.RequestID = reqID.String
		calls = append(calls, call)
	}

	return calls, rows.Err()
}

// GetCallStats returns aggregated statistics over the call log.
// Not-found responses are expected for empty months and are not failures.
func (db *DB) GetCallStats() (*models.CallStats, error) {
	query := `
		SELECT
			COUNT(*) as total_calls,
			COALESCE(SUM(CASE WHEN outcome IN ('error', 'network', 'unauthorized') THEN 1 ELSE 0 END), 0) as failed,
			COALESCE(SUM(CASE WHEN outcome = 'unauthorized' THEN 1 ELSE 0 END), 0) as unauthorized,
			COALESCE(AVG(duration_ms), 0) as avg_duration,
			COALESCE(MAX(duration_ms), 0) as max_duration,
			MAX(timestamp) as last_call
		FROM api_calls
	`

	var stats models.CallStats
	var last sql.NullString
	err := db.QueryRowContext(context.Background(), query).Scan(
		&stats.TotalCalls,
		&stats.FailedCalls,
		&stats.Unauthorized,
		&stats.AvgDurationMs,
		&stats.MaxDurationMs,
		&last,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query call stats: %w", err)
	}
	if last.Valid {
		stats.LastCall = parseSQLTime(last.String)
	}

	return &stats, nil
}

// PruneAPICalls deletes calls older than the given age.
func (db *DB) PruneAPICalls(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(sqlTimeLayout)
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM api_calls WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune API calls: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

func parseSQLTime(s string) time.Time {
	t, err := time.ParseInLocation(sqlTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
