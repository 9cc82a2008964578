package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
)

// ErrNotCached is returned when a record is not in the local cache.
var ErrNotCached = errors.New("analysis not cached")

const analysisColumns = `id, month, version, created_at, is_latest, result`

// SaveAnalyses upserts records in a single transaction. Records flagged
// latest clear the flag on the other versions of their month.
func (db *DB) SaveAnalyses(records []models.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analysis_records (`+analysisColumns+`, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			month = excluded.month,
			version = excluded.version,
			created_at = excluded.created_at,
			is_latest = excluded.is_latest,
			result = COALESCE(excluded.result, analysis_records.result),
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	fetchedAt := time.Now().UTC().Format(sqlTimeLayout)
	for _, r := range records {
		if r.ID == "" {
			continue
		}

		result, err := encodeResult(r.Result)
		if err != nil {
			return fmt.Errorf("failed to encode result for %s: %w", r.ID, err)
		}

		if r.IsLatest && r.Month != "" {
			if _, err := tx.ExecContext(ctx,
				"UPDATE analysis_records SET is_latest = 0 WHERE month = ? AND id != ?",
				r.Month, r.ID); err != nil {
				return fmt.Errorf("failed to clear latest flag: %w", err)
			}
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID,
			r.Month,
			r.Version,
			nullTime(r.CreatedAt.Time),
			r.IsLatest,
			result,
			fetchedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert analysis %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// CachedHistory returns the cached versions of month, newest first.
func (db *DB) CachedHistory(month string) ([]models.AnalysisRecord, error) {
	query := `SELECT ` + analysisColumns + `
		FROM analysis_records
		WHERE month = ?
		ORDER BY version DESC`

	rows, err := db.QueryContext(context.Background(), query, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var records []models.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// CachedAnalysis returns one cached record or ErrNotCached.
func (db *DB) CachedAnalysis(id string) (*models.AnalysisRecord, error) {
	query := `SELECT ` + analysisColumns + ` FROM analysis_records WHERE id = ?`

	rec, err := scanAnalysis(db.QueryRowContext(context.Background(), query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CachedMonths lists the months present in the cache, newest first.
func (db *DB) CachedMonths() ([]string, error) {
	rows, err := db.QueryContext(context.Background(),
		"SELECT DISTINCT month FROM analysis_records ORDER BY month DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query cached months: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan month: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// DeleteCachedMonth removes every cached version of month.
func (db *DB) DeleteCachedMonth(month string) error {
	_, err := db.ExecContext(context.Background(),
		"DELETE FROM analysis_records WHERE month = ?", month)
	if err != nil {
		return fmt.Errorf("failed to delete cached month: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	var createdAt, result sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.Month,
		&rec.Version,
		&createdAt,
		&rec.IsLatest,
		&result,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	if createdAt.Valid {
		if t, err := time.Parse(recordTimeLayout, createdAt.String); err == nil {
			rec.CreatedAt = models.Timestamp{Time: t.Local()}
		}
	}
	if result.Valid && result.String != "" {
		var r models.AnalysisResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			logger.Warn("discarding unreadable cached result", "id", rec.ID, "error", err)
		} else {
			rec.Result = &r
		}
	}

	return &rec, nil
}

func encodeResult(r *models.AnalysisResult) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(recordTimeLayout), Valid: true}
}
