package db

import (
	"context"
	"fmt"
)

// migrate normalizes rows written by older builds.
// Early builds stored time.Time values with the driver's default format,
// which SQLite's date functions cannot parse.
func (db *DB) migrate() error {
	queries := []string{
		`UPDATE api_calls
		 SET timestamp = SUBSTR(timestamp, 1, 19)
		 WHERE length(timestamp) > 19 AND timestamp LIKE '% UTC'`,

		`UPDATE analysis_records
		 SET fetched_at = SUBSTR(fetched_at, 1, 19)
		 WHERE length(fetched_at) > 19 AND fetched_at LIKE '% UTC'`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			return fmt.Errorf("failed to normalize timestamps: %w", err)
		}
	}

	return nil
}
