package repository

import (
	"context"
	"fmt"
	"time"

	"buddybot/internal/database"
)

// PurgeResult reports how many rows a retention pass removed
type PurgeResult struct {
	SyncLogDeleted  int64 `json:"syncLogDeleted"`
	ErrorLogDeleted int64 `json:"errorLogDeleted"`
}

// MaintenanceRepository runs whole-database housekeeping queries
type MaintenanceRepository struct {
	db *database.DB
}

// NewMaintenanceRepository creates a new maintenance repository
func NewMaintenanceRepository(db *database.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// TableCounts returns the row count of every table
func (r *MaintenanceRepository) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, table := range database.TableNames() {
		var n int64
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// PurgeBefore deletes sync log rows started before cutoff and resolved
// error rows that occurred before it. Unresolved errors are kept.
func (r *MaintenanceRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (PurgeResult, error) {
	var result PurgeResult
	stamp := database.FormatTime(cutoff)

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sync_log WHERE started_at < ?`, stamp)
		if err != nil {
			return err
		}
		if result.SyncLogDeleted, err = res.RowsAffected(); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM error_log WHERE resolved = 1 AND occurred_at < ?`, stamp)
		if err != nil {
			return err
		}
		result.ErrorLogDeleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return PurgeResult{}, fmt.Errorf("failed to purge old records: %w", err)
	}
	return result, nil
}
