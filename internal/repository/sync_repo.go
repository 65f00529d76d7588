package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buddybot/internal/database"
	"buddybot/internal/models"
)

var (
	// ErrInvalidResolution is returned for an unknown conflict resolution
	ErrInvalidResolution = errors.New("invalid conflict resolution")
	// ErrAlreadyResolved is returned when a conflict was resolved before
	ErrAlreadyResolved = errors.New("conflict already resolved")
)

// markBatchSize keeps IN lists below the SQLite host parameter limit
const markBatchSize = 500

const operationColumns = `id, operation_type, table_name, records_processed, records_succeeded,
	records_failed, bytes_transferred, started_at, completed_at, duration_ms, status,
	error_code, error_message, conflicts_detected, conflicts_resolved, user_id, device_id`

const conflictColumns = `id, table_name, record_id, conflict_type, local_record, cloud_record,
	local_timestamp, cloud_timestamp, detected_at, resolution, resolved_at`

// SyncRepository owns the sync bookkeeping columns of the syncable tables,
// the sync operation log and conflict records. It never writes business
// fields.
type SyncRepository struct {
	db *database.DB
}

// NewSyncRepository creates a new sync repository
func NewSyncRepository(db *database.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

func checkTable(table string) error {
	if !database.IsSyncable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return nil
}

// UnsyncedRecords returns every pending row of table as a column map,
// oldest change first
func (r *SyncRepository) UnsyncedRecords(ctx context.Context, table string) ([]map[string]any, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	query := `SELECT * FROM ` + table + ` WHERE sync_status = ? ORDER BY updated_at ASC`
	rows, err := r.db.QueryContext(ctx, query, string(models.SyncPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced records: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan unsynced record: %w", err)
		}

		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// PendingCount returns the number of pending rows across all syncable tables
func (r *SyncRepository) PendingCount(ctx context.Context) (int, error) {
	total := 0
	for _, table := range database.SyncableTables {
		var n int
		query := `SELECT COUNT(*) FROM ` + table + ` WHERE sync_status = ?`
		if err := r.db.QueryRowContext(ctx, query, string(models.SyncPending)).Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to count pending %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}

// MarkAsSynced moves the given rows from pending or error to synced in one
// transaction and returns how many changed. Rows in conflict and ids that
// are already synced are left alone, so repeating the call is harmless.
func (r *SyncRepository) MarkAsSynced(ctx context.Context, table string, ids []string) (int64, error) {
	return r.transition(ctx, table, ids, models.SyncSynced,
		models.SyncPending, models.SyncError)
}

// MarkAsError flags pending rows whose upload was rejected
func (r *SyncRepository) MarkAsError(ctx context.Context, table string, ids []string) (int64, error) {
	return r.transition(ctx, table, ids, models.SyncError, models.SyncPending)
}

func (r *SyncRepository) transition(ctx context.Context, table string, ids []string, to models.SyncStatus, from ...models.SyncStatus) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var total int64
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		stamp := database.FormatTime(now())
		for start := 0; start < len(ids); start += markBatchSize {
			batch := ids[start:min(start+markBatchSize, len(ids))]

			query := `UPDATE ` + table + ` SET sync_status = ?`
			args := []any{string(to)}
			if to == models.SyncSynced {
				query += `, synced_at = ?`
				args = append(args, stamp)
			}
			query += ` WHERE sync_status IN (` + placeholders(len(from)) + `) AND id IN (` + placeholders(len(batch)) + `)`
			for _, s := range from {
				args = append(args, string(s))
			}
			for _, id := range batch {
				args = append(args, id)
			}

			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark %s as %s: %w", table, to, err)
	}
	return total, nil
}

// LogOperation appends a sync attempt to the audit log
func (r *SyncRepository) LogOperation(ctx context.Context, op models.SyncOperation) (*models.SyncOperation, error) {
	if op.ID == "" {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		op.ID = id
	}
	if op.StartedAt.IsZero() {
		op.StartedAt = now()
	}
	if op.Status == "" {
		op.Status = models.OperationPending
	}
	if op.CompletedAt != nil && op.DurationMs == nil {
		ms := int(op.CompletedAt.Sub(op.StartedAt).Milliseconds())
		op.DurationMs = &ms
	}

	query := insertQuery(database.TableSyncLog, operationColumns)
	_, err := r.db.ExecContext(ctx, query,
		op.ID, string(op.OperationType), op.TableName, op.RecordsProcessed, op.RecordsSucceeded,
		op.RecordsFailed, op.BytesTransferred, database.FormatTime(op.StartedAt),
		database.NullTime(op.CompletedAt), database.NullInt(op.DurationMs), string(op.Status),
		database.NullString(op.ErrorCode), database.NullString(op.ErrorMessage),
		op.ConflictsDetected, op.ConflictsResolved,
		database.NullString(op.UserID), database.NullString(op.DeviceID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to log sync operation: %w", err)
	}
	return &op, nil
}

// RecentOperations returns the latest sync attempts, newest first
func (r *SyncRepository) RecentOperations(ctx context.Context, limit int) ([]models.SyncOperation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM sync_log
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	var out []models.SyncOperation
	for rows.Next() {
		var (
			op                     models.SyncOperation
			startedAt              string
			completedAt, code, msg sql.NullString
			userID, deviceID       sql.NullString
			duration               sql.NullInt64
		)
		err := rows.Scan(
			&op.ID, &op.OperationType, &op.TableName, &op.RecordsProcessed, &op.RecordsSucceeded,
			&op.RecordsFailed, &op.BytesTransferred, &startedAt, &completedAt, &duration, &op.Status,
			&code, &msg, &op.ConflictsDetected, &op.ConflictsResolved, &userID, &deviceID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync operation: %w", err)
		}
		if op.StartedAt, err = database.ParseTime(startedAt); err != nil {
			return nil, err
		}
		if op.CompletedAt, err = database.ParseNullTime(completedAt); err != nil {
			return nil, err
		}
		op.DurationMs = database.IntPtr(duration)
		op.ErrorCode = code.String
		op.ErrorMessage = msg.String
		op.UserID = userID.String
		op.DeviceID = deviceID.String
		out = append(out, op)
	}
	return out, rows.Err()
}

// RecordConflict stores both versions of a diverged record and moves the
// record to the conflict status
func (r *SyncRepository) RecordConflict(ctx context.Context, c models.DataConflict) (*models.DataConflict, error) {
	if err := checkTable(c.TableName); err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.DetectedAt = now()
	c.Resolution = ""
	c.ResolvedAt = nil

	enc, err := encodeJSON(c.LocalRecord, c.CloudRecord)
	if err != nil {
		return nil, err
	}

	err = r.db.WithTx(ctx, func(tx *database.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT sync_status FROM `+c.TableName+` WHERE id = ?`, c.RecordID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, insertQuery(database.TableDataConflicts, conflictColumns),
			c.ID, c.TableName, c.RecordID, string(c.ConflictType), enc[0], enc[1],
			database.NullTime(c.LocalTimestamp), database.NullTime(c.CloudTimestamp),
			database.FormatTime(c.DetectedAt), nil, nil,
		)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE `+c.TableName+` SET sync_status = ? WHERE id = ?`,
			string(models.SyncConflict), c.RecordID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record conflict: %w", err)
	}
	return &c, nil
}

// ResolveConflict writes the resolution onto the conflict row. Once no
// other open conflict remains for the record, it leaves the conflict
// status: synced when the cloud copy won, pending otherwise.
func (r *SyncRepository) ResolveConflict(ctx context.Context, conflictID string, resolution models.ConflictResolution) (*models.DataConflict, error) {
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}

	var resolved models.DataConflict
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		c, err := getConflict(ctx, tx, conflictID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		if c.IsResolved() {
			return ErrAlreadyResolved
		}

		t := now()
		c.Resolution = resolution
		c.ResolvedAt = &t

		_, err = tx.ExecContext(ctx, `UPDATE data_conflicts SET resolution = ?, resolved_at = ? WHERE id = ?`,
			string(resolution), database.FormatTime(t), c.ID)
		if err != nil {
			return err
		}

		var open int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM data_conflicts WHERE table_name = ? AND record_id = ? AND resolution IS NULL`,
			c.TableName, c.RecordID).Scan(&open)
		if err != nil {
			return err
		}

		if open == 0 && database.IsSyncable(c.TableName) {
			status := resolution.StatusAfter()
			query := `UPDATE ` + c.TableName + ` SET sync_status = ?`
			args := []any{string(status)}
			if status == models.SyncSynced {
				query += `, synced_at = ?`
				args = append(args, database.FormatTime(t))
			} else {
				query += `, updated_at = ?`
				args = append(args, database.FormatTime(t))
			}
			query += ` WHERE id = ? AND sync_status = ?`
			args = append(args, c.RecordID, string(models.SyncConflict))
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}

		resolved = *c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conflict: %w", err)
	}
	return &resolved, nil
}

// GetConflict retrieves a conflict by ID
func (r *SyncRepository) GetConflict(ctx context.Context, id string) (*models.DataConflict, error) {
	c, err := getConflict(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conflict: %w", err)
	}
	return c, nil
}

// OpenConflicts returns unresolved conflicts, oldest first
func (r *SyncRepository) OpenConflicts(ctx context.Context) ([]models.DataConflict, error) {
	query := `
		SELECT ` + conflictColumns + `
		FROM data_conflicts
		WHERE resolution IS NULL
		ORDER BY detected_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer rows.Close()

	out := []models.DataConflict{}
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func getConflict(ctx context.Context, q database.DBTX, id string) (*models.DataConflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM data_conflicts WHERE id = ?`
	c, err := scanConflict(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func scanConflict(row rowScanner) (*models.DataConflict, error) {
	var (
		c                      models.DataConflict
		local, cloud           sql.NullString
		localTS, cloudTS       sql.NullString
		detectedAt             string
		resolution, resolvedAt sql.NullString
	)
	err := row.Scan(&c.ID, &c.TableName, &c.RecordID, &c.ConflictType, &local, &cloud,
		&localTS, &cloudTS, &detectedAt, &resolution, &resolvedAt)
	if err != nil {
		return nil, err
	}

	if err := database.DecodeJSON(local, &c.LocalRecord); err != nil {
		return nil, err
	}
	if err := database.DecodeJSON(cloud, &c.CloudRecord); err != nil {
		return nil, err
	}
	if c.LocalTimestamp, err = database.ParseNullTime(localTS); err != nil {
		return nil, err
	}
	if c.CloudTimestamp, err = database.ParseNullTime(cloudTS); err != nil {
		return nil, err
	}
	if c.DetectedAt, err = database.ParseTime(detectedAt); err != nil {
		return nil, err
	}
	if c.ResolvedAt, err = database.ParseNullTime(resolvedAt); err != nil {
		return nil, err
	}
	c.Resolution = models.ConflictResolution(resolution.String)
	return &c, nil
}
