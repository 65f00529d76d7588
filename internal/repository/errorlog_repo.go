package repository

import (
	"context"
	"database/sql"
	"fmt"

	"buddybot/internal/database"
	"buddybot/internal/models"
)

const errorColumns = `id, error_type, error_code, error_message, context, user_id, device_id,
	app_version, occurred_at, resolved`

// ErrorLogRepository handles the append-only diagnostic error log
type ErrorLogRepository struct {
	db *database.DB
}

// NewErrorLogRepository creates a new error log repository
func NewErrorLogRepository(db *database.DB) *ErrorLogRepository {
	return &ErrorLogRepository{db: db}
}

// Log appends an error entry
func (r *ErrorLogRepository) Log(ctx context.Context, e models.AppError) (*models.AppError, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	e.ID = id
	if e.Timestamp.IsZero() {
		e.Timestamp = now()
	}
	if e.ErrorType == "" {
		e.ErrorType = models.ErrorUnknown
	}

	var errCtx sql.NullString
	if len(e.Context) > 0 {
		s, err := database.EncodeJSON(e.Context)
		if err != nil {
			return nil, err
		}
		errCtx = database.NullString(s)
	}

	_, err = r.db.ExecContext(ctx, insertQuery(database.TableErrorLog, errorColumns),
		e.ID, string(e.ErrorType), database.NullString(e.ErrorCode), e.Message, errCtx,
		database.NullString(e.UserID), database.NullString(e.DeviceID),
		database.NullString(e.AppVersion), database.FormatTime(e.Timestamp), database.Bool(e.Resolved),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to log error: %w", err)
	}
	return &e, nil
}

// ListUnresolved returns open errors, newest first
func (r *ErrorLogRepository) ListUnresolved(ctx context.Context, limit int) ([]models.AppError, error) {
	query := `
		SELECT ` + errorColumns + `
		FROM error_log
		WHERE resolved = 0
		ORDER BY occurred_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query error log: %w", err)
	}
	defer rows.Close()

	var out []models.AppError
	for rows.Next() {
		var (
			e                    models.AppError
			code, errCtx, userID sql.NullString
			deviceID, appVersion sql.NullString
			occurredAt           string
			resolved             int
		)
		err := rows.Scan(&e.ID, &e.ErrorType, &code, &e.Message, &errCtx, &userID,
			&deviceID, &appVersion, &occurredAt, &resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to scan error entry: %w", err)
		}
		if e.Timestamp, err = database.ParseTime(occurredAt); err != nil {
			return nil, err
		}
		if err := database.DecodeJSON(errCtx, &e.Context); err != nil {
			return nil, err
		}
		e.ErrorCode = code.String
		e.UserID = userID.String
		e.DeviceID = deviceID.String
		e.AppVersion = appVersion.String
		e.Resolved = resolved != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Resolve flags an error as handled
func (r *ErrorLogRepository) Resolve(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE error_log SET resolved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve error: %w", err)
	}
	return affectedOrNotFound(res)
}
