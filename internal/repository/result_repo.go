package repository

import (
	"context"
	"database/sql"
	"fmt"

	"buddybot/internal/database"
	"buddybot/internal/models"
)

const resultColumns = `id, session_id, user_id, item_id, item_content, item_difficulty,
	user_response, correct_response, is_correct, response_time_ms, confidence_level,
	mistake_type, device_id, ` + syncColumns

// ResultRepository handles database operations for per-item activity results
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create inserts a result. The session must already exist.
func (r *ResultRepository) Create(ctx context.Context, res models.ActivityResult) (*models.ActivityResult, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	res.ID = id
	res.SyncFields = newSyncFields(now())

	var difficulty *int
	if res.ItemDifficulty != 0 {
		difficulty = &res.ItemDifficulty
	}

	args := []any{
		res.ID, res.SessionID, res.UserID, res.ItemID, database.NullString(res.ItemContent),
		database.NullInt(difficulty), database.NullString(res.UserResponse),
		database.NullString(res.CorrectResponse), database.Bool(res.IsCorrect),
		res.ResponseTimeMs, database.NullInt(res.ConfidenceLevel),
		database.NullString(res.MistakeType), res.DeviceID,
	}
	args = append(args, syncArgs(res.SyncFields)...)

	if _, err := r.db.ExecContext(ctx, insertQuery(database.TableActivityResults, resultColumns), args...); err != nil {
		return nil, fmt.Errorf("failed to create result: %w", err)
	}
	return &res, nil
}

// ListBySession returns the results of a session in recorded order
func (r *ResultRepository) ListBySession(ctx context.Context, sessionID string) ([]models.ActivityResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM activity_results
		WHERE session_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []models.ActivityResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func scanResult(row rowScanner) (*models.ActivityResult, error) {
	var (
		res                              models.ActivityResult
		content, response, correct, kind sql.NullString
		difficulty, confidence           sql.NullInt64
		isCorrect                        int
		sc                               syncCols
	)
	dest := []any{
		&res.ID, &res.SessionID, &res.UserID, &res.ItemID, &content, &difficulty,
		&response, &correct, &isCorrect, &res.ResponseTimeMs, &confidence,
		&kind, &res.DeviceID,
	}
	if err := row.Scan(append(dest, sc.dest()...)...); err != nil {
		return nil, err
	}

	res.ItemContent = content.String
	res.ItemDifficulty = int(difficulty.Int64)
	res.UserResponse = response.String
	res.CorrectResponse = correct.String
	res.IsCorrect = isCorrect != 0
	res.ConfidenceLevel = database.IntPtr(confidence)
	res.MistakeType = kind.String

	var err error
	if res.SyncFields, err = sc.decode(); err != nil {
		return nil, err
	}
	return &res, nil
}
