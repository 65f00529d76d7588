package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"buddybot/internal/database"
	"buddybot/internal/models"
)

const sessionColumns = `id, user_id, activity_type, activity_subtype, started_at, completed_at,
	duration_seconds, score, accuracy_percentage, difficulty_level, mood_before, mood_after,
	stress_level_before, stress_level_after, device_id, app_version, ` + syncColumns

// SessionRepository handles database operations for activity sessions
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new activity session
func (r *SessionRepository) Create(ctx context.Context, s models.ActivitySession) (*models.ActivitySession, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	s.ID = id
	s.SyncFields = newSyncFields(now())

	args := []any{
		s.ID, s.UserID, string(s.ActivityType), database.NullString(s.ActivitySubtype),
		database.FormatTime(s.StartedAt), database.NullTime(s.CompletedAt),
		database.NullInt(s.DurationSeconds), database.NullInt(s.Score),
		database.NullFloat(s.AccuracyPercentage), s.DifficultyLevel,
		database.NullString(string(s.MoodBefore)), database.NullString(string(s.MoodAfter)),
		database.NullInt(s.StressLevelBefore), database.NullInt(s.StressLevelAfter),
		s.DeviceID, s.AppVersion,
	}
	args = append(args, syncArgs(s.SyncFields)...)

	if _, err := r.db.ExecContext(ctx, insertQuery(database.TableActivitySessions, sessionColumns), args...); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.ActivitySession, error) {
	s, err := getSession(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListRecent returns a user's sessions, newest first
func (r *SessionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.ActivitySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM activity_sessions
		WHERE user_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`
	return r.list(ctx, query, userID, limitOrDefault(limit))
}

// ListByUser returns every session of a user in the order they started
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.ActivitySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM activity_sessions
		WHERE user_id = ?
		ORDER BY started_at ASC
	`
	return r.list(ctx, query, userID)
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]models.ActivitySession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ActivitySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Complete records the end of a session. The duration is derived from the
// start and completion times when the caller did not supply one.
func (r *SessionRepository) Complete(ctx context.Context, id string, c models.SessionCompletion) (*models.ActivitySession, error) {
	var completed models.ActivitySession

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		current, err := getSession(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}

		s := c.Apply(*current)
		if s.DurationSeconds == nil {
			d := int(s.CompletedAt.Sub(s.StartedAt) / time.Second)
			s.DurationSeconds = &d
		}
		s.UpdatedAt = now()
		s.SyncStatus = models.SyncPending

		query := `
			UPDATE activity_sessions
			SET completed_at = ?, duration_seconds = ?, score = ?, accuracy_percentage = ?,
			    mood_after = ?, stress_level_after = ?, updated_at = ?, sync_status = ?
			WHERE id = ?
		`
		_, err = tx.ExecContext(ctx, query,
			database.NullTime(s.CompletedAt), database.NullInt(s.DurationSeconds),
			database.NullInt(s.Score), database.NullFloat(s.AccuracyPercentage),
			database.NullString(string(s.MoodAfter)), database.NullInt(s.StressLevelAfter),
			database.FormatTime(s.UpdatedAt), string(s.SyncStatus), id,
		)
		if err != nil {
			return err
		}
		completed = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	return &completed, nil
}

func getSession(ctx context.Context, q database.DBTX, id string) (*models.ActivitySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM activity_sessions WHERE id = ?`
	s, err := scanSession(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scanSession(row rowScanner) (*models.ActivitySession, error) {
	var (
		s                              models.ActivitySession
		subtype, moodBefore, moodAfter sql.NullString
		startedAt                      string
		completedAt                    sql.NullString
		duration, score                sql.NullInt64
		stressBefore, stressAfter      sql.NullInt64
		accuracy                       sql.NullFloat64
		sc                             syncCols
	)
	dest := []any{
		&s.ID, &s.UserID, &s.ActivityType, &subtype, &startedAt, &completedAt,
		&duration, &score, &accuracy, &s.DifficultyLevel, &moodBefore, &moodAfter,
		&stressBefore, &stressAfter, &s.DeviceID, &s.AppVersion,
	}
	if err := row.Scan(append(dest, sc.dest()...)...); err != nil {
		return nil, err
	}

	var err error
	if s.StartedAt, err = database.ParseTime(startedAt); err != nil {
		return nil, err
	}
	if s.CompletedAt, err = database.ParseNullTime(completedAt); err != nil {
		return nil, err
	}
	s.ActivitySubtype = subtype.String
	s.MoodBefore = models.MoodState(moodBefore.String)
	s.MoodAfter = models.MoodState(moodAfter.String)
	s.DurationSeconds = database.IntPtr(duration)
	s.Score = database.IntPtr(score)
	s.AccuracyPercentage = database.FloatPtr(accuracy)
	s.StressLevelBefore = database.IntPtr(stressBefore)
	s.StressLevelAfter = database.IntPtr(stressAfter)

	if s.SyncFields, err = sc.decode(); err != nil {
		return nil, err
	}
	return &s, nil
}
