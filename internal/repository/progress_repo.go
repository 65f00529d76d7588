package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buddybot/internal/database"
	"buddybot/internal/models"
)

// ErrSessionsDecreased is returned when an update would lower the
// sessions completed counter
var ErrSessionsDecreased = errors.New("sessions completed cannot decrease")

const progressColumns = `id, user_id, skill_category, current_level, progress_percentage,
	sessions_completed, milestones_reached, last_milestone_date, next_milestone_target,
	assessment_results, strengths, areas_for_growth, last_updated, device_id, ` + syncColumns

// ProgressRepository handles database operations for skill progress.
// There is at most one row per user and skill category.
type ProgressRepository struct {
	db *database.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Create inserts the progress record for a skill category
func (r *ProgressRepository) Create(ctx context.Context, p models.SkillProgress) (*models.SkillProgress, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.SyncFields = newSyncFields(now())
	if p.LastUpdated.IsZero() {
		p.LastUpdated = p.CreatedAt
	}

	enc, err := encodeJSON(p.MilestonesReached, p.AssessmentResults, p.Strengths, p.AreasForGrowth)
	if err != nil {
		return nil, err
	}

	args := []any{
		p.ID, p.UserID, string(p.SkillCategory), p.CurrentLevel, p.ProgressPercentage,
		p.SessionsCompleted, enc[0], database.NullTime(p.LastMilestoneDate),
		database.NullString(p.NextMilestoneTarget), enc[1], enc[2], enc[3],
		database.FormatTime(p.LastUpdated), p.DeviceID,
	}
	args = append(args, syncArgs(p.SyncFields)...)

	if _, err := r.db.ExecContext(ctx, insertQuery(database.TableSkillProgress, progressColumns), args...); err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, fmt.Errorf("progress for %s/%s: %w", p.UserID, p.SkillCategory, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a progress record by ID
func (r *ProgressRepository) GetByID(ctx context.Context, id string) (*models.SkillProgress, error) {
	p, err := getProgress(ctx, r.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// GetByCategory retrieves a user's progress in one skill category
func (r *ProgressRepository) GetByCategory(ctx context.Context, userID string, category models.SkillCategory) (*models.SkillProgress, error) {
	p, err := getProgress(ctx, r.db, "user_id = ? AND skill_category = ?", userID, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// ListByUser returns every skill category tracked for a user
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.SkillProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM skill_progress
		WHERE user_id = ?
		ORDER BY skill_category ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var out []models.SkillProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update reads, modifies and writes a progress record in one transaction.
// New milestones and assessments are appended to the stored history.
func (r *ProgressRepository) Update(ctx context.Context, id string, u models.ProgressUpdate) (*models.SkillProgress, error) {
	var updated models.SkillProgress

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		current, err := getProgress(ctx, tx, "id = ?", id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}
		if u.SessionsCompleted != nil && *u.SessionsCompleted < current.SessionsCompleted {
			return ErrSessionsDecreased
		}

		t := now()
		p := u.Apply(*current, t)
		p.UpdatedAt = t
		p.SyncStatus = models.SyncPending

		enc, err := encodeJSON(p.MilestonesReached, p.AssessmentResults, p.Strengths, p.AreasForGrowth)
		if err != nil {
			return err
		}

		query := `
			UPDATE skill_progress
			SET current_level = ?, progress_percentage = ?, sessions_completed = ?,
			    milestones_reached = ?, last_milestone_date = ?, next_milestone_target = ?,
			    assessment_results = ?, strengths = ?, areas_for_growth = ?, last_updated = ?,
			    updated_at = ?, sync_status = ?
			WHERE id = ?
		`
		_, err = tx.ExecContext(ctx, query,
			p.CurrentLevel, p.ProgressPercentage, p.SessionsCompleted,
			enc[0], database.NullTime(p.LastMilestoneDate), database.NullString(p.NextMilestoneTarget),
			enc[1], enc[2], enc[3], database.FormatTime(p.LastUpdated),
			database.FormatTime(p.UpdatedAt), string(p.SyncStatus), id,
		)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	return &updated, nil
}

func getProgress(ctx context.Context, q database.DBTX, where string, args ...any) (*models.SkillProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM skill_progress WHERE ` + where
	p, err := scanProgress(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanProgress(row rowScanner) (*models.SkillProgress, error) {
	var (
		p                                          models.SkillProgress
		milestones, assessments, strengths, growth sql.NullString
		lastMilestone, nextTarget                  sql.NullString
		lastUpdated                                string
		sc                                         syncCols
	)
	dest := []any{
		&p.ID, &p.UserID, &p.SkillCategory, &p.CurrentLevel, &p.ProgressPercentage,
		&p.SessionsCompleted, &milestones, &lastMilestone, &nextTarget,
		&assessments, &strengths, &growth, &lastUpdated, &p.DeviceID,
	}
	if err := row.Scan(append(dest, sc.dest()...)...); err != nil {
		return nil, err
	}

	var err error
	if p.LastMilestoneDate, err = database.ParseNullTime(lastMilestone); err != nil {
		return nil, err
	}
	if p.LastUpdated, err = database.ParseTime(lastUpdated); err != nil {
		return nil, err
	}
	p.NextMilestoneTarget = nextTarget.String

	for _, col := range []struct {
		src sql.NullString
		dst any
	}{
		{milestones, &p.MilestonesReached},
		{assessments, &p.AssessmentResults},
		{strengths, &p.Strengths},
		{growth, &p.AreasForGrowth},
	} {
		if err := database.DecodeJSON(col.src, col.dst); err != nil {
			return nil, err
		}
	}

	if p.SyncFields, err = sc.decode(); err != nil {
		return nil, err
	}
	return &p, nil
}
