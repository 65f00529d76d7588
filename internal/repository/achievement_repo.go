package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buddybot/internal/database"
	"buddybot/internal/models"
)

const achievementColumns = `id, user_id, achievement_type, badge_category, title, description,
	icon, earned_at, celebration_shown, shared_with_guardian, device_id, ` + syncColumns

// AchievementRepository handles database operations for achievements.
// Only the celebration and guardian flags change after creation.
type AchievementRepository struct {
	db *database.DB
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *database.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Create inserts an achievement
func (r *AchievementRepository) Create(ctx context.Context, a models.Achievement) (*models.Achievement, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	a.ID = id
	a.SyncFields = newSyncFields(now())

	args := []any{
		a.ID, a.UserID, string(a.AchievementType), string(a.BadgeCategory), a.Title,
		database.NullString(a.Description), database.NullString(a.Icon),
		database.FormatTime(a.EarnedAt), database.Bool(a.CelebrationShown),
		database.Bool(a.SharedWithGuardian), a.DeviceID,
	}
	args = append(args, syncArgs(a.SyncFields)...)

	if _, err := r.db.ExecContext(ctx, insertQuery(database.TableAchievements, achievementColumns), args...); err != nil {
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}
	return &a, nil
}

// GetByID retrieves an achievement by ID
func (r *AchievementRepository) GetByID(ctx context.Context, id string) (*models.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements WHERE id = ?`
	a, err := scanAchievement(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	return a, nil
}

// ListByUser returns a user's achievements, most recently earned first
func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]models.Achievement, error) {
	query := `
		SELECT ` + achievementColumns + `
		FROM achievements
		WHERE user_id = ?
		ORDER BY earned_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var out []models.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// MarkCelebrationShown records that the celebration screen was displayed
func (r *AchievementRepository) MarkCelebrationShown(ctx context.Context, id string) error {
	return r.setFlag(ctx, id, "celebration_shown")
}

// MarkSharedWithGuardian records that the guardian was notified
func (r *AchievementRepository) MarkSharedWithGuardian(ctx context.Context, id string) error {
	return r.setFlag(ctx, id, "shared_with_guardian")
}

// setFlag sets one of the two mutable flags. column is never user input.
func (r *AchievementRepository) setFlag(ctx context.Context, id, column string) error {
	query := `UPDATE achievements SET ` + column + ` = 1, updated_at = ?, sync_status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, database.FormatTime(now()), string(models.SyncPending), id)
	if err != nil {
		return fmt.Errorf("failed to update achievement: %w", err)
	}
	return affectedOrNotFound(res)
}

func scanAchievement(row rowScanner) (*models.Achievement, error) {
	var (
		a                 models.Achievement
		description, icon sql.NullString
		earnedAt          string
		shown, shared     int
		sc                syncCols
	)
	dest := []any{
		&a.ID, &a.UserID, &a.AchievementType, &a.BadgeCategory, &a.Title, &description,
		&icon, &earnedAt, &shown, &shared, &a.DeviceID,
	}
	if err := row.Scan(append(dest, sc.dest()...)...); err != nil {
		return nil, err
	}

	var err error
	if a.EarnedAt, err = database.ParseTime(earnedAt); err != nil {
		return nil, err
	}
	a.Description = description.String
	a.Icon = icon.String
	a.CelebrationShown = shown != 0
	a.SharedWithGuardian = shared != 0

	if a.SyncFields, err = sc.decode(); err != nil {
		return nil, err
	}
	return &a, nil
}
