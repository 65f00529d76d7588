package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buddybot/internal/database"
	"buddybot/internal/models"
)

const profileColumns = `id, user_id, cloud_user_id, display_name, age_group, guardian_email,
	avatar_config, accessibility_preferences, selected_goals, privacy_settings,
	device_id, ` + syncColumns

// anonymousName replaces the display name of an anonymized profile
const anonymousName = "Anonymous"

// ProfileRepository handles database operations for user profiles
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a profile with a generated id and pending sync status
func (r *ProfileRepository) Create(ctx context.Context, p models.UserProfile) (*models.UserProfile, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.SyncFields = newSyncFields(now())

	enc, err := encodeJSON(p.AvatarConfig, p.AccessibilityPreferences, p.SelectedGoals, p.PrivacySettings)
	if err != nil {
		return nil, err
	}

	args := []any{
		p.ID, p.UserID, database.NullString(p.CloudUserID), p.DisplayName, string(p.AgeGroup),
		database.NullString(p.GuardianEmail), enc[0], enc[1], enc[2], enc[3], p.DeviceID,
	}
	args = append(args, syncArgs(p.SyncFields)...)

	if _, err := r.db.ExecContext(ctx, insertQuery(database.TableUserProfile, profileColumns), args...); err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, fmt.Errorf("profile for user %s: %w", p.UserID, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return &p, nil
}

// GetByUserID retrieves a profile by its local user id
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, err := getProfile(ctx, r.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Update applies a partial update. updated_at is always refreshed and the
// profile goes back to pending.
func (r *ProfileRepository) Update(ctx context.Context, userID string, u models.ProfileUpdate) (*models.UserProfile, error) {
	var updated models.UserProfile

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		current, err := getProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}

		p := u.Apply(*current)
		p.UpdatedAt = now()
		p.SyncStatus = models.SyncPending

		enc, err := encodeJSON(p.AvatarConfig, p.AccessibilityPreferences, p.SelectedGoals, p.PrivacySettings)
		if err != nil {
			return err
		}

		query := `
			UPDATE user_profile
			SET display_name = ?, age_group = ?, guardian_email = ?, avatar_config = ?,
			    accessibility_preferences = ?, selected_goals = ?, privacy_settings = ?,
			    updated_at = ?, sync_status = ?
			WHERE user_id = ?
		`
		_, err = tx.ExecContext(ctx, query,
			p.DisplayName, string(p.AgeGroup), database.NullString(p.GuardianEmail),
			enc[0], enc[1], enc[2], enc[3],
			database.FormatTime(p.UpdatedAt), string(p.SyncStatus), userID,
		)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &updated, nil
}

// SetCloudUserID links the local profile to its cloud identity
func (r *ProfileRepository) SetCloudUserID(ctx context.Context, userID, cloudUserID string) error {
	query := `UPDATE user_profile SET cloud_user_id = ?, updated_at = ?, sync_status = ? WHERE user_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		database.NullString(cloudUserID), database.FormatTime(now()), string(models.SyncPending), userID)
	if err != nil {
		return fmt.Errorf("failed to set cloud user id: %w", err)
	}
	return affectedOrNotFound(res)
}

// Anonymize clears personal fields. Profiles are never hard-deleted since
// sessions and progress reference them.
func (r *ProfileRepository) Anonymize(ctx context.Context, userID string) error {
	query := `
		UPDATE user_profile
		SET display_name = ?, guardian_email = NULL, cloud_user_id = NULL,
		    updated_at = ?, sync_status = ?
		WHERE user_id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		anonymousName, database.FormatTime(now()), string(models.SyncPending), userID)
	if err != nil {
		return fmt.Errorf("failed to anonymize profile: %w", err)
	}
	return affectedOrNotFound(res)
}

func getProfile(ctx context.Context, q database.DBTX, userID string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profile WHERE user_id = ?`
	p, err := scanProfile(q.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	var (
		p                                     models.UserProfile
		cloudID, guardian                     sql.NullString
		avatar, accessibility, goals, privacy sql.NullString
		sc                                    syncCols
	)
	dest := []any{
		&p.ID, &p.UserID, &cloudID, &p.DisplayName, &p.AgeGroup, &guardian,
		&avatar, &accessibility, &goals, &privacy, &p.DeviceID,
	}
	if err := row.Scan(append(dest, sc.dest()...)...); err != nil {
		return nil, err
	}

	p.CloudUserID = cloudID.String
	p.GuardianEmail = guardian.String
	if err := database.DecodeJSON(avatar, &p.AvatarConfig); err != nil {
		return nil, err
	}
	if err := database.DecodeJSON(accessibility, &p.AccessibilityPreferences); err != nil {
		return nil, err
	}
	if err := database.DecodeJSON(goals, &p.SelectedGoals); err != nil {
		return nil, err
	}
	if err := database.DecodeJSON(privacy, &p.PrivacySettings); err != nil {
		return nil, err
	}

	sf, err := sc.decode()
	if err != nil {
		return nil, err
	}
	p.SyncFields = sf
	return &p, nil
}
