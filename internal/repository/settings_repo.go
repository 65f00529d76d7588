package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buddybot/internal/database"
)

// SettingsRepository stores key-value preferences in the settings table
type SettingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves a setting value by key. ok is false when the key is unset.
func (r *SettingsRepository) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	query := `SELECT setting_value FROM settings WHERE setting_key = ?`
	err = r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set updates or inserts a setting
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	return setSetting(ctx, r.db, key, value)
}

// SetMany writes several settings in one transaction
func (r *SettingsRepository) SetMany(ctx context.Context, values map[string]string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		for k, v := range values {
			if err := setSetting(ctx, tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a setting. Deleting an unset key is not an error.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE setting_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// All returns every stored setting
func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT setting_key, setting_value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// DeleteAllExcept removes every setting whose key is not in keep
func (r *SettingsRepository) DeleteAllExcept(ctx context.Context, keep ...string) error {
	query := `DELETE FROM settings`
	args := make([]any, len(keep))
	if len(keep) > 0 {
		query += ` WHERE setting_key NOT IN (` + placeholders(len(keep)) + `)`
		for i, k := range keep {
			args[i] = k
		}
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	return nil
}

func setSetting(ctx context.Context, q database.DBTX, key, value string) error {
	query := q.GetDialect().UpsertSetting()
	if _, err := q.ExecContext(ctx, query, key, value, database.FormatTime(now())); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
