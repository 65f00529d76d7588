// Package repository persists BuddyBot records. Every repository wraps the
// shared *database.DB, takes a context on every call and encodes nested
// sub-objects as JSON text columns.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"buddybot/internal/database"
	"buddybot/internal/models"
)

var (
	// ErrNotFound is returned by mutations that target a missing row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a natural key is already taken
	ErrDuplicate = errors.New("record already exists")
	// ErrUnknownTable is returned for a table outside the syncable set
	ErrUnknownTable = errors.New("unknown table")
)

const defaultListLimit = 50

// now is the clock used for generated timestamps
var now = func() time.Time {
	return time.Now().UTC()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func newID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// newSyncFields returns the bookkeeping of a freshly created record
func newSyncFields(t time.Time) models.SyncFields {
	return models.SyncFields{
		CreatedAt:  t,
		UpdatedAt:  t,
		SyncStatus: models.SyncPending,
	}
}

// syncColumns is the column list matching syncCols.dest
const syncColumns = "created_at, updated_at, synced_at, sync_status"

type syncCols struct {
	createdAt string
	updatedAt string
	syncedAt  sql.NullString
	status    string
}

func (c *syncCols) dest() []any {
	return []any{&c.createdAt, &c.updatedAt, &c.syncedAt, &c.status}
}

func (c *syncCols) decode() (models.SyncFields, error) {
	created, err := database.ParseTime(c.createdAt)
	if err != nil {
		return models.SyncFields{}, err
	}
	updated, err := database.ParseTime(c.updatedAt)
	if err != nil {
		return models.SyncFields{}, err
	}
	synced, err := database.ParseNullTime(c.syncedAt)
	if err != nil {
		return models.SyncFields{}, err
	}
	return models.SyncFields{
		CreatedAt:  created,
		UpdatedAt:  updated,
		SyncedAt:   synced,
		SyncStatus: models.SyncStatus(c.status),
	}, nil
}

func syncArgs(f models.SyncFields) []any {
	return []any{
		database.FormatTime(f.CreatedAt),
		database.FormatTime(f.UpdatedAt),
		database.NullTime(f.SyncedAt),
		string(f.SyncStatus),
	}
}

// placeholders returns n comma separated ? markers
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// insertQuery builds an INSERT for the given column list
func insertQuery(table, columns string) string {
	n := len(strings.Split(columns, ","))
	return "INSERT INTO " + table + " (" + columns + ") VALUES (" + placeholders(n) + ")"
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// encodeJSON encodes each value in turn, stopping at the first failure
func encodeJSON(values ...any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		s, err := database.EncodeJSON(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// affectedOrNotFound maps a zero row count to ErrNotFound
func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
