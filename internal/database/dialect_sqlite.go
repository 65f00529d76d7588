package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// DSN enables foreign keys and a busy timeout on every connection. WAL is
// only requested for files since in-memory databases cannot use it.
func (d *SQLiteDialect) DSN(config DialectConfig) string {
	params := "_foreign_keys=on&_busy_timeout=5000"
	if !isMemoryPath(config.Path) {
		params += "&_journal_mode=WAL"
	}
	sep := "?"
	if strings.Contains(config.Path, "?") {
		sep = "&"
	}
	return config.Path + sep + params
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

// ConfigureConnection pins the pool to one connection. The device database
// is a single serialized handle, and an in-memory database only exists for
// the connection that created it.
func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		return err
	}
	if fk != 1 {
		if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
			return err
		}
	}
	return nil
}

func (d *SQLiteDialect) KeyType() string {
	return "TEXT"
}

func (d *SQLiteDialect) CreateIndexQuery(ix Index) string {
	return ix.keyword() + " IF NOT EXISTS " + ix.Name + " ON " + ix.Table + "(" + ix.columnList() + ")"
}

func (d *SQLiteDialect) IndexExistsQuery() string {
	return ""
}

func (d *SQLiteDialect) UpsertSetting() string {
	return `INSERT INTO settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value, updated_at = excluded.updated_at`
}

func (d *SQLiteDialect) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
