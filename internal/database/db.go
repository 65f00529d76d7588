package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"buddybot/internal/config"
)

// DB wraps the database connection with dialect support. One DB is opened
// at startup and shared by every repository for the life of the process.
type DB struct {
	*sql.DB
	Dialect Dialect
	logger  *slog.Logger
}

// Initialize opens a SQLite database at dbPath
func Initialize(dbPath string, logger *slog.Logger) (*DB, error) {
	return open(NewSQLiteDialect(), DialectConfig{Path: dbPath}, logger)
}

// InitializeWithConfig creates and configures the database connection based on config
func InitializeWithConfig(cfg *config.Config, logger *slog.Logger) (*DB, error) {
	switch strings.ToLower(cfg.DatabaseType) {
	case "postgres", "postgresql":
		return open(NewPostgresDialect(), DialectConfig{URL: cfg.DatabaseURL}, logger)
	case "mysql":
		return open(NewMySQLDialect(), DialectConfig{URL: cfg.DatabaseURL}, logger)
	case "sqlite", "sqlite3", "":
		return open(NewSQLiteDialect(), DialectConfig{Path: cfg.DatabasePath}, logger)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}
}

func open(dialect Dialect, dialectConfig DialectConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dialectConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply dialect-specific configuration before the first connection is used
	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, Dialect: dialect, logger: logger.With("component", "database")}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Logger returns the database logger
func (db *DB) Logger() *slog.Logger {
	return db.logger
}

// QueryContext executes a query with automatic placeholder rewriting
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := db.DB.QueryContext(ctx, db.Dialect.RewriteQuery(query), args...)
	if err != nil {
		logStatementError(db.logger, err, query, args)
	}
	return rows, err
}

// QueryRowContext executes a query that returns a single row with automatic placeholder rewriting
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	row := db.DB.QueryRowContext(ctx, db.Dialect.RewriteQuery(query), args...)
	if err := row.Err(); err != nil {
		logStatementError(db.logger, err, query, args)
	}
	return row
}

// ExecContext executes a query that doesn't return rows with automatic placeholder rewriting
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := db.DB.ExecContext(ctx, db.Dialect.RewriteQuery(query), args...)
	if err != nil {
		logStatementError(db.logger, err, query, args)
	}
	return res, err
}

// logStatementError records a failed statement together with its parameters
func logStatementError(logger *slog.Logger, err error, query string, args []any) {
	logger.Error("sql error",
		"error", err,
		"query", strings.Join(strings.Fields(query), " "),
		"params", args,
	)
}
