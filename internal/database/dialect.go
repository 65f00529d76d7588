package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// Name returns a short identifier ("sqlite", "postgres", "mysql")
	Name() string

	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// KeyType is the column type used for ids, enums and timestamps that
	// take part in keys or indices
	KeyType() string

	// CreateIndexQuery returns the DDL for an index
	CreateIndexQuery(ix Index) string

	// IndexExistsQuery returns a query taking (table, index) and yielding a
	// count, or "" when CreateIndexQuery is already idempotent
	IndexExistsQuery() string

	// UpsertSetting returns the statement that inserts or replaces a row in
	// the settings table. Arguments are (key, value, updated_at).
	UpsertSetting() string

	// IsUniqueViolation reports whether err is a unique constraint failure
	IsUniqueViolation(err error) bool
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// Index describes a secondary index in the schema
type Index struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

func (ix Index) keyword() string {
	if ix.Unique {
		return "CREATE UNIQUE INDEX"
	}
	return "CREATE INDEX"
}

func (ix Index) columnList() string {
	return strings.Join(ix.Columns, ", ")
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
