package database

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"buddybot/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "buddybot.db"), logging.Discard())
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestInitSchema tests that every table and index exists after init
func TestInitSchema(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	for _, table := range TableNames() {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
	for _, ix := range indexDefs {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='index' AND name=?", ix.Name).Scan(&name)
		if err != nil {
			t.Errorf("Index %s not found: %v", ix.Name, err)
		}
	}
}

func TestInitSchemaIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := db.InitSchema(ctx); err != nil {
			t.Fatalf("InitSchema() call %d error = %v", i+1, err)
		}
	}
}

func TestInitSchemaMemory(t *testing.T) {
	db, err := Initialize(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
}

// TestForeignKeysEnforced checks that sessions cannot reference a missing profile
func TestForeignKeysEnforced(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.InitSchema(ctx); err != nil {
		t.Fatal(err)
	}

	now := FormatTime(time.Now())
	_, err := db.ExecContext(ctx, `
		INSERT INTO activity_sessions (id, user_id, activity_type, started_at, difficulty_level,
			device_id, app_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"s1", "nobody", "daily_check_in", now, 1, "dev", "1.0.0", now, now)
	if err == nil {
		t.Fatal("expected foreign key violation, got nil")
	}
}

// TestWithTxRollback tests that a failing callback leaves no rows behind
func TestWithTxRollback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.InitSchema(ctx); err != nil {
		t.Fatal(err)
	}

	now := FormatTime(time.Now())
	err := db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, db.Dialect.UpsertSetting(), "k", "v", now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO no_such_table VALUES (1)")
		return err
	})
	if err == nil {
		t.Fatal("expected error from WithTx")
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("settings count = %d after rollback, want 0", count)
	}
}

func TestUpsertSetting(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.InitSchema(ctx); err != nil {
		t.Fatal(err)
	}

	now := FormatTime(time.Now())
	for _, v := range []string{"first", "second"} {
		if _, err := db.ExecContext(ctx, db.Dialect.UpsertSetting(), "theme", v, now); err != nil {
			t.Fatalf("upsert %q: %v", v, err)
		}
	}

	var value string
	if err := db.QueryRowContext(ctx, "SELECT setting_value FROM settings WHERE setting_key = ?", "theme").Scan(&value); err != nil {
		t.Fatal(err)
	}
	if value != "second" {
		t.Errorf("setting_value = %q, want second", value)
	}
}

func TestUniqueViolationSQLite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.InitSchema(ctx); err != nil {
		t.Fatal(err)
	}

	now := FormatTime(time.Now())
	insert := `INSERT INTO error_log (id, error_type, error_message, occurred_at) VALUES (?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "e1", "unknown", "x", now); err != nil {
		t.Fatal(err)
	}
	_, err := db.ExecContext(ctx, insert, "e1", "unknown", "x", now)
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
}

func TestTimeEncodingOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	later := base.Add(100 * time.Millisecond)

	a, b := FormatTime(base), FormatTime(later)
	if !(a < b) {
		t.Errorf("FormatTime order: %q should sort before %q", a, b)
	}

	parsed, err := ParseTime(b)
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(later) {
		t.Errorf("ParseTime() = %v, want %v", parsed, later)
	}
}

func TestFailedRowQueryIsLogged(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	var buf bytes.Buffer
	db.logger = slog.New(slog.NewTextHandler(&buf, nil))

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM missing_table WHERE id = ?", "row-1").Scan(&n); err == nil {
		t.Fatal("Scan() on a missing table succeeded")
	}
	err := db.WithTx(ctx, func(tx *Tx) error {
		return tx.QueryRowContext(ctx, "SELECT id FROM other_missing WHERE id = ?", "row-2").Scan(&n)
	})
	if err == nil {
		t.Fatal("WithTx() on a missing table succeeded")
	}

	out := buf.String()
	for _, want := range []string{"missing_table", "row-1", "other_missing", "row-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output is missing %q:\n%s", want, out)
		}
	}
}
