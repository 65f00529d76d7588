package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.RetentionDays != 365 {
		t.Errorf("RetentionDays = %d, want 365", cfg.RetentionDays)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BUDDYBOT_DB_PATH", "/tmp/other.db")
	t.Setenv("BUDDYBOT_RETENTION_DAYS", "30")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabasePath != "/tmp/other.db" {
		t.Errorf("DatabasePath = %q, want /tmp/other.db", cfg.DatabasePath)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.RetentionDays)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "buddybot.yaml")
	content := "db_path: ./from-file.db\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabasePath != "./from-file.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "sqlite ok",
			cfg:  Config{DatabaseType: "sqlite", DatabasePath: "x.db", RetentionDays: 1},
		},
		{
			name:    "sqlite without path",
			cfg:     Config{DatabaseType: "sqlite", RetentionDays: 1},
			wantErr: "DB_PATH",
		},
		{
			name:    "postgres without url",
			cfg:     Config{DatabaseType: "postgres", RetentionDays: 1},
			wantErr: "DB_URL",
		},
		{
			name:    "unknown type",
			cfg:     Config{DatabaseType: "oracle", RetentionDays: 1},
			wantErr: "unsupported",
		},
		{
			name:    "zero retention",
			cfg:     Config{DatabaseType: "sqlite", DatabasePath: "x.db"},
			wantErr: "RETENTION",
		},
		{
			name:    "short message key",
			cfg:     Config{DatabaseType: "sqlite", DatabasePath: "x.db", RetentionDays: 1, MessageKey: "abcd"},
			wantErr: "MESSAGE_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
