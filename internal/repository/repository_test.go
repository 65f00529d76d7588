package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"buddybot/internal/database"
	"buddybot/internal/logging"
	"buddybot/internal/models"
)

const testUser = "user_123"

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "buddybot.db"), logging.Discard())
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	return db
}

// useClock replaces the repository clock for the duration of the test and
// returns a function that advances it
func useClock(t *testing.T, start time.Time) func(time.Duration) {
	t.Helper()
	current := start
	prev := now
	now = func() time.Time { return current }
	t.Cleanup(func() { now = prev })
	return func(d time.Duration) { current = current.Add(d) }
}

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedProfile(t *testing.T, db *database.DB, userID string) *models.UserProfile {
	t.Helper()
	p, err := NewProfileRepository(db).Create(context.Background(), models.UserProfile{
		UserID:                   userID,
		DisplayName:              "Alex",
		AgeGroup:                 models.AgeTeen,
		AvatarConfig:             models.DefaultAvatarConfig(),
		AccessibilityPreferences: models.DefaultAccessibilitySettings(),
		SelectedGoals:            []models.TherapeuticGoal{models.GoalCommunication},
		PrivacySettings:          models.DefaultPrivacySettings(),
		DeviceID:                 "device-1",
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return p
}

func seedSession(t *testing.T, db *database.DB, userID string, started time.Time) *models.ActivitySession {
	t.Helper()
	s, err := NewSessionRepository(db).Create(context.Background(), models.ActivitySession{
		UserID:          userID,
		ActivityType:    models.ActivityEmotionRecognition,
		StartedAt:       started,
		DifficultyLevel: 2,
		MoodBefore:      models.MoodOkay,
		DeviceID:        "device-1",
		AppVersion:      "1.0.0",
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}

func intPtr(v int) *int { return &v }

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.want {
			t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}

	got := insertQuery("settings", "setting_key, setting_value,\n\tupdated_at")
	want := "INSERT INTO settings (setting_key, setting_value,\n\tupdated_at) VALUES (?, ?, ?)"
	if got != want {
		t.Errorf("insertQuery() = %q, want %q", got, want)
	}
}
