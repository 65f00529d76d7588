package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"buddybot/internal/models"
)

func TestUpdateDailyStreak(t *testing.T) {
	tests := []struct {
		name       string
		prevStreak int
		prevDate   string
		now        time.Time
		want       models.StreakResult
	}{
		{
			name: "first activity",
			now:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			want: models.StreakResult{Streak: 1, IsNewDay: true},
		},
		{
			name:       "same day",
			prevStreak: 4,
			prevDate:   "2026-03-01",
			now:        time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC),
			want:       models.StreakResult{Streak: 4, IsNewDay: false},
		},
		{
			name:       "consecutive day",
			prevStreak: 4,
			prevDate:   "2026-02-28",
			now:        time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC),
			want:       models.StreakResult{Streak: 5, IsNewDay: true},
		},
		{
			name:       "missed a day",
			prevStreak: 4,
			prevDate:   "2026-02-27",
			now:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			want:       models.StreakResult{Streak: 1, IsNewDay: true},
		},
		{
			name:       "local midnight decides the day",
			prevStreak: 2,
			prevDate:   "2026-03-01",
			// 01:30 on 2 March in UTC+10 is still 1 March in UTC
			now:  time.Date(2026, 3, 2, 1, 30, 0, 0, time.FixedZone("AEST", 10*60*60)),
			want: models.StreakResult{Streak: 3, IsNewDay: true},
		},
		{
			name:       "across a DST change",
			prevStreak: 7,
			prevDate:   "2026-03-07",
			now:        time.Date(2026, 3, 8, 23, 0, 0, 0, mustLoad(t, "America/New_York")),
			want:       models.StreakResult{Streak: 8, IsNewDay: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			if tt.prevDate != "" {
				if err := env.settings.SetStreak(ctx, tt.prevStreak, tt.prevDate); err != nil {
					t.Fatalf("SetStreak() error = %v", err)
				}
			}

			svc := NewStreakService(env.settings, func() time.Time { return tt.now })
			got, err := svc.UpdateDailyStreak(ctx)
			if err != nil {
				t.Fatalf("UpdateDailyStreak() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("UpdateDailyStreak() = %+v, want %+v", got, tt.want)
			}

			streak, err := svc.CurrentStreak(ctx)
			if err != nil || streak != tt.want.Streak {
				t.Errorf("CurrentStreak() = %d, %v, want %d", streak, err, tt.want.Streak)
			}
		})
	}
}

func TestUpdateDailyStreakTwiceSameDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewStreakService(env.settings, func() time.Time { return epoch })

	first, err := svc.UpdateDailyStreak(ctx)
	if err != nil {
		t.Fatalf("UpdateDailyStreak() error = %v", err)
	}
	second, err := svc.UpdateDailyStreak(ctx)
	if err != nil {
		t.Fatalf("UpdateDailyStreak() error = %v", err)
	}
	if !first.IsNewDay || second.IsNewDay || second.Streak != first.Streak {
		t.Errorf("UpdateDailyStreak() = %+v then %+v", first, second)
	}
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) error = %v", name, err)
	}
	return loc
}
