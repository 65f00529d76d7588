package service

import (
	"context"
	"fmt"
	"time"

	"buddybot/internal/models"
)

const streakDateLayout = "2006-01-02"

// StreakService tracks consecutive days of activity
type StreakService struct {
	settings *SettingsService
	now      func() time.Time
}

// NewStreakService creates a streak service. The streak is counted in the
// zone of the times now returns; pass time.Now for the device's local time.
func NewStreakService(settings *SettingsService, now func() time.Time) *StreakService {
	if now == nil {
		now = time.Now
	}
	return &StreakService{settings: settings, now: now}
}

// UpdateDailyStreak records activity today. The first call on a day
// extends the streak when the previous activity was yesterday and restarts
// it at 1 otherwise; later calls on the same day change nothing.
func (s *StreakService) UpdateDailyStreak(ctx context.Context) (models.StreakResult, error) {
	today := civilDate(s.now())

	streak, last, err := s.settings.Streak(ctx)
	if err != nil {
		return models.StreakResult{}, fmt.Errorf("failed to read streak: %w", err)
	}

	if last == today.Format(streakDateLayout) {
		return models.StreakResult{Streak: streak, IsNewDay: false}, nil
	}

	next := 1
	if prev, err := time.Parse(streakDateLayout, last); err == nil && daysBetween(prev, today) == 1 {
		next = streak + 1
	}

	if err := s.settings.SetStreak(ctx, next, today.Format(streakDateLayout)); err != nil {
		return models.StreakResult{}, fmt.Errorf("failed to save streak: %w", err)
	}
	return models.StreakResult{Streak: next, IsNewDay: true}, nil
}

// CurrentStreak returns the stored streak without updating it
func (s *StreakService) CurrentStreak(ctx context.Context) (int, error) {
	streak, _, err := s.settings.Streak(ctx)
	return streak, err
}

// civilDate drops the clock part of t, keeping its calendar date
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
