package models

import "time"

// SessionState is the in-progress app session kept across restarts
type SessionState struct {
	LastActiveScreen      string    `json:"lastActiveScreen"`
	BotGreetingShown      bool      `json:"botGreetingShown"`
	DailyCheckInCompleted bool      `json:"dailyCheckInCompleted"`
	CurrentActivity       string    `json:"currentActivity,omitempty"`
	SessionStartTime      time.Time `json:"sessionStartTime"`
}

// NotificationSettings controls local reminders
type NotificationSettings struct {
	DailyReminder     bool   `json:"dailyReminder"`
	ReminderTime      string `json:"reminderTime"`
	AchievementAlerts bool   `json:"achievementAlerts"`
	GuardianUpdates   bool   `json:"guardianUpdates"`
}

// RecentActivity is an entry in the recent activities list
type RecentActivity struct {
	SessionID    string       `json:"sessionId"`
	ActivityType ActivityType `json:"activityType"`
	CompletedAt  time.Time    `json:"completedAt"`
	Score        *int         `json:"score,omitempty"`
}

// StreakResult is returned by the daily streak update
type StreakResult struct {
	Streak   int  `json:"streak"`
	IsNewDay bool `json:"isNewDay"`
}
