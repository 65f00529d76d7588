package models

import "time"

// ActivityType is the closed set of activities a session can run
type ActivityType string

const (
	ActivitySocialFlashcards      ActivityType = "social_flashcards"
	ActivityEmotionRecognition    ActivityType = "emotion_recognition"
	ActivityBreathingExercise     ActivityType = "breathing_exercise"
	ActivityRolePlayScenario      ActivityType = "role_play_scenario"
	ActivityCommunicationPractice ActivityType = "communication_practice"
	ActivitySelfRegulationTools   ActivityType = "self_regulation_tools"
	ActivityDailyCheckIn          ActivityType = "daily_check_in"
	ActivityMindfulness           ActivityType = "mindfulness_activity"
)

// ActivityTypes lists every activity type
var ActivityTypes = []ActivityType{
	ActivitySocialFlashcards,
	ActivityEmotionRecognition,
	ActivityBreathingExercise,
	ActivityRolePlayScenario,
	ActivityCommunicationPractice,
	ActivitySelfRegulationTools,
	ActivityDailyCheckIn,
	ActivityMindfulness,
}

// MoodState is a self-reported mood
type MoodState string

const (
	MoodVeryHappy    MoodState = "very_happy"
	MoodHappy        MoodState = "happy"
	MoodOkay         MoodState = "okay"
	MoodSad          MoodState = "sad"
	MoodVerySad      MoodState = "very_sad"
	MoodExcited      MoodState = "excited"
	MoodCalm         MoodState = "calm"
	MoodNervous      MoodState = "nervous"
	MoodAngry        MoodState = "angry"
	MoodFrustrated   MoodState = "frustrated"
	MoodConfused     MoodState = "confused"
	MoodProud        MoodState = "proud"
	MoodDisappointed MoodState = "disappointed"
	MoodGrateful     MoodState = "grateful"
)

// MoodStates lists every mood
var MoodStates = []MoodState{
	MoodVeryHappy, MoodHappy, MoodOkay, MoodSad, MoodVerySad,
	MoodExcited, MoodCalm, MoodNervous, MoodAngry, MoodFrustrated,
	MoodConfused, MoodProud, MoodDisappointed, MoodGrateful,
}

// ActivitySession is one attempt at an activity
type ActivitySession struct {
	ID                 string       `json:"id"`
	UserID             string       `json:"userId"`
	ActivityType       ActivityType `json:"activityType"`
	ActivitySubtype    string       `json:"activitySubtype,omitempty"`
	StartedAt          time.Time    `json:"startedAt"`
	CompletedAt        *time.Time   `json:"completedAt,omitempty"`
	DurationSeconds    *int         `json:"durationSeconds,omitempty"`
	Score              *int         `json:"score,omitempty"`
	AccuracyPercentage *float64     `json:"accuracyPercentage,omitempty"`
	DifficultyLevel    int          `json:"difficultyLevel"`
	MoodBefore         MoodState    `json:"moodBefore,omitempty"`
	MoodAfter          MoodState    `json:"moodAfter,omitempty"`
	StressLevelBefore  *int         `json:"stressLevelBefore,omitempty"`
	StressLevelAfter   *int         `json:"stressLevelAfter,omitempty"`
	DeviceID           string       `json:"deviceId"`
	AppVersion         string       `json:"appVersion"`
	SyncFields
}

// IsCompleted reports whether the session has a completion timestamp
func (s ActivitySession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// SessionCompletion carries the fields written when a session finishes
type SessionCompletion struct {
	CompletedAt        time.Time
	Score              *int
	AccuracyPercentage *float64
	MoodAfter          MoodState
	StressLevelAfter   *int
}

// Apply returns a copy of s with the completion applied
func (c SessionCompletion) Apply(s ActivitySession) ActivitySession {
	completed := c.CompletedAt
	s.CompletedAt = &completed
	if c.Score != nil {
		s.Score = c.Score
	}
	if c.AccuracyPercentage != nil {
		s.AccuracyPercentage = c.AccuracyPercentage
	}
	if c.MoodAfter != "" {
		s.MoodAfter = c.MoodAfter
	}
	if c.StressLevelAfter != nil {
		s.StressLevelAfter = c.StressLevelAfter
	}
	return s
}

// ActivityResult is one item answered within a session
type ActivityResult struct {
	ID              string `json:"id"`
	SessionID       string `json:"sessionId"`
	UserID          string `json:"userId"`
	ItemID          string `json:"itemId"`
	ItemContent     string `json:"itemContent"`
	ItemDifficulty  int    `json:"itemDifficulty"`
	UserResponse    string `json:"userResponse"`
	CorrectResponse string `json:"correctResponse,omitempty"`
	IsCorrect       bool   `json:"isCorrect"`
	ResponseTimeMs  int    `json:"responseTimeMs"`
	ConfidenceLevel *int   `json:"confidenceLevel,omitempty"`
	MistakeType     string `json:"mistakeType,omitempty"`
	DeviceID        string `json:"deviceId"`
	SyncFields
}
