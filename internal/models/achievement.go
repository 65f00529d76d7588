package models

import "time"

// AchievementType is why a badge was earned
type AchievementType string

const (
	AchievementParticipation AchievementType = "participation"
	AchievementProgress      AchievementType = "progress"
	AchievementConsistency   AchievementType = "consistency"
	AchievementMilestone     AchievementType = "milestone"
	AchievementImprovement   AchievementType = "improvement"
	AchievementCreativity    AchievementType = "creativity"
	AchievementHelpingOthers AchievementType = "helping_others"
)

// AchievementTypes lists every achievement type
var AchievementTypes = []AchievementType{
	AchievementParticipation, AchievementProgress, AchievementConsistency, AchievementMilestone,
	AchievementImprovement, AchievementCreativity, AchievementHelpingOthers,
}

// BadgeCategory groups badges for display
type BadgeCategory string

const (
	BadgeFirstTime     BadgeCategory = "first_time"
	BadgeStreak        BadgeCategory = "streak"
	BadgeMastery       BadgeCategory = "mastery"
	BadgeSocial        BadgeCategory = "social"
	BadgeEmotional     BadgeCategory = "emotional"
	BadgeCommunication BadgeCategory = "communication"
	BadgeSelfCare      BadgeCategory = "self_care"
)

// BadgeCategories lists every badge category
var BadgeCategories = []BadgeCategory{
	BadgeFirstTime, BadgeStreak, BadgeMastery, BadgeSocial,
	BadgeEmotional, BadgeCommunication, BadgeSelfCare,
}

// Achievement is an earned badge
type Achievement struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userId"`
	AchievementType    AchievementType `json:"achievementType"`
	BadgeCategory      BadgeCategory   `json:"badgeCategory"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Icon               string          `json:"icon"`
	EarnedAt           time.Time       `json:"earnedAt"`
	CelebrationShown   bool            `json:"celebrationShown"`
	SharedWithGuardian bool            `json:"sharedWithGuardian"`
	DeviceID           string          `json:"deviceId"`
	SyncFields
}
