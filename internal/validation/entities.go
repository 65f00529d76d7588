package validation

import (
	"reflect"
	"regexp"

	"buddybot/internal/models"
)

var (
	userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	colorPattern  = regexp.MustCompile(`(?i)^#[0-9A-F]{6}$`)
)

var profileRules = []fieldRule[models.UserProfile]{
	{
		Rule: Rule{Field: "displayName", Required: true, Type: TypeString, MinLength: 1, MaxLength: 50},
		get:  func(p models.UserProfile) any { return p.DisplayName },
	},
	{
		Rule: Rule{Field: "ageGroup", Required: true, Type: TypeString,
			Custom: oneOf(models.AgeGroups), Message: "ageGroup must be one of 6-12, 13-18, 19-24"},
		get: func(p models.UserProfile) any { return p.AgeGroup },
	},
	{
		Rule: Rule{Field: "userId", Required: true, Type: TypeString, Pattern: userIDPattern},
		get:  func(p models.UserProfile) any { return p.UserID },
	},
	{
		// Guardian contact is mandatory for the youngest bracket
		Rule:       Rule{Field: "guardianEmail", Type: TypeString, MaxLength: 100, Pattern: emailPattern},
		get:        func(p models.UserProfile) any { return p.GuardianEmail },
		requiredIf: func(p models.UserProfile) bool { return p.AgeGroup.RequiresGuardian() },
	},
	{
		Rule: Rule{Field: "selectedGoals", Type: TypeArray,
			Custom: allOf(models.TherapeuticGoals), Message: "selectedGoals contains an unknown goal"},
		get: func(p models.UserProfile) any { return p.SelectedGoals },
	},
	{
		Rule: Rule{Field: "privacySettings.dataRetentionDays", Type: TypeNumber,
			Custom: atLeast(0), Message: "privacySettings.dataRetentionDays cannot be negative"},
		get: func(p models.UserProfile) any { return p.PrivacySettings.DataRetentionDays },
	},
}

// ValidateUserProfile checks a profile and its avatar and accessibility
// sub-objects. Zero-valued sub-objects are treated as not supplied.
func ValidateUserProfile(p models.UserProfile) Result {
	errs := evaluate(p, profileRules, nil)

	if !isZero(p.AvatarConfig) {
		errs = append(errs, ValidateAvatarConfig(p.AvatarConfig).Errors...)
	}
	if !isZero(p.AccessibilityPreferences) {
		errs = append(errs, ValidateAccessibilitySettings(p.AccessibilityPreferences).Errors...)
	}
	return newResult(errs)
}

var avatarRules = []fieldRule[models.AvatarConfig]{
	{
		Rule: Rule{Field: "bodyType", Required: true, Type: TypeString,
			Custom:  oneOf([]models.BodyType{models.BodyRobot, models.BodyAnimal, models.BodyPerson}),
			Message: "bodyType must be robot, animal or person"},
		get: func(a models.AvatarConfig) any { return a.BodyType },
	},
	{
		Rule: Rule{Field: "primaryColor", Required: true, Type: TypeString, Pattern: colorPattern},
		get:  func(a models.AvatarConfig) any { return a.PrimaryColor },
	},
	{
		Rule: Rule{Field: "accessories", Required: true, Type: TypeArray},
		get:  func(a models.AvatarConfig) any { return a.Accessories },
	},
	{
		Rule: Rule{Field: "name", Required: true, Type: TypeString, MinLength: 1, MaxLength: 20},
		get:  func(a models.AvatarConfig) any { return a.Name },
	},
	{
		Rule: Rule{Field: "expressions", Required: true, Type: TypeArray},
		get:  func(a models.AvatarConfig) any { return a.Expressions },
	},
}

// ValidateAvatarConfig checks an avatar configuration
func ValidateAvatarConfig(a models.AvatarConfig) Result {
	return newResult(evaluate(a, avatarRules, nil))
}

var accessibilityRules = []fieldRule[models.AccessibilitySettings]{
	{
		Rule: Rule{Field: "fontSize", Type: TypeString,
			Custom:  oneOf([]models.FontSize{models.FontSmall, models.FontMedium, models.FontLarge, models.FontExtraLarge}),
			Message: "Invalid font size"},
		get: func(s models.AccessibilitySettings) any { return s.FontSize },
	},
}

// ValidateAccessibilitySettings checks accessibility preferences. The
// boolean flags are typed, so only the font size can be wrong.
func ValidateAccessibilitySettings(s models.AccessibilitySettings) Result {
	return newResult(evaluate(s, accessibilityRules, nil))
}

var sessionRules = []fieldRule[models.ActivitySession]{
	{
		Rule: Rule{Field: "userId", Required: true, Type: TypeString},
		get:  func(s models.ActivitySession) any { return s.UserID },
	},
	{
		Rule: Rule{Field: "activityType", Required: true, Type: TypeString,
			Custom: oneOf(models.ActivityTypes), Message: "activityType is not a known activity"},
		get: func(s models.ActivitySession) any { return s.ActivityType },
	},
	{
		Rule: Rule{Field: "startedAt", Required: true, Type: TypeTimestamp},
		get:  func(s models.ActivitySession) any { return s.StartedAt },
	},
	{
		Rule: Rule{Field: "difficultyLevel", Required: true, Type: TypeNumber,
			Custom: between(1, 5), Message: "difficultyLevel must be between 1 and 5"},
		get: func(s models.ActivitySession) any { return nonZero(s.DifficultyLevel) },
	},
	{
		Rule: Rule{Field: "deviceId", Required: true, Type: TypeString},
		get:  func(s models.ActivitySession) any { return s.DeviceID },
	},
	{
		Rule: Rule{Field: "appVersion", Required: true, Type: TypeString},
		get:  func(s models.ActivitySession) any { return s.AppVersion },
	},
	{
		Rule: Rule{Field: "completedAt", Type: TypeTimestamp},
		get:  func(s models.ActivitySession) any { return s.CompletedAt },
	},
	{
		Rule: Rule{Field: "durationSeconds", Type: TypeNumber,
			Custom: atLeast(0), Message: "durationSeconds cannot be negative"},
		get: func(s models.ActivitySession) any { return s.DurationSeconds },
	},
	{
		Rule: Rule{Field: "score", Type: TypeNumber,
			Custom: between(0, 100), Message: "score must be between 0 and 100"},
		get: func(s models.ActivitySession) any { return s.Score },
	},
	{
		Rule: Rule{Field: "accuracyPercentage", Type: TypeNumber,
			Custom: between(0, 100), Message: "accuracyPercentage must be between 0 and 100"},
		get: func(s models.ActivitySession) any { return s.AccuracyPercentage },
	},
	{
		Rule: Rule{Field: "stressLevelBefore", Type: TypeNumber,
			Custom: between(1, 10), Message: "stressLevelBefore must be between 1 and 10"},
		get: func(s models.ActivitySession) any { return s.StressLevelBefore },
	},
	{
		Rule: Rule{Field: "stressLevelAfter", Type: TypeNumber,
			Custom: between(1, 10), Message: "stressLevelAfter must be between 1 and 10"},
		get: func(s models.ActivitySession) any { return s.StressLevelAfter },
	},
	{
		Rule: Rule{Field: "moodBefore", Type: TypeString,
			Custom: oneOf(models.MoodStates), Message: "Invalid mood state before activity"},
		get: func(s models.ActivitySession) any { return s.MoodBefore },
	},
	{
		Rule: Rule{Field: "moodAfter", Type: TypeString,
			Custom: oneOf(models.MoodStates), Message: "Invalid mood state after activity"},
		get: func(s models.ActivitySession) any { return s.MoodAfter },
	},
}

var sessionChecks = []recordCheck[models.ActivitySession]{
	{
		field: "completedAt",
		check: func(s models.ActivitySession) string {
			if s.CompletedAt != nil && !s.StartedAt.IsZero() && !s.CompletedAt.After(s.StartedAt) {
				return "Completion time must be after start time"
			}
			return ""
		},
	},
}

// ValidateActivitySession checks a session, including completion ordering
func ValidateActivitySession(s models.ActivitySession) Result {
	return newResult(evaluate(s, sessionRules, sessionChecks))
}

var progressRules = []fieldRule[models.SkillProgress]{
	{
		Rule: Rule{Field: "userId", Required: true, Type: TypeString},
		get:  func(p models.SkillProgress) any { return p.UserID },
	},
	{
		Rule: Rule{Field: "skillCategory", Required: true, Type: TypeString,
			Custom: oneOf(models.SkillCategories), Message: "skillCategory is not a known category"},
		get: func(p models.SkillProgress) any { return p.SkillCategory },
	},
	{
		Rule: Rule{Field: "currentLevel", Required: true, Type: TypeNumber,
			Custom: between(1, 10), Message: "currentLevel must be between 1 and 10"},
		get: func(p models.SkillProgress) any { return nonZero(p.CurrentLevel) },
	},
	{
		Rule: Rule{Field: "progressPercentage", Required: true, Type: TypeNumber,
			Custom: between(0, 100), Message: "progressPercentage must be between 0 and 100"},
		get: func(p models.SkillProgress) any { return p.ProgressPercentage },
	},
	{
		Rule: Rule{Field: "sessionsCompleted", Required: true, Type: TypeNumber,
			Custom: atLeast(0), Message: "sessionsCompleted cannot be negative"},
		get: func(p models.SkillProgress) any { return p.SessionsCompleted },
	},
	{
		Rule: Rule{Field: "lastUpdated", Required: true, Type: TypeTimestamp},
		get:  func(p models.SkillProgress) any { return p.LastUpdated },
	},
	{
		Rule: Rule{Field: "deviceId", Required: true, Type: TypeString},
		get:  func(p models.SkillProgress) any { return p.DeviceID },
	},
}

var progressChecks = []recordCheck[models.SkillProgress]{
	{
		field: "assessmentResults",
		check: func(p models.SkillProgress) string {
			for _, a := range p.AssessmentResults {
				if a.MaxScore <= 0 || a.Score < 0 || a.Score > a.MaxScore {
					return "Assessment score must be between 0 and maxScore"
				}
			}
			return ""
		},
	},
}

// ValidateSkillProgress checks a skill progress record
func ValidateSkillProgress(p models.SkillProgress) Result {
	return newResult(evaluate(p, progressRules, progressChecks))
}

var messageRules = []fieldRule[models.ChatMessage]{
	{
		Rule: Rule{Field: "userId", Required: true, Type: TypeString},
		get:  func(m models.ChatMessage) any { return m.UserID },
	},
	{
		Rule: Rule{Field: "conversationSessionId", Required: true, Type: TypeString},
		get:  func(m models.ChatMessage) any { return m.ConversationSessionID },
	},
	{
		Rule: Rule{Field: "messageText", Required: true, Type: TypeString, MinLength: 1, MaxLength: 1000},
		get:  func(m models.ChatMessage) any { return m.MessageText },
	},
	{
		Rule: Rule{Field: "messageType", Required: true, Type: TypeString,
			Custom: oneOf(models.MessageTypes), Message: "messageType must be user, bot, system or suggestion"},
		get: func(m models.ChatMessage) any { return m.MessageType },
	},
	{
		Rule: Rule{Field: "isBotMessage", Required: true, Type: TypeBoolean},
		get:  func(m models.ChatMessage) any { return m.IsBotMessage },
	},
	{
		Rule: Rule{Field: "timestamp", Required: true, Type: TypeTimestamp},
		get:  func(m models.ChatMessage) any { return m.Timestamp },
	},
	{
		Rule: Rule{Field: "deviceId", Required: true, Type: TypeString},
		get:  func(m models.ChatMessage) any { return m.DeviceID },
	},
	{
		Rule: Rule{Field: "moodContext", Type: TypeString,
			Custom: oneOf(models.MoodStates), Message: "Invalid mood context"},
		get: func(m models.ChatMessage) any { return m.MoodContext },
	},
	{
		Rule: Rule{Field: "intentCategory", Type: TypeString,
			Custom: oneOf(models.IntentCategories), Message: "Invalid intent category"},
		get: func(m models.ChatMessage) any { return m.IntentCategory },
	},
	{
		Rule: Rule{Field: "therapeuticGoal", Type: TypeString,
			Custom: oneOf(models.TherapeuticGoals), Message: "Invalid therapeutic goal"},
		get: func(m models.ChatMessage) any { return m.TherapeuticGoal },
	},
	{
		Rule: Rule{Field: "interventionType", Type: TypeString,
			Custom: oneOf(models.InterventionTypes), Message: "Invalid intervention type"},
		get: func(m models.ChatMessage) any { return m.InterventionType },
	},
	{
		Rule: Rule{Field: "effectivenessRating", Type: TypeNumber,
			Custom: between(1, 5), Message: "Effectiveness rating must be between 1 and 5"},
		get: func(m models.ChatMessage) any { return m.EffectivenessRating },
	},
}

var messageChecks = []recordCheck[models.ChatMessage]{
	{
		field: "isBotMessage",
		check: func(m models.ChatMessage) string {
			if m.MessageType == models.MessageBot && !m.IsBotMessage {
				return "Bot messages must set isBotMessage"
			}
			if m.MessageType == models.MessageUser && m.IsBotMessage {
				return "User messages cannot set isBotMessage"
			}
			return ""
		},
	},
}

// ValidateChatMessage checks a chat message
func ValidateChatMessage(m models.ChatMessage) Result {
	return newResult(evaluate(m, messageRules, messageChecks))
}

var achievementRules = []fieldRule[models.Achievement]{
	{
		Rule: Rule{Field: "userId", Required: true, Type: TypeString},
		get:  func(a models.Achievement) any { return a.UserID },
	},
	{
		Rule: Rule{Field: "achievementType", Required: true, Type: TypeString,
			Custom: oneOf(models.AchievementTypes), Message: "achievementType is not a known type"},
		get: func(a models.Achievement) any { return a.AchievementType },
	},
	{
		Rule: Rule{Field: "badgeCategory", Required: true, Type: TypeString,
			Custom: oneOf(models.BadgeCategories), Message: "badgeCategory is not a known category"},
		get: func(a models.Achievement) any { return a.BadgeCategory },
	},
	{
		Rule: Rule{Field: "title", Required: true, Type: TypeString, MinLength: 1, MaxLength: 100},
		get:  func(a models.Achievement) any { return a.Title },
	},
	{
		Rule: Rule{Field: "description", Type: TypeString, MaxLength: 500},
		get:  func(a models.Achievement) any { return a.Description },
	},
	{
		Rule: Rule{Field: "earnedAt", Required: true, Type: TypeTimestamp},
		get:  func(a models.Achievement) any { return a.EarnedAt },
	},
	{
		Rule: Rule{Field: "deviceId", Required: true, Type: TypeString},
		get:  func(a models.Achievement) any { return a.DeviceID },
	},
}

// ValidateAchievement checks an earned badge
func ValidateAchievement(a models.Achievement) Result {
	return newResult(evaluate(a, achievementRules, nil))
}

var resultRules = []fieldRule[models.ActivityResult]{
	{
		Rule: Rule{Field: "sessionId", Required: true, Type: TypeString},
		get:  func(r models.ActivityResult) any { return r.SessionID },
	},
	{
		Rule: Rule{Field: "userId", Required: true, Type: TypeString},
		get:  func(r models.ActivityResult) any { return r.UserID },
	},
	{
		Rule: Rule{Field: "itemId", Required: true, Type: TypeString},
		get:  func(r models.ActivityResult) any { return r.ItemID },
	},
	{
		Rule: Rule{Field: "itemContent", Type: TypeString, MaxLength: 1000},
		get:  func(r models.ActivityResult) any { return r.ItemContent },
	},
	{
		Rule: Rule{Field: "itemDifficulty", Type: TypeNumber,
			Custom: between(1, 5), Message: "itemDifficulty must be between 1 and 5"},
		get: func(r models.ActivityResult) any { return nonZero(r.ItemDifficulty) },
	},
	{
		Rule: Rule{Field: "userResponse", Type: TypeString, MaxLength: 1000},
		get:  func(r models.ActivityResult) any { return r.UserResponse },
	},
	{
		Rule: Rule{Field: "responseTimeMs", Required: true, Type: TypeNumber,
			Custom: atLeast(0), Message: "responseTimeMs cannot be negative"},
		get: func(r models.ActivityResult) any { return r.ResponseTimeMs },
	},
	{
		Rule: Rule{Field: "confidenceLevel", Type: TypeNumber,
			Custom: between(1, 5), Message: "confidenceLevel must be between 1 and 5"},
		get: func(r models.ActivityResult) any { return r.ConfidenceLevel },
	},
	{
		Rule: Rule{Field: "deviceId", Required: true, Type: TypeString},
		get:  func(r models.ActivityResult) any { return r.DeviceID },
	},
}

// ValidateActivityResult checks a per-item result
func ValidateActivityResult(r models.ActivityResult) Result {
	return newResult(evaluate(r, resultRules, nil))
}

// allOf returns a predicate accepting a slice whose elements are all in allowed
func allOf[T ~string](allowed []T) func(any) bool {
	member := oneOf(allowed)
	return func(v any) bool {
		s := reflect.ValueOf(v)
		if s.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < s.Len(); i++ {
			if !member(s.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
}

func isZero(v any) bool {
	return reflect.ValueOf(v).IsZero()
}
