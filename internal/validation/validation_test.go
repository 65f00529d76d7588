package validation

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"buddybot/internal/models"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func validProfile() models.UserProfile {
	return models.UserProfile{
		UserID:                   "user_123",
		DisplayName:              "Alex",
		AgeGroup:                 models.AgeTeen,
		AvatarConfig:             models.DefaultAvatarConfig(),
		AccessibilityPreferences: models.DefaultAccessibilitySettings(),
		SelectedGoals:            []models.TherapeuticGoal{models.GoalSocialSkills},
		PrivacySettings:          models.DefaultPrivacySettings(),
		DeviceID:                 "device-1",
	}
}

var sessionStart = time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)

func validSession() models.ActivitySession {
	return models.ActivitySession{
		UserID:          "user_123",
		ActivityType:    models.ActivityBreathingExercise,
		StartedAt:       sessionStart,
		DifficultyLevel: 2,
		DeviceID:        "device-1",
		AppVersion:      "1.0.0",
	}
}

func TestValidateField(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		rule    Rule
		wantErr string
	}{
		{
			name:    "required missing",
			value:   "",
			rule:    Rule{Field: "name", Required: true, Type: TypeString},
			wantErr: "name is required",
		},
		{
			name:  "optional missing",
			value: nil,
			rule:  Rule{Field: "score", Type: TypeNumber, Custom: between(0, 100)},
		},
		{
			name:  "optional nil pointer",
			value: (*int)(nil),
			rule:  Rule{Field: "score", Type: TypeNumber, Custom: between(0, 100)},
		},
		{
			name:    "wrong type",
			value:   42,
			rule:    Rule{Field: "name", Required: true, Type: TypeString},
			wantErr: "name must be of type string",
		},
		{
			name:    "too short",
			value:   "ab",
			rule:    Rule{Field: "code", Type: TypeString, MinLength: 3},
			wantErr: "code must be at least 3 characters",
		},
		{
			name:    "too long counts runes",
			value:   "ééééé",
			rule:    Rule{Field: "code", Type: TypeString, MaxLength: 4},
			wantErr: "code must be no more than 4 characters",
		},
		{
			name:  "multibyte within limit",
			value: "éééé",
			rule:  Rule{Field: "code", Type: TypeString, MaxLength: 4},
		},
		{
			name:    "pattern mismatch",
			value:   "has space",
			rule:    Rule{Field: "userId", Type: TypeString, Pattern: regexp.MustCompile(`^\S+$`)},
			wantErr: "userId format is invalid",
		},
		{
			name:    "custom fails with generic message",
			value:   intPtr(101),
			rule:    Rule{Field: "score", Type: TypeNumber, Custom: between(0, 100)},
			wantErr: "score failed custom validation",
		},
		{
			name:    "custom fails with rule message",
			value:   11,
			rule:    Rule{Field: "stress", Type: TypeNumber, Custom: between(1, 10), Message: "stress out of range"},
			wantErr: "stress out of range",
		},
		{
			name:    "length checked before custom",
			value:   "toolongvalue",
			rule:    Rule{Field: "tag", Type: TypeString, MaxLength: 3, Custom: func(any) bool { return false }},
			wantErr: "tag must be no more than 3 characters",
		},
		{
			name:    "zero time is missing",
			value:   time.Time{},
			rule:    Rule{Field: "startedAt", Required: true, Type: TypeTimestamp},
			wantErr: "startedAt is required",
		},
		{
			name:  "array present",
			value: []string{},
			rule:  Rule{Field: "accessories", Required: true, Type: TypeArray},
		},
		{
			name:    "nil array missing",
			value:   []string(nil),
			rule:    Rule{Field: "accessories", Required: true, Type: TypeArray},
			wantErr: "accessories is required",
		},
		{
			name:  "false boolean is present",
			value: false,
			rule:  Rule{Field: "isBotMessage", Required: true, Type: TypeBoolean},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateField(tt.value, tt.rule)
			if tt.wantErr == "" {
				if !got.Valid {
					t.Errorf("ValidateField() = %+v, want valid", got)
				}
				return
			}
			if got.Valid || got.Error != tt.wantErr {
				t.Errorf("ValidateField() = %+v, want error %q", got, tt.wantErr)
			}
		})
	}
}

func TestValidateUserProfile(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *models.UserProfile)
		wantField string
	}{
		{name: "valid", mutate: func(p *models.UserProfile) {}},
		{
			name:      "missing display name",
			mutate:    func(p *models.UserProfile) { p.DisplayName = "" },
			wantField: "displayName",
		},
		{
			name:      "display name too long",
			mutate:    func(p *models.UserProfile) { p.DisplayName = strings.Repeat("a", 51) },
			wantField: "displayName",
		},
		{
			name:      "missing user id",
			mutate:    func(p *models.UserProfile) { p.UserID = "" },
			wantField: "userId",
		},
		{
			name:      "user id with bad characters",
			mutate:    func(p *models.UserProfile) { p.UserID = "user 1!" },
			wantField: "userId",
		},
		{
			name:      "unknown age group",
			mutate:    func(p *models.UserProfile) { p.AgeGroup = "25-30" },
			wantField: "ageGroup",
		},
		{
			name: "child without guardian email",
			mutate: func(p *models.UserProfile) {
				p.AgeGroup = models.AgeChild
				p.GuardianEmail = ""
			},
			wantField: "guardianEmail",
		},
		{
			name: "child with guardian email",
			mutate: func(p *models.UserProfile) {
				p.AgeGroup = models.AgeChild
				p.GuardianEmail = "parent@example.com"
			},
		},
		{
			name: "young adult without guardian email",
			mutate: func(p *models.UserProfile) {
				p.AgeGroup = models.AgeYoungAdult
				p.GuardianEmail = ""
			},
		},
		{
			name:      "malformed guardian email",
			mutate:    func(p *models.UserProfile) { p.GuardianEmail = "parent@example" },
			wantField: "guardianEmail",
		},
		{
			name:      "bad avatar color",
			mutate:    func(p *models.UserProfile) { p.AvatarConfig.PrimaryColor = "blue" },
			wantField: "primaryColor",
		},
		{
			name:      "avatar name too long",
			mutate:    func(p *models.UserProfile) { p.AvatarConfig.Name = strings.Repeat("b", 21) },
			wantField: "name",
		},
		{
			name:      "bad font size",
			mutate:    func(p *models.UserProfile) { p.AccessibilityPreferences.FontSize = "huge" },
			wantField: "fontSize",
		},
		{
			name:      "unknown goal",
			mutate:    func(p *models.UserProfile) { p.SelectedGoals = []models.TherapeuticGoal{"flying"} },
			wantField: "selectedGoals",
		},
		{
			name: "zero sub-objects are not validated",
			mutate: func(p *models.UserProfile) {
				p.AvatarConfig = models.AvatarConfig{}
				p.AccessibilityPreferences = models.AccessibilitySettings{}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			got := ValidateUserProfile(p)

			if tt.wantField == "" {
				if !got.Valid || len(got.Errors) != 0 {
					t.Errorf("ValidateUserProfile() = %+v, want valid", got)
				}
				return
			}
			if got.Valid {
				t.Fatalf("ValidateUserProfile() valid, want error on %s", tt.wantField)
			}
			if !got.HasField(tt.wantField) {
				t.Errorf("errors %v do not mention %s", got.Errors, tt.wantField)
			}
		})
	}
}

func TestValidateUserProfileAggregates(t *testing.T) {
	p := validProfile()
	p.DisplayName = ""
	p.UserID = ""
	p.AgeGroup = ""

	got := ValidateUserProfile(p)
	if len(got.Errors) != 3 {
		t.Errorf("got %d errors (%v), want 3", len(got.Errors), got.Errors)
	}
	for _, f := range []string{"displayName", "userId", "ageGroup"} {
		if !strings.Contains(got.Error(), f) {
			t.Errorf("Error() = %q, missing %s", got.Error(), f)
		}
	}
}

func TestValidateActivitySession(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *models.ActivitySession)
		wantField string
	}{
		{name: "valid", mutate: func(s *models.ActivitySession) {}},
		{
			name: "valid completed",
			mutate: func(s *models.ActivitySession) {
				s.CompletedAt = timePtr(sessionStart.Add(time.Minute))
				s.Score = intPtr(100)
				s.StressLevelBefore = intPtr(1)
				s.StressLevelAfter = intPtr(10)
				s.MoodBefore = models.MoodNervous
				s.MoodAfter = models.MoodCalm
			},
		},
		{
			name:      "completed before start",
			mutate:    func(s *models.ActivitySession) { s.CompletedAt = timePtr(sessionStart.Add(-time.Second)) },
			wantField: "completedAt",
		},
		{
			name:      "completed equal to start",
			mutate:    func(s *models.ActivitySession) { s.CompletedAt = timePtr(sessionStart) },
			wantField: "completedAt",
		},
		{
			name:      "score 101",
			mutate:    func(s *models.ActivitySession) { s.Score = intPtr(101) },
			wantField: "score",
		},
		{
			name:      "score -1",
			mutate:    func(s *models.ActivitySession) { s.Score = intPtr(-1) },
			wantField: "score",
		},
		{
			name: "score 0 is valid",
			mutate: func(s *models.ActivitySession) {
				s.Score = intPtr(0)
			},
		},
		{
			name: "accuracy above range",
			mutate: func(s *models.ActivitySession) {
				a := 100.5
				s.AccuracyPercentage = &a
			},
			wantField: "accuracyPercentage",
		},
		{
			name:      "stress before 0",
			mutate:    func(s *models.ActivitySession) { s.StressLevelBefore = intPtr(0) },
			wantField: "stressLevelBefore",
		},
		{
			name:      "stress before 11",
			mutate:    func(s *models.ActivitySession) { s.StressLevelBefore = intPtr(11) },
			wantField: "stressLevelBefore",
		},
		{
			name:      "stress after 11",
			mutate:    func(s *models.ActivitySession) { s.StressLevelAfter = intPtr(11) },
			wantField: "stressLevelAfter",
		},
		{
			name:      "difficulty 6",
			mutate:    func(s *models.ActivitySession) { s.DifficultyLevel = 6 },
			wantField: "difficultyLevel",
		},
		{
			name:      "difficulty missing",
			mutate:    func(s *models.ActivitySession) { s.DifficultyLevel = 0 },
			wantField: "difficultyLevel",
		},
		{
			name:      "unknown activity",
			mutate:    func(s *models.ActivitySession) { s.ActivityType = "juggling" },
			wantField: "activityType",
		},
		{
			name:      "unknown mood",
			mutate:    func(s *models.ActivitySession) { s.MoodAfter = "sleepy" },
			wantField: "moodAfter",
		},
		{
			name:      "missing start",
			mutate:    func(s *models.ActivitySession) { s.StartedAt = time.Time{} },
			wantField: "startedAt",
		},
		{
			name:      "missing device",
			mutate:    func(s *models.ActivitySession) { s.DeviceID = "" },
			wantField: "deviceId",
		},
		{
			name:      "missing app version",
			mutate:    func(s *models.ActivitySession) { s.AppVersion = "" },
			wantField: "appVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSession()
			tt.mutate(&s)
			got := ValidateActivitySession(s)

			if tt.wantField == "" {
				if !got.Valid {
					t.Errorf("ValidateActivitySession() = %+v, want valid", got)
				}
				return
			}
			if got.Valid || !got.HasField(tt.wantField) {
				t.Errorf("ValidateActivitySession() = %+v, want error on %s", got, tt.wantField)
			}
		})
	}
}

func TestValidateActivitySessionOrderingMessage(t *testing.T) {
	s := validSession()
	s.CompletedAt = timePtr(sessionStart)
	got := ValidateActivitySession(s)
	if !strings.Contains(got.Error(), "Completion time must be after start time") {
		t.Errorf("Error() = %q, want ordering error", got.Error())
	}
}

func TestValidateSkillProgress(t *testing.T) {
	valid := func() models.SkillProgress {
		return models.SkillProgress{
			UserID:             "user_123",
			SkillCategory:      models.SkillCommunication,
			CurrentLevel:       1,
			ProgressPercentage: 0,
			SessionsCompleted:  0,
			LastUpdated:        sessionStart,
			DeviceID:           "device-1",
		}
	}

	tests := []struct {
		name      string
		mutate    func(p *models.SkillProgress)
		wantField string
	}{
		{name: "valid with zero progress", mutate: func(p *models.SkillProgress) {}},
		{name: "level 10", mutate: func(p *models.SkillProgress) { p.CurrentLevel = 10 }},
		{name: "level 11", mutate: func(p *models.SkillProgress) { p.CurrentLevel = 11 }, wantField: "currentLevel"},
		{name: "level missing", mutate: func(p *models.SkillProgress) { p.CurrentLevel = 0 }, wantField: "currentLevel"},
		{name: "progress 100.1", mutate: func(p *models.SkillProgress) { p.ProgressPercentage = 100.1 }, wantField: "progressPercentage"},
		{name: "progress negative", mutate: func(p *models.SkillProgress) { p.ProgressPercentage = -1 }, wantField: "progressPercentage"},
		{name: "sessions negative", mutate: func(p *models.SkillProgress) { p.SessionsCompleted = -1 }, wantField: "sessionsCompleted"},
		{name: "unknown category", mutate: func(p *models.SkillProgress) { p.SkillCategory = "cooking" }, wantField: "skillCategory"},
		{name: "missing last updated", mutate: func(p *models.SkillProgress) { p.LastUpdated = time.Time{} }, wantField: "lastUpdated"},
		{
			name: "assessment over max",
			mutate: func(p *models.SkillProgress) {
				p.AssessmentResults = []models.AssessmentResult{{AssessmentID: "a", Score: 11, MaxScore: 10}}
			},
			wantField: "assessmentResults",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			got := ValidateSkillProgress(p)
			if tt.wantField == "" {
				if !got.Valid {
					t.Errorf("ValidateSkillProgress() = %+v, want valid", got)
				}
				return
			}
			if got.Valid || !got.HasField(tt.wantField) {
				t.Errorf("ValidateSkillProgress() = %+v, want error on %s", got, tt.wantField)
			}
		})
	}
}

func TestValidateChatMessage(t *testing.T) {
	valid := func() models.ChatMessage {
		return models.ChatMessage{
			UserID:                "user_123",
			ConversationSessionID: "conv-1",
			MessageText:           "Hi Buddy",
			MessageType:           models.MessageUser,
			Timestamp:             sessionStart,
			DeviceID:              "device-1",
		}
	}

	tests := []struct {
		name      string
		mutate    func(m *models.ChatMessage)
		wantField string
	}{
		{name: "valid", mutate: func(m *models.ChatMessage) {}},
		{name: "empty text", mutate: func(m *models.ChatMessage) { m.MessageText = "" }, wantField: "messageText"},
		{name: "text too long", mutate: func(m *models.ChatMessage) { m.MessageText = strings.Repeat("x", 1001) }, wantField: "messageText"},
		{name: "rating 0", mutate: func(m *models.ChatMessage) { m.EffectivenessRating = intPtr(0) }, wantField: "effectivenessRating"},
		{name: "rating 5", mutate: func(m *models.ChatMessage) { m.EffectivenessRating = intPtr(5) }},
		{name: "bad mood", mutate: func(m *models.ChatMessage) { m.MoodContext = "meh" }, wantField: "moodContext"},
		{name: "missing conversation", mutate: func(m *models.ChatMessage) { m.ConversationSessionID = "" }, wantField: "conversationSessionId"},
		{
			name: "bot type without flag",
			mutate: func(m *models.ChatMessage) {
				m.MessageType = models.MessageBot
			},
			wantField: "isBotMessage",
		},
		{
			name: "bot message",
			mutate: func(m *models.ChatMessage) {
				m.MessageType = models.MessageBot
				m.IsBotMessage = true
				m.IntentCategory = models.IntentEncouragement
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(&m)
			got := ValidateChatMessage(m)
			if tt.wantField == "" {
				if !got.Valid {
					t.Errorf("ValidateChatMessage() = %+v, want valid", got)
				}
				return
			}
			if got.Valid || !got.HasField(tt.wantField) {
				t.Errorf("ValidateChatMessage() = %+v, want error on %s", got, tt.wantField)
			}
		})
	}
}

func TestValidateAchievementAndResult(t *testing.T) {
	a := models.Achievement{
		UserID:          "user_123",
		AchievementType: models.AchievementConsistency,
		BadgeCategory:   models.BadgeStreak,
		Title:           "Three days in a row",
		EarnedAt:        sessionStart,
		DeviceID:        "device-1",
	}
	if got := ValidateAchievement(a); !got.Valid {
		t.Errorf("ValidateAchievement() = %+v, want valid", got)
	}
	a.BadgeCategory = "gold"
	if got := ValidateAchievement(a); !got.HasField("badgeCategory") {
		t.Errorf("ValidateAchievement() = %+v, want badgeCategory error", got)
	}

	r := models.ActivityResult{
		SessionID:      "s1",
		UserID:         "user_123",
		ItemID:         "card-4",
		ResponseTimeMs: 1200,
		DeviceID:       "device-1",
	}
	if got := ValidateActivityResult(r); !got.Valid {
		t.Errorf("ValidateActivityResult() = %+v, want valid", got)
	}
	r.ConfidenceLevel = intPtr(6)
	r.ResponseTimeMs = -5
	got := ValidateActivityResult(r)
	if !got.HasField("confidenceLevel") || !got.HasField("responseTimeMs") {
		t.Errorf("ValidateActivityResult() = %+v, want two errors", got)
	}
}

func TestSanitizeUserInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "script tag", input: "<script>alert(1)</script>Hello", want: "scriptalert(1)/scriptHello"},
		{name: "protocol", input: "  JavaScript:alert(1) ", want: "alert(1)"},
		{name: "nested protocol", input: "javajavascript:script:x", want: "x"},
		{name: "plain", input: "I feel happy", want: "I feel happy"},
		{name: "truncated", input: strings.Repeat("a", 1200), want: strings.Repeat("a", 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeUserInput(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeUserInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if strings.ContainsAny(got, "<>") || strings.Contains(strings.ToLower(got), "javascript:") {
				t.Errorf("SanitizeUserInput(%q) = %q still unsafe", tt.input, got)
			}
		})
	}
}

func TestSanitizeDisplayName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Alex  ", "Alex"},
		{"Al<ex>!", "Alex"},
		{"mary-jane_2", "mary-jane_2"},
		{strings.Repeat("n", 60), strings.Repeat("n", 50)},
	}
	for _, tt := range tests {
		if got := SanitizeDisplayName(tt.input); got != tt.want {
			t.Errorf("SanitizeDisplayName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Parent@Example.COM "); got != "parent@example.com" {
		t.Errorf("SanitizeEmail() = %q", got)
	}
	long := strings.Repeat("a", 120) + "@example.com"
	if got := SanitizeEmail(long); len(got) != 100 {
		t.Errorf("SanitizeEmail() length = %d, want 100", len(got))
	}
}

func TestValidateAgeAppropriateContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		ageGroup models.AgeGroup
		wantErr  string
	}{
		{name: "simple", content: "Let us take a deep breath", ageGroup: models.AgeChild},
		{name: "denylisted", content: "A scary story", ageGroup: models.AgeTeen, wantErr: "Content contains inappropriate word: scary"},
		{name: "denylisted uppercase", content: "No WAR here", ageGroup: models.AgeYoungAdult, wantErr: "Content contains inappropriate word: war"},
		{name: "word containing denylisted term", content: "You earned an award", ageGroup: models.AgeChild, wantErr: "Content contains inappropriate word: war"},
		{name: "denylisted prefix", content: "warfare games", ageGroup: models.AgeTeen, wantErr: "Content contains inappropriate word: war"},
		{name: "denylisted inside a word", content: "deathly quiet", ageGroup: models.AgeTeen, wantErr: "Content contains inappropriate word: death"},
		{name: "run together", content: "scarystory", ageGroup: models.AgeTeen, wantErr: "Content contains inappropriate word: scary"},
		{name: "complex for child", content: "Extraordinary comprehensive understanding", ageGroup: models.AgeChild, wantErr: "Content too complex for age group 6-12"},
		{name: "complex for teen is fine", content: "Extraordinary comprehensive understanding", ageGroup: models.AgeTeen},
		{name: "empty", content: "", ageGroup: models.AgeChild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateAgeAppropriateContent(tt.content, tt.ageGroup)
			if tt.wantErr == "" {
				if !got.Valid {
					t.Errorf("got %+v, want valid", got)
				}
				return
			}
			if got.Valid || got.Error != tt.wantErr {
				t.Errorf("got %+v, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestValidateActivityDuration(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		activity models.ActivityType
		wantErr  string
	}{
		{name: "within limit", seconds: 600, activity: models.ActivityBreathingExercise},
		{name: "negative", seconds: -1, activity: models.ActivityBreathingExercise, wantErr: "Duration cannot be negative"},
		{name: "over limit", seconds: 301, activity: models.ActivityDailyCheckIn, wantErr: "Duration too long for daily_check_in (max: 300 seconds)"},
		{name: "role play long", seconds: 2400, activity: models.ActivityRolePlayScenario},
		{name: "unknown", seconds: 10, activity: "juggling", wantErr: "Unknown activity type: juggling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateActivityDuration(tt.seconds, tt.activity)
			if tt.wantErr == "" {
				if !got.Valid {
					t.Errorf("got %+v, want valid", got)
				}
				return
			}
			if got.Valid || got.Error != tt.wantErr {
				t.Errorf("got %+v, want %q", got, tt.wantErr)
			}
		})
	}

	for _, at := range models.ActivityTypes {
		if _, ok := MaxActivityDuration(at); !ok {
			t.Errorf("no duration ceiling for %s", at)
		}
	}
}
