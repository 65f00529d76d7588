package models

// AgeGroup is the age bracket chosen during onboarding
type AgeGroup string

const (
	AgeChild      AgeGroup = "6-12"
	AgeTeen       AgeGroup = "13-18"
	AgeYoungAdult AgeGroup = "19-24"
)

// AgeGroups lists every bracket
var AgeGroups = []AgeGroup{AgeChild, AgeTeen, AgeYoungAdult}

// RequiresGuardian reports whether the bracket needs a guardian contact
func (a AgeGroup) RequiresGuardian() bool {
	return a == AgeChild
}

// TherapeuticGoal is a goal the user selected during onboarding
type TherapeuticGoal string

const (
	GoalSocialSkills       TherapeuticGoal = "social_skills"
	GoalEmotionRecognition TherapeuticGoal = "emotion_recognition"
	GoalCommunication      TherapeuticGoal = "communication"
	GoalSelfRegulation     TherapeuticGoal = "self_regulation"
	GoalCopingStrategies   TherapeuticGoal = "coping_strategies"
)

// TherapeuticGoals lists every goal
var TherapeuticGoals = []TherapeuticGoal{
	GoalSocialSkills,
	GoalEmotionRecognition,
	GoalCommunication,
	GoalSelfRegulation,
	GoalCopingStrategies,
}

// BodyType is the avatar body shape
type BodyType string

const (
	BodyRobot  BodyType = "robot"
	BodyAnimal BodyType = "animal"
	BodyPerson BodyType = "person"
)

// AvatarConfig describes the companion avatar
type AvatarConfig struct {
	BodyType       BodyType          `json:"bodyType"`
	PrimaryColor   string            `json:"primaryColor"`
	Accessories    []string          `json:"accessories"`
	Expressions    []string          `json:"expressions"`
	Name           string            `json:"name"`
	Customizations map[string]string `json:"customizations,omitempty"`
}

// FontSize is the preferred text size
type FontSize string

const (
	FontSmall      FontSize = "small"
	FontMedium     FontSize = "medium"
	FontLarge      FontSize = "large"
	FontExtraLarge FontSize = "extra-large"
)

// AccessibilitySettings holds the user's accessibility preferences
type AccessibilitySettings struct {
	FontSize            FontSize `json:"fontSize"`
	HighContrast        bool     `json:"highContrast"`
	ReducedMotion       bool     `json:"reducedMotion"`
	VoiceEnabled        bool     `json:"voiceEnabled"`
	HapticFeedback      bool     `json:"hapticFeedback"`
	ScreenReaderEnabled bool     `json:"screenReaderEnabled"`
	VisualIndicators    bool     `json:"visualIndicators"`
	AudioDescriptions   bool     `json:"audioDescriptions"`
	SimplifiedLanguage  bool     `json:"simplifiedLanguage"`
	LargerTouchTargets  bool     `json:"largerTouchTargets"`
}

// AnimationLevel controls how much motion the UI uses
type AnimationLevel string

const (
	AnimationFull    AnimationLevel = "full"
	AnimationReduced AnimationLevel = "reduced"
	AnimationNone    AnimationLevel = "none"
)

// ThemePreferences holds the user's color and motion choices
type ThemePreferences struct {
	PrimaryColor string         `json:"primaryColor"`
	DarkMode     bool           `json:"darkMode"`
	CustomColors bool           `json:"customColors"`
	Animations   AnimationLevel `json:"animations"`
}

// PrivacySettings controls what leaves the device
type PrivacySettings struct {
	ShareProgressWithGuardian bool `json:"shareProgressWithGuardian"`
	AllowDataExport           bool `json:"allowDataExport"`
	EnableCloudSync           bool `json:"enableCloudSync"`
	DataRetentionDays         int  `json:"dataRetentionDays"`
}

// UserProfile is the single profile for an account
type UserProfile struct {
	ID                       string                `json:"id"`
	UserID                   string                `json:"userId"`
	CloudUserID              string                `json:"cloudUserId,omitempty"`
	DisplayName              string                `json:"displayName"`
	AgeGroup                 AgeGroup              `json:"ageGroup"`
	GuardianEmail            string                `json:"guardianEmail,omitempty"`
	AvatarConfig             AvatarConfig          `json:"avatarConfig"`
	AccessibilityPreferences AccessibilitySettings `json:"accessibilityPreferences"`
	SelectedGoals            []TherapeuticGoal     `json:"selectedGoals"`
	PrivacySettings          PrivacySettings       `json:"privacySettings"`
	DeviceID                 string                `json:"deviceId"`
	SyncFields
}

// ProfileUpdate carries the fields to change on a profile. Nil fields are
// left untouched.
type ProfileUpdate struct {
	DisplayName              *string
	AgeGroup                 *AgeGroup
	GuardianEmail            *string
	AvatarConfig             *AvatarConfig
	AccessibilityPreferences *AccessibilitySettings
	SelectedGoals            []TherapeuticGoal
	PrivacySettings          *PrivacySettings
}

// IsEmpty reports whether the update changes nothing
func (u ProfileUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.AgeGroup == nil && u.GuardianEmail == nil &&
		u.AvatarConfig == nil && u.AccessibilityPreferences == nil &&
		u.SelectedGoals == nil && u.PrivacySettings == nil
}

// Apply returns a copy of p with the update applied
func (u ProfileUpdate) Apply(p UserProfile) UserProfile {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.AgeGroup != nil {
		p.AgeGroup = *u.AgeGroup
	}
	if u.GuardianEmail != nil {
		p.GuardianEmail = *u.GuardianEmail
	}
	if u.AvatarConfig != nil {
		p.AvatarConfig = *u.AvatarConfig
	}
	if u.AccessibilityPreferences != nil {
		p.AccessibilityPreferences = *u.AccessibilityPreferences
	}
	if u.SelectedGoals != nil {
		p.SelectedGoals = u.SelectedGoals
	}
	if u.PrivacySettings != nil {
		p.PrivacySettings = *u.PrivacySettings
	}
	return p
}
