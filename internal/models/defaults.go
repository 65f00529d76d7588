package models

// DefaultAvatarConfig is the avatar a new user starts with
func DefaultAvatarConfig() AvatarConfig {
	return AvatarConfig{
		BodyType:     BodyRobot,
		PrimaryColor: "#87CEEB",
		Accessories:  []string{},
		Expressions:  []string{"happy", "encouraging"},
		Name:         "Buddy",
	}
}

// DefaultAccessibilitySettings are applied until the user changes them
func DefaultAccessibilitySettings() AccessibilitySettings {
	return AccessibilitySettings{
		FontSize:         FontMedium,
		VoiceEnabled:     true,
		HapticFeedback:   true,
		VisualIndicators: true,
	}
}

// AccessibilityForAge adjusts settings to the defaults for an age bracket
func AccessibilityForAge(s AccessibilitySettings, ageGroup AgeGroup) AccessibilitySettings {
	switch ageGroup {
	case AgeChild:
		s.SimplifiedLanguage = true
		s.LargerTouchTargets = true
		s.VisualIndicators = true
	case AgeTeen:
		s.SimplifiedLanguage = false
		s.LargerTouchTargets = false
	}
	return s
}

// DefaultThemePreferences is the initial theme
func DefaultThemePreferences() ThemePreferences {
	return ThemePreferences{
		PrimaryColor: "#87CEEB",
		Animations:   AnimationFull,
	}
}

// DefaultPrivacySettings keeps data on the device until the user opts in
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		AllowDataExport:   true,
		DataRetentionDays: 365,
	}
}

// DefaultNotificationSettings is the initial reminder configuration
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		DailyReminder:     true,
		ReminderTime:      "16:00",
		AchievementAlerts: true,
	}
}
