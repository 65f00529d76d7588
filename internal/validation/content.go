package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"buddybot/internal/models"
)

// inappropriateWords match anywhere in the content, case-insensitively
var inappropriateWords = []string{"violence", "scary", "death", "war"}

// maxAverageWordLength is the complexity ceiling for the youngest bracket
const maxAverageWordLength = 8.0

// ValidateAgeAppropriateContent rejects content that uses a denylisted
// word, or that is too complex for the 6-12 bracket
func ValidateAgeAppropriateContent(content string, ageGroup models.AgeGroup) FieldResult {
	lower := strings.ToLower(content)
	for _, w := range inappropriateWords {
		if strings.Contains(lower, w) {
			return fail("Content contains inappropriate word: %s", w)
		}
	}

	if ageGroup == models.AgeChild {
		words := strings.Fields(content)
		if len(words) > 0 {
			total := 0
			for _, w := range words {
				total += utf8.RuneCountInString(w)
			}
			if float64(total)/float64(len(words)) > maxAverageWordLength {
				return fail("Content too complex for age group %s", ageGroup)
			}
		}
	}

	return FieldResult{Valid: true}
}

// maxActivityDurations is the longest allowed session per activity, in seconds
var maxActivityDurations = map[models.ActivityType]int{
	models.ActivitySocialFlashcards:      1800,
	models.ActivityEmotionRecognition:    1200,
	models.ActivityBreathingExercise:     600,
	models.ActivityRolePlayScenario:      2400,
	models.ActivityCommunicationPractice: 1800,
	models.ActivitySelfRegulationTools:   900,
	models.ActivityDailyCheckIn:          300,
	models.ActivityMindfulness:           1200,
}

// MaxActivityDuration returns the ceiling for an activity type
func MaxActivityDuration(activityType models.ActivityType) (int, bool) {
	limit, ok := maxActivityDurations[activityType]
	return limit, ok
}

// ValidateActivityDuration enforces the per-activity session length ceiling
func ValidateActivityDuration(durationSeconds int, activityType models.ActivityType) FieldResult {
	if durationSeconds < 0 {
		return FieldResult{Error: "Duration cannot be negative"}
	}
	limit, ok := maxActivityDurations[activityType]
	if !ok {
		return FieldResult{Error: fmt.Sprintf("Unknown activity type: %s", activityType)}
	}
	if durationSeconds > limit {
		return fail("Duration too long for %s (max: %d seconds)", activityType, limit)
	}
	return FieldResult{Valid: true}
}
