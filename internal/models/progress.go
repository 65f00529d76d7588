package models

import "time"

// SkillCategory groups related skills
type SkillCategory string

const (
	SkillSocialSkills       SkillCategory = "social_skills"
	SkillEmotionalAwareness SkillCategory = "emotional_awareness"
	SkillCommunication      SkillCategory = "communication"
	SkillSelfRegulation     SkillCategory = "self_regulation"
	SkillCopingStrategies   SkillCategory = "coping_strategies"
	SkillIndependence       SkillCategory = "independence"
	SkillSensoryManagement  SkillCategory = "sensory_management"
)

// SkillCategories lists every category
var SkillCategories = []SkillCategory{
	SkillSocialSkills,
	SkillEmotionalAwareness,
	SkillCommunication,
	SkillSelfRegulation,
	SkillCopingStrategies,
	SkillIndependence,
	SkillSensoryManagement,
}

// AssessmentResult is one scored assessment
type AssessmentResult struct {
	AssessmentID string             `json:"assessmentId"`
	Date         time.Time          `json:"date"`
	Score        float64            `json:"score"`
	MaxScore     float64            `json:"maxScore"`
	Areas        map[string]float64 `json:"areas,omitempty"`
	Notes        string             `json:"notes,omitempty"`
}

// SkillProgress tracks one skill category for one user
type SkillProgress struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"userId"`
	SkillCategory       SkillCategory      `json:"skillCategory"`
	CurrentLevel        int                `json:"currentLevel"`
	ProgressPercentage  float64            `json:"progressPercentage"`
	SessionsCompleted   int                `json:"sessionsCompleted"`
	MilestonesReached   []string           `json:"milestonesReached"`
	LastMilestoneDate   *time.Time         `json:"lastMilestoneDate,omitempty"`
	NextMilestoneTarget string             `json:"nextMilestoneTarget,omitempty"`
	AssessmentResults   []AssessmentResult `json:"assessmentResults"`
	Strengths           []string           `json:"strengths"`
	AreasForGrowth      []string           `json:"areasForGrowth"`
	LastUpdated         time.Time          `json:"lastUpdated"`
	DeviceID            string             `json:"deviceId"`
	SyncFields
}

// ProgressUpdate is an incremental change to a SkillProgress row. Nil
// fields are left untouched; list fields are appended.
type ProgressUpdate struct {
	CurrentLevel        *int
	ProgressPercentage  *float64
	SessionsCompleted   *int
	NewMilestones       []string
	NextMilestoneTarget *string
	NewAssessments      []AssessmentResult
	Strengths           []string
	AreasForGrowth      []string
}

// Apply returns a copy of p with the update applied at time now
func (u ProgressUpdate) Apply(p SkillProgress, now time.Time) SkillProgress {
	if u.CurrentLevel != nil {
		p.CurrentLevel = *u.CurrentLevel
	}
	if u.ProgressPercentage != nil {
		p.ProgressPercentage = *u.ProgressPercentage
	}
	if u.SessionsCompleted != nil {
		p.SessionsCompleted = *u.SessionsCompleted
	}
	if len(u.NewMilestones) > 0 {
		p.MilestonesReached = append(append([]string(nil), p.MilestonesReached...), u.NewMilestones...)
		p.LastMilestoneDate = &now
	}
	if u.NextMilestoneTarget != nil {
		p.NextMilestoneTarget = *u.NextMilestoneTarget
	}
	if len(u.NewAssessments) > 0 {
		p.AssessmentResults = append(append([]AssessmentResult(nil), p.AssessmentResults...), u.NewAssessments...)
	}
	if u.Strengths != nil {
		p.Strengths = u.Strengths
	}
	if u.AreasForGrowth != nil {
		p.AreasForGrowth = u.AreasForGrowth
	}
	p.LastUpdated = now
	return p
}
