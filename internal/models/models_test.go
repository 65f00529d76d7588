package models

import (
	"testing"
	"time"
)

func TestSyncStatusValid(t *testing.T) {
	tests := []struct {
		status SyncStatus
		want   bool
	}{
		{SyncPending, true},
		{SyncSynced, true},
		{SyncConflict, true},
		{SyncError, true},
		{"", false},
		{"done", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("SyncStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestConflictResolutionStatusAfter(t *testing.T) {
	tests := []struct {
		resolution ConflictResolution
		want       SyncStatus
	}{
		{ResolutionCloudWins, SyncSynced},
		{ResolutionLocalWins, SyncPending},
		{ResolutionMerged, SyncPending},
	}

	for _, tt := range tests {
		t.Run(string(tt.resolution), func(t *testing.T) {
			if got := tt.resolution.StatusAfter(); got != tt.want {
				t.Errorf("StatusAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAgeGroupRequiresGuardian(t *testing.T) {
	for _, ag := range AgeGroups {
		want := ag == AgeChild
		if got := ag.RequiresGuardian(); got != want {
			t.Errorf("%s.RequiresGuardian() = %v, want %v", ag, got, want)
		}
	}
}

func TestProfileUpdateApply(t *testing.T) {
	base := UserProfile{
		UserID:        "u1",
		DisplayName:   "Sam",
		AgeGroup:      AgeTeen,
		SelectedGoals: []TherapeuticGoal{GoalCommunication},
	}

	name := "Samantha"
	got := ProfileUpdate{DisplayName: &name}.Apply(base)

	if got.DisplayName != "Samantha" {
		t.Errorf("DisplayName = %q, want Samantha", got.DisplayName)
	}
	if got.AgeGroup != AgeTeen {
		t.Errorf("AgeGroup changed to %q", got.AgeGroup)
	}
	if len(got.SelectedGoals) != 1 {
		t.Errorf("SelectedGoals changed to %v", got.SelectedGoals)
	}
	if base.DisplayName != "Sam" {
		t.Error("Apply mutated its input")
	}

	if !(ProfileUpdate{}).IsEmpty() {
		t.Error("zero ProfileUpdate should be empty")
	}
	if (ProfileUpdate{DisplayName: &name}).IsEmpty() {
		t.Error("ProfileUpdate with a name should not be empty")
	}
}

func TestSessionCompletionApply(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	stress := 3
	session := ActivitySession{
		ActivityType:      ActivityBreathingExercise,
		StartedAt:         start,
		MoodBefore:        MoodNervous,
		StressLevelBefore: &stress,
	}

	score := 80
	after := 2
	done := SessionCompletion{
		CompletedAt:      start.Add(5 * time.Minute),
		Score:            &score,
		MoodAfter:        MoodCalm,
		StressLevelAfter: &after,
	}.Apply(session)

	if !done.IsCompleted() {
		t.Fatal("session should be completed")
	}
	if *done.Score != 80 || done.MoodAfter != MoodCalm || *done.StressLevelAfter != 2 {
		t.Errorf("completion fields not applied: %+v", done)
	}
	if done.MoodBefore != MoodNervous || *done.StressLevelBefore != 3 {
		t.Errorf("pre-activity fields changed: %+v", done)
	}
	if session.IsCompleted() {
		t.Error("Apply mutated its input")
	}
}

func TestProgressUpdateApply(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	p := SkillProgress{
		CurrentLevel:      2,
		SessionsCompleted: 4,
		MilestonesReached: []string{"first"},
	}

	level := 3
	sessions := 5
	got := ProgressUpdate{
		CurrentLevel:      &level,
		SessionsCompleted: &sessions,
		NewMilestones:     []string{"second"},
	}.Apply(p, now)

	if got.CurrentLevel != 3 || got.SessionsCompleted != 5 {
		t.Errorf("scalar fields not applied: %+v", got)
	}
	if len(got.MilestonesReached) != 2 || got.MilestonesReached[1] != "second" {
		t.Errorf("MilestonesReached = %v", got.MilestonesReached)
	}
	if got.LastMilestoneDate == nil || !got.LastMilestoneDate.Equal(now) {
		t.Errorf("LastMilestoneDate = %v, want %v", got.LastMilestoneDate, now)
	}
	if !got.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, now)
	}
	if len(p.MilestonesReached) != 1 {
		t.Error("Apply mutated its input")
	}
}

func TestDataConflictIsResolved(t *testing.T) {
	c := DataConflict{ID: "c1"}
	if c.IsResolved() {
		t.Error("new conflict should be unresolved")
	}
	now := time.Now()
	c.Resolution = ResolutionMerged
	c.ResolvedAt = &now
	if !c.IsResolved() {
		t.Error("conflict with resolution metadata should be resolved")
	}
}
