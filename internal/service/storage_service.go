package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"buddybot/internal/database"
	"buddybot/internal/models"
	"buddybot/internal/repository"
	"buddybot/internal/security"
	"buddybot/internal/validation"
)

// Stores bundles the repositories of one database
type Stores struct {
	Profiles     *repository.ProfileRepository
	Sessions     *repository.SessionRepository
	Results      *repository.ResultRepository
	Progress     *repository.ProgressRepository
	Messages     *repository.MessageRepository
	Achievements *repository.AchievementRepository
	Settings     *repository.SettingsRepository
	Sync         *repository.SyncRepository
	ErrorLog     *repository.ErrorLogRepository
	Maintenance  *repository.MaintenanceRepository
}

// NewStores creates every repository over db. Message text is sealed with
// sealer when it is non-nil.
func NewStores(db *database.DB, sealer *security.Sealer) Stores {
	return Stores{
		Profiles:     repository.NewProfileRepository(db),
		Sessions:     repository.NewSessionRepository(db),
		Results:      repository.NewResultRepository(db),
		Progress:     repository.NewProgressRepository(db),
		Messages:     repository.NewMessageRepository(db, sealer),
		Achievements: repository.NewAchievementRepository(db),
		Settings:     repository.NewSettingsRepository(db),
		Sync:         repository.NewSyncRepository(db),
		ErrorLog:     repository.NewErrorLogRepository(db),
		Maintenance:  repository.NewMaintenanceRepository(db),
	}
}

// StorageService is the write path for user records. Every write is
// sanitized, validated, persisted and counted as an offline change.
type StorageService struct {
	stores     Stores
	settings   *SettingsService
	notifier   GuardianNotifier
	streak     *StreakService
	appVersion string
	logger     *slog.Logger
	now        func() time.Time
}

// NewStorageService creates a new storage service
func NewStorageService(stores Stores, settings *SettingsService, notifier GuardianNotifier, appVersion string, logger *slog.Logger) *StorageService {
	return &StorageService{
		stores:     stores,
		settings:   settings,
		notifier:   notifier,
		streak:     NewStreakService(settings, time.Now),
		appVersion: appVersion,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// fail turns a repository error into a service error. Storage failures are
// written to the error log; a failure to do so is only logged.
func (s *StorageService) fail(ctx context.Context, op, userID string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrSessionsDecreased):
		return &Error{Type: models.ErrorValidation, Op: op, Err: err}
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Type: models.ErrorStorage, Op: op, Err: err}
	}

	s.logger.Error("storage operation failed", "op", op, "user_id", userID, "error", err)

	deviceID, _ := s.settings.DeviceID(ctx)
	_, logErr := s.stores.ErrorLog.Log(ctx, models.AppError{
		ErrorType:  models.ErrorStorage,
		ErrorCode:  op,
		Message:    err.Error(),
		UserID:     userID,
		DeviceID:   deviceID,
		AppVersion: s.appVersion,
	})
	if logErr != nil {
		s.logger.Error("failed to record storage error", "op", op, "error", logErr)
	}
	return &Error{Type: models.ErrorStorage, Op: op, Err: err}
}

func (s *StorageService) notFound(op string, err error) error {
	return &Error{Type: models.ErrorStorage, Op: op, Err: err}
}

// changed bumps the offline change counter. A failure is logged: the
// record itself is already stored and still pending.
func (s *StorageService) changed(ctx context.Context) {
	if _, err := s.settings.IncrementOfflineChanges(ctx); err != nil {
		s.logger.Warn("failed to count offline change", "error", err)
	}
}

func (s *StorageService) deviceID(ctx context.Context, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	return s.settings.DeviceID(ctx)
}

// CreateProfile stores the profile of the device user. Unset avatar,
// accessibility and privacy settings take their defaults, with
// accessibility adjusted for the age group.
func (s *StorageService) CreateProfile(ctx context.Context, p models.UserProfile) (*models.UserProfile, error) {
	const op = "create_profile"

	p.DisplayName = validation.SanitizeDisplayName(p.DisplayName)
	p.GuardianEmail = validation.SanitizeEmail(p.GuardianEmail)
	if isZeroAvatar(p.AvatarConfig) {
		p.AvatarConfig = models.DefaultAvatarConfig()
	}
	if p.AccessibilityPreferences == (models.AccessibilitySettings{}) {
		p.AccessibilityPreferences = models.AccessibilityForAge(models.DefaultAccessibilitySettings(), p.AgeGroup)
	}
	if p.PrivacySettings == (models.PrivacySettings{}) {
		p.PrivacySettings = models.DefaultPrivacySettings()
	}
	if p.SelectedGoals == nil {
		p.SelectedGoals = []models.TherapeuticGoal{}
	}

	var err error
	if p.DeviceID, err = s.deviceID(ctx, p.DeviceID); err != nil {
		return nil, s.fail(ctx, op, p.UserID, err)
	}

	if r := validation.ValidateUserProfile(p); !r.Valid {
		return nil, validationError(op, r)
	}

	created, err := s.stores.Profiles.Create(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, op, p.UserID, err)
	}
	if err := s.settings.SetUserID(ctx, created.UserID); err != nil {
		s.logger.Warn("failed to remember user id", "error", err)
	}
	s.changed(ctx)
	s.logger.Info("profile created", "user_id", created.UserID, "age_group", created.AgeGroup)
	return created, nil
}

func isZeroAvatar(a models.AvatarConfig) bool {
	return a.BodyType == "" && a.PrimaryColor == "" && a.Name == "" &&
		len(a.Accessories) == 0 && len(a.Expressions) == 0
}

// GetProfile returns the profile of userID, or nil
func (s *StorageService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.stores.Profiles.GetByUserID(ctx, userID)
}

// UpdateProfile applies a partial update after validating the result
func (s *StorageService) UpdateProfile(ctx context.Context, userID string, u models.ProfileUpdate) (*models.UserProfile, error) {
	const op = "update_profile"

	if u.DisplayName != nil {
		v := validation.SanitizeDisplayName(*u.DisplayName)
		u.DisplayName = &v
	}
	if u.GuardianEmail != nil {
		v := validation.SanitizeEmail(*u.GuardianEmail)
		u.GuardianEmail = &v
	}

	current, err := s.stores.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, op, userID, err)
	}
	if current == nil {
		return nil, s.notFound(op, ErrProfileNotFound)
	}
	if r := validation.ValidateUserProfile(u.Apply(*current)); !r.Valid {
		return nil, validationError(op, r)
	}

	updated, err := s.stores.Profiles.Update(ctx, userID, u)
	if err != nil {
		return nil, s.fail(ctx, op, userID, err)
	}
	s.changed(ctx)
	return updated, nil
}

// LinkCloudAccount stores the cloud token and, when the token names its
// subject, records it as the profile's cloud user id. It returns that id,
// or "" for an opaque token.
func (s *StorageService) LinkCloudAccount(ctx context.Context, userID string, tok *oauth2.Token) (string, error) {
	const op = "link_cloud_account"

	cloudID, err := s.settings.SetAuthToken(ctx, tok)
	if errors.Is(err, ErrMissingToken) {
		return "", &Error{Type: models.ErrorAuthentication, Op: op, Err: err}
	}
	if err != nil {
		return "", s.fail(ctx, op, userID, err)
	}
	if cloudID == "" {
		return "", nil
	}
	if err := s.stores.Profiles.SetCloudUserID(ctx, userID, cloudID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", s.notFound(op, ErrProfileNotFound)
		}
		return "", s.fail(ctx, op, userID, err)
	}
	s.changed(ctx)
	s.logger.Info("cloud account linked", "user_id", userID)
	return cloudID, nil
}

// ForgetUser strips personal fields from the profile and clears the
// user's settings. Activity history stays, keyed by the anonymous profile.
func (s *StorageService) ForgetUser(ctx context.Context, userID string) error {
	const op = "forget_user"

	if err := s.stores.Profiles.Anonymize(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.notFound(op, ErrProfileNotFound)
		}
		return s.fail(ctx, op, userID, err)
	}
	if err := s.settings.ClearUserData(ctx); err != nil {
		return s.fail(ctx, op, userID, err)
	}
	s.changed(ctx)
	s.logger.Info("user data cleared", "user_id", userID)
	return nil
}

// StartSession stores a new activity session
func (s *StorageService) StartSession(ctx context.Context, sess models.ActivitySession) (*models.ActivitySession, error) {
	const op = "start_session"

	sess.ActivitySubtype = validation.SanitizeUserInput(sess.ActivitySubtype)
	if sess.StartedAt.IsZero() {
		sess.StartedAt = s.now()
	}
	if sess.AppVersion == "" {
		sess.AppVersion = s.appVersion
	}
	var err error
	if sess.DeviceID, err = s.deviceID(ctx, sess.DeviceID); err != nil {
		return nil, s.fail(ctx, op, sess.UserID, err)
	}

	if r := validation.ValidateActivitySession(sess); !r.Valid {
		return nil, validationError(op, r)
	}

	created, err := s.stores.Sessions.Create(ctx, sess)
	if err != nil {
		return nil, s.fail(ctx, op, sess.UserID, err)
	}
	s.changed(ctx)
	return created, nil
}

// CompleteSession records the end of a session. The duration must be
// within the limit for the activity type. The session is added to the
// recent activities list and counts towards the daily streak.
func (s *StorageService) CompleteSession(ctx context.Context, id string, c models.SessionCompletion) (*models.ActivitySession, error) {
	const op = "complete_session"

	current, err := s.stores.Sessions.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, op, "", err)
	}
	if current == nil {
		return nil, s.notFound(op, ErrSessionNotFound)
	}
	if current.CompletedAt != nil {
		return nil, &Error{Type: models.ErrorValidation, Op: op, Err: ErrSessionCompleted}
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = s.now()
	}

	next := c.Apply(*current)
	r := validation.ValidateActivitySession(next)
	if r.Valid {
		seconds := int(c.CompletedAt.Sub(current.StartedAt).Seconds())
		if fr := validation.ValidateActivityDuration(seconds, current.ActivityType); !fr.Valid {
			r = validation.Result{Errors: []validation.ValidationError{{Field: "durationSeconds", Message: fr.Error}}}
		}
	}
	if !r.Valid {
		return nil, validationError(op, r)
	}

	done, err := s.stores.Sessions.Complete(ctx, id, c)
	if err != nil {
		return nil, s.fail(ctx, op, current.UserID, err)
	}
	s.changed(ctx)

	err = s.settings.AddRecentActivity(ctx, models.RecentActivity{
		SessionID:    done.ID,
		ActivityType: done.ActivityType,
		CompletedAt:  *done.CompletedAt,
		Score:        done.Score,
	})
	if err != nil {
		s.logger.Warn("failed to update recent activities", "session_id", done.ID, "error", err)
	}
	if res, err := s.streak.UpdateDailyStreak(ctx); err != nil {
		s.logger.Warn("failed to update daily streak", "session_id", done.ID, "error", err)
	} else if res.IsNewDay {
		s.logger.Info("daily streak updated", "user_id", done.UserID, "streak", res.Streak)
	}
	return done, nil
}

// RecentSessions returns a user's latest sessions, newest first
func (s *StorageService) RecentSessions(ctx context.Context, userID string, limit int) ([]models.ActivitySession, error) {
	return s.stores.Sessions.ListRecent(ctx, userID, limit)
}

// RecordResult stores the outcome of one item within a session
func (s *StorageService) RecordResult(ctx context.Context, res models.ActivityResult) (*models.ActivityResult, error) {
	const op = "record_result"

	res.ItemContent = validation.SanitizeUserInput(res.ItemContent)
	res.UserResponse = validation.SanitizeUserInput(res.UserResponse)
	res.CorrectResponse = validation.SanitizeUserInput(res.CorrectResponse)
	res.MistakeType = validation.SanitizeUserInput(res.MistakeType)
	var err error
	if res.DeviceID, err = s.deviceID(ctx, res.DeviceID); err != nil {
		return nil, s.fail(ctx, op, res.UserID, err)
	}
	if r := validation.ValidateActivityResult(res); !r.Valid {
		return nil, validationError(op, r)
	}

	created, err := s.stores.Results.Create(ctx, res)
	if err != nil {
		return nil, s.fail(ctx, op, res.UserID, err)
	}
	s.changed(ctx)
	return created, nil
}

// SessionResults returns the item results of a session in recorded order
func (s *StorageService) SessionResults(ctx context.Context, sessionID string) ([]models.ActivityResult, error) {
	return s.stores.Results.ListBySession(ctx, sessionID)
}

// RecordProgress creates the progress row of a skill category
func (s *StorageService) RecordProgress(ctx context.Context, p models.SkillProgress) (*models.SkillProgress, error) {
	const op = "record_progress"

	if p.LastUpdated.IsZero() {
		p.LastUpdated = s.now()
	}
	var err error
	if p.DeviceID, err = s.deviceID(ctx, p.DeviceID); err != nil {
		return nil, s.fail(ctx, op, p.UserID, err)
	}
	if r := validation.ValidateSkillProgress(p); !r.Valid {
		return nil, validationError(op, r)
	}

	created, err := s.stores.Progress.Create(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, op, p.UserID, err)
	}
	s.changed(ctx)
	return created, nil
}

// UpdateProgress applies an incremental progress update
func (s *StorageService) UpdateProgress(ctx context.Context, id string, u models.ProgressUpdate) (*models.SkillProgress, error) {
	const op = "update_progress"

	current, err := s.stores.Progress.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, op, "", err)
	}
	if current == nil {
		return nil, s.notFound(op, ErrProgressNotFound)
	}
	if r := validation.ValidateSkillProgress(u.Apply(*current, s.now())); !r.Valid {
		return nil, validationError(op, r)
	}

	updated, err := s.stores.Progress.Update(ctx, id, u)
	if err != nil {
		return nil, s.fail(ctx, op, current.UserID, err)
	}
	s.changed(ctx)
	return updated, nil
}

// Progress returns every skill progress row of a user
func (s *StorageService) Progress(ctx context.Context, userID string) ([]models.SkillProgress, error) {
	return s.stores.Progress.ListByUser(ctx, userID)
}

// SaveMessage stores a chat message. Bot messages are also checked for
// content suitable for the user's age group.
func (s *StorageService) SaveMessage(ctx context.Context, m models.ChatMessage) (*models.ChatMessage, error) {
	const op = "save_message"

	m.MessageText = validation.SanitizeUserInput(m.MessageText)
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}
	var err error
	if m.DeviceID, err = s.deviceID(ctx, m.DeviceID); err != nil {
		return nil, s.fail(ctx, op, m.UserID, err)
	}

	r := validation.ValidateChatMessage(m)
	if r.Valid && m.IsBotMessage {
		profile, err := s.stores.Profiles.GetByUserID(ctx, m.UserID)
		if err != nil {
			return nil, s.fail(ctx, op, m.UserID, err)
		}
		if profile != nil {
			if fr := validation.ValidateAgeAppropriateContent(m.MessageText, profile.AgeGroup); !fr.Valid {
				r = validation.Result{Errors: []validation.ValidationError{{Field: "messageText", Message: fr.Error}}}
			}
		}
	}
	if !r.Valid {
		return nil, validationError(op, r)
	}

	created, err := s.stores.Messages.Create(ctx, m)
	if err != nil {
		return nil, s.fail(ctx, op, m.UserID, err)
	}
	s.changed(ctx)
	return created, nil
}

// Conversation returns the messages of a conversation in order
func (s *StorageService) Conversation(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	return s.stores.Messages.ListByConversation(ctx, conversationID)
}

// AwardAchievement stores an earned badge
func (s *StorageService) AwardAchievement(ctx context.Context, a models.Achievement) (*models.Achievement, error) {
	const op = "award_achievement"

	a.Title = validation.SanitizeUserInput(a.Title)
	a.Description = validation.SanitizeUserInput(a.Description)
	if a.EarnedAt.IsZero() {
		a.EarnedAt = s.now()
	}
	var err error
	if a.DeviceID, err = s.deviceID(ctx, a.DeviceID); err != nil {
		return nil, s.fail(ctx, op, a.UserID, err)
	}
	if r := validation.ValidateAchievement(a); !r.Valid {
		return nil, validationError(op, r)
	}

	created, err := s.stores.Achievements.Create(ctx, a)
	if err != nil {
		return nil, s.fail(ctx, op, a.UserID, err)
	}
	s.changed(ctx)
	return created, nil
}

// Achievements returns a user's badges, newest first
func (s *StorageService) Achievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	return s.stores.Achievements.ListByUser(ctx, userID)
}

// MarkCelebrationShown flags that the badge animation was played
func (s *StorageService) MarkCelebrationShown(ctx context.Context, id string) error {
	if err := s.stores.Achievements.MarkCelebrationShown(ctx, id); err != nil {
		return s.fail(ctx, "mark_celebration_shown", "", err)
	}
	s.changed(ctx)
	return nil
}

// ShareAchievementWithGuardian emails the guardian about a badge and flags
// it as shared. The profile must allow sharing and name a guardian.
func (s *StorageService) ShareAchievementWithGuardian(ctx context.Context, id string) error {
	const op = "share_achievement"

	a, err := s.stores.Achievements.GetByID(ctx, id)
	if err != nil {
		return s.fail(ctx, op, "", err)
	}
	if a == nil {
		return s.notFound(op, ErrAchievementNotFound)
	}
	profile, err := s.stores.Profiles.GetByUserID(ctx, a.UserID)
	if err != nil {
		return s.fail(ctx, op, a.UserID, err)
	}
	if profile == nil {
		return s.notFound(op, ErrProfileNotFound)
	}
	if !profile.PrivacySettings.ShareProgressWithGuardian {
		return &Error{Type: models.ErrorPermission, Op: op, Err: ErrGuardianSharingDisabled}
	}
	if profile.GuardianEmail == "" {
		return &Error{Type: models.ErrorValidation, Op: op, Err: ErrNoGuardianEmail}
	}

	if err := s.notifier.NotifyAchievement(ctx, *profile, *a); err != nil {
		return &Error{Type: models.ErrorNetwork, Op: op, Err: err}
	}
	if err := s.stores.Achievements.MarkSharedWithGuardian(ctx, id); err != nil {
		return s.fail(ctx, op, a.UserID, err)
	}
	s.changed(ctx)
	return nil
}
