package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"buddybot/internal/models"
	"buddybot/internal/repository"
	"buddybot/internal/security"
)

// Settings keys. Values are stored JSON encoded.
const (
	KeyUserID                = "user_id"
	KeyCloudUserID           = "cloud_user_id"
	KeyAuthToken             = "auth_token"
	KeyDeviceID              = "device_id"
	KeyBiometricEnabled      = "biometric_enabled"
	KeySyncEnabled           = "sync_enabled"
	KeyLastSyncTimestamp     = "last_sync_timestamp"
	KeyOfflineChangesCount   = "offline_changes_count"
	KeySyncRetryCount        = "sync_retry_count"
	KeyAccessibilitySettings = "accessibility_settings"
	KeyThemePreferences      = "theme_preferences"
	KeyAvatarConfig          = "avatar_config"
	KeyNotificationSettings  = "notification_settings"
	KeyOnboardingCompleted   = "onboarding_completed"
	KeyCurrentSession        = "current_session"
	KeySelectedGoals         = "selected_goals"
	KeyRecentActivities      = "recent_activities"
	KeyCurrentStreak         = "current_streak"
	KeyLastActivityDate      = "last_activity_date"
	KeyAppVersion            = "app_version"
	KeyFirstLaunch           = "first_launch"
	KeyPrivacyPolicyAccepted = "privacy_policy_accepted"
)

// maxRecentActivities is how many entries the recent activities list keeps
const maxRecentActivities = 10

// keys that survive ClearUserData
var deviceKeys = []string{KeyDeviceID, KeyAppVersion, KeyFirstLaunch}

// SettingsService gives typed access to the key/value settings table
type SettingsService struct {
	repo   *repository.SettingsRepository
	logger *slog.Logger

	// mu serializes read-modify-write updates of counters and lists
	mu sync.Mutex
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo *repository.SettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{repo: repo, logger: logger}
}

// getJSON decodes key into out. found is false when the key is unset. A
// value that no longer decodes is logged and reported as unset.
func (s *SettingsService) getJSON(ctx context.Context, key string, out any) (found bool, err error) {
	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("discarding unreadable setting", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *SettingsService) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	return s.repo.Set(ctx, key, string(b))
}

func (s *SettingsService) getString(ctx context.Context, key string) (string, error) {
	var v string
	_, err := s.getJSON(ctx, key, &v)
	return v, err
}

func (s *SettingsService) getBool(ctx context.Context, key string, def bool) (bool, error) {
	v := def
	if _, err := s.getJSON(ctx, key, &v); err != nil {
		return def, err
	}
	return v, nil
}

func (s *SettingsService) getInt(ctx context.Context, key string) (int, error) {
	var v int
	_, err := s.getJSON(ctx, key, &v)
	return v, err
}

// UserID returns the local user id, or "" before onboarding
func (s *SettingsService) UserID(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyUserID)
}

func (s *SettingsService) SetUserID(ctx context.Context, userID string) error {
	return s.setJSON(ctx, KeyUserID, userID)
}

// DeviceID returns the device id, generating and storing one on first use
func (s *SettingsService) DeviceID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.getString(ctx, KeyDeviceID)
	if err != nil || id != "" {
		return id, err
	}
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate device id: %w", err)
	}
	if err := s.setJSON(ctx, KeyDeviceID, u.String()); err != nil {
		return "", err
	}
	s.logger.Info("generated device id", "device_id", u.String())
	return u.String(), nil
}

// SetDeviceID pins the device id, e.g. from configuration
func (s *SettingsService) SetDeviceID(ctx context.Context, id string) error {
	return s.setJSON(ctx, KeyDeviceID, id)
}

// SetAuthToken stores the cloud token and, when the access token is a JWT
// with a subject, the cloud user id it names. It returns that id, or "".
// Nothing is stored for a nil token or one without an access token.
func (s *SettingsService) SetAuthToken(ctx context.Context, tok *oauth2.Token) (string, error) {
	if tok == nil || tok.AccessToken == "" {
		return "", ErrMissingToken
	}
	if err := s.setJSON(ctx, KeyAuthToken, tok); err != nil {
		return "", err
	}
	sub, err := security.TokenSubject(tok.AccessToken)
	if err != nil {
		s.logger.Debug("access token carries no usable subject", "error", err)
		return "", nil
	}
	if err := s.setJSON(ctx, KeyCloudUserID, sub); err != nil {
		return "", err
	}
	return sub, nil
}

// AuthToken returns the stored cloud token, or nil when signed out
func (s *SettingsService) AuthToken(ctx context.Context) (*oauth2.Token, error) {
	var tok oauth2.Token
	found, err := s.getJSON(ctx, KeyAuthToken, &tok)
	if err != nil || !found {
		return nil, err
	}
	return &tok, nil
}

// CloudUserID returns the id derived from the last stored token
func (s *SettingsService) CloudUserID(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyCloudUserID)
}

// SignOut forgets the token and the cloud user id
func (s *SettingsService) SignOut(ctx context.Context) error {
	if err := s.repo.Delete(ctx, KeyAuthToken); err != nil {
		return err
	}
	return s.repo.Delete(ctx, KeyCloudUserID)
}

func (s *SettingsService) BiometricEnabled(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyBiometricEnabled, false)
}

func (s *SettingsService) SetBiometricEnabled(ctx context.Context, enabled bool) error {
	return s.setJSON(ctx, KeyBiometricEnabled, enabled)
}

// SyncEnabled defaults to true
func (s *SettingsService) SyncEnabled(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeySyncEnabled, true)
}

func (s *SettingsService) SetSyncEnabled(ctx context.Context, enabled bool) error {
	return s.setJSON(ctx, KeySyncEnabled, enabled)
}

// LastSyncTimestamp returns nil when the device has never synced
func (s *SettingsService) LastSyncTimestamp(ctx context.Context) (*time.Time, error) {
	var t time.Time
	found, err := s.getJSON(ctx, KeyLastSyncTimestamp, &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (s *SettingsService) SetLastSyncTimestamp(ctx context.Context, t time.Time) error {
	return s.setJSON(ctx, KeyLastSyncTimestamp, t.UTC())
}

// OfflineChanges returns the number of local writes since the last sync
func (s *SettingsService) OfflineChanges(ctx context.Context) (int, error) {
	return s.getInt(ctx, KeyOfflineChangesCount)
}

// IncrementOfflineChanges bumps the offline change counter and returns the
// new value
func (s *SettingsService) IncrementOfflineChanges(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.getInt(ctx, KeyOfflineChangesCount)
	if err != nil {
		return 0, err
	}
	n++
	if err := s.setJSON(ctx, KeyOfflineChangesCount, n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SettingsService) ResetOfflineChanges(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setJSON(ctx, KeyOfflineChangesCount, 0)
}

func (s *SettingsService) SyncRetryCount(ctx context.Context) (int, error) {
	return s.getInt(ctx, KeySyncRetryCount)
}

func (s *SettingsService) SetSyncRetryCount(ctx context.Context, n int) error {
	return s.setJSON(ctx, KeySyncRetryCount, n)
}

// AccessibilitySettings returns the stored settings or the defaults
func (s *SettingsService) AccessibilitySettings(ctx context.Context) (models.AccessibilitySettings, error) {
	v := models.DefaultAccessibilitySettings()
	if _, err := s.getJSON(ctx, KeyAccessibilitySettings, &v); err != nil {
		return models.DefaultAccessibilitySettings(), err
	}
	return v, nil
}

func (s *SettingsService) SetAccessibilitySettings(ctx context.Context, v models.AccessibilitySettings) error {
	return s.setJSON(ctx, KeyAccessibilitySettings, v)
}

// UpdateAccessibilityForAge applies the defaults of an age bracket to the
// stored accessibility settings
func (s *SettingsService) UpdateAccessibilityForAge(ctx context.Context, ageGroup models.AgeGroup) (models.AccessibilitySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.AccessibilitySettings(ctx)
	if err != nil {
		return cur, err
	}
	next := models.AccessibilityForAge(cur, ageGroup)
	if err := s.SetAccessibilitySettings(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

func (s *SettingsService) ThemePreferences(ctx context.Context) (models.ThemePreferences, error) {
	v := models.DefaultThemePreferences()
	if _, err := s.getJSON(ctx, KeyThemePreferences, &v); err != nil {
		return models.DefaultThemePreferences(), err
	}
	return v, nil
}

func (s *SettingsService) SetThemePreferences(ctx context.Context, v models.ThemePreferences) error {
	return s.setJSON(ctx, KeyThemePreferences, v)
}

func (s *SettingsService) AvatarConfig(ctx context.Context) (models.AvatarConfig, error) {
	v := models.DefaultAvatarConfig()
	if _, err := s.getJSON(ctx, KeyAvatarConfig, &v); err != nil {
		return models.DefaultAvatarConfig(), err
	}
	return v, nil
}

func (s *SettingsService) SetAvatarConfig(ctx context.Context, v models.AvatarConfig) error {
	return s.setJSON(ctx, KeyAvatarConfig, v)
}

func (s *SettingsService) NotificationSettings(ctx context.Context) (models.NotificationSettings, error) {
	v := models.DefaultNotificationSettings()
	if _, err := s.getJSON(ctx, KeyNotificationSettings, &v); err != nil {
		return models.DefaultNotificationSettings(), err
	}
	return v, nil
}

func (s *SettingsService) SetNotificationSettings(ctx context.Context, v models.NotificationSettings) error {
	return s.setJSON(ctx, KeyNotificationSettings, v)
}

func (s *SettingsService) OnboardingCompleted(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyOnboardingCompleted, false)
}

func (s *SettingsService) SetOnboardingCompleted(ctx context.Context, done bool) error {
	return s.setJSON(ctx, KeyOnboardingCompleted, done)
}

// CurrentSession returns the saved app session, or nil
func (s *SettingsService) CurrentSession(ctx context.Context) (*models.SessionState, error) {
	var st models.SessionState
	found, err := s.getJSON(ctx, KeyCurrentSession, &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

func (s *SettingsService) SetCurrentSession(ctx context.Context, st models.SessionState) error {
	return s.setJSON(ctx, KeyCurrentSession, st)
}

func (s *SettingsService) ClearCurrentSession(ctx context.Context) error {
	return s.repo.Delete(ctx, KeyCurrentSession)
}

func (s *SettingsService) SelectedGoals(ctx context.Context) ([]models.TherapeuticGoal, error) {
	goals := []models.TherapeuticGoal{}
	if _, err := s.getJSON(ctx, KeySelectedGoals, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (s *SettingsService) SetSelectedGoals(ctx context.Context, goals []models.TherapeuticGoal) error {
	if goals == nil {
		goals = []models.TherapeuticGoal{}
	}
	return s.setJSON(ctx, KeySelectedGoals, goals)
}

// RecentActivities returns the recent list, oldest first
func (s *SettingsService) RecentActivities(ctx context.Context) ([]models.RecentActivity, error) {
	list := []models.RecentActivity{}
	if _, err := s.getJSON(ctx, KeyRecentActivities, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddRecentActivity appends a to the recent list. An earlier entry of the
// same activity type is dropped, and only the newest entries are kept.
func (s *SettingsService) AddRecentActivity(ctx context.Context, a models.RecentActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.RecentActivities(ctx)
	if err != nil {
		return err
	}
	out := make([]models.RecentActivity, 0, len(list)+1)
	for _, r := range list {
		if r.ActivityType != a.ActivityType {
			out = append(out, r)
		}
	}
	out = append(out, a)
	if len(out) > maxRecentActivities {
		out = out[len(out)-maxRecentActivities:]
	}
	return s.setJSON(ctx, KeyRecentActivities, out)
}

// Streak returns the stored streak and the civil date of the last activity
func (s *SettingsService) Streak(ctx context.Context) (streak int, lastDate string, err error) {
	if streak, err = s.getInt(ctx, KeyCurrentStreak); err != nil {
		return 0, "", err
	}
	if lastDate, err = s.getString(ctx, KeyLastActivityDate); err != nil {
		return 0, "", err
	}
	return streak, lastDate, nil
}

// SetStreak stores the streak and its date together
func (s *SettingsService) SetStreak(ctx context.Context, streak int, date string) error {
	streakJSON, err := json.Marshal(streak)
	if err != nil {
		return err
	}
	dateJSON, err := json.Marshal(date)
	if err != nil {
		return err
	}
	return s.repo.SetMany(ctx, map[string]string{
		KeyCurrentStreak:    string(streakJSON),
		KeyLastActivityDate: string(dateJSON),
	})
}

func (s *SettingsService) AppVersion(ctx context.Context) (string, error) {
	return s.getString(ctx, KeyAppVersion)
}

func (s *SettingsService) SetAppVersion(ctx context.Context, version string) error {
	return s.setJSON(ctx, KeyAppVersion, version)
}

// FirstLaunch is true until SetFirstLaunch(false) is called
func (s *SettingsService) FirstLaunch(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyFirstLaunch, true)
}

func (s *SettingsService) SetFirstLaunch(ctx context.Context, first bool) error {
	return s.setJSON(ctx, KeyFirstLaunch, first)
}

func (s *SettingsService) PrivacyPolicyAccepted(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyPrivacyPolicyAccepted, false)
}

func (s *SettingsService) SetPrivacyPolicyAccepted(ctx context.Context, accepted bool) error {
	return s.setJSON(ctx, KeyPrivacyPolicyAccepted, accepted)
}

// ExportUserData returns every stored setting except the auth token.
// Values are returned as stored.
func (s *SettingsService) ExportUserData(ctx context.Context) (map[string]json.RawMessage, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(all))
	for k, v := range all {
		if k == KeyAuthToken {
			continue
		}
		if !json.Valid([]byte(v)) {
			s.logger.Warn("skipping unreadable setting in export", "key", k)
			continue
		}
		out[k] = json.RawMessage(v)
	}
	return out, nil
}

// ClearUserData removes every setting except those identifying the device
// and install
func (s *SettingsService) ClearUserData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteAllExcept(ctx, deviceKeys...); err != nil {
		return err
	}
	s.logger.Info("cleared user settings")
	return nil
}
