package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"buddybot/internal/models"
)

const exportVersion = "1.0"

// ExportData is the document a user receives when exporting their data
type ExportData struct {
	Version      string                     `json:"version"`
	ExportedAt   time.Time                  `json:"exported_at"`
	Profile      models.UserProfile         `json:"profile"`
	Sessions     []SessionExport            `json:"sessions"`
	Progress     []models.SkillProgress     `json:"progress"`
	Messages     []models.ChatMessage       `json:"messages"`
	Achievements []models.Achievement       `json:"achievements"`
	Settings     map[string]json.RawMessage `json:"settings"`
}

// SessionExport is a session with its item results
type SessionExport struct {
	models.ActivitySession
	Results []models.ActivityResult `json:"results"`
}

// ExportService writes a user's data as a single JSON document
type ExportService struct {
	stores   Stores
	settings *SettingsService
	logger   *slog.Logger
	now      func() time.Time
}

// NewExportService creates a new export service
func NewExportService(stores Stores, settings *SettingsService, logger *slog.Logger) *ExportService {
	return &ExportService{
		stores:   stores,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Export writes every record of userID to w. It is refused when the
// user's privacy settings do not allow data export.
func (s *ExportService) Export(ctx context.Context, userID string, w io.Writer) error {
	data, err := s.collect(ctx, userID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	s.logger.Info("user data exported",
		"user_id", userID,
		"sessions", len(data.Sessions),
		"progress", len(data.Progress),
		"messages", len(data.Messages),
		"achievements", len(data.Achievements))
	return nil
}

// ExportToFile writes the export of userID to outputPath
func (s *ExportService) ExportToFile(ctx context.Context, userID, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := s.Export(ctx, userID, file); err != nil {
		file.Close()
		os.Remove(outputPath)
		return err
	}
	return file.Close()
}

func (s *ExportService) collect(ctx context.Context, userID string) (*ExportData, error) {
	profile, err := s.stores.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if !profile.PrivacySettings.AllowDataExport {
		return nil, ErrExportNotAllowed
	}

	data := &ExportData{
		Version:    exportVersion,
		ExportedAt: s.now(),
		Profile:    *profile,
	}

	sessions, err := s.stores.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}
	data.Sessions = make([]SessionExport, 0, len(sessions))
	for _, sess := range sessions {
		results, err := s.stores.Results.ListBySession(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export results: %w", err)
		}
		if results == nil {
			results = []models.ActivityResult{}
		}
		data.Sessions = append(data.Sessions, SessionExport{ActivitySession: sess, Results: results})
	}

	if data.Progress, err = s.stores.Progress.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	if data.Messages, err = s.stores.Messages.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to export messages: %w", err)
	}
	if data.Achievements, err = s.stores.Achievements.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to export achievements: %w", err)
	}
	if data.Settings, err = s.settings.ExportUserData(ctx); err != nil {
		return nil, fmt.Errorf("failed to export settings: %w", err)
	}
	return data, nil
}
