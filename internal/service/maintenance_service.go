package service

import (
	"context"
	"log/slog"
	"time"

	"buddybot/internal/repository"
)

// MaintenanceService prunes the audit tables and reports their size
type MaintenanceService struct {
	repo          *repository.MaintenanceRepository
	retentionDays int
	logger        *slog.Logger
	now           func() time.Time
}

// NewMaintenanceService creates a maintenance service that keeps
// retentionDays of history by default
func NewMaintenanceService(repo *repository.MaintenanceRepository, retentionDays int, logger *slog.Logger) *MaintenanceService {
	return &MaintenanceService{
		repo:          repo,
		retentionDays: retentionDays,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CleanOldRecords deletes sync log entries and resolved errors older than
// retentionDays. A non-positive value uses the configured default.
func (s *MaintenanceService) CleanOldRecords(ctx context.Context, retentionDays int) (repository.PurgeResult, error) {
	if retentionDays <= 0 {
		retentionDays = s.retentionDays
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	res, err := s.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return res, err
	}
	s.logger.Info("cleaned old records",
		"retention_days", retentionDays,
		"sync_log_deleted", res.SyncLogDeleted,
		"error_log_deleted", res.ErrorLogDeleted)
	return res, nil
}

// Stats returns the row count of every table
func (s *MaintenanceService) Stats(ctx context.Context) (map[string]int64, error) {
	return s.repo.TableCounts(ctx)
}
