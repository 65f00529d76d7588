package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"buddybot/internal/models"
	"buddybot/internal/repository"
)

// PushResult is what the sync client reports after uploading one table
type PushResult struct {
	Table            string
	SyncedIDs        []string
	FailedIDs        []string
	BytesTransferred int64
	StartedAt        time.Time
	ErrorCode        string
	ErrorMessage     string
	UserID           string
}

// SyncService records the outcome of sync runs
type SyncService struct {
	sync     *repository.SyncRepository
	settings *SettingsService
	logger   *slog.Logger
	now      func() time.Time
}

// NewSyncService creates a new sync service
func NewSyncService(syncRepo *repository.SyncRepository, settings *SettingsService, logger *slog.Logger) *SyncService {
	return &SyncService{
		sync:     syncRepo,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Unsynced returns the rows of table still waiting to be pushed
func (s *SyncService) Unsynced(ctx context.Context, table string) ([]map[string]any, error) {
	return s.sync.UnsyncedRecords(ctx, table)
}

// CompletePush applies a push outcome: synced ids are marked synced,
// failed ids are marked error, the attempt is logged, and the offline
// counter is reset once nothing is left pending
func (s *SyncService) CompletePush(ctx context.Context, r PushResult) (*models.SyncOperation, error) {
	synced, err := s.sync.MarkAsSynced(ctx, r.Table, r.SyncedIDs)
	if err != nil {
		return nil, err
	}
	failed, err := s.sync.MarkAsError(ctx, r.Table, r.FailedIDs)
	if err != nil {
		return nil, err
	}

	deviceID, err := s.settings.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	completed := s.now()
	started := r.StartedAt
	if started.IsZero() {
		started = completed
	}
	op, err := s.sync.LogOperation(ctx, models.SyncOperation{
		OperationType:    models.SyncPush,
		TableName:        r.Table,
		RecordsProcessed: len(r.SyncedIDs) + len(r.FailedIDs),
		RecordsSucceeded: int(synced),
		RecordsFailed:    len(r.FailedIDs),
		BytesTransferred: r.BytesTransferred,
		StartedAt:        started,
		CompletedAt:      &completed,
		Status:           pushStatus(len(r.SyncedIDs), len(r.FailedIDs)),
		ErrorCode:        r.ErrorCode,
		ErrorMessage:     r.ErrorMessage,
		UserID:           r.UserID,
		DeviceID:         deviceID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.settings.SetLastSyncTimestamp(ctx, completed); err != nil {
		return nil, err
	}
	pending, err := s.sync.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		if err := s.settings.ResetOfflineChanges(ctx); err != nil {
			return nil, err
		}
	}

	s.logger.Info("push completed",
		"table", r.Table, "synced", synced, "failed", failed, "pending", pending, "status", op.Status)
	return op, nil
}

func pushStatus(succeeded, failed int) models.SyncOperationStatus {
	switch {
	case failed == 0:
		return models.OperationSuccess
	case succeeded == 0:
		return models.OperationFailed
	default:
		return models.OperationPartial
	}
}

// RecordConflict stores a conflict reported by the sync client
func (s *SyncService) RecordConflict(ctx context.Context, c models.DataConflict) (*models.DataConflict, error) {
	out, err := s.sync.RecordConflict(ctx, c)
	if err != nil {
		return nil, err
	}
	s.logger.Warn("sync conflict recorded", "table", c.TableName, "record_id", c.RecordID, "type", c.ConflictType)
	return out, nil
}

// ResolveConflict resolves a conflict and logs the resolution as a sync
// operation
func (s *SyncService) ResolveConflict(ctx context.Context, conflictID string, resolution models.ConflictResolution) (*models.DataConflict, error) {
	started := s.now()
	c, err := s.sync.ResolveConflict(ctx, conflictID, resolution)
	if err != nil {
		return nil, err
	}

	deviceID, err := s.settings.DeviceID(ctx)
	if err != nil {
		return nil, err
	}
	completed := s.now()
	_, err = s.sync.LogOperation(ctx, models.SyncOperation{
		OperationType:     models.SyncConflictResolve,
		TableName:         c.TableName,
		RecordsProcessed:  1,
		RecordsSucceeded:  1,
		StartedAt:         started,
		CompletedAt:       &completed,
		Status:            models.OperationSuccess,
		ConflictsResolved: 1,
		DeviceID:          deviceID,
	})
	if err != nil {
		return nil, fmt.Errorf("conflict resolved but not logged: %w", err)
	}
	return c, nil
}

func (s *SyncService) OpenConflicts(ctx context.Context) ([]models.DataConflict, error) {
	return s.sync.OpenConflicts(ctx)
}

func (s *SyncService) RecentOperations(ctx context.Context, limit int) ([]models.SyncOperation, error) {
	return s.sync.RecentOperations(ctx, limit)
}

// Status summarizes the local sync state
type Status struct {
	Enabled        bool
	LastSync       *time.Time
	OfflineChanges int
	Pending        int
}

// Status reports whether sync is on, when it last ran and what is queued
func (s *SyncService) Status(ctx context.Context) (Status, error) {
	var st Status
	var err error
	if st.Enabled, err = s.settings.SyncEnabled(ctx); err != nil {
		return st, err
	}
	if st.LastSync, err = s.settings.LastSyncTimestamp(ctx); err != nil {
		return st, err
	}
	if st.OfflineChanges, err = s.settings.OfflineChanges(ctx); err != nil {
		return st, err
	}
	if st.Pending, err = s.sync.PendingCount(ctx); err != nil {
		return st, err
	}
	return st, nil
}
