package models

import "time"

// SyncStatus is the per-record replication state
type SyncStatus string

const (
	SyncPending  SyncStatus = "pending"
	SyncSynced   SyncStatus = "synced"
	SyncConflict SyncStatus = "conflict"
	SyncError    SyncStatus = "error"
)

// Valid reports whether s is a known status
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncPending, SyncSynced, SyncConflict, SyncError:
		return true
	}
	return false
}

// SyncFields is embedded in every syncable record
type SyncFields struct {
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	SyncedAt   *time.Time `json:"syncedAt,omitempty"`
	SyncStatus SyncStatus `json:"syncStatus"`
}

// SyncOperationType identifies the direction of a sync attempt
type SyncOperationType string

const (
	SyncPush            SyncOperationType = "push"
	SyncPull            SyncOperationType = "pull"
	SyncConflictResolve SyncOperationType = "conflict_resolve"
)

// SyncOperationStatus is the outcome of a sync attempt
type SyncOperationStatus string

const (
	OperationPending    SyncOperationStatus = "pending"
	OperationInProgress SyncOperationStatus = "in_progress"
	OperationSuccess    SyncOperationStatus = "success"
	OperationFailed     SyncOperationStatus = "failed"
	OperationPartial    SyncOperationStatus = "partial"
)

// SyncOperation is one row of the sync audit log
type SyncOperation struct {
	ID                string              `json:"id"`
	OperationType     SyncOperationType   `json:"operationType"`
	TableName         string              `json:"tableName"`
	RecordsProcessed  int                 `json:"recordsProcessed"`
	RecordsSucceeded  int                 `json:"recordsSucceeded"`
	RecordsFailed     int                 `json:"recordsFailed"`
	BytesTransferred  int64               `json:"bytesTransferred"`
	StartedAt         time.Time           `json:"startedAt"`
	CompletedAt       *time.Time          `json:"completedAt,omitempty"`
	DurationMs        *int                `json:"durationMs,omitempty"`
	Status            SyncOperationStatus `json:"status"`
	ErrorCode         string              `json:"errorCode,omitempty"`
	ErrorMessage      string              `json:"errorMessage,omitempty"`
	ConflictsDetected int                 `json:"conflictsDetected"`
	ConflictsResolved int                 `json:"conflictsResolved"`
	UserID            string              `json:"userId,omitempty"`
	DeviceID          string              `json:"deviceId,omitempty"`
}

// ConflictType classifies a divergence between local and cloud copies
type ConflictType string

const (
	ConflictUpdate        ConflictType = "update_conflict"
	ConflictDelete        ConflictType = "delete_conflict"
	ConflictFieldMismatch ConflictType = "field_mismatch"
)

// ConflictResolution records which side won
type ConflictResolution string

const (
	ResolutionLocalWins ConflictResolution = "local_wins"
	ResolutionCloudWins ConflictResolution = "cloud_wins"
	ResolutionMerged    ConflictResolution = "merged"
)

// Valid reports whether r is a known resolution
func (r ConflictResolution) Valid() bool {
	switch r {
	case ResolutionLocalWins, ResolutionCloudWins, ResolutionMerged:
		return true
	}
	return false
}

// StatusAfter is the sync status a record takes once the conflict is
// resolved. A cloud win means the local row already matches the remote.
func (r ConflictResolution) StatusAfter() SyncStatus {
	if r == ResolutionCloudWins {
		return SyncSynced
	}
	return SyncPending
}

// DataConflict holds both versions of a diverged record until it is resolved
type DataConflict struct {
	ID             string             `json:"id"`
	TableName      string             `json:"tableName"`
	RecordID       string             `json:"recordId"`
	ConflictType   ConflictType       `json:"conflictType"`
	LocalRecord    map[string]any     `json:"localRecord,omitempty"`
	CloudRecord    map[string]any     `json:"cloudRecord,omitempty"`
	LocalTimestamp *time.Time         `json:"localTimestamp,omitempty"`
	CloudTimestamp *time.Time         `json:"cloudTimestamp,omitempty"`
	DetectedAt     time.Time          `json:"detectedAt"`
	Resolution     ConflictResolution `json:"resolution,omitempty"`
	ResolvedAt     *time.Time         `json:"resolvedAt,omitempty"`
}

// IsResolved reports whether resolution metadata has been recorded
func (c DataConflict) IsResolved() bool {
	return c.Resolution != "" && c.ResolvedAt != nil
}
