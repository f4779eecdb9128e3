package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	SyncStatusInProgress = "in_progress"
	SyncStatusCompleted  = "completed"
	SyncStatusFailed     = "failed"
)

// SyncStatus tracks the outcome of the last sync of a username
type SyncStatus struct {
	Username           string    `json:"username"`
	Status             string    `json:"status"`
	RunID              string    `json:"run_id"`
	LastSyncAt         time.Time `json:"last_sync_at"`
	LastError          string    `json:"last_error,omitempty"`
	IsSyncing          bool      `json:"is_syncing"`
	RepositoryCount    int       `json:"repository_count"`
	Fingerprint        string    `json:"fingerprint"`
	ContentFingerprint string    `json:"content_fingerprint"`
	SyncDuration       int64     `json:"sync_duration"`
	StartTime          time.Time `json:"start_time,omitempty"`
}

// SyncResult is what a successful sync hands back to its caller
type SyncResult struct {
	RunID        string         `json:"run_id"`
	Profile      *UserProfile   `json:"profile"`
	Repositories *RepositorySet `json:"repositories"`
	// Changed is true when the content differs from the previous successful sync
	Changed bool `json:"changed"`
}

// BatchProgress tracks the progress of a SyncAll run
type BatchProgress struct {
	TotalItems        int       `json:"total_items"`
	ProcessedItems    int       `json:"processed_items"`
	FailedItems       int       `json:"failed_items"`
	LastProcessedItem string    `json:"last_processed_item"`
	StartTime         time.Time `json:"start_time"`
	LastUpdateTime    time.Time `json:"last_update_time"`
}

// String returns the JSON string representation of the sync status
func (s *SyncStatus) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal sync status: %v"}`, err)
	}
	return string(data)
}
