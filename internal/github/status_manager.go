package github

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kamar-Folarin/repo-tracker/internal/db"
	"github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// StatusManagerImpl implements the StatusManager interface on top of the
// store, with an in-memory cache that also holds syncs still in flight
type StatusManagerImpl struct {
	store db.Store
	mu    sync.RWMutex
	cache map[string]*models.SyncStatus
}

// NewStatusManager creates a new status manager
func NewStatusManager(store db.Store) StatusManager {
	return &StatusManagerImpl{
		store: store,
		cache: make(map[string]*models.SyncStatus),
	}
}

// GetStatus retrieves the sync status for a username
func (m *StatusManagerImpl) GetStatus(ctx context.Context, username string) (*models.SyncStatus, error) {
	m.mu.RLock()
	if status, exists := m.cache[username]; exists {
		m.mu.RUnlock()
		return copyStatus(status), nil
	}
	m.mu.RUnlock()

	status, err := m.StoredStatus(ctx, username)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("sync status not found for user: %s", username), nil)
	}

	m.mu.Lock()
	if _, exists := m.cache[username]; !exists {
		m.cache[username] = copyStatus(status)
	}
	m.mu.Unlock()

	return status, nil
}

// StoredStatus reads the persisted status, bypassing the cache
func (m *StatusManagerImpl) StoredStatus(ctx context.Context, username string) (*models.SyncStatus, error) {
	status, err := m.store.GetSyncStatus(ctx, username)
	if err != nil {
		return nil, errors.NewStoreError("failed to get sync status", err)
	}
	return status, nil
}

// UpdateStatus updates the sync status for a username
func (m *StatusManagerImpl) UpdateStatus(ctx context.Context, status *models.SyncStatus) error {
	if status == nil {
		return errors.NewValidationError("status cannot be nil", nil)
	}
	if status.Username == "" {
		return errors.NewValidationError("username cannot be empty", nil)
	}

	if err := m.store.UpdateSyncStatus(ctx, status); err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	m.mu.Lock()
	m.cache[status.Username] = copyStatus(status)
	m.mu.Unlock()

	return nil
}

// MarkSyncing flags username as syncing. The previous outcome, if cached, is kept.
func (m *StatusManagerImpl) MarkSyncing(username, runID string, start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := &models.SyncStatus{Username: username}
	if cached, exists := m.cache[username]; exists {
		status = copyStatus(cached)
	}
	status.Status = models.SyncStatusInProgress
	status.RunID = runID
	status.IsSyncing = true
	status.StartTime = start
	m.cache[username] = status
}

func (m *StatusManagerImpl) Evict(username string) {
	m.mu.Lock()
	delete(m.cache, username)
	m.mu.Unlock()
}

// DeleteStatus deletes the sync status for a username
func (m *StatusManagerImpl) DeleteStatus(ctx context.Context, username string) error {
	err := m.store.DeleteSyncStatus(ctx, username)
	m.Evict(username)
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.NewStoreError("failed to delete sync status", err)
	}
	return nil
}

// ListStatuses retrieves all persisted sync statuses, overlaid with syncs in flight
func (m *StatusManagerImpl) ListStatuses(ctx context.Context) ([]*models.SyncStatus, error) {
	statuses, err := m.store.ListSyncStatuses(ctx)
	if err != nil {
		return nil, errors.NewStoreError("failed to list sync statuses", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, status := range statuses {
		if cached, exists := m.cache[status.Username]; exists && cached.IsSyncing {
			statuses[i] = copyStatus(cached)
		}
	}

	return statuses, nil
}

func copyStatus(status *models.SyncStatus) *models.SyncStatus {
	c := *status
	return &c
}
