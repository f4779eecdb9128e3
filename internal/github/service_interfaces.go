package github

import (
	"context"
	"time"

	"github.com/Kamar-Folarin/repo-tracker/internal/models"
	"github.com/Kamar-Folarin/repo-tracker/internal/snapshot"
)

// RemoteSource is the read side of the GitHub API used by the sync service.
// *Client implements it.
type RemoteSource interface {
	// FetchProfile gets the public profile of a user
	FetchProfile(ctx context.Context, username string) (*models.UserProfile, error)

	// FetchRepositories gets the repositories of a user
	FetchRepositories(ctx context.Context, username string) ([]models.Repository, error)

	// FetchCommits gets the most recent commits of a repository
	FetchCommits(ctx context.Context, username, repoName string) ([]models.Commit, error)
}

// SnapshotStore keeps the last synced repository list outside the database.
// *snapshot.Writer implements it.
type SnapshotStore interface {
	Save(username string, repos []models.Repository) error
	Load() (*snapshot.File, error)
}

// SyncService defines the interface for sync operations
type SyncService interface {
	// Sync fetches the profile and repositories of username and replaces the cached set
	Sync(ctx context.Context, username string) (*models.SyncResult, error)

	// LoadCached returns the cached repositories of username without contacting GitHub
	LoadCached(ctx context.Context, username string) (*models.RepositorySet, error)

	// GetCommits fetches the latest commits of one repository of username
	GetCommits(ctx context.Context, username, repoName string) ([]models.Commit, error)

	// GetSyncStatus gets the last known sync status of username
	GetSyncStatus(ctx context.Context, username string) (*models.SyncStatus, error)

	// ListSyncStatuses lists the sync statuses of every tracked username
	ListSyncStatuses(ctx context.Context) ([]*models.SyncStatus, error)

	// SyncAll re-syncs every tracked username
	SyncAll(ctx context.Context) (*models.BatchProgress, error)

	// BatchProgress returns the progress of the running or last SyncAll, or nil
	BatchProgress() *models.BatchProgress

	// BatchRunning reports whether a SyncAll is in progress
	BatchRunning() bool

	// StopTracking removes username from the set re-synced by SyncAll
	StopTracking(ctx context.Context, username string) error

	// StartScheduler runs SyncAll every interval until ctx is cancelled
	StartScheduler(ctx context.Context, interval time.Duration)
}

// StatusManager defines the interface for status management
type StatusManager interface {
	// GetStatus gets the current sync status of username, including an in-progress sync
	GetStatus(ctx context.Context, username string) (*models.SyncStatus, error)

	// StoredStatus gets the persisted status of username, or nil when there is none
	StoredStatus(ctx context.Context, username string) (*models.SyncStatus, error)

	// UpdateStatus persists the sync status of a username
	UpdateStatus(ctx context.Context, status *models.SyncStatus) error

	// MarkSyncing records an in-progress sync without persisting it
	MarkSyncing(username, runID string, start time.Time)

	// Evict drops the cached status of username
	Evict(username string)

	// DeleteStatus removes the sync status of username
	DeleteStatus(ctx context.Context, username string) error

	// ListStatuses lists all persisted sync statuses
	ListStatuses(ctx context.Context) ([]*models.SyncStatus, error)
}
