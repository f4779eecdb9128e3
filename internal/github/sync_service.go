package github

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Kamar-Folarin/repo-tracker/internal/batch"
	"github.com/Kamar-Folarin/repo-tracker/internal/config"
	"github.com/Kamar-Folarin/repo-tracker/internal/db"
	"github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
	"github.com/Kamar-Folarin/repo-tracker/internal/utils"
)

// SyncServiceImpl implements the SyncService interface
type SyncServiceImpl struct {
	remote        RemoteSource
	store         db.Store
	snapshots     SnapshotStore
	statusManager StatusManager
	config        *config.SyncConfig
	logger        *logrus.Logger

	inflight     singleflight.Group
	batch        *batch.Processor[string]
	batchRunning atomic.Bool
}

// NewSyncService creates a new sync service. snapshots may be nil.
func NewSyncService(
	remote RemoteSource,
	store db.Store,
	snapshots SnapshotStore,
	statusManager StatusManager,
	cfg *config.SyncConfig,
	logger *logrus.Logger,
) *SyncServiceImpl {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SyncServiceImpl{
		remote:        remote,
		store:         store,
		snapshots:     snapshots,
		statusManager: statusManager,
		config:        cfg,
		logger:        logger,
		batch:         batch.NewProcessor[string](&cfg.BatchConfig),
	}
}

// Sync fetches the profile and repositories of username and replaces the
// cached repositories with them. Concurrent calls for the same username share
// one run under the context of the caller that started it. When that caller
// goes away, the callers still waiting start a new run.
func (s *SyncServiceImpl) Sync(ctx context.Context, username string) (*models.SyncResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewValidationError("username cannot be blank", nil)
	}

	for {
		ch := s.inflight.DoChan(username, func() (interface{}, error) {
			return s.sync(ctx, username)
		})

		select {
		case <-ctx.Done():
			return nil, errors.NewTransportError("sync abandoned", ctx.Err())
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*models.SyncResult), nil
			}
			if res.Shared && ctx.Err() == nil && stderrors.Is(res.Err, context.Canceled) {
				s.logger.WithField("username", username).Info("Shared sync was cancelled by its caller, syncing again")
				continue
			}
			return nil, res.Err
		}
	}
}

func (s *SyncServiceImpl) sync(ctx context.Context, username string) (*models.SyncResult, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	runID := xid.New().String()
	start := time.Now()
	logger := s.logger.WithFields(logrus.Fields{
		"username": username,
		"run_id":   runID,
	})
	logger.Info("Starting sync")

	s.statusManager.MarkSyncing(username, runID, start)

	var (
		profile *models.UserProfile
		repos   []models.Repository
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = withRetry(gctx, s.config.Retry, logger.WithField("fetch", "profile"),
			func(ctx context.Context) (*models.UserProfile, error) {
				return s.remote.FetchProfile(ctx, username)
			})
		return err
	})
	g.Go(func() error {
		var err error
		repos, err = withRetry(gctx, s.config.Retry, logger.WithField("fetch", "repositories"),
			func(ctx context.Context) ([]models.Repository, error) {
				return s.remote.FetchRepositories(ctx, username)
			})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, logger, username, runID, start, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, logger, username, runID, start, errors.NewTransportError("sync cancelled before store write", err))
	}

	repos, dropped := models.UniqueRepositories(repos)
	if dropped > 0 {
		logger.WithField("dropped", dropped).Warn("GitHub returned duplicate repository ids")
	}

	set := &models.RepositorySet{
		Username:           username,
		Repositories:       repos,
		Fingerprint:        utils.Fingerprint(username),
		ContentFingerprint: utils.ContentFingerprint(repos),
		FetchedAt:          time.Now().UTC(),
	}

	previous, err := s.statusManager.StoredStatus(ctx, username)
	if err != nil {
		logger.WithError(err).Warn("Failed to read previous sync status")
	}
	changed := previous == nil || previous.ContentFingerprint != set.ContentFingerprint

	if err := s.store.UpsertRepositories(ctx, username, set.Repositories, set.Fingerprint); err != nil {
		return nil, s.fail(ctx, logger, username, runID, start, errors.NewStoreError("failed to store repositories", err))
	}

	if s.snapshots != nil {
		if err := s.snapshots.Save(username, set.Repositories); err != nil {
			logger.WithError(err).Warn("Failed to write repository snapshot")
		}
	}

	duration := time.Since(start)
	status := &models.SyncStatus{
		Username:           username,
		Status:             models.SyncStatusCompleted,
		RunID:              runID,
		LastSyncAt:         set.FetchedAt,
		RepositoryCount:    len(set.Repositories),
		Fingerprint:        set.Fingerprint,
		ContentFingerprint: set.ContentFingerprint,
		SyncDuration:       duration.Milliseconds(),
		StartTime:          start,
	}
	if err := s.statusManager.UpdateStatus(ctx, status); err != nil {
		logger.WithError(err).Error("Failed to record sync status")
		s.statusManager.Evict(username)
	}

	logger.WithFields(logrus.Fields{
		"repo_count": len(set.Repositories),
		"changed":    changed,
		"duration":   duration,
	}).Info("Sync completed")

	return &models.SyncResult{
		RunID:        runID,
		Profile:      profile,
		Repositories: set,
		Changed:      changed,
	}, nil
}

// fail records a failed run for usernames that are already tracked and
// returns err unchanged
func (s *SyncServiceImpl) fail(ctx context.Context, logger *logrus.Entry, username, runID string, start time.Time, err error) error {
	logger.WithError(err).WithField("error_type", errors.TypeOf(err)).Warn("Sync failed")

	if ctx.Err() != nil {
		s.statusManager.Evict(username)
		return err
	}

	previous, getErr := s.statusManager.StoredStatus(ctx, username)
	if getErr != nil || previous == nil {
		s.statusManager.Evict(username)
		return err
	}

	previous.Status = models.SyncStatusFailed
	previous.RunID = runID
	previous.LastError = err.Error()
	previous.IsSyncing = false
	previous.StartTime = start
	previous.SyncDuration = time.Since(start).Milliseconds()
	if updateErr := s.statusManager.UpdateStatus(ctx, previous); updateErr != nil {
		logger.WithError(updateErr).Error("Failed to record sync failure")
		s.statusManager.Evict(username)
	}
	return err
}

// withRetry calls fn until it succeeds, fails with an error that is not
// worth retrying, or cfg.MaxRetries retries have been used
func withRetry[T any](ctx context.Context, cfg config.RateLimitConfig, logger *logrus.Entry, fn func(context.Context) (T, error)) (T, error) {
	backoff := cfg.InitialBackoff
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil || attempt >= cfg.MaxRetries || !retryable(ctx, err) {
			return result, err
		}

		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"backoff": backoff,
		}).Warn("Retrying GitHub request")

		select {
		case <-ctx.Done():
			return result, errors.NewTransportError("retry abandoned", ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}

// retryable reports whether err is transient: a transport failure or a 5xx
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.IsTransport(err) {
		return true
	}
	return errors.IsUnexpectedStatus(err) && errors.StatusCodeOf(err) >= http.StatusInternalServerError
}

// LoadCached returns the cached repositories of username. When the store
// cannot be read, the snapshot file is used if it belongs to username.
func (s *SyncServiceImpl) LoadCached(ctx context.Context, username string) (*models.RepositorySet, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewValidationError("username cannot be blank", nil)
	}

	set, err := s.store.LoadRepositorySet(ctx, username)
	if err == nil {
		set.ContentFingerprint = utils.ContentFingerprint(set.Repositories)
		return set, nil
	}

	logger := s.logger.WithField("username", username)
	logger.WithError(err).Warn("Failed to load repositories from store")

	if s.snapshots != nil {
		file, snapErr := s.snapshots.Load()
		if snapErr != nil {
			logger.WithError(snapErr).Warn("Failed to read repository snapshot")
		} else if file != nil && file.Username == username {
			logger.Info("Serving repositories from snapshot")
			return &models.RepositorySet{
				Username:           username,
				Repositories:       file.Repositories,
				Fingerprint:        utils.Fingerprint(username),
				ContentFingerprint: utils.ContentFingerprint(file.Repositories),
				FetchedAt:          file.FetchedAt,
			}, nil
		}
	}

	return nil, errors.NewStoreError("failed to load repositories", err)
}

// GetCommits fetches the latest commits of username/repoName straight from GitHub
func (s *SyncServiceImpl) GetCommits(ctx context.Context, username, repoName string) ([]models.Commit, error) {
	username = strings.TrimSpace(username)
	repoName = strings.TrimSpace(repoName)
	if username == "" {
		return nil, errors.NewValidationError("username cannot be blank", nil)
	}
	if repoName == "" {
		return nil, errors.NewValidationError("repository name cannot be blank", nil)
	}

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}
	return s.remote.FetchCommits(ctx, username, repoName)
}

// GetSyncStatus gets the current sync status for a username
func (s *SyncServiceImpl) GetSyncStatus(ctx context.Context, username string) (*models.SyncStatus, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewValidationError("username cannot be blank", nil)
	}
	return s.statusManager.GetStatus(ctx, username)
}

func (s *SyncServiceImpl) ListSyncStatuses(ctx context.Context) ([]*models.SyncStatus, error) {
	return s.statusManager.ListStatuses(ctx)
}

// SyncAll re-syncs every username that has a recorded sync status. Only one
// batch runs at a time.
func (s *SyncServiceImpl) SyncAll(ctx context.Context) (*models.BatchProgress, error) {
	if !s.batchRunning.CompareAndSwap(false, true) {
		return nil, errors.NewConflictError("a batch sync is already running", nil)
	}
	defer s.batchRunning.Store(false)

	statuses, err := s.statusManager.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}

	usernames := make([]string, 0, len(statuses))
	for _, status := range statuses {
		usernames = append(usernames, status.Username)
	}

	logger := s.logger.WithField("tracked", len(usernames))
	logger.Info("Starting batch sync")

	progress, err := s.batch.ProcessItems(ctx, usernames,
		func(username string) string { return username },
		func(ctx context.Context, username string) error {
			_, err := s.Sync(ctx, username)
			return err
		})

	logger.WithFields(logrus.Fields{
		"processed": progress.ProcessedItems,
		"failed":    progress.FailedItems,
		"duration":  time.Since(progress.StartTime),
	}).Info("Batch sync finished")

	return progress, err
}

// BatchProgress returns the progress of the running or last batch sync, or
// nil when none has started
func (s *SyncServiceImpl) BatchProgress() *models.BatchProgress {
	return s.batch.GetProgress()
}

func (s *SyncServiceImpl) BatchRunning() bool {
	return s.batchRunning.Load()
}

// StopTracking forgets the sync status of username so that SyncAll skips it.
// Cached repositories stay readable.
func (s *SyncServiceImpl) StopTracking(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.NewValidationError("username cannot be blank", nil)
	}

	if err := s.statusManager.DeleteStatus(ctx, username); err != nil {
		return err
	}
	s.logger.WithField("username", username).Info("Stopped tracking user")
	return nil
}

// StartScheduler runs SyncAll every interval in the background until ctx is
// cancelled. A non-positive interval disables it.
func (s *SyncServiceImpl) StartScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("Scheduled sync disabled")
		return
	}

	s.logger.WithField("interval", interval).Info("Starting sync scheduler")
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Sync scheduler stopped")
				return
			case <-ticker.C:
				if _, err := s.SyncAll(ctx); err != nil {
					s.logger.WithError(err).Warn("Scheduled sync finished with errors")
				}
			}
		}
	}()
}
