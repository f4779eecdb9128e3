package db

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

func setupTestStore(t *testing.T) *SQLStore {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))

	store, err := NewSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "tracker.db"), logger)
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

func ids(repos []models.Repository) []int64 {
	out := make([]int64, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.ID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestNewSQLStore_UnsupportedDriver(t *testing.T) {
	_, err := NewSQLStore("mysql", "root@/tracker", nil)
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Migrate())
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	lite := &SQLStore{driver: DriverSQLite}
	query := "SELECT * FROM repo WHERE username = ? AND id = ?"

	assert.Equal(t, "SELECT * FROM repo WHERE username = $1 AND id = $2", pg.rebind(query))
	assert.Equal(t, query, lite.rebind(query))
}

func TestSQLStore_RepositoryOperations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	updated := time.Date(2024, 3, 20, 10, 30, 0, 0, time.UTC)

	r1 := []models.Repository{
		{
			ID:          1,
			Name:        "Hello-World",
			Description: strPtr("My first repository on GitHub!"),
			Language:    strPtr("Go"),
			StarsCount:  80,
			ForksCount:  9,
			UpdatedAt:   &updated,
			URL:         "https://github.com/octocat/Hello-World",
		},
		{ID: 2, Name: "Spoon-Knife", StarsCount: 12, Private: true},
		{ID: 3, Name: "linguist"},
	}

	t.Run("load unknown username", func(t *testing.T) {
		repos, err := store.LoadRepositories(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, repos)
		assert.Empty(t, repos)
	})

	t.Run("upsert then load round trip", func(t *testing.T) {
		require.NoError(t, store.UpsertRepositories(ctx, "octocat", r1, "f1"))

		repos, err := store.LoadRepositories(ctx, "octocat")
		require.NoError(t, err)
		require.Len(t, repos, 3)
		assert.Equal(t, []int64{1, 2, 3}, ids(repos))

		first := repos[0]
		assert.Equal(t, "Hello-World", first.Name)
		require.NotNil(t, first.Description)
		assert.Equal(t, "My first repository on GitHub!", *first.Description)
		require.NotNil(t, first.Language)
		assert.Equal(t, "Go", *first.Language)
		assert.Equal(t, 80, first.StarsCount)
		assert.Equal(t, 9, first.ForksCount)
		assert.False(t, first.Private)
		require.NotNil(t, first.UpdatedAt)
		assert.True(t, updated.Equal(*first.UpdatedAt))
		assert.Equal(t, "https://github.com/octocat/Hello-World", first.URL)

		second := repos[1]
		assert.True(t, second.Private)
		assert.Nil(t, second.Description)
		assert.Nil(t, second.Language)
		assert.Nil(t, second.UpdatedAt)
	})

	t.Run("preserves fetch order", func(t *testing.T) {
		reordered := []models.Repository{r1[2], r1[0], r1[1]}
		require.NoError(t, store.UpsertRepositories(ctx, "octocat", reordered, "f1"))

		repos, err := store.LoadRepositories(ctx, "octocat")
		require.NoError(t, err)
		require.Len(t, repos, 3)
		assert.Equal(t, int64(3), repos[0].ID)
		assert.Equal(t, int64(1), repos[1].ID)
		assert.Equal(t, int64(2), repos[2].ID)
	})

	t.Run("second upsert fully replaces", func(t *testing.T) {
		r2 := []models.Repository{
			{ID: 1, Name: "Hello-World", StarsCount: 81},
			{ID: 4, Name: "octocat.github.io"},
		}
		require.NoError(t, store.UpsertRepositories(ctx, "octocat", r2, "f2"))

		set, err := store.LoadRepositorySet(ctx, "octocat")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 4}, ids(set.Repositories))
		assert.Equal(t, "f2", set.Fingerprint)
		assert.Equal(t, 81, set.Repositories[0].StarsCount)

		count, err := store.CountRepositories(ctx, "octocat")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("usernames are isolated", func(t *testing.T) {
		require.NoError(t, store.UpsertRepositories(ctx, "hubot", []models.Repository{{ID: 1, Name: "Hello-World"}}, "fh"))
		require.NoError(t, store.UpsertRepositories(ctx, "hubot", nil, "fh"))

		hubot, err := store.LoadRepositories(ctx, "hubot")
		require.NoError(t, err)
		assert.Empty(t, hubot)

		octocat, err := store.LoadRepositories(ctx, "octocat")
		require.NoError(t, err)
		assert.Len(t, octocat, 2)
	})

	t.Run("failed upsert leaves previous rows", func(t *testing.T) {
		dup := []models.Repository{{ID: 7, Name: "a"}, {ID: 7, Name: "b"}}
		err := store.UpsertRepositories(ctx, "octocat", dup, "f3")
		require.Error(t, err)

		set, err := store.LoadRepositorySet(ctx, "octocat")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 4}, ids(set.Repositories))
		assert.Equal(t, "f2", set.Fingerprint)
	})

	t.Run("cancelled context does not write", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := store.UpsertRepositories(cancelled, "octocat", []models.Repository{{ID: 9, Name: "x"}}, "f4")
		require.Error(t, err)

		repos, err := store.LoadRepositories(ctx, "octocat")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 4}, ids(repos))
	})
}

func TestSQLStore_SyncStatusOperations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	t.Run("missing status", func(t *testing.T) {
		status, err := store.GetSyncStatus(ctx, "octocat")
		require.NoError(t, err)
		assert.Nil(t, status)
	})

	t.Run("validation", func(t *testing.T) {
		assert.True(t, apperrors.IsInvalidInput(store.UpdateSyncStatus(ctx, nil)))
		assert.True(t, apperrors.IsInvalidInput(store.UpdateSyncStatus(ctx, &models.SyncStatus{})))
	})

	t.Run("update and get", func(t *testing.T) {
		status := &models.SyncStatus{
			Username:           "octocat",
			Status:             models.SyncStatusCompleted,
			RunID:              "run-1",
			LastSyncAt:         now,
			RepositoryCount:    8,
			Fingerprint:        "abc",
			ContentFingerprint: "def",
		}
		require.NoError(t, store.UpdateSyncStatus(ctx, status))

		status.Status = models.SyncStatusFailed
		status.LastError = "NOT_FOUND: gone"
		require.NoError(t, store.UpdateSyncStatus(ctx, status))

		saved, err := store.GetSyncStatus(ctx, "octocat")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, models.SyncStatusFailed, saved.Status)
		assert.Equal(t, "NOT_FOUND: gone", saved.LastError)
		assert.Equal(t, 8, saved.RepositoryCount)
		assert.Equal(t, "def", saved.ContentFingerprint)
		assert.True(t, now.Equal(saved.LastSyncAt))
	})

	t.Run("list and delete", func(t *testing.T) {
		require.NoError(t, store.UpdateSyncStatus(ctx, &models.SyncStatus{Username: "hubot", Status: models.SyncStatusCompleted}))

		statuses, err := store.ListSyncStatuses(ctx)
		require.NoError(t, err)
		require.Len(t, statuses, 2)
		assert.Equal(t, "hubot", statuses[0].Username)
		assert.Equal(t, "octocat", statuses[1].Username)

		require.NoError(t, store.DeleteSyncStatus(ctx, "hubot"))
		err = store.DeleteSyncStatus(ctx, "hubot")
		assert.True(t, apperrors.IsNotFound(err))

		statuses, err = store.ListSyncStatuses(ctx)
		require.NoError(t, err)
		assert.Len(t, statuses, 1)
	})
}

func TestSQLStore_AccountOperations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	account := &models.Account{Username: "alice", PasswordHash: "$2a$10$hash", CreatedAt: created}
	require.NoError(t, store.CreateAccount(ctx, account))

	err := store.CreateAccount(ctx, account)
	assert.True(t, apperrors.IsConflict(err))

	saved, err := store.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", saved.PasswordHash)
	assert.True(t, created.Equal(saved.CreatedAt))

	_, err = store.GetAccount(ctx, "bob")
	assert.True(t, apperrors.IsNotFound(err))
}
