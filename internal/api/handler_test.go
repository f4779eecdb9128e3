package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// MockSyncService is a mock implementation of github.SyncService
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Sync(ctx context.Context, username string) (*models.SyncResult, error) {
	args := m.Called(ctx, username)
	result, _ := args.Get(0).(*models.SyncResult)
	return result, args.Error(1)
}

func (m *MockSyncService) LoadCached(ctx context.Context, username string) (*models.RepositorySet, error) {
	args := m.Called(ctx, username)
	set, _ := args.Get(0).(*models.RepositorySet)
	return set, args.Error(1)
}

func (m *MockSyncService) GetCommits(ctx context.Context, username, repoName string) ([]models.Commit, error) {
	args := m.Called(ctx, username, repoName)
	commits, _ := args.Get(0).([]models.Commit)
	return commits, args.Error(1)
}

func (m *MockSyncService) GetSyncStatus(ctx context.Context, username string) (*models.SyncStatus, error) {
	args := m.Called(ctx, username)
	status, _ := args.Get(0).(*models.SyncStatus)
	return status, args.Error(1)
}

func (m *MockSyncService) ListSyncStatuses(ctx context.Context) ([]*models.SyncStatus, error) {
	args := m.Called(ctx)
	statuses, _ := args.Get(0).([]*models.SyncStatus)
	return statuses, args.Error(1)
}

func (m *MockSyncService) SyncAll(ctx context.Context) (*models.BatchProgress, error) {
	args := m.Called(ctx)
	progress, _ := args.Get(0).(*models.BatchProgress)
	return progress, args.Error(1)
}

func (m *MockSyncService) BatchProgress() *models.BatchProgress {
	args := m.Called()
	progress, _ := args.Get(0).(*models.BatchProgress)
	return progress
}

func (m *MockSyncService) BatchRunning() bool {
	return m.Called().Bool(0)
}

func (m *MockSyncService) StopTracking(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *MockSyncService) StartScheduler(ctx context.Context, interval time.Duration) {
	m.Called(ctx, interval)
}

// MockAccountService is a mock implementation of AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, username, password string) (*models.Account, error) {
	args := m.Called(ctx, username, password)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *MockAccountService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	args := m.Called(ctx, username, password)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *MockSyncService, *MockAccountService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	syncService := new(MockSyncService)
	accounts := new(MockAccountService)
	handler := NewHandler(context.Background(), syncService, accounts, logger)

	return SetupRouter(handler), syncService, accounts
}

func perform(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func strPtr(s string) *string { return &s }

func TestHandler_SyncUser(t *testing.T) {
	router, syncService, _ := setupTestRouter(t)
	fetchedAt := time.Date(2024, 3, 20, 10, 30, 0, 0, time.UTC)

	syncService.On("Sync", mock.Anything, "octocat").Return(&models.SyncResult{
		RunID:   "run-1",
		Profile: &models.UserProfile{Login: "octocat", Name: strPtr("The Octocat")},
		Repositories: &models.RepositorySet{
			Username:     "octocat",
			Repositories: []models.Repository{{ID: 1, Name: "Hello-World"}},
			Fingerprint:  "abc",
			FetchedAt:    fetchedAt,
		},
		Changed: true,
	}, nil)

	w := perform(router, http.MethodPost, "/api/v1/users/octocat/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SyncResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "octocat", resp.Profile.Login)
	assert.True(t, resp.Changed)
	require.NotNil(t, resp.Repositories)
	assert.Equal(t, 1, resp.Repositories.Count)
	assert.Equal(t, "Hello-World", resp.Repositories.Data[0].Name)
	assert.Equal(t, "abc", resp.Repositories.Fingerprint)
	require.NotNil(t, resp.Repositories.FetchedAt)
	assert.True(t, fetchedAt.Equal(*resp.Repositories.FetchedAt))
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		errTyp string
	}{
		{"invalid input", apperrors.NewValidationError("username cannot be blank", nil), http.StatusBadRequest, "INVALID_INPUT"},
		{"unauthorized", apperrors.NewUnauthorizedError("bad credentials", nil), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not found", apperrors.NewNotFoundError("GitHub resource not found: /users/nobody", nil), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperrors.NewConflictError("a batch sync is already running", nil), http.StatusConflict, "CONFLICT"},
		{"rate limit", apperrors.NewRateLimitError(time.Now().Add(time.Hour), 60, 0), http.StatusTooManyRequests, "RATE_LIMIT"},
		{"transport", apperrors.NewTransportError("request to GitHub failed", context.DeadlineExceeded), http.StatusBadGateway, "TRANSPORT"},
		{"unexpected status", apperrors.NewUnexpectedStatusError(503, "unavailable"), http.StatusBadGateway, "UNEXPECTED_STATUS"},
		{"malformed", apperrors.NewMalformedResponseError("missing login", nil), http.StatusBadGateway, "MALFORMED_RESPONSE"},
		{"store", apperrors.NewStoreError("failed to store repositories", nil), http.StatusInternalServerError, "STORE"},
		{"plain error", io.ErrUnexpectedEOF, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, syncService, _ := setupTestRouter(t)
			syncService.On("Sync", mock.Anything, "octocat").Return(nil, tt.err)

			w := perform(router, http.MethodPost, "/api/v1/users/octocat/sync", nil)
			assert.Equal(t, tt.status, w.Code)

			body := decodeError(t, w)
			assert.Equal(t, tt.errTyp, body.Type)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestHandler_RateLimitSetsRetryAfter(t *testing.T) {
	router, syncService, _ := setupTestRouter(t)
	syncService.On("Sync", mock.Anything, "octocat").
		Return(nil, apperrors.NewRateLimitError(time.Now().Add(90*time.Second), 60, 0))

	w := perform(router, http.MethodPost, "/api/v1/users/octocat/sync", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestHandler_GetRepositories(t *testing.T) {
	router, syncService, _ := setupTestRouter(t)
	syncService.On("LoadCached", mock.Anything, "octocat").Return(&models.RepositorySet{
		Username: "octocat",
		Repositories: []models.Repository{
			{ID: 1, Name: "Hello-World", Language: strPtr("Go")},
			{ID: 2, Name: "Spoon-Knife"},
		},
		Fingerprint: "abc",
	}, nil)
	syncService.On("LoadCached", mock.Anything, "nobody").Return(&models.RepositorySet{Username: "nobody"}, nil)

	w := perform(router, http.MethodGet, "/api/v1/users/octocat/repos", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RepositoryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Nil(t, resp.FetchedAt)
	assert.Nil(t, resp.Data[1].Language)

	w = perform(router, http.MethodGet, "/api/v1/users/nobody/repos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestHandler_GetCommits(t *testing.T) {
	router, syncService, _ := setupTestRouter(t)
	syncService.On("GetCommits", mock.Anything, "octocat", "Hello-World").
		Return([]models.Commit{{SHA: "7fd1a60b", Message: "Merge pull request #6"}}, nil)
	syncService.On("GetCommits", mock.Anything, "octocat", "missing").
		Return(nil, apperrors.NewNotFoundError("GitHub resource not found", nil))

	w := perform(router, http.MethodGet, "/api/v1/users/octocat/repos/Hello-World/commits", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CommitListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "octocat/Hello-World", resp.Repository)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "7fd1a60b", resp.Data[0].SHA)

	w = perform(router, http.MethodGet, "/api/v1/users/octocat/repos/missing/commits", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SyncStatuses(t *testing.T) {
	router, syncService, _ := setupTestRouter(t)
	status := &models.SyncStatus{Username: "octocat", Status: models.SyncStatusCompleted, RepositoryCount: 8}
	syncService.On("GetSyncStatus", mock.Anything, "octocat").Return(status, nil)
	syncService.On("GetSyncStatus", mock.Anything, "nobody").
		Return(nil, apperrors.NewNotFoundError("sync status not found for user: nobody", nil))
	syncService.On("ListSyncStatuses", mock.Anything).Return(nil, nil)

	w := perform(router, http.MethodGet, "/api/v1/users/octocat/sync-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.SyncStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 8, got.RepositoryCount)

	w = perform(router, http.MethodGet, "/api/v1/users/nobody/sync-status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(router, http.MethodGet, "/api/v1/sync-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandler_SyncAll(t *testing.T) {
	router, syncService, _ := setupTestRouter(t)
	called := make(chan struct{})
	syncService.On("BatchRunning").Return(false)
	syncService.On("SyncAll", mock.Anything).
		Run(func(mock.Arguments) { close(called) }).
		Return(&models.BatchProgress{TotalItems: 1, ProcessedItems: 1}, nil)

	w := perform(router, http.MethodPost, "/api/v1/sync-all", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("batch sync was not started")
	}
}

func TestHandler_SyncAllWhileRunning(t *testing.T) {
	router, syncService, _ := setupTestRouter(t)
	syncService.On("BatchRunning").Return(true)

	w := perform(router, http.MethodPost, "/api/v1/sync-all", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, w).Type)

	time.Sleep(20 * time.Millisecond)
	syncService.AssertNotCalled(t, "SyncAll", mock.Anything)
}

func TestHandler_GetBatchProgress(t *testing.T) {
	t.Run("no batch yet", func(t *testing.T) {
		router, syncService, _ := setupTestRouter(t)
		syncService.On("BatchRunning").Return(false)
		syncService.On("BatchProgress").Return(nil)

		w := perform(router, http.MethodGet, "/api/v1/sync-all/progress", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"running":false,"progress":null}`, w.Body.String())
	})

	t.Run("batch running", func(t *testing.T) {
		router, syncService, _ := setupTestRouter(t)
		syncService.On("BatchRunning").Return(true)
		syncService.On("BatchProgress").Return(&models.BatchProgress{
			TotalItems:        3,
			ProcessedItems:    1,
			LastProcessedItem: "octocat",
		})

		w := perform(router, http.MethodGet, "/api/v1/sync-all/progress", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp BatchProgressResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Running)
		require.NotNil(t, resp.Progress)
		assert.Equal(t, 3, resp.Progress.TotalItems)
		assert.Equal(t, 1, resp.Progress.ProcessedItems)
		assert.Equal(t, "octocat", resp.Progress.LastProcessedItem)
	})
}

func TestHandler_StopTracking(t *testing.T) {
	router, syncService, _ := setupTestRouter(t)
	syncService.On("StopTracking", mock.Anything, "octocat").Return(nil)
	syncService.On("StopTracking", mock.Anything, "nobody").
		Return(apperrors.NewNotFoundError("no sync status found for nobody", nil))

	w := perform(router, http.MethodDelete, "/api/v1/users/octocat/sync-status", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = perform(router, http.MethodDelete, "/api/v1/users/nobody/sync-status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Type)

	syncService.AssertExpectations(t)
}

func TestHandler_Accounts(t *testing.T) {
	router, _, accounts := setupTestRouter(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	accounts.On("Register", mock.Anything, "alice", "correct horse").
		Return(&models.Account{Username: "alice", PasswordHash: "$2a$10$hash", CreatedAt: created}, nil)
	accounts.On("Register", mock.Anything, "bob", "correct horse").
		Return(nil, apperrors.NewConflictError("account bob already exists", nil))
	accounts.On("Authenticate", mock.Anything, "alice", "correct horse").
		Return(&models.Account{Username: "alice", CreatedAt: created}, nil)
	accounts.On("Authenticate", mock.Anything, "alice", "wrong horse").
		Return(nil, apperrors.NewUnauthorizedError("invalid username or password", nil))

	w := perform(router, http.MethodPost, "/api/v1/accounts/register", CredentialsRequest{Username: "alice", Password: "correct horse"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "hash")

	w = perform(router, http.MethodPost, "/api/v1/accounts/register", CredentialsRequest{Username: "bob", Password: "correct horse"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(router, http.MethodPost, "/api/v1/accounts/register", map[string]string{"username": "carol"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Type)

	w = perform(router, http.MethodPost, "/api/v1/accounts/login", CredentialsRequest{Username: "alice", Password: "correct horse"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodPost, "/api/v1/accounts/login", CredentialsRequest{Username: "alice", Password: "wrong horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
