package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/github"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// AccountService is the account management used by the handlers.
// *accounts.Service implements it.
type AccountService interface {
	Register(ctx context.Context, username, password string) (*models.Account, error)
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
}

type Handler struct {
	syncService github.SyncService
	accounts    AccountService
	logger      *logrus.Logger
	// ctx bounds background work started by requests, such as batch syncs
	ctx context.Context
}

func NewHandler(ctx context.Context, syncService github.SyncService, accounts AccountService, logger *logrus.Logger) *Handler {
	return &Handler{
		syncService: syncService,
		accounts:    accounts,
		logger:      logger,
		ctx:         ctx,
	}
}

// SyncUser godoc
// @Summary Sync a user
// @Description Fetch the profile and repositories of a GitHub user and replace the cached repositories
// @Tags users
// @Produce json
// @Param username path string true "GitHub username"
// @Success 200 {object} SyncResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /users/{username}/sync [post]
func (h *Handler) SyncUser(c *gin.Context) {
	result, err := h.syncService.Sync(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SyncResponse{
		RunID:        result.RunID,
		Profile:      result.Profile,
		Repositories: newRepositoryListResponse(result.Repositories),
		Changed:      result.Changed,
	})
}

// GetRepositories godoc
// @Summary List cached repositories
// @Description Get the repositories stored by the last successful sync of a user
// @Tags users
// @Produce json
// @Param username path string true "GitHub username"
// @Success 200 {object} RepositoryListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{username}/repos [get]
func (h *Handler) GetRepositories(c *gin.Context) {
	set, err := h.syncService.LoadCached(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRepositoryListResponse(set))
}

// GetCommits godoc
// @Summary List recent commits
// @Description Get the latest commits of a repository straight from GitHub
// @Tags users
// @Produce json
// @Param username path string true "GitHub username"
// @Param repo path string true "Repository name"
// @Success 200 {object} CommitListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /users/{username}/repos/{repo}/commits [get]
func (h *Handler) GetCommits(c *gin.Context) {
	username := c.Param("username")
	repo := c.Param("repo")

	commits, err := h.syncService.GetCommits(c.Request.Context(), username, repo)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	if commits == nil {
		commits = []models.Commit{}
	}

	c.JSON(http.StatusOK, CommitListResponse{
		Repository: username + "/" + repo,
		Count:      len(commits),
		Data:       commits,
	})
}

// GetSyncStatus godoc
// @Summary Get sync status
// @Description Get the last known sync status of a user
// @Tags sync
// @Produce json
// @Param username path string true "GitHub username"
// @Success 200 {object} models.SyncStatus
// @Failure 404 {object} ErrorResponse
// @Router /users/{username}/sync-status [get]
func (h *Handler) GetSyncStatus(c *gin.Context) {
	status, err := h.syncService.GetSyncStatus(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ListSyncStatuses godoc
// @Summary List sync statuses
// @Description Get the sync status of every tracked user
// @Tags sync
// @Produce json
// @Success 200 {array} models.SyncStatus
// @Failure 500 {object} ErrorResponse
// @Router /sync-status [get]
func (h *Handler) ListSyncStatuses(c *gin.Context) {
	statuses, err := h.syncService.ListSyncStatuses(c.Request.Context())
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	if statuses == nil {
		statuses = []*models.SyncStatus{}
	}

	c.JSON(http.StatusOK, statuses)
}

// StopTracking godoc
// @Summary Stop tracking a user
// @Description Delete the sync status of a user so batch syncs skip it. Cached repositories are kept.
// @Tags sync
// @Param username path string true "GitHub username"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{username}/sync-status [delete]
func (h *Handler) StopTracking(c *gin.Context) {
	if err := h.syncService.StopTracking(c.Request.Context(), c.Param("username")); err != nil {
		h.respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SyncAll godoc
// @Summary Sync all users
// @Description Trigger a background re-sync of every tracked user
// @Tags sync
// @Produce json
// @Success 202 {object} StatusResponse
// @Failure 409 {object} ErrorResponse
// @Router /sync-all [post]
func (h *Handler) SyncAll(c *gin.Context) {
	if h.syncService.BatchRunning() {
		h.respondWithError(c, errors.NewConflictError("a batch sync is already running", nil))
		return
	}

	go func() {
		progress, err := h.syncService.SyncAll(h.ctx)
		if err != nil {
			h.logger.WithError(err).Warn("Batch sync finished with errors")
			return
		}
		h.logger.WithField("processed", progress.ProcessedItems).Info("Batch sync finished")
	}()

	c.JSON(http.StatusAccepted, StatusResponse{Status: "accepted"})
}

// GetBatchProgress godoc
// @Summary Batch sync progress
// @Description Get the progress of the running or last batch sync
// @Tags sync
// @Produce json
// @Success 200 {object} BatchProgressResponse
// @Router /sync-all/progress [get]
func (h *Handler) GetBatchProgress(c *gin.Context) {
	c.JSON(http.StatusOK, BatchProgressResponse{
		Running:  h.syncService.BatchRunning(),
		Progress: h.syncService.BatchProgress(),
	})
}

// Register godoc
// @Summary Register an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 201 {object} AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /accounts/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, errors.NewValidationError("username and password are required", err))
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AccountResponse{Username: account.Username, CreatedAt: account.CreatedAt})
}

// Login godoc
// @Summary Check account credentials
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Credentials"
// @Success 200 {object} AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /accounts/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, errors.NewValidationError("username and password are required", err))
		return
	}

	account, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, AccountResponse{Username: account.Username, CreatedAt: account.CreatedAt})
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}
