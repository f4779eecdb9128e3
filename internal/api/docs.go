package api

import (
	"time"

	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// ErrorResponse represents an API error
// @Description Error response from the API
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error type and a human readable message
type ErrorBody struct {
	// Error type
	Type string `json:"type" example:"NOT_FOUND" enums:"INVALID_INPUT,NOT_FOUND,RATE_LIMIT,UNAUTHORIZED,TRANSPORT,UNEXPECTED_STATUS,MALFORMED_RESPONSE,STORE,CONFLICT,INTERNAL"`
	// Error message
	Message string `json:"message" example:"GitHub resource not found: /users/nobody"`
}

// SyncResponse is the outcome of a sync
// @Description Profile and repositories fetched by a sync
type SyncResponse struct {
	RunID        string                  `json:"run_id" example:"cnq2o1c2r7n8r5l0qgkg"`
	Profile      *models.UserProfile     `json:"profile"`
	Repositories *RepositoryListResponse `json:"repositories"`
	// Whether the repositories differ from the previous successful sync
	Changed bool `json:"changed"`
}

// RepositoryListResponse represents the cached repositories of a user
// @Description Cached repositories of a GitHub user
type RepositoryListResponse struct {
	Username    string              `json:"username" example:"octocat"`
	Fingerprint string              `json:"fingerprint" example:"a4e7b1d2..."`
	FetchedAt   *time.Time          `json:"fetched_at,omitempty" example:"2024-03-20T10:30:00Z"`
	Count       int                 `json:"count" example:"8"`
	Data        []models.Repository `json:"data"`
}

// CommitListResponse represents the latest commits of a repository
// @Description Latest commits of a repository
type CommitListResponse struct {
	Repository string          `json:"repository" example:"octocat/Hello-World"`
	Count      int             `json:"count" example:"10"`
	Data       []models.Commit `json:"data"`
}

// CredentialsRequest is the body of the account endpoints
type CredentialsRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"correct horse"`
}

// AccountResponse describes a local account
type AccountResponse struct {
	Username  string    `json:"username" example:"alice"`
	CreatedAt time.Time `json:"created_at" example:"2024-03-20T00:00:00Z"`
}

// StatusResponse is a plain acknowledgement
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// BatchProgressResponse reports the running or last batch sync. Progress is
// null until a batch has started.
type BatchProgressResponse struct {
	Running  bool                  `json:"running"`
	Progress *models.BatchProgress `json:"progress"`
}

func newRepositoryListResponse(set *models.RepositorySet) *RepositoryListResponse {
	resp := &RepositoryListResponse{
		Username:    set.Username,
		Fingerprint: set.Fingerprint,
		Count:       len(set.Repositories),
		Data:        set.Repositories,
	}
	if resp.Data == nil {
		resp.Data = []models.Repository{}
	}
	if !set.FetchedAt.IsZero() {
		fetchedAt := set.FetchedAt
		resp.FetchedAt = &fetchedAt
	}
	return resp
}
