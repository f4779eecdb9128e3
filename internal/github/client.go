package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	apperrors "github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

const (
	DefaultBaseURL = "https://api.github.com"
	mediaType      = "application/vnd.github+json"

	// RepositoryPageSize bounds the single page of repositories fetched per user
	RepositoryPageSize = 100
	// CommitPageSize bounds the commits fetched for a detail view
	CommitPageSize = 10

	maxBodyBytes = 10 << 20
)

// RateLimitInfo holds the quota GitHub reported on the last response
type RateLimitInfo struct {
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetTime  time.Time `json:"reset_time"`
	RetryAfter time.Time `json:"retry_after,omitempty"`
}

// Client fetches profiles, repositories and commits from the GitHub REST API.
// It never retries; retry policy belongs to the caller.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
	logger  *logrus.Logger

	mu            sync.Mutex
	rateLimitInfo RateLimitInfo
}

// ClientOption allows configuring the GitHub client
type ClientOption func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.client = httpClient
	}
}

// WithTimeout bounds every request. The HTTP client is copied so a shared
// client such as http.DefaultClient is left untouched.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		withTimeout := *c.client
		withTimeout.Timeout = timeout
		c.client = &withTimeout
	}
}

// WithToken attaches a static bearer token to every request
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithRateLimiter throttles requests on the client side. A request that the
// limiter refuses fails with RATE_LIMIT without reaching the network.
func WithRateLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient creates a new GitHub client with the given options
func NewClient(logger *logrus.Logger, opts ...ClientOption) *Client {
	c := &Client{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: DefaultBaseURL,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.token != "" {
		base := c.client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		withAuth := *c.client
		withAuth.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}),
			Base:   base,
		}
		c.client = &withAuth
	}

	return c
}

// RateLimit returns the quota reported by the last response
func (c *Client) RateLimit() RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimitInfo
}

// FetchProfile gets the public profile of username
func (c *Client) FetchProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	if username == "" {
		return nil, apperrors.NewValidationError("username cannot be empty", nil)
	}

	var payload userPayload
	if err := c.get(ctx, "/users/"+url.PathEscape(username), nil, &payload); err != nil {
		return nil, err
	}

	return payload.toModel()
}

// FetchRepositories gets one page of the user's repositories, most recently
// updated first
func (c *Client) FetchRepositories(ctx context.Context, username string) ([]models.Repository, error) {
	if username == "" {
		return nil, apperrors.NewValidationError("username cannot be empty", nil)
	}

	query := url.Values{}
	query.Set("per_page", strconv.Itoa(RepositoryPageSize))
	query.Set("sort", "updated")

	var payload []repositoryPayload
	if err := c.get(ctx, "/users/"+url.PathEscape(username)+"/repos", query, &payload); err != nil {
		return nil, err
	}

	repos := make([]models.Repository, 0, len(payload))
	for i := range payload {
		repo, err := payload[i].toModel()
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// FetchCommits gets the most recent commits of username/repoName
func (c *Client) FetchCommits(ctx context.Context, username, repoName string) ([]models.Commit, error) {
	if username == "" {
		return nil, apperrors.NewValidationError("username cannot be empty", nil)
	}
	if repoName == "" {
		return nil, apperrors.NewValidationError("repository name cannot be empty", nil)
	}

	query := url.Values{}
	query.Set("per_page", strconv.Itoa(CommitPageSize))

	path := fmt.Sprintf("/repos/%s/%s/commits", url.PathEscape(username), url.PathEscape(repoName))
	var payload []commitPayload
	if err := c.get(ctx, path, query, &payload); err != nil {
		return nil, err
	}

	commits := make([]models.Commit, 0, len(payload))
	for i := range payload {
		commit, err := payload[i].toModel()
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

// get performs one GET request and decodes a 200 response into result
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.Warn("Client-side GitHub rate limit reached. Use a token or wait until the limit resets")
		info := c.RateLimit()
		return apperrors.NewRateLimitError(info.ResetTime, info.Limit, info.Remaining)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to create request", err)
	}
	req.Header.Set("Accept", mediaType)

	logger := c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   path,
	})
	logger.Debug("Requesting GitHub API")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		logger.WithError(err).Warn("GitHub request failed")
		return apperrors.NewTransportError("request to GitHub failed", err)
	}
	defer resp.Body.Close()

	info := c.updateRateLimitInfo(resp)
	logger.WithFields(logrus.Fields{
		"status":               resp.StatusCode,
		"rate_limit_remaining": info.Remaining,
	}).Debug("GitHub responded")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewTransportError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp, body, info)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return apperrors.NewMalformedResponseError("failed to decode response", err)
	}
	return nil
}

// updateRateLimitInfo updates the rate limit information from response headers
func (c *Client) updateRateLimitInfo(resp *http.Response) RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "" {
		c.rateLimitInfo.Limit, _ = strconv.Atoi(limit)
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		c.rateLimitInfo.Remaining, _ = strconv.Atoi(remaining)
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if resetTime, err := strconv.ParseInt(reset, 10, 64); err == nil {
			c.rateLimitInfo.ResetTime = time.Unix(resetTime, 0).UTC()
		}
	}
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if retrySeconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
			c.rateLimitInfo.RetryAfter = time.Now().Add(time.Duration(retrySeconds) * time.Second)
		}
	}

	return c.rateLimitInfo
}
