package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/Kamar-Folarin/repo-tracker/internal/errors"
)

// errorFromResponse maps a non-200 GitHub response onto the error taxonomy
func errorFromResponse(resp *http.Response, body []byte, info RateLimitInfo) error {
	message := remoteMessage(body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(fmt.Sprintf("GitHub resource not found: %s", resp.Request.URL.Path), nil)
	case http.StatusTooManyRequests:
		return rateLimited(info)
	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != "" {
			return rateLimited(info)
		}
		return apperrors.NewUnauthorizedError(fmt.Sprintf("GitHub refused access: %s", message), nil)
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError(fmt.Sprintf("GitHub rejected credentials: %s", message), nil)
	default:
		return apperrors.NewUnexpectedStatusError(resp.StatusCode,
			fmt.Sprintf("GitHub API error (status %d): %s", resp.StatusCode, message))
	}
}

func rateLimited(info RateLimitInfo) error {
	reset := info.ResetTime
	if !info.RetryAfter.IsZero() && info.RetryAfter.After(reset) {
		reset = info.RetryAfter
	}
	return apperrors.NewRateLimitError(reset, info.Limit, info.Remaining)
}

// remoteMessage extracts GitHub's {"message": ...} field, falling back to the raw body
func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
