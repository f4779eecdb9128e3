package config

import "time"

const (
	// UnauthenticatedRequestsPerHour is GitHub's quota for anonymous clients
	UnauthenticatedRequestsPerHour = 60
	AuthenticatedRequestsPerHour   = 5000
)

// GitHubConfig holds GitHub-specific configuration
type GitHubConfig struct {
	// Token is optional; when empty requests are anonymous
	Token          string          `mapstructure:"Token"`
	APIBaseURL     string          `mapstructure:"APIBaseURL"`
	RequestTimeout time.Duration   `mapstructure:"RequestTimeout"`
	RateLimit      RateLimitConfig `mapstructure:"RateLimit"`
}

// RateLimitConfig holds client throttling and orchestrator retry configuration
type RateLimitConfig struct {
	RequestsPerHour int           `mapstructure:"RequestsPerHour"`
	MaxRetries      int           `mapstructure:"MaxRetries"`
	InitialBackoff  time.Duration `mapstructure:"InitialBackoff"`
	MaxBackoff      time.Duration `mapstructure:"MaxBackoff"`
}

// DefaultGitHubConfig returns the default GitHub configuration
func DefaultGitHubConfig() *GitHubConfig {
	return &GitHubConfig{
		APIBaseURL:     "https://api.github.com",
		RequestTimeout: 20 * time.Second,
		RateLimit: RateLimitConfig{
			RequestsPerHour: UnauthenticatedRequestsPerHour,
			MaxRetries:      2,
			InitialBackoff:  500 * time.Millisecond,
			MaxBackoff:      5 * time.Second,
		},
	}
}
