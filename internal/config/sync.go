package config

import "time"

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	// Interval between scheduled re-syncs of every tracked username; 0 disables it
	Interval           time.Duration `mapstructure:"Interval"`
	Timeout            time.Duration `mapstructure:"Timeout"`
	MaxConcurrentSyncs int           `mapstructure:"MaxConcurrentSyncs"`
	SnapshotPath       string        `mapstructure:"SnapshotPath"`
	BatchConfig        BatchConfig   `mapstructure:"Batch"`

	// RequestTimeout and Retry mirror GitHubConfig; Load keeps them in step
	RequestTimeout time.Duration   `mapstructure:"-"`
	Retry          RateLimitConfig `mapstructure:"-"`
}

// BatchConfig holds batch processing configuration
type BatchConfig struct {
	Workers   int           `mapstructure:"Workers"`
	ItemDelay time.Duration `mapstructure:"ItemDelay"`
}

// DefaultSyncConfig returns the default sync configuration
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Interval:           time.Hour,
		Timeout:            time.Minute,
		RequestTimeout:     20 * time.Second,
		MaxConcurrentSyncs: 3,
		SnapshotPath:       "repos.snapshot.json",
		Retry:              DefaultGitHubConfig().RateLimit,
		BatchConfig: BatchConfig{
			Workers: 3,
		},
	}
}
