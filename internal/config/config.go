package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/CIDgravity/snakelet"
)

type Config struct {
	Port   string       `mapstructure:"Port"`
	DB     DBConfig     `mapstructure:"DB"`
	GitHub GitHubConfig `mapstructure:"GITHUB"`
	Sync   SyncConfig   `mapstructure:"SYNC"`
	Logs   LogsConfig   `mapstructure:"LOGS"`
}

// DBConfig selects the Local Store backend
type DBConfig struct {
	Driver           string `mapstructure:"Driver"` // sqlite | postgres
	ConnectionString string `mapstructure:"ConnectionString"`
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info | debug - case insensitive
	OutputLogsAsJSON bool   `mapstructure:"OutputLogsAsJson"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Port: "8080",
		DB: DBConfig{
			Driver:           "sqlite",
			ConnectionString: "tracker.db",
		},
		GitHub: *DefaultGitHubConfig(),
		Sync:   *DefaultSyncConfig(),
		Logs: LogsConfig{
			Level:            "info",
			OutputLogsAsJSON: true,
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file named by
// CONFIG_FILE, then environment variables, each layer overriding the previous.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := snakelet.InitAndLoad(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DB.Driver = strings.ToLower(getEnv("DB_DRIVER", cfg.DB.Driver))
	cfg.DB.ConnectionString = getEnv("DB_CONNECTION_STRING", cfg.DB.ConnectionString)

	cfg.GitHub.APIBaseURL = strings.TrimRight(getEnv("GITHUB_API_BASE_URL", cfg.GitHub.APIBaseURL), "/")
	cfg.GitHub.Token = getEnv("GITHUB_TOKEN", cfg.GitHub.Token)
	if cfg.GitHub.Token != "" && os.Getenv("GITHUB_REQUESTS_PER_HOUR") == "" {
		cfg.GitHub.RateLimit.RequestsPerHour = AuthenticatedRequestsPerHour
	}

	var err error
	if cfg.GitHub.RequestTimeout, err = getEnvSeconds("GITHUB_REQUEST_TIMEOUT_SECONDS", cfg.GitHub.RequestTimeout); err != nil {
		return err
	}
	if cfg.GitHub.RateLimit.RequestsPerHour, err = getEnvInt("GITHUB_REQUESTS_PER_HOUR", cfg.GitHub.RateLimit.RequestsPerHour); err != nil {
		return err
	}
	if cfg.GitHub.RateLimit.MaxRetries, err = getEnvInt("GITHUB_MAX_RETRIES", cfg.GitHub.RateLimit.MaxRetries); err != nil {
		return err
	}

	interval, err := getEnvInt("SYNC_INTERVAL_MINUTES", int(cfg.Sync.Interval/time.Minute))
	if err != nil {
		return err
	}
	cfg.Sync.Interval = time.Duration(interval) * time.Minute
	if cfg.Sync.Timeout, err = getEnvSeconds("SYNC_TIMEOUT_SECONDS", cfg.Sync.Timeout); err != nil {
		return err
	}
	if cfg.Sync.MaxConcurrentSyncs, err = getEnvInt("SYNC_MAX_CONCURRENT", cfg.Sync.MaxConcurrentSyncs); err != nil {
		return err
	}
	cfg.Sync.BatchConfig.Workers = cfg.Sync.MaxConcurrentSyncs
	cfg.Sync.RequestTimeout = cfg.GitHub.RequestTimeout
	cfg.Sync.Retry = cfg.GitHub.RateLimit
	cfg.Sync.SnapshotPath = getEnv("SNAPSHOT_PATH", cfg.Sync.SnapshotPath)

	cfg.Logs.Level = getEnv("LOG_LEVEL", cfg.Logs.Level)
	if v := os.Getenv("LOG_JSON"); v != "" {
		asJSON, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		cfg.Logs.OutputLogsAsJSON = asJSON
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func getEnvSeconds(key string, defaultValue time.Duration) (time.Duration, error) {
	seconds, err := getEnvInt(key, int(defaultValue/time.Second))
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}
