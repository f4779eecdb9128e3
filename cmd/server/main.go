package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Kamar-Folarin/repo-tracker/internal/accounts"
	"github.com/Kamar-Folarin/repo-tracker/internal/api"
	"github.com/Kamar-Folarin/repo-tracker/internal/config"
	"github.com/Kamar-Folarin/repo-tracker/internal/db"
	"github.com/Kamar-Folarin/repo-tracker/internal/github"
	"github.com/Kamar-Folarin/repo-tracker/internal/logger"
	"github.com/Kamar-Folarin/repo-tracker/internal/snapshot"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logs := logger.New(cfg.Logs)

	store, err := db.NewSQLStore(cfg.DB.Driver, cfg.DB.ConnectionString, logs)
	if err != nil {
		logs.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Postgres may still be starting when the container comes up
	if err := retry(3, 5*time.Second, store.Migrate); err != nil {
		logs.Fatalf("Failed to run migrations after retries: %v", err)
	}

	client := github.NewClient(logs,
		github.WithBaseURL(cfg.GitHub.APIBaseURL),
		github.WithTimeout(cfg.GitHub.RequestTimeout),
		github.WithToken(cfg.GitHub.Token),
		github.WithRateLimiter(newLimiter(cfg.GitHub.RateLimit.RequestsPerHour)),
	)

	var snapshots github.SnapshotStore
	if cfg.Sync.SnapshotPath != "" {
		snapshots = snapshot.NewWriter(cfg.Sync.SnapshotPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncService := github.NewSyncService(client, store, snapshots, github.NewStatusManager(store), &cfg.Sync, logs)
	syncService.StartScheduler(ctx, cfg.Sync.Interval)

	handler := api.NewHandler(ctx, syncService, accounts.NewService(store, logs), logs)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.SetupRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Sync.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logs.WithFields(logrus.Fields{
			"port":      cfg.Port,
			"db_driver": cfg.DB.Driver,
			"token_set": cfg.GitHub.Token != "",
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logs.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logs.Errorf("Server shutdown failed: %v", err)
	}
	logs.Info("Server exited properly")
}

// newLimiter spreads requestsPerHour evenly over the hour and allows a burst
// of the whole quota. A non-positive quota disables client-side throttling.
func newLimiter(requestsPerHour int) *rate.Limiter {
	if requestsPerHour <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Hour/time.Duration(requestsPerHour)), requestsPerHour)
}

// retry retries a function up to a certain number of attempts with a delay between attempts
func retry(attempts int, sleep time.Duration, fn func() error) error {
	if err := fn(); err != nil {
		if attempts--; attempts > 0 {
			time.Sleep(sleep)
			return retry(attempts, sleep, fn)
		}
		return err
	}
	return nil
}
