package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq" // postgres driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store defines the interface for the Local Store
type Store interface {
	// Repository operations
	UpsertRepositories(ctx context.Context, username string, repos []models.Repository, fingerprint string) error
	LoadRepositories(ctx context.Context, username string) ([]models.Repository, error)
	LoadRepositorySet(ctx context.Context, username string) (*models.RepositorySet, error)
	CountRepositories(ctx context.Context, username string) (int, error)

	// Sync operations
	GetSyncStatus(ctx context.Context, username string) (*models.SyncStatus, error)
	UpdateSyncStatus(ctx context.Context, status *models.SyncStatus) error
	ListSyncStatuses(ctx context.Context) ([]*models.SyncStatus, error)
	DeleteSyncStatus(ctx context.Context, username string) error

	// Account operations
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, username string) (*models.Account, error)
}

// SQLStore implements Store on database/sql for SQLite and PostgreSQL
type SQLStore struct {
	db     *sql.DB
	driver string
	logger *logrus.Logger
}

// NewSQLStore opens and pings the database. driver is DriverSQLite or
// DriverPostgres; for SQLite the connection string is a file path or ":memory:".
func NewSQLStore(driver, connectionString string, logger *logrus.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// A single connection serialises writers and keeps ":memory:" databases shared.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return &SQLStore{db: db, driver: driver, logger: logger}, nil
}

// Migrate creates the tables if they do not exist yet. Running it again is a no-op.
func (s *SQLStore) Migrate() error {
	dialect := "postgres"
	if s.driver == DriverSQLite {
		dialect = "sqlite3"
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(s.logger)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into $n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
