package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// UpsertRepositories replaces every row stored for username with repos, all
// tagged with fingerprint. It runs in one transaction, so readers see either
// the previous set or the new one.
func (s *SQLStore) UpsertRepositories(ctx context.Context, username string, repos []models.Repository, fingerprint string) error {
	logger := s.logger.WithFields(logrus.Fields{
		"username":   username,
		"repo_count": len(repos),
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, s.rebind("DELETE FROM repo WHERE username = ?"), username)
	if err != nil {
		return fmt.Errorf("failed to delete previous repositories: %w", err)
	}
	removed, _ := result.RowsAffected()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO repo (
			id, username, name, description, language, stars, forks,
			private, updated_at, html_url, hash, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare repository insert statement: %w", err)
	}
	defer stmt.Close()

	for i, repo := range repos {
		_, err := stmt.ExecContext(ctx,
			repo.ID,
			username,
			repo.Name,
			nullString(repo.Description),
			nullString(repo.Language),
			repo.StarsCount,
			repo.ForksCount,
			repo.Private,
			nullTime(repo.UpdatedAt),
			repo.URL,
			fingerprint,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert repository %d: %w", repo.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.WithField("removed", removed).Debug("Replaced cached repositories")
	return nil
}

// LoadRepositories returns the cached repositories of username in stored
// order. An unknown username yields an empty slice.
func (s *SQLStore) LoadRepositories(ctx context.Context, username string) ([]models.Repository, error) {
	set, err := s.LoadRepositorySet(ctx, username)
	if err != nil {
		return nil, err
	}
	return set.Repositories, nil
}

// LoadRepositorySet returns the cached repositories with the fingerprint
// they were stored under. Fingerprint is empty when nothing is cached.
func (s *SQLStore) LoadRepositorySet(ctx context.Context, username string) (*models.RepositorySet, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT
			id, name, description, language, stars, forks,
			private, updated_at, html_url, hash
		FROM repo
		WHERE username = ?
		ORDER BY position, id`), username)
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	set := &models.RepositorySet{
		Username:     username,
		Repositories: []models.Repository{},
	}
	for rows.Next() {
		var (
			repo        models.Repository
			description sql.NullString
			language    sql.NullString
			updatedAt   sql.NullTime
		)
		if err := rows.Scan(
			&repo.ID,
			&repo.Name,
			&description,
			&language,
			&repo.StarsCount,
			&repo.ForksCount,
			&repo.Private,
			&updatedAt,
			&repo.URL,
			&set.Fingerprint,
		); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		if description.Valid {
			repo.Description = &description.String
		}
		if language.Valid {
			repo.Language = &language.String
		}
		if updatedAt.Valid {
			t := updatedAt.Time.UTC()
			repo.UpdatedAt = &t
		}
		set.Repositories = append(set.Repositories, repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repositories: %w", err)
	}

	return set, nil
}

// CountRepositories returns the number of cached repositories of username
func (s *SQLStore) CountRepositories(ctx context.Context, username string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM repo WHERE username = ?"), username).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count repositories: %w", err)
	}
	return count, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
