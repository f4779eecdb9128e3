package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// GetSyncStatus retrieves the sync status for a username, or nil when none is recorded
func (s *SQLStore) GetSyncStatus(ctx context.Context, username string) (*models.SyncStatus, error) {
	var statusJSON []byte

	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT status_json FROM sync_status
		WHERE username = ?
	`), username).Scan(&statusJSON)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	var status models.SyncStatus
	if err := json.Unmarshal(statusJSON, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync status: %w", err)
	}

	return &status, nil
}

// UpdateSyncStatus inserts or replaces the sync status of status.Username
func (s *SQLStore) UpdateSyncStatus(ctx context.Context, status *models.SyncStatus) error {
	if status == nil {
		return apperrors.NewValidationError("status cannot be nil", nil)
	}
	if status.Username == "" {
		return apperrors.NewValidationError("status username cannot be empty", nil)
	}

	statusJSON, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal sync status: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sync_status (username, status_json, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (username) DO UPDATE SET
			status_json = excluded.status_json,
			updated_at = CURRENT_TIMESTAMP
	`), status.Username, string(statusJSON))

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// ListSyncStatuses retrieves all sync statuses ordered by username
func (s *SQLStore) ListSyncStatuses(ctx context.Context) ([]*models.SyncStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status_json FROM sync_status
		ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync statuses: %w", err)
	}
	defer rows.Close()

	statuses := []*models.SyncStatus{}
	for rows.Next() {
		var statusJSON []byte
		if err := rows.Scan(&statusJSON); err != nil {
			return nil, fmt.Errorf("failed to scan sync status row: %w", err)
		}

		var status models.SyncStatus
		if err := json.Unmarshal(statusJSON, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sync status: %w", err)
		}

		statuses = append(statuses, &status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync status rows: %w", err)
	}

	return statuses, nil
}

// DeleteSyncStatus removes the sync status for a username
func (s *SQLStore) DeleteSyncStatus(ctx context.Context, username string) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM sync_status WHERE username = ?"), username)
	if err != nil {
		return fmt.Errorf("failed to delete sync status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("no sync status found for %s", username), nil)
	}

	return nil
}
