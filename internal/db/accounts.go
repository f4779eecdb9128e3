package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	apperrors "github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// CreateAccount stores a new local account. A taken username is a CONFLICT.
func (s *SQLStore) CreateAccount(ctx context.Context, account *models.Account) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO accounts (username, password_hash, created_at)
		VALUES (?, ?, ?)`),
		account.Username, account.PasswordHash, account.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("account %s already exists", account.Username), err)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccount returns the account for username, or a NOT_FOUND error
func (s *SQLStore) GetAccount(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT username, password_hash, created_at
		FROM accounts
		WHERE username = ?`), username).
		Scan(&account.Username, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("account %s not found", username), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// isUniqueViolation recognises primary-key clashes from both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
