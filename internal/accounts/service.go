// Package accounts manages the local users of the tracker.
package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kamar-Folarin/repo-tracker/internal/errors"
	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// Store is the persistence the account service needs. *db.SQLStore implements it.
type Store interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, username string) (*models.Account, error)
}

type Service struct {
	store  Store
	cost   int
	logger *logrus.Logger
}

// NewService creates an account service hashing with bcrypt.DefaultCost
func NewService(store Store, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{store: store, cost: bcrypt.DefaultCost, logger: logger}
}

// Register creates an account. A taken username fails with CONFLICT.
func (s *Service) Register(ctx context.Context, username, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewValidationError("username cannot be blank", nil)
	}
	if len(password) < MinPasswordLength {
		return nil, errors.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength), nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes
		return nil, errors.NewValidationError("password cannot be hashed", err)
	}

	account := &models.Account{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.IsConflict(err) {
			return nil, err
		}
		return nil, errors.NewStoreError("failed to create account", err)
	}

	s.logger.WithField("account", username).Info("Account registered")
	return account, nil
}

// Authenticate checks the credentials. Unknown users and wrong passwords both
// fail with UNAUTHORIZED.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)

	account, err := s.store.GetAccount(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewUnauthorizedError("invalid username or password", nil)
		}
		return nil, errors.NewStoreError("failed to load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("account", username).Warn("Failed login attempt")
		return nil, errors.NewUnauthorizedError("invalid username or password", nil)
	}

	return account, nil
}
