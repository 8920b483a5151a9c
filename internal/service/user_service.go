package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/service/auth"
	"github.com/schedr/schedr-api/internal/store"
)

// UserService provides account operations: registration, authentication,
// profile updates, and deletion.
type UserService interface {
	// Register creates a new account with a hashed password.
	// Returns store.ErrEmailExists if the email is taken.
	Register(ctx context.Context, email, displayName, password string) (*domain.User, error)

	// Authenticate checks an email/password pair and returns the user.
	// Returns ErrInvalidCredentials on any mismatch.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateDisplayName changes a user's display name.
	UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) (*domain.User, error)

	// ChangePassword replaces a user's password after verifying the current
	// one. Returns ErrWrongPassword if the current password does not match.
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	// DeleteAccount removes the user; sessions and schedules cascade.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	verifier  auth.PasswordVerifier
	db        *sql.DB
	logger    *slog.Logger

	// runInTx wraps transactional work; injectable for testing.
	runInTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// Ensure UserServiceImpl implements UserService interface
var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	db *sql.DB,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		verifier:  verifier,
		db:        db,
		logger:    logger.With("component", "user_service"),
		runInTx:   store.RunInTransaction,
	}
}

// Register implements UserService.Register
func (s *UserServiceImpl) Register(
	ctx context.Context,
	email, displayName, password string,
) (*domain.User, error) {
	user, err := domain.NewUser(email, displayName, password)
	if err != nil {
		s.logger.Debug("user validation failed during registration",
			"error", err)
		return nil, err
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err,
			"user_id", user.ID)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = "" // plaintext is no longer needed

	err = s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			"error", err,
			"user_id", user.ID)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID)
	return user, nil
}

// Authenticate implements UserService.Authenticate
func (s *UserServiceImpl) Authenticate(
	ctx context.Context,
	email, password string,
) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("authentication failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for authentication",
			"error", err)
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("authentication failed: password mismatch",
			"user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser implements UserService.GetUser
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, err
	}
	return user, nil
}

// UpdateDisplayName implements UserService.UpdateDisplayName
// The full user is loaded first, the one field changed, and the complete
// object passed back to the store.
func (s *UserServiceImpl) UpdateDisplayName(
	ctx context.Context,
	userID uuid.UUID,
	displayName string,
) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = displayName
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		s.logger.Error("failed to update display name",
			"error", err,
			"user_id", userID)
		return nil, err
	}

	s.logger.Debug("display name updated", "user_id", userID)
	return user, nil
}

// ChangePassword implements UserService.ChangePassword
func (s *UserServiceImpl) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentPassword, newPassword string,
) error {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.verifier.Compare(user.HashedPassword, currentPassword); err != nil {
		s.logger.Debug("password change rejected: current password mismatch",
			"user_id", userID)
		return ErrWrongPassword
	}

	// Run the new password through domain validation before hashing.
	user.Password = newPassword
	if err := user.Validate(); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		s.logger.Error("failed to update password",
			"error", err,
			"user_id", userID)
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// DeleteAccount implements UserService.DeleteAccount
func (s *UserServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	err := s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to delete account",
				"error", err,
				"user_id", userID)
		}
		return err
	}

	s.logger.Info("account deleted", "user_id", userID)
	return nil
}
