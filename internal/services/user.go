package services

import (
	"context"
	"fmt"

	"barkpark-backend/internal/auth"
	"barkpark-backend/internal/models"
	"barkpark-backend/internal/validation"
)

// UserStore defines the persistence operations the user service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameInUse(ctx context.Context, username string, excludeID *int64) (bool, error)
	EmailInUse(ctx context.Context, email string, excludeID *int64) (bool, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, digest string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	SearchByUsername(ctx context.Context, partial string) ([]*models.User, error)
}

// UserService handles user-related business logic.
type UserService struct {
	users  UserStore
	hasher *auth.Hasher
}

// NewUserService creates a new user service.
func NewUserService(users UserStore, hasher *auth.Hasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// CreateUserInput is the typed field-set for signup.
type CreateUserInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	CheckedIn *int64
}

// Create hashes the password and inserts the user.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:  in.Username,
		Password:  digest,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		CheckedIn: in.CheckedIn,
	}
	return s.users.Create(ctx, user)
}

// GetByID retrieves a user; a missing user is (nil, nil).
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Lookup resolves a login identifier that may be a username or an email.
func (s *UserService) Lookup(ctx context.Context, identifier string) (*models.User, error) {
	if validation.EmailShaped(identifier) {
		return s.users.GetByEmail(ctx, identifier)
	}
	return s.users.GetByUsername(ctx, identifier)
}

// VerifyPassword reports whether plain matches the user's stored digest.
func (s *UserService) VerifyPassword(user *models.User, plain string) bool {
	return s.hasher.Verify(plain, user.Password)
}

// UsernameInUse checks uniqueness. excludeID scopes the check for update
// flows so a user keeping their own username is not a conflict.
func (s *UserService) UsernameInUse(ctx context.Context, username string, excludeID *int64) (bool, error) {
	return s.users.UsernameInUse(ctx, username, excludeID)
}

// EmailInUse mirrors UsernameInUse for emails.
func (s *UserService) EmailInUse(ctx context.Context, email string, excludeID *int64) (bool, error) {
	return s.users.EmailInUse(ctx, email, excludeID)
}

// UpdateUserInput is the typed field-set for profile updates.
type UpdateUserInput struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	CheckedIn    *int64
	CheckedInSet bool
}

// Update overlays the supplied fields on the existing row and persists the
// result. The password digest is carried over untouched.
func (s *UserService) Update(ctx context.Context, target *models.User, in UpdateUserInput) (*models.User, error) {
	updated := *target
	updated.Username = in.Username
	updated.FirstName = in.FirstName
	updated.LastName = in.LastName
	updated.Email = in.Email
	if in.CheckedInSet {
		updated.CheckedIn = in.CheckedIn
	}
	return s.users.Update(ctx, &updated)
}

// UpdatePassword hashes and persists a new password. Username and email are
// untouched, so uniqueness is not re-validated here.
func (s *UserService) UpdatePassword(ctx context.Context, id int64, plain string) (*models.User, error) {
	digest, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}
	return s.users.UpdatePassword(ctx, id, digest)
}

// Delete removes the user; owned dogs and both directions of any friendship
// cascade at the store.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Search performs a case-insensitive partial username match.
func (s *UserService) Search(ctx context.Context, partial string) ([]*models.User, error) {
	return s.users.SearchByUsername(ctx, partial)
}
