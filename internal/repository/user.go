package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barkpark-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `user_id, username, password, first_name, last_name, email, checked_in, profile_image, created_at, updated_at`

// UserRepository handles database operations for users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.UserID, &u.Username, &u.Password, &u.FirstName, &u.LastName,
		&u.Email, &u.CheckedIn, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// Create inserts a user and returns the stored row in one round trip.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, password, first_name, last_name, email, checked_in)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRow(ctx, query,
		user.Username, user.Password, user.FirstName, user.LastName, user.Email, user.CheckedIn,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// GetByID retrieves a user by ID. A missing row is (nil, nil).
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRow(ctx, query, username))
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// UsernameInUse checks whether a username is taken. With excludeID set, a
// row belonging to that identity does not count, which is the update-flow
// scoping: a user keeping their own username is not a conflict.
func (r *UserRepository) UsernameInUse(ctx context.Context, username string, excludeID *int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND ($2::bigint IS NULL OR user_id <> $2))`
	var exists bool
	if err := r.db.QueryRow(ctx, query, username, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// EmailInUse mirrors UsernameInUse for emails.
func (r *UserRepository) EmailInUse(ctx context.Context, email string, excludeID *int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND ($2::bigint IS NULL OR user_id <> $2))`
	var exists bool
	if err := r.db.QueryRow(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// Update persists profile fields and returns the post-mutation row. The
// password column is deliberately untouched.
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET username = $1, first_name = $2, last_name = $3, email = $4, checked_in = $5, updated_at = now()
		WHERE user_id = $6
		RETURNING ` + userColumns
	updated, err := scanUser(r.db.QueryRow(ctx, query,
		user.Username, user.FirstName, user.LastName, user.Email, user.CheckedIn, user.UserID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// UpdatePassword replaces only the password digest.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, digest string) (*models.User, error) {
	query := `
		UPDATE users
		SET password = $1, updated_at = now()
		WHERE user_id = $2
		RETURNING ` + userColumns
	updated, err := scanUser(r.db.QueryRow(ctx, query, digest, id))
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	return updated, nil
}

// Delete removes a user. Owned dogs, friendships in both directions,
// favorites, and check-ins go with it via ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// likeEscaper neutralizes LIKE metacharacters in user input so a partial
// containing % or _ matches those characters literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchByUsername performs a case-insensitive partial username match.
func (r *UserRepository) SearchByUsername(ctx context.Context, partial string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username ILIKE '%' || $1 || '%' ORDER BY username`
	rows, err := r.db.Query(ctx, query, likeEscaper.Replace(partial))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetCheckedIn re-points the user's checked-in park reference, nil to clear.
func (r *UserRepository) SetCheckedIn(ctx context.Context, id int64, parkID *int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET checked_in = $1, updated_at = now() WHERE user_id = $2`, parkID, id)
	if err != nil {
		return fmt.Errorf("failed to set checked_in: %w", err)
	}
	return nil
}
