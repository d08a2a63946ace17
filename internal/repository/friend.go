package repository

import (
	"context"
	"fmt"

	"barkpark-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRepository handles database operations for friendship rows. Rows are
// directional; a mutual friendship is two rows.
type FriendRepository struct {
	db *pgxpool.Pool
}

// NewFriendRepository creates a new friend repository.
func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

// Exists checks for the friendship row in this direction only.
func (r *FriendRepository) Exists(ctx context.Context, userID, friendID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friends WHERE "user" = $1 AND friend = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, friendID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// Add inserts one direction of a friendship.
func (r *FriendRepository) Add(ctx context.Context, userID, friendID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO friends ("user", friend) VALUES ($1, $2)`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}
	return nil
}

// Remove deletes one direction of a friendship.
func (r *FriendRepository) Remove(ctx context.Context, userID, friendID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM friends WHERE "user" = $1 AND friend = $2`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friendship not found")
	}
	return nil
}

// ListForUser joins friendship rows to users, projecting public fields only.
// The password digest never enters the result set.
func (r *FriendRepository) ListForUser(ctx context.Context, userID int64) ([]*models.User, error) {
	query := `
		SELECT u.user_id, u.username, u.first_name, u.last_name, u.checked_in
		FROM friends f
		JOIN users u ON f.friend = u.user_id
		WHERE f."user" = $1
		ORDER BY u.username`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserID, &u.Username, &u.FirstName, &u.LastName, &u.CheckedIn); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, &u)
	}
	return friends, rows.Err()
}
