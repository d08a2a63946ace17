package repository

import (
	"context"
	"fmt"

	"barkpark-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FavoriteRepository handles database operations for park bookmarks.
type FavoriteRepository struct {
	db *pgxpool.Pool
}

// NewFavoriteRepository creates a new favorite repository.
func NewFavoriteRepository(db *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Exists checks whether the user already bookmarked the park.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, parkID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM favorite_parks WHERE "user" = $1 AND park = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, parkID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// Add inserts a bookmark.
func (r *FavoriteRepository) Add(ctx context.Context, userID, parkID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO favorite_parks ("user", park) VALUES ($1, $2)`, userID, parkID)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove deletes a bookmark.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, parkID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM favorite_parks WHERE "user" = $1 AND park = $2`, userID, parkID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("favorite not found")
	}
	return nil
}

// ListForUser returns the parks the user bookmarked.
func (r *FavoriteRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Park, error) {
	query := `
		SELECT ` + parkColumns + `
		FROM favorite_parks f
		JOIN parks ON f.park = parks.park_id
		WHERE f."user" = $1
		ORDER BY parks.name`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var parks []*models.Park
	for rows.Next() {
		p, err := scanPark(rows)
		if err != nil {
			return nil, err
		}
		parks = append(parks, p)
	}
	return parks, rows.Err()
}
