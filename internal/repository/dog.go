package repository

import (
	"context"
	"errors"
	"fmt"

	"barkpark-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dogColumns = `dog_id, name, primary_breed, mixed, secondary_breed, age, size, temperament, likes, dislikes, owner, checked_in, dog_image, created_at, updated_at`

// DogRepository handles database operations for dogs.
type DogRepository struct {
	db *pgxpool.Pool
}

// NewDogRepository creates a new dog repository.
func NewDogRepository(db *pgxpool.Pool) *DogRepository {
	return &DogRepository{db: db}
}

func scanDog(row pgx.Row) (*models.Dog, error) {
	var d models.Dog
	err := row.Scan(
		&d.DogID, &d.Name, &d.PrimaryBreed, &d.Mixed, &d.SecondaryBreed,
		&d.Age, &d.Size, &d.Temperament, &d.Likes, &d.Dislikes,
		&d.Owner, &d.CheckedIn, &d.DogImage, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan dog: %w", err)
	}
	return &d, nil
}

// Create inserts a dog and returns the stored row.
func (r *DogRepository) Create(ctx context.Context, dog *models.Dog) (*models.Dog, error) {
	query := `
		INSERT INTO dogs (name, primary_breed, mixed, secondary_breed, age, size, temperament, likes, dislikes, owner)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + dogColumns
	created, err := scanDog(r.db.QueryRow(ctx, query,
		dog.Name, dog.PrimaryBreed, dog.Mixed, dog.SecondaryBreed, dog.Age,
		dog.Size, dog.Temperament, dog.Likes, dog.Dislikes, dog.Owner,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create dog: %w", err)
	}
	return created, nil
}

// GetByID retrieves a dog by ID. A missing row is (nil, nil).
func (r *DogRepository) GetByID(ctx context.Context, id int64) (*models.Dog, error) {
	query := `SELECT ` + dogColumns + ` FROM dogs WHERE dog_id = $1`
	return scanDog(r.db.QueryRow(ctx, query, id))
}

// Update persists profile fields and returns the post-mutation row. The
// owner column never changes after creation.
func (r *DogRepository) Update(ctx context.Context, dog *models.Dog) (*models.Dog, error) {
	query := `
		UPDATE dogs
		SET name = $1, primary_breed = $2, mixed = $3, secondary_breed = $4, age = $5,
		    size = $6, temperament = $7, likes = $8, dislikes = $9, updated_at = now()
		WHERE dog_id = $10
		RETURNING ` + dogColumns
	updated, err := scanDog(r.db.QueryRow(ctx, query,
		dog.Name, dog.PrimaryBreed, dog.Mixed, dog.SecondaryBreed, dog.Age,
		dog.Size, dog.Temperament, dog.Likes, dog.Dislikes, dog.DogID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update dog: %w", err)
	}
	return updated, nil
}

// Delete removes a dog. Check-ins referencing it cascade.
func (r *DogRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM dogs WHERE dog_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dog: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("dog not found")
	}
	return nil
}

// SetCheckedIn re-points the dog's checked-in park reference, nil to clear.
func (r *DogRepository) SetCheckedIn(ctx context.Context, id int64, parkID *int64) error {
	_, err := r.db.Exec(ctx, `UPDATE dogs SET checked_in = $1, updated_at = now() WHERE dog_id = $2`, parkID, id)
	if err != nil {
		return fmt.Errorf("failed to set checked_in: %w", err)
	}
	return nil
}
