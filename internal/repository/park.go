package repository

import (
	"context"
	"errors"
	"fmt"

	"barkpark-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const parkColumns = `park_id, name, street_address, city, state, zip, small_dogs, medium_dogs,
	monday_open::text, monday_close::text, tuesday_open::text, tuesday_close::text,
	wednesday_open::text, wednesday_close::text, thursday_open::text, thursday_close::text,
	friday_open::text, friday_close::text, saturday_open::text, saturday_close::text,
	sunday_open::text, sunday_close::text, park_image, created_at, updated_at`

// ParkRepository handles database operations for parks. Parks are
// read-mostly; no pipeline mutates them.
type ParkRepository struct {
	db *pgxpool.Pool
}

// NewParkRepository creates a new park repository.
func NewParkRepository(db *pgxpool.Pool) *ParkRepository {
	return &ParkRepository{db: db}
}

func scanPark(row pgx.Row) (*models.Park, error) {
	var p models.Park
	err := row.Scan(
		&p.ParkID, &p.Name, &p.StreetAddress, &p.City, &p.State, &p.Zip,
		&p.SmallDogs, &p.MediumDogs,
		&p.MondayOpen, &p.MondayClose, &p.TuesdayOpen, &p.TuesdayClose,
		&p.WednesdayOpen, &p.WednesdayClose, &p.ThursdayOpen, &p.ThursdayClose,
		&p.FridayOpen, &p.FridayClose, &p.SaturdayOpen, &p.SaturdayClose,
		&p.SundayOpen, &p.SundayClose, &p.ParkImage, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan park: %w", err)
	}
	return &p, nil
}

// List returns the full park directory.
func (r *ParkRepository) List(ctx context.Context) ([]*models.Park, error) {
	rows, err := r.db.Query(ctx, `SELECT `+parkColumns+` FROM parks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list parks: %w", err)
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

// GetByID retrieves a park by ID. A missing row is (nil, nil).
func (r *ParkRepository) GetByID(ctx context.Context, id int64) (*models.Park, error) {
	query := `SELECT ` + parkColumns + ` FROM parks WHERE park_id = $1`
	return scanPark(r.db.QueryRow(ctx, query, id))
}
