package repository

import (
	"context"
	"errors"
	"fmt"

	"barkpark-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const checkInColumns = `check_in_date, check_in_time::text, check_out_time::text, "user", dog, park`

// CheckInRepository handles database operations for park visits. A user has
// at most one open visit: the row with a null check-out time.
type CheckInRepository struct {
	db *pgxpool.Pool
}

// NewCheckInRepository creates a new check-in repository.
func NewCheckInRepository(db *pgxpool.Pool) *CheckInRepository {
	return &CheckInRepository{db: db}
}

func scanCheckIn(row pgx.Row) (*models.CheckIn, error) {
	var c models.CheckIn
	err := row.Scan(&c.CheckInDate, &c.CheckInTime, &c.CheckOutTime, &c.User, &c.Dog, &c.Park)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan check-in: %w", err)
	}
	return &c, nil
}

// Create opens a visit.
func (r *CheckInRepository) Create(ctx context.Context, c *models.CheckIn) error {
	query := `
		INSERT INTO check_ins (check_in_date, check_in_time, check_out_time, "user", dog, park)
		VALUES ($1, $2::time, $3::time, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query, c.CheckInDate, c.CheckInTime, c.CheckOutTime, c.User, c.Dog, c.Park)
	if err != nil {
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

// GetOpenForUser returns the user's open visit, or (nil, nil).
func (r *CheckInRepository) GetOpenForUser(ctx context.Context, userID int64) (*models.CheckIn, error) {
	query := `SELECT ` + checkInColumns + ` FROM check_ins WHERE "user" = $1 AND check_out_time IS NULL`
	return scanCheckIn(r.db.QueryRow(ctx, query, userID))
}

// CloseOpenForUser stamps the check-out time on the user's open visit.
// Reports whether a row was actually closed.
func (r *CheckInRepository) CloseOpenForUser(ctx context.Context, userID int64, checkOutTime string) (bool, error) {
	query := `UPDATE check_ins SET check_out_time = $2::time WHERE "user" = $1 AND check_out_time IS NULL`
	result, err := r.db.Exec(ctx, query, userID, checkOutTime)
	if err != nil {
		return false, fmt.Errorf("failed to close check-in: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListForUser returns the user's visit history, newest first.
func (r *CheckInRepository) ListForUser(ctx context.Context, userID int64) ([]*models.CheckIn, error) {
	query := `SELECT ` + checkInColumns + ` FROM check_ins WHERE "user" = $1 ORDER BY check_in_date DESC, check_in_time DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []*models.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}
