package services

import (
	"context"

	"barkpark-backend/internal/models"
)

// ParkStore defines the persistence operations the park service needs.
type ParkStore interface {
	List(ctx context.Context) ([]*models.Park, error)
	GetByID(ctx context.Context, id int64) (*models.Park, error)
}

// ParkService serves the read-mostly park directory.
type ParkService struct {
	parks ParkStore
}

// NewParkService creates a new park service.
func NewParkService(parks ParkStore) *ParkService {
	return &ParkService{parks: parks}
}

func (s *ParkService) List(ctx context.Context) ([]*models.Park, error) {
	return s.parks.List(ctx)
}

func (s *ParkService) GetByID(ctx context.Context, id int64) (*models.Park, error) {
	return s.parks.GetByID(ctx, id)
}
