package services

import (
	"context"

	"barkpark-backend/internal/models"
)

// DogStore defines the persistence operations the dog service needs.
type DogStore interface {
	Create(ctx context.Context, dog *models.Dog) (*models.Dog, error)
	GetByID(ctx context.Context, id int64) (*models.Dog, error)
	Update(ctx context.Context, dog *models.Dog) (*models.Dog, error)
	Delete(ctx context.Context, id int64) error
	SetCheckedIn(ctx context.Context, id int64, parkID *int64) error
}

// DogService handles dog-related business logic.
type DogService struct {
	dogs DogStore
}

// NewDogService creates a new dog service.
func NewDogService(dogs DogStore) *DogService {
	return &DogService{dogs: dogs}
}

// DogInput is the typed field-set for dog create/update.
type DogInput struct {
	Name           string
	PrimaryBreed   string
	Mixed          bool
	SecondaryBreed *string
	Age            string
	Size           string
	Temperament    string
	Likes          *string
	Dislikes       *string
	Owner          int64
}

// Create inserts a dog profile.
func (s *DogService) Create(ctx context.Context, in DogInput) (*models.Dog, error) {
	dog := &models.Dog{
		Name:           in.Name,
		PrimaryBreed:   in.PrimaryBreed,
		Mixed:          in.Mixed,
		SecondaryBreed: in.SecondaryBreed,
		Age:            in.Age,
		Size:           in.Size,
		Temperament:    in.Temperament,
		Likes:          in.Likes,
		Dislikes:       in.Dislikes,
		Owner:          in.Owner,
	}
	return s.dogs.Create(ctx, dog)
}

// GetByID retrieves a dog; a missing dog is (nil, nil).
func (s *DogService) GetByID(ctx context.Context, id int64) (*models.Dog, error) {
	return s.dogs.GetByID(ctx, id)
}

// Update overlays the supplied fields on the existing row. Ownership never
// changes; the owner field of the input is ignored.
func (s *DogService) Update(ctx context.Context, target *models.Dog, in DogInput) (*models.Dog, error) {
	updated := *target
	updated.Name = in.Name
	updated.PrimaryBreed = in.PrimaryBreed
	updated.Mixed = in.Mixed
	updated.SecondaryBreed = in.SecondaryBreed
	updated.Age = in.Age
	updated.Size = in.Size
	updated.Temperament = in.Temperament
	updated.Likes = in.Likes
	updated.Dislikes = in.Dislikes
	return s.dogs.Update(ctx, &updated)
}

// Delete removes a dog profile.
func (s *DogService) Delete(ctx context.Context, id int64) error {
	return s.dogs.Delete(ctx, id)
}
