package services

import (
	"context"
	"fmt"
	"time"

	"barkpark-backend/internal/models"
)

// FriendStore defines the persistence operations for friendship rows.
type FriendStore interface {
	Exists(ctx context.Context, userID, friendID int64) (bool, error)
	Add(ctx context.Context, userID, friendID int64) error
	Remove(ctx context.Context, userID, friendID int64) error
	ListForUser(ctx context.Context, userID int64) ([]*models.User, error)
}

// FavoriteStore defines the persistence operations for park bookmarks.
type FavoriteStore interface {
	Exists(ctx context.Context, userID, parkID int64) (bool, error)
	Add(ctx context.Context, userID, parkID int64) error
	Remove(ctx context.Context, userID, parkID int64) error
	ListForUser(ctx context.Context, userID int64) ([]*models.Park, error)
}

// CheckInStore defines the persistence operations for park visits.
type CheckInStore interface {
	Create(ctx context.Context, c *models.CheckIn) error
	GetOpenForUser(ctx context.Context, userID int64) (*models.CheckIn, error)
	CloseOpenForUser(ctx context.Context, userID int64, checkOutTime string) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.CheckIn, error)
}

// CheckedInSetter re-points a checked-in park reference, nil to clear. Both
// the user and dog repositories satisfy it.
type CheckedInSetter interface {
	SetCheckedIn(ctx context.Context, id int64, parkID *int64) error
}

// SocialService handles friendships, favorites, and check-ins.
type SocialService struct {
	friends   FriendStore
	favorites FavoriteStore
	checkIns  CheckInStore
	users     CheckedInSetter
	dogs      CheckedInSetter
}

// NewSocialService creates a new social service.
func NewSocialService(friends FriendStore, favorites FavoriteStore, checkIns CheckInStore, users, dogs CheckedInSetter) *SocialService {
	return &SocialService{
		friends:   friends,
		favorites: favorites,
		checkIns:  checkIns,
		users:     users,
		dogs:      dogs,
	}
}

// AreFriends checks one direction of a friendship.
func (s *SocialService) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	return s.friends.Exists(ctx, userID, friendID)
}

// AddFriend inserts one direction of a friendship.
func (s *SocialService) AddFriend(ctx context.Context, userID, friendID int64) (*models.Friendship, error) {
	if err := s.friends.Add(ctx, userID, friendID); err != nil {
		return nil, err
	}
	return &models.Friendship{User: userID, Friend: friendID}, nil
}

// RemoveFriend deletes one direction of a friendship.
func (s *SocialService) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	return s.friends.Remove(ctx, userID, friendID)
}

// ListFriends returns the user's friends, public fields only.
func (s *SocialService) ListFriends(ctx context.Context, userID int64) ([]*models.User, error) {
	return s.friends.ListForUser(ctx, userID)
}

// IsFavorite checks whether the user bookmarked the park.
func (s *SocialService) IsFavorite(ctx context.Context, userID, parkID int64) (bool, error) {
	return s.favorites.Exists(ctx, userID, parkID)
}

// AddFavorite bookmarks a park.
func (s *SocialService) AddFavorite(ctx context.Context, userID, parkID int64) (*models.Favorite, error) {
	if err := s.favorites.Add(ctx, userID, parkID); err != nil {
		return nil, err
	}
	return &models.Favorite{User: userID, Park: parkID}, nil
}

// RemoveFavorite deletes a bookmark.
func (s *SocialService) RemoveFavorite(ctx context.Context, userID, parkID int64) error {
	return s.favorites.Remove(ctx, userID, parkID)
}

// ListFavorites returns the parks the user bookmarked.
func (s *SocialService) ListFavorites(ctx context.Context, userID int64) ([]*models.Park, error) {
	return s.favorites.ListForUser(ctx, userID)
}

// OpenCheckIn returns the user's open visit, or (nil, nil).
func (s *SocialService) OpenCheckIn(ctx context.Context, userID int64) (*models.CheckIn, error) {
	return s.checkIns.GetOpenForUser(ctx, userID)
}

// CheckIn opens a visit and re-points the user's and dog's checked-in park
// references.
func (s *SocialService) CheckIn(ctx context.Context, userID, dogID, parkID int64) (*models.CheckIn, error) {
	now := time.Now()
	visit := &models.CheckIn{
		CheckInDate: now,
		CheckInTime: now.Format("15:04:05"),
		User:        userID,
		Dog:         dogID,
		Park:        parkID,
	}
	if err := s.checkIns.Create(ctx, visit); err != nil {
		return nil, err
	}
	if err := s.users.SetCheckedIn(ctx, userID, &parkID); err != nil {
		return nil, err
	}
	if err := s.dogs.SetCheckedIn(ctx, dogID, &parkID); err != nil {
		return nil, err
	}
	return visit, nil
}

// CheckOut closes the open visit and clears both checked-in references.
func (s *SocialService) CheckOut(ctx context.Context, open *models.CheckIn) (*models.CheckIn, error) {
	checkOut := time.Now().Format("15:04:05")
	closed, err := s.checkIns.CloseOpenForUser(ctx, open.User, checkOut)
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, fmt.Errorf("no open check-in for user %d", open.User)
	}
	if err := s.users.SetCheckedIn(ctx, open.User, nil); err != nil {
		return nil, err
	}
	if err := s.dogs.SetCheckedIn(ctx, open.Dog, nil); err != nil {
		return nil, err
	}

	done := *open
	done.CheckOutTime = &checkOut
	return &done, nil
}

// ListCheckIns returns the user's visit history.
func (s *SocialService) ListCheckIns(ctx context.Context, userID int64) ([]*models.CheckIn, error) {
	return s.checkIns.ListForUser(ctx, userID)
}
