package models

import "time"

// User is an account holder. The password digest is excluded from JSON so it
// can never leak into a response payload.
type User struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Password     string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	CheckedIn    *int64    `json:"checked_in"`
	ProfileImage *int64    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Dog is owned by exactly one user and is cascade-deleted with its owner.
type Dog struct {
	DogID          int64     `json:"dog_id"`
	Name           string    `json:"name"`
	PrimaryBreed   string    `json:"primary_breed"`
	Mixed          bool      `json:"mixed"`
	SecondaryBreed *string   `json:"secondary_breed"`
	Age            string    `json:"age"`
	Size           string    `json:"size"`
	Temperament    string    `json:"temperament"`
	Likes          *string   `json:"likes"`
	Dislikes       *string   `json:"dislikes"`
	Owner          int64     `json:"owner"`
	CheckedIn      *int64    `json:"checked_in"`
	DogImage       *int64    `json:"dog_image"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Park is a read-mostly directory entry. Open/close times are nullable pairs
// per weekday; a null pair means closed that day.
type Park struct {
	ParkID         int64     `json:"park_id"`
	Name           string    `json:"name"`
	StreetAddress  string    `json:"street_address"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Zip            string    `json:"zip"`
	SmallDogs      bool      `json:"small_dogs"`
	MediumDogs     bool      `json:"medium_dogs"`
	MondayOpen     *string   `json:"monday_open"`
	MondayClose    *string   `json:"monday_close"`
	TuesdayOpen    *string   `json:"tuesday_open"`
	TuesdayClose   *string   `json:"tuesday_close"`
	WednesdayOpen  *string   `json:"wednesday_open"`
	WednesdayClose *string   `json:"wednesday_close"`
	ThursdayOpen   *string   `json:"thursday_open"`
	ThursdayClose  *string   `json:"thursday_close"`
	FridayOpen     *string   `json:"friday_open"`
	FridayClose    *string   `json:"friday_close"`
	SaturdayOpen   *string   `json:"saturday_open"`
	SaturdayClose  *string   `json:"saturday_close"`
	SundayOpen     *string   `json:"sunday_open"`
	SundayClose    *string   `json:"sunday_close"`
	ParkImage      *int64    `json:"park_image"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Friendship is a directional membership row. A mutual relationship is two
// rows, one in each direction; add and remove act on one direction at a time.
type Friendship struct {
	User   int64 `json:"user"`
	Friend int64 `json:"friend"`
}

// Favorite bookmarks a park for a user.
type Favorite struct {
	User int64 `json:"user"`
	Park int64 `json:"park"`
}

// CheckIn records one park visit by a user and one of their dogs. An open
// visit has a null check-out time.
type CheckIn struct {
	CheckInDate  time.Time `json:"check_in_date"`
	CheckInTime  string    `json:"check_in_time"`
	CheckOutTime *string   `json:"check_out_time"`
	User         int64     `json:"user"`
	Dog          int64     `json:"dog"`
	Park         int64     `json:"park"`
}

// Image is blob metadata referenced by users, dogs, and parks. The owning row
// is re-pointed before the metadata row is deleted, never the other way round.
type Image struct {
	ImageID      int64     `json:"image_id"`
	OriginalName string    `json:"originalname"`
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
