package validation

import (
	"regexp"
	"unicode/utf8"

	"barkpark-backend/internal/pipeline"
)

// Closed enums for dog profiles. Any value outside these sets is rejected
// with a message naming the offending value.
var (
	ValidAges  = []string{"Puppy", "Junior", "Adult", "Mature", "Senior"}
	ValidSizes = []string{"Teacup", "Toy", "Small", "Medium", "Large", "Giant"}
)

// Minimal shape check, not full RFC validation: local part, @, domain with
// at least one dot.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minUsernameLength = 3

// CheckAge rejects age values outside the closed age-group set.
func CheckAge(age string) *pipeline.Failure {
	if contains(ValidAges, age) {
		return nil
	}
	return pipeline.Invalidf("%s is not a valid age group.", age)
}

// CheckSize rejects size values outside the closed size-group set.
func CheckSize(size string) *pipeline.Failure {
	if contains(ValidSizes, size) {
		return nil
	}
	return pipeline.Invalidf("%s is not a valid size group.", size)
}

// CheckEmail rejects values that do not match the minimal email shape.
func CheckEmail(email string) *pipeline.Failure {
	if EmailShaped(email) {
		return nil
	}
	return pipeline.Invalidf("Invalid email format: '%s'.", email)
}

// CheckUsername rejects usernames shorter than three characters.
func CheckUsername(username string) *pipeline.Failure {
	if utf8.RuneCountInString(username) >= minUsernameLength {
		return nil
	}
	return pipeline.Invalidf("Username '%s' is too short. Username must be at least %d characters.", username, minUsernameLength)
}

// EmailShaped reports whether the value looks like an email address. Login
// uses it to decide between username and email lookup.
func EmailShaped(value string) bool {
	return emailPattern.MatchString(value)
}
