package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the fixed bcrypt work factor applied to every password
// digest. Raising it only affects digests created afterwards; verification
// reads the cost out of the stored digest.
const DefaultCost = 13

// Hasher is the credential capability: a slow, salted one-way hash plus
// constant-time verification.
type Hasher struct {
	cost int
}

// NewHasher creates a hasher with the given bcrypt cost. A cost outside
// bcrypt's valid range falls back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted digest from a plaintext password.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches the stored digest.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
