package session

import (
	"context"
	"time"

	"barkpark-backend/internal/models"
)

const (
	// CookieName carries the session token. Identity lives server side; the
	// cookie is only the key.
	CookieName = "bark_session"

	DefaultTTL = 7 * 24 * time.Hour
)

// Session binds a token to an authenticated user identity. User is a
// sanitized snapshot taken at login; the digest is blanked before storage.
type Session struct {
	Token  string       `json:"token"`
	UserID int64        `json:"user_id"`
	User   *models.User `json:"user"`
}

// Store is the pluggable session backend. MemoryStore suits a single
// instance; RedisStore is required once the server scales horizontally.
type Store interface {
	// Create opens a session for the user and returns it with a fresh token.
	Create(ctx context.Context, user *models.User) (*Session, error)
	// Get resolves a token. A missing or expired session is (nil, nil).
	Get(ctx context.Context, token string) (*Session, error)
	// Delete tears the session down. Deleting an unknown token is a no-op.
	Delete(ctx context.Context, token string) error
	// TTL is the session lifetime, used to keep cookie expiry in step with
	// the store's.
	TTL() time.Duration
}

type contextKey struct{}

// NewContext attaches a resolved session to the request context. Middleware
// resolves the cookie once per request; everything downstream reads the
// context, never the store.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or nil for anonymous requests.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// snapshot copies the user and blanks the password digest so no store
// backend ever holds or replays it.
func snapshot(user *models.User) *models.User {
	u := *user
	u.Password = ""
	return &u
}
