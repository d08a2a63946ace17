package middleware

import (
	"net/http"

	"barkpark-backend/internal/session"

	"github.com/rs/zerolog/log"
)

// WithSession resolves the session cookie once per request and stashes the
// result in the context. It never rejects; routes that require a login check
// the context themselves.
func WithSession(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := store.Get(r.Context(), cookie.Value)
			if err != nil {
				log.Error().Err(err).Msg("Failed to resolve session")
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
		})
	}
}
