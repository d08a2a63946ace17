package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"barkpark-backend/internal/pipeline"
	"barkpark-backend/internal/session"
	"barkpark-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type dataResponse struct {
	Data any `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondData(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: payload}); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(messageResponse{Message: message}); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusFor maps a failure kind to its HTTP status. The mapping lives here
// and nowhere else; stages never pick status codes.
func statusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.Invalid:
		return http.StatusBadRequest
	case pipeline.Unauthenticated:
		return http.StatusUnauthorized
	case pipeline.Forbidden:
		return http.StatusForbidden
	case pipeline.NotFound:
		return http.StatusNotFound
	case pipeline.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondFailure(w http.ResponseWriter, f *pipeline.Failure) {
	respondMessage(w, statusFor(f.Kind), f.Message)
}

// pathID parses a numeric path parameter. A non-numeric value reads the same
// as a resource that does not exist.
func pathID(r *http.Request, name string) (int64, *pipeline.Failure) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pipeline.NotFoundf("'%s' is not a valid id.", raw)
	}
	return id, nil
}

func parseFields(r *http.Request) (validation.FieldSet, *pipeline.Failure) {
	fields, err := validation.ParseBody(r.Body)
	if err != nil {
		return nil, pipeline.Invalidf("Malformed request body.")
	}
	return fields, nil
}

// internalFailure logs the underlying error and returns an opaque failure so
// driver details never leak into responses.
func internalFailure(err error, msg string) *pipeline.Failure {
	log.Error().Err(err).Msg(msg)
	return pipeline.Internalf("Something went wrong.")
}

func requireSession(sess *session.Session) *pipeline.Failure {
	if sess == nil {
		return pipeline.Unauthenticatedf("Not logged in.")
	}
	return nil
}

// requireOwner rejects a logged-in user acting on a resource they do not own.
func requireOwner(sess *session.Session, ownerID int64, what string) *pipeline.Failure {
	if f := requireSession(sess); f != nil {
		return f
	}
	if sess.UserID != ownerID {
		return pipeline.Forbiddenf("Invalid attempt to access %s.", what)
	}
	return nil
}
