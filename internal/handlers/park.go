package handlers

import (
	"context"
	"net/http"

	"barkpark-backend/internal/models"
	"barkpark-backend/internal/pipeline"
	"barkpark-backend/internal/services"
)

// ParkHandler serves the park directory. Reads are public.
type ParkHandler struct {
	parks *services.ParkService
}

// NewParkHandler creates a new park handler.
func NewParkHandler(parks *services.ParkService) *ParkHandler {
	return &ParkHandler{parks: parks}
}

// List handles GET /parks.
func (h *ParkHandler) List(w http.ResponseWriter, r *http.Request) {
	parks, err := h.parks.List(r.Context())
	if err != nil {
		respondFailure(w, internalFailure(err, "Failed to list parks"))
		return
	}
	respondData(w, http.StatusOK, parks)
}

// Read handles GET /parks/{park_id}.
func (h *ParkHandler) Read(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var target *models.Park

	stages := []pipeline.Stage{
		{Name: "park_exists", Run: func(ctx context.Context) *pipeline.Failure {
			id, f := pathID(r, "park_id")
			if f != nil {
				return f
			}
			park, err := h.parks.GetByID(ctx, id)
			if err != nil {
				return internalFailure(err, "Failed to look up park")
			}
			if park == nil {
				return pipeline.NotFoundf("Park ID '%d' cannot be found.", id)
			}
			target = park
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, target)
}
