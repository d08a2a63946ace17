package handlers

import (
	"context"
	"net/http"

	"barkpark-backend/internal/models"
	"barkpark-backend/internal/pipeline"
	"barkpark-backend/internal/services"
	"barkpark-backend/internal/session"
	"barkpark-backend/internal/validation"
)

var dogSchema = validation.Schema{
	Name:     "dog",
	Allowed:  []string{"name", "primary_breed", "mixed", "secondary_breed", "age", "size", "temperament", "likes", "dislikes", "owner"},
	Required: []string{"name", "primary_breed", "age", "size", "temperament", "owner"},
}

// DogHandler serves dog profiles.
type DogHandler struct {
	dogs *services.DogService
}

// NewDogHandler creates a new dog handler.
func NewDogHandler(dogs *services.DogService) *DogHandler {
	return &DogHandler{dogs: dogs}
}

func (h *DogHandler) dogExists(r *http.Request, target **models.Dog) pipeline.Stage {
	return pipeline.Stage{Name: "dog_exists", Run: func(ctx context.Context) *pipeline.Failure {
		id, f := pathID(r, "dog_id")
		if f != nil {
			return f
		}
		dog, err := h.dogs.GetByID(ctx, id)
		if err != nil {
			return internalFailure(err, "Failed to look up dog")
		}
		if dog == nil {
			return pipeline.NotFoundf("Dog ID '%d' cannot be found.", id)
		}
		*target = dog
		return nil
	}}
}

func enumStages(fields *validation.FieldSet) []pipeline.Stage {
	return []pipeline.Stage{
		{Name: "valid_age", Run: func(ctx context.Context) *pipeline.Failure {
			return validation.CheckAge(fields.String("age"))
		}},
		{Name: "valid_size", Run: func(ctx context.Context) *pipeline.Failure {
			return validation.CheckSize(fields.String("size"))
		}},
	}
}

func dogInput(fields validation.FieldSet) services.DogInput {
	return services.DogInput{
		Name:           fields.String("name"),
		PrimaryBreed:   fields.String("primary_breed"),
		Mixed:          fields.Bool("mixed"),
		SecondaryBreed: fields.NullableString("secondary_breed"),
		Age:            fields.String("age"),
		Size:           fields.String("size"),
		Temperament:    fields.String("temperament"),
		Likes:          fields.NullableString("likes"),
		Dislikes:       fields.NullableString("dislikes"),
		Owner:          fields.ID("owner"),
	}
}

// Create handles POST /dogs. The owner field must name the logged-in user.
func (h *DogHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		fields  validation.FieldSet
		created *models.Dog
	)

	stages := []pipeline.Stage{parseStage(r, &fields)}
	stages = append(stages, schemaStages(dogSchema, &fields)...)
	stages = append(stages, enumStages(&fields)...)
	stages = append(stages,
		pipeline.Stage{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, fields.ID("owner"), "dog profile")
		}},
		pipeline.Stage{Name: "create_dog", Run: func(ctx context.Context) *pipeline.Failure {
			dog, err := h.dogs.Create(ctx, dogInput(fields))
			if err != nil {
				return internalFailure(err, "Failed to create dog")
			}
			created = dog
			return nil
		}},
	)

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Read handles GET /dogs/{dog_id}.
func (h *DogHandler) Read(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var target *models.Dog

	stages := []pipeline.Stage{
		h.dogExists(r, &target),
		{Name: "logged_in", Run: func(ctx context.Context) *pipeline.Failure {
			return requireSession(sess)
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, target)
}

// Update handles PUT /dogs/{dog_id}. Only the owner may update, and ownership
// itself never changes here.
func (h *DogHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target  *models.Dog
		fields  validation.FieldSet
		updated *models.Dog
	)

	stages := []pipeline.Stage{
		h.dogExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.Owner, "dog profile")
		}},
		parseStage(r, &fields),
	}
	stages = append(stages, schemaStages(dogSchema, &fields)...)
	stages = append(stages, enumStages(&fields)...)
	stages = append(stages,
		pipeline.Stage{Name: "update_dog", Run: func(ctx context.Context) *pipeline.Failure {
			dog, err := h.dogs.Update(ctx, target, dogInput(fields))
			if err != nil {
				return internalFailure(err, "Failed to update dog")
			}
			updated = dog
			return nil
		}},
	)

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /dogs/{dog_id}.
func (h *DogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var target *models.Dog

	stages := []pipeline.Stage{
		h.dogExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.Owner, "dog profile")
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	if err := h.dogs.Delete(ctx, target.DogID); err != nil {
		respondFailure(w, internalFailure(err, "Failed to delete dog"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
