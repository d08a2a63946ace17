package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"barkpark-backend/internal/models"
	"barkpark-backend/internal/pipeline"
	"barkpark-backend/internal/repository"
	"barkpark-backend/internal/services"
	"barkpark-backend/internal/session"

	"github.com/rs/zerolog/log"
)

const maxUploadSize = 10 << 20

// ImageHandler serves the image attachment routes shared by users and dogs.
type ImageHandler struct {
	users  *services.UserService
	dogs   *services.DogService
	images *services.ImageService
}

// NewImageHandler creates a new image handler.
func NewImageHandler(users *services.UserService, dogs *services.DogService, images *services.ImageService) *ImageHandler {
	return &ImageHandler{users: users, dogs: dogs, images: images}
}

// imageTarget is the resolved owner of an image route. current is the owner's
// image reference at resolution time; ownerUserID is the account allowed to
// mutate it.
type imageTarget struct {
	owner       repository.ImageOwner
	ownerID     int64
	current     *int64
	ownerUserID int64
	label       string
}

func (h *ImageHandler) resolveUser(r *http.Request, target *imageTarget) pipeline.Stage {
	return pipeline.Stage{Name: "user_exists", Run: func(ctx context.Context) *pipeline.Failure {
		id, f := pathID(r, "user_id")
		if f != nil {
			return f
		}
		user, err := h.users.GetByID(ctx, id)
		if err != nil {
			return internalFailure(err, "Failed to look up user")
		}
		if user == nil {
			return pipeline.NotFoundf("User ID '%d' cannot be found.", id)
		}
		*target = imageTarget{
			owner:       repository.UserImageOwner,
			ownerID:     user.UserID,
			current:     user.ProfileImage,
			ownerUserID: user.UserID,
			label:       "user",
		}
		return nil
	}}
}

func (h *ImageHandler) resolveDog(r *http.Request, target *imageTarget) pipeline.Stage {
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
		*target = imageTarget{
			owner:       repository.DogImageOwner,
			ownerID:     dog.DogID,
			current:     dog.DogImage,
			ownerUserID: dog.Owner,
			label:       "dog profile",
		}
		return nil
	}}
}

// imageExists resolves the target's current image reference into metadata.
func (h *ImageHandler) imageExists(target *imageTarget, img **models.Image) pipeline.Stage {
	return pipeline.Stage{Name: "image_exists", Run: func(ctx context.Context) *pipeline.Failure {
		if target.current == nil {
			return pipeline.NotFoundf("Image ID cannot be found.")
		}
		found, err := h.images.Get(ctx, *target.current)
		if err != nil {
			return internalFailure(err, "Failed to look up image")
		}
		if found == nil {
			return pipeline.NotFoundf("Image ID cannot be found.")
		}
		*img = found
		return nil
	}}
}

// openUpload pulls the "image" part out of the multipart form and sniffs the
// leading bytes; anything that does not sniff as an image is rejected. The
// sniffed prefix is stitched back in front of the remaining body.
func openUpload(r *http.Request) (io.Reader, string, func(), *pipeline.Failure) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "", nil, pipeline.Invalidf("Invalid file type. Only image files are allowed.")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", nil, pipeline.Invalidf("Invalid file type. Only image files are allowed.")
	}
	cleanup := func() { file.Close() }

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		cleanup()
		return nil, "", nil, pipeline.Invalidf("Invalid file type. Only image files are allowed.")
	}
	sniff = sniff[:n]

	if !strings.HasPrefix(http.DetectContentType(sniff), "image/") {
		cleanup()
		return nil, "", nil, pipeline.Invalidf("Invalid file type. Only image files are allowed.")
	}
	return io.MultiReader(strings.NewReader(string(sniff)), file), header.Filename, cleanup, nil
}

type imageResolver func(r *http.Request, target *imageTarget) pipeline.Stage

func (h *ImageHandler) get(w http.ResponseWriter, r *http.Request, resolve imageResolver) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target imageTarget
		img    *models.Image
	)

	stages := []pipeline.Stage{
		resolve(r, &target),
		{Name: "logged_in", Run: func(ctx context.Context) *pipeline.Failure {
			return requireSession(sess)
		}},
		h.imageExists(&target, &img),
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	rc, contentType, err := h.images.Open(ctx, img)
	if errors.Is(err, services.ErrBlobMissing) {
		respondMessage(w, http.StatusNotFound, "Image not found.")
		return
	}
	if err != nil {
		respondFailure(w, internalFailure(err, "Failed to open image"))
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, rc); err != nil {
		log.Error().Err(err).Msg("Failed to stream image")
	}
}

func (h *ImageHandler) attach(w http.ResponseWriter, r *http.Request, resolve imageResolver) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target  imageTarget
		body    io.Reader
		name    string
		cleanup func()
		created *models.Image
	)
	defer func() {
		if cleanup != nil {
			cleanup()
		}
	}()

	stages := []pipeline.Stage{
		resolve(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.ownerUserID, target.label)
		}},
		{Name: "file_is_image", Run: func(ctx context.Context) *pipeline.Failure {
			reader, filename, closeFile, f := openUpload(r)
			if f != nil {
				return f
			}
			body = reader
			name = filename
			cleanup = closeFile
			return nil
		}},
		{Name: "no_current_image", Run: func(ctx context.Context) *pipeline.Failure {
			if target.current != nil {
				return pipeline.Conflictf("Profile image already exists. Use PUT method to update as needed.")
			}
			return nil
		}},
		{Name: "add_image", Run: func(ctx context.Context) *pipeline.Failure {
			img, err := h.images.Attach(ctx, target.owner, target.ownerID, name, body)
			if errors.Is(err, repository.ErrImageLinkChanged) {
				return pipeline.Conflictf("Profile image already exists. Use PUT method to update as needed.")
			}
			if err != nil {
				return internalFailure(err, "Failed to add image")
			}
			created = img
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (h *ImageHandler) replace(w http.ResponseWriter, r *http.Request, resolve imageResolver) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target  imageTarget
		old     *models.Image
		body    io.Reader
		name    string
		cleanup func()
		created *models.Image
	)
	defer func() {
		if cleanup != nil {
			cleanup()
		}
	}()

	stages := []pipeline.Stage{
		resolve(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.ownerUserID, target.label)
		}},
		h.imageExists(&target, &old),
		{Name: "file_is_image", Run: func(ctx context.Context) *pipeline.Failure {
			reader, filename, closeFile, f := openUpload(r)
			if f != nil {
				return f
			}
			body = reader
			name = filename
			cleanup = closeFile
			return nil
		}},
		{Name: "update_image", Run: func(ctx context.Context) *pipeline.Failure {
			img, err := h.images.Replace(ctx, target.owner, target.ownerID, old, name, body)
			if errors.Is(err, repository.ErrImageLinkChanged) {
				return pipeline.Conflictf("Image was changed by another request.")
			}
			if errors.Is(err, services.ErrBlobDelete) {
				created = img
				return pipeline.Internalf("Failed to delete image from server")
			}
			if err != nil {
				return internalFailure(err, "Failed to update image")
			}
			created = img
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (h *ImageHandler) remove(w http.ResponseWriter, r *http.Request, resolve imageResolver) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target imageTarget
		img    *models.Image
	)

	stages := []pipeline.Stage{
		resolve(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.ownerUserID, target.label)
		}},
		h.imageExists(&target, &img),
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	err := h.images.Remove(ctx, target.owner, target.ownerID, img)
	switch {
	case errors.Is(err, repository.ErrImageLinkChanged):
		respondMessage(w, http.StatusConflict, "Image was changed by another request.")
	case errors.Is(err, services.ErrBlobMissing):
		respondMessage(w, http.StatusNotFound, "Image not found.")
	case errors.Is(err, services.ErrBlobDelete):
		respondMessage(w, http.StatusInternalServerError, "Failed to delete image from server")
	case err != nil:
		respondFailure(w, internalFailure(err, "Failed to remove image"))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetUserImage handles GET /users/{user_id}/image.
func (h *ImageHandler) GetUserImage(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, h.resolveUser)
}

// AddUserImage handles POST /users/{user_id}/image.
func (h *ImageHandler) AddUserImage(w http.ResponseWriter, r *http.Request) {
	h.attach(w, r, h.resolveUser)
}

// UpdateUserImage handles PUT /users/{user_id}/image.
func (h *ImageHandler) UpdateUserImage(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, h.resolveUser)
}

// RemoveUserImage handles DELETE /users/{user_id}/image.
func (h *ImageHandler) RemoveUserImage(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.resolveUser)
}

// GetDogImage handles GET /dogs/{dog_id}/image.
func (h *ImageHandler) GetDogImage(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, h.resolveDog)
}

// AddDogImage handles POST /dogs/{dog_id}/image.
func (h *ImageHandler) AddDogImage(w http.ResponseWriter, r *http.Request) {
	h.attach(w, r, h.resolveDog)
}

// UpdateDogImage handles PUT /dogs/{dog_id}/image.
func (h *ImageHandler) UpdateDogImage(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, h.resolveDog)
}

// RemoveDogImage handles DELETE /dogs/{dog_id}/image.
func (h *ImageHandler) RemoveDogImage(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.resolveDog)
}
