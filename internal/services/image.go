package services

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"barkpark-backend/internal/models"
	"barkpark-backend/internal/repository"
	"barkpark-backend/internal/storage"
)

// ErrBlobMissing reports that the stored file backing an image row is gone.
var ErrBlobMissing = errors.New("image file missing from storage")

// ErrBlobDelete reports that the database mutation committed but the stored
// file could not be removed.
var ErrBlobDelete = errors.New("failed to delete image file")

// ImageStore defines the persistence operations the image service needs.
type ImageStore interface {
	GetByID(ctx context.Context, id int64) (*models.Image, error)
	CreateAndLink(ctx context.Context, owner repository.ImageOwner, ownerID int64, img *models.Image) (*models.Image, error)
	Replace(ctx context.Context, owner repository.ImageOwner, ownerID, oldID int64, img *models.Image) (*models.Image, error)
	Unlink(ctx context.Context, owner repository.ImageOwner, ownerID, imageID int64) error
}

// ImageService coordinates image metadata with the blob store. Metadata
// mutations commit first; blobs are only removed afterwards, so a failure
// leaves an orphaned file rather than a dangling reference.
type ImageService struct {
	images ImageStore
	blobs  storage.Store
}

// NewImageService creates a new image service.
func NewImageService(images ImageStore, blobs storage.Store) *ImageService {
	return &ImageService{images: images, blobs: blobs}
}

// Get retrieves image metadata; a missing row is (nil, nil).
func (s *ImageService) Get(ctx context.Context, id int64) (*models.Image, error) {
	return s.images.GetByID(ctx, id)
}

// Open streams the stored file for an image row along with its content type.
// A row whose file is gone yields ErrBlobMissing.
func (s *ImageService) Open(ctx context.Context, img *models.Image) (io.ReadCloser, string, error) {
	rc, err := s.blobs.Open(ctx, img.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrBlobMissing
	}
	if err != nil {
		return nil, "", err
	}
	return rc, storage.ContentType(img.Filename), nil
}

// Attach stores the upload and links it to the owner. If the link fails the
// freshly written blob is removed again.
func (s *ImageService) Attach(ctx context.Context, owner repository.ImageOwner, ownerID int64, originalName string, body io.Reader) (*models.Image, error) {
	obj, err := s.blobs.Save(ctx, originalName, body)
	if err != nil {
		return nil, err
	}
	created, err := s.images.CreateAndLink(ctx, owner, ownerID, &models.Image{
		OriginalName: originalName,
		Filename:     obj.Filename,
		Path:         obj.Path,
	})
	if err != nil {
		_ = s.blobs.Remove(ctx, obj.Path)
		return nil, err
	}
	return created, nil
}

// Replace stores the upload, swaps the owner's reference over to it, and then
// removes the old blob. The old blob is only touched once the swap committed.
func (s *ImageService) Replace(ctx context.Context, owner repository.ImageOwner, ownerID int64, old *models.Image, originalName string, body io.Reader) (*models.Image, error) {
	obj, err := s.blobs.Save(ctx, originalName, body)
	if err != nil {
		return nil, err
	}
	created, err := s.images.Replace(ctx, owner, ownerID, old.ImageID, &models.Image{
		OriginalName: originalName,
		Filename:     obj.Filename,
		Path:         obj.Path,
	})
	if err != nil {
		_ = s.blobs.Remove(ctx, obj.Path)
		return nil, err
	}
	if err := s.blobs.Remove(ctx, old.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return created, ErrBlobDelete
	}
	return created, nil
}

// Remove unlinks the image from its owner, deletes the metadata row, and then
// removes the blob. A blob that was already gone yields ErrBlobMissing; the
// reference is gone either way.
func (s *ImageService) Remove(ctx context.Context, owner repository.ImageOwner, ownerID int64, img *models.Image) error {
	if err := s.images.Unlink(ctx, owner, ownerID, img.ImageID); err != nil {
		return err
	}
	if err := s.blobs.Remove(ctx, img.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrBlobMissing
		}
		return ErrBlobDelete
	}
	return nil
}
