package repository

import (
	"context"
	"errors"
	"fmt"

	"barkpark-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const imageColumns = `image_id, originalname, filename, path, created_at, updated_at`

// ErrImageLinkChanged reports that the owning row's image reference was not
// in the expected state when a conditional link ran. Two concurrent attach
// requests can both pass the pipeline's no-current-image guard; the
// conditional update lets exactly one of them win.
var ErrImageLinkChanged = errors.New("image reference changed concurrently")

// ImageOwner names the table/columns an image reference lives in. The values
// are fixed identifiers, never request input.
type ImageOwner struct {
	Table       string
	IDColumn    string
	ImageColumn string
}

var (
	UserImageOwner = ImageOwner{Table: "users", IDColumn: "user_id", ImageColumn: "profile_image"}
	DogImageOwner  = ImageOwner{Table: "dogs", IDColumn: "dog_id", ImageColumn: "dog_image"}
)

// ImageRepository handles image metadata rows and the owning-row references
// pointing at them. Multi-step mutations run in one transaction so a partial
// failure cannot orphan a live reference.
type ImageRepository struct {
	db *pgxpool.Pool
}

// NewImageRepository creates a new image repository.
func NewImageRepository(db *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{db: db}
}

func scanImage(row pgx.Row) (*models.Image, error) {
	var img models.Image
	err := row.Scan(&img.ImageID, &img.OriginalName, &img.Filename, &img.Path, &img.CreatedAt, &img.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}
	return &img, nil
}

// GetByID retrieves image metadata. A missing row is (nil, nil).
func (r *ImageRepository) GetByID(ctx context.Context, id int64) (*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE image_id = $1`
	return scanImage(r.db.QueryRow(ctx, query, id))
}

func insertImage(ctx context.Context, tx pgx.Tx, img *models.Image) (*models.Image, error) {
	query := `
		INSERT INTO images (originalname, filename, path)
		VALUES ($1, $2, $3)
		RETURNING ` + imageColumns
	created, err := scanImage(tx.QueryRow(ctx, query, img.OriginalName, img.Filename, img.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}
	return created, nil
}

// CreateAndLink inserts the metadata row and points the owner at it, in one
// transaction. The link is conditional on the reference still being null, so
// concurrent attaches cannot both win; the loser gets ErrImageLinkChanged.
func (r *ImageRepository) CreateAndLink(ctx context.Context, owner ImageOwner, ownerID int64, img *models.Image) (*models.Image, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := insertImage(ctx, tx, img)
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf(
		`UPDATE %s SET %s = $1, updated_at = now() WHERE %s = $2 AND %s IS NULL`,
		owner.Table, owner.ImageColumn, owner.IDColumn, owner.ImageColumn,
	)
	result, err := tx.Exec(ctx, link, created.ImageID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to link image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrImageLinkChanged
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit image link: %w", err)
	}
	return created, nil
}

// Replace swaps the owner's reference from oldID to a freshly inserted row
// and deletes the old metadata, in one transaction. The swap is conditional
// on the reference still pointing at oldID. The old blob is NOT touched
// here; the caller deletes it only after this commits.
func (r *ImageRepository) Replace(ctx context.Context, owner ImageOwner, ownerID, oldID int64, img *models.Image) (*models.Image, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := insertImage(ctx, tx, img)
	if err != nil {
		return nil, err
	}

	swap := fmt.Sprintf(
		`UPDATE %s SET %s = $1, updated_at = now() WHERE %s = $2 AND %s = $3`,
		owner.Table, owner.ImageColumn, owner.IDColumn, owner.ImageColumn,
	)
	result, err := tx.Exec(ctx, swap, created.ImageID, ownerID, oldID)
	if err != nil {
		return nil, fmt.Errorf("failed to relink image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrImageLinkChanged
	}

	if _, err := tx.Exec(ctx, `DELETE FROM images WHERE image_id = $1`, oldID); err != nil {
		return nil, fmt.Errorf("failed to delete replaced image: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit image replace: %w", err)
	}
	return created, nil
}

// Unlink clears the owner's reference and deletes the metadata row, in one
// transaction, conditional on the reference still pointing at imageID.
func (r *ImageRepository) Unlink(ctx context.Context, owner ImageOwner, ownerID, imageID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	unlink := fmt.Sprintf(
		`UPDATE %s SET %s = NULL, updated_at = now() WHERE %s = $1 AND %s = $2`,
		owner.Table, owner.ImageColumn, owner.IDColumn, owner.ImageColumn,
	)
	result, err := tx.Exec(ctx, unlink, ownerID, imageID)
	if err != nil {
		return fmt.Errorf("failed to unlink image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrImageLinkChanged
	}

	if _, err := tx.Exec(ctx, `DELETE FROM images WHERE image_id = $1`, imageID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit image unlink: %w", err)
	}
	return nil
}
