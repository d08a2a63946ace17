package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Object describes a stored blob.
type Object struct {
	// Filename is the generated name the blob is stored under.
	Filename string
	// Path is the backend-specific location used for later reads and deletes.
	Path string
}

// Store is the opaque blob-store collaborator. Image pipelines never touch
// the filesystem or bucket directly.
type Store interface {
	// Save writes the blob under a fresh generated name. originalName only
	// contributes its extension.
	Save(ctx context.Context, originalName string, r io.Reader) (*Object, error)
	// Open streams a stored blob. The caller closes the reader.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Remove deletes a stored blob.
	Remove(ctx context.Context, path string) error
}

// ContentType derives the served content type from a stored filename, the
// same way the filename extension decided it at upload time.
func ContentType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "":
		return "application/octet-stream"
	case "jpg":
		return "image/jpeg"
	default:
		return "image/" + ext
	}
}
