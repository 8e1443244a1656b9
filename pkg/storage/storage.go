// Package storage stores uploaded member profile images and returns the path
// the member record keeps.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("only image uploads are allowed")
	ErrTooLarge = errors.New("upload exceeds the maximum size")
)

// Uploader is implemented by every storage backend
type Uploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
}

// New builds the uploader selected by cfg.Provider
func New(ctx context.Context, cfg *config.UploadConfig) (Uploader, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(cfg.LocalDir, cfg.PublicBaseURL), nil
	case "s3":
		return NewS3(ctx, cfg)
	case "cloudinary":
		return NewCloudinary(cfg.CloudinaryURL)
	default:
		return nil, fmt.Errorf("storage: unknown provider %q", cfg.Provider)
	}
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ValidateImage checks the declared content type and size of an upload
func ValidateImage(contentType string, size, maxSize int64) error {
	if _, ok := imageExtensions[strings.ToLower(contentType)]; !ok {
		return ErrNotImage
	}
	if maxSize > 0 && size > maxSize {
		return ErrTooLarge
	}
	return nil
}

// ObjectName returns a unique object name keeping a safe extension
func ObjectName(original, contentType string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if known, ok := imageExtensions[strings.ToLower(contentType)]; ok && (ext == "" || len(ext) > 5) {
		ext = known
	}
	return uuid.NewString() + ext
}

func objectKey(folder, filename string) string {
	return strings.TrimPrefix(path.Join(folder, filename), "/")
}
