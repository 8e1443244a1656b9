package service

import (
	"context"
	"errors"
	"io"

	"github.com/Rashmi7205/admin-fam-tree/pkg/storage"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
)

// ImageUpload is a profile image received with a member form
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadService struct {
	uploader storage.Uploader
	folder   string
	maxSize  int64
}

func NewUploadService(uploader storage.Uploader, folder string, maxSize int64) *UploadService {
	return &UploadService{uploader: uploader, folder: folder, maxSize: maxSize}
}

// Upload stores an image and returns the path to keep on the record
func (s *UploadService) Upload(ctx context.Context, img ImageUpload) (path string, err error) {
	if err := storage.ValidateImage(img.ContentType, img.Size, s.maxSize); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", invalid("Image is larger than %d bytes", s.maxSize)
		}
		return "", invalid("Only image files are allowed")
	}

	defer prometheus.TrackExternalCall("storage", "upload")(&err)

	name := storage.ObjectName(img.Filename, img.ContentType)
	path, err = s.uploader.Upload(ctx, s.folder, name, img.ContentType, img.Body)
	if err != nil {
		return "", &ExternalError{Message: "Failed to upload image", Err: err}
	}
	return path, nil
}
