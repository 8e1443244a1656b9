package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryAPI is the upload call the uploader needs
type CloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

type Cloudinary struct {
	api CloudinaryAPI
}

// NewCloudinary builds an uploader from a cloudinary:// URL, or from the
// CLOUDINARY_URL environment variable when url is empty.
func NewCloudinary(url string) (*Cloudinary, error) {
	var (
		c   *cld.Cloudinary
		err error
	)
	if url == "" {
		c, err = cld.New()
	} else {
		c, err = cld.NewFromURL(url)
	}
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return NewCloudinaryWithAPI(&c.Upload), nil
}

func NewCloudinaryWithAPI(api CloudinaryAPI) *Cloudinary {
	return &Cloudinary{api: api}
}

func (c *Cloudinary) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	res, err := c.api.Upload(ctx, r, uploader.UploadParams{
		Folder:       folder,
		PublicID:     strings.TrimSuffix(filename, path.Ext(filename)),
		ResourceType: "image",
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New("cloudinary: " + res.Error.Message)
	}
	return res.SecureURL, nil
}
