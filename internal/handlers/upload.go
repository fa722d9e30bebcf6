package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mernlog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadURLPrefix is the path uploaded files are served under.
const UploadURLPrefix = "/uploads"

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Uploader stores uploaded images under a directory with random names.
type Uploader struct {
	dir string
}

// NewUploader creates dir if needed.
func NewUploader(dir string) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &Uploader{dir: dir}, nil
}

// Dir returns the directory files are written to.
func (u *Uploader) Dir() string {
	return u.dir
}

// formFile returns the uploaded file in field, or nil when the request is not
// multipart or carries no such file.
func formFile(c *fiber.Ctx, field string) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return files[0], nil
}

// Save writes the file in field to disk and returns the path it is served
// under, or "" when no file was sent.
func (u *Uploader) Save(c *fiber.Ctx, field string) (string, error) {
	fh, err := formFile(c, field)
	if err != nil || fh == nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("%w: %s must be a jpg, png, gif or webp image", services.ErrValidation, field)
	}

	name := uuid.New().String() + ext
	if err := c.SaveFile(fh, filepath.Join(u.dir, name)); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path.Join(UploadURLPrefix, name), nil
}
