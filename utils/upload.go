package utils

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vendix/config"
)

// Image types the upload endpoints accept, mapped to stored extensions.
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadResult identifies a stored image.
type UploadResult struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

// Uploader stores uploaded images and hands back a public id and URL.
type Uploader interface {
	UploadImage(file multipart.File, header *multipart.FileHeader, folder string) (*UploadResult, error)
	DeleteImage(publicID string) error
}

// LocalUploader keeps images on the local disk under the configured upload
// directory.
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader builds the disk-backed uploader.
func NewLocalUploader(cfg *config.Config) *LocalUploader {
	return &LocalUploader{dir: cfg.UploadDir, baseURL: cfg.BaseURL}
}

// UploadImage validates the mime type and writes the file under
// <dir>/<folder>/<uuid><ext>.
func (u *LocalUploader) UploadImage(file multipart.File, header *multipart.FileHeader, folder string) (*UploadResult, error) {
	ext, ok := allowedImageTypes[header.Header.Get("Content-Type")]
	if !ok {
		return nil, NewAppError("Invalid file type. Only PNG, JPEG, JPG and WebP are allowed", http.StatusBadRequest)
	}

	dir := filepath.Join(u.dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return nil, err
	}

	publicID := path.Join(folder, name)
	return &UploadResult{
		PublicID: publicID,
		URL:      u.baseURL + "/uploads/" + publicID,
	}, nil
}

// DeleteImage removes a previously stored image.
func (u *LocalUploader) DeleteImage(publicID string) error {
	err := os.Remove(filepath.Join(u.dir, filepath.FromSlash(publicID)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// PublicIDFromURL recovers the public id from a stored image URL. It reports
// false for URLs not served from the upload directory.
func PublicIDFromURL(baseURL, url string) (string, bool) {
	return strings.CutPrefix(url, baseURL+"/uploads/")
}
