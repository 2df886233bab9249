package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageStore keeps product images.
type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cloudinaryURL, folder string) (*CloudinaryStore, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	log.Println("✅ Cloudinary initialized")
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

// Upload stores the image and returns its https URL.
func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.ReplaceAll(base, " ", "_")
	publicID := fmt.Sprintf("%s_%d", base, time.Now().UnixNano())

	overwrite := false
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image: %s", result.Error.Message)
	}

	url := result.SecureURL
	if url == "" {
		url = result.URL
	}
	return forceHTTPS(url), nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, imageURL string) error {
	publicID := PublicID(imageURL)
	if publicID == "" {
		return nil
	}
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: "image"}); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// PublicID extracts the public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v123/products/shirt_1.jpg.
func PublicID(imageURL string) string {
	parts := strings.Split(imageURL, "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		rest := parts[i+1:]
		if len(rest) > 1 && isVersion(rest[0]) {
			rest = rest[1:]
		}
		path := strings.Join(rest, "/")
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return ""
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func forceHTTPS(in string) string {
	return strings.Replace(strings.TrimSpace(in), "http://", "https://", 1)
}
