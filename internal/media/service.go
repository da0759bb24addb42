package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
)

type objectStore interface {
	Upload(ctx context.Context, objectKey, contentType string, payload []byte) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
	ObjectKeyFromURL(rawURL string) string
}

// UploadInput carries a validated image payload destined for blob storage.
type UploadInput struct {
	Prefix      string
	Filename    string
	ContentType string
	Payload     []byte
}

// Service validates and stores directory images.
type Service interface {
	UploadImage(ctx context.Context, input UploadInput) (string, error)
	DeleteByURL(ctx context.Context, rawURL string)
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
}

// NewService builds the media service.
func NewService(store objectStore, cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	maxBytes := cfg.MaxUploadBytes()
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{store: store, maxBytes: maxBytes, logg: logg}, nil
}

func (s *service) UploadImage(ctx context.Context, input UploadInput) (string, error) {
	if len(input.Payload) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image payload is empty")
	}
	if int64(len(input.Payload)) > s.maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("image exceeds the %d byte limit", s.maxBytes))
	}

	mimeType, err := sniffImageMime(input.ContentType)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported image type")
	}

	key := buildObjectKey(input.Prefix, input.Filename, mimeType)
	url, err := s.store.Upload(ctx, key, mimeType, input.Payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	return url, nil
}

// DeleteByURL removes the object behind a public URL. Failures are logged and
// swallowed so a stale blob never blocks the caller's write path.
func (s *service) DeleteByURL(ctx context.Context, rawURL string) {
	if rawURL == "" {
		return
	}
	key := s.store.ObjectKeyFromURL(rawURL)
	if key == "" {
		return
	}
	if err := s.store.DeleteObject(ctx, key); err != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "object_key", key)
		s.logg.Warn(ctx, "failed to delete stored image")
	}
}

func buildObjectKey(prefix, filename, mimeType string) string {
	ext := path.Ext(filename)
	if ext == "" {
		ext = extensionForMime(mimeType)
	}
	name := uuid.NewString() + strings.ToLower(ext)
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

func extensionForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
