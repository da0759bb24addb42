package media

import (
	"context"
	"strings"
	"testing"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
)

type fakeObjectStore struct {
	uploads map[string][]byte
	deleted []string
	failDel bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{uploads: map[string][]byte{}}
}

func (f *fakeObjectStore) Upload(ctx context.Context, objectKey, contentType string, payload []byte) (string, error) {
	f.uploads[objectKey] = payload
	return "https://storage.googleapis.com/test-bucket/" + objectKey, nil
}

func (f *fakeObjectStore) DeleteObject(ctx context.Context, objectKey string) error {
	if f.failDel {
		return context.DeadlineExceeded
	}
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeObjectStore) ObjectKeyFromURL(rawURL string) string {
	const prefix = "https://storage.googleapis.com/test-bucket/"
	if !strings.HasPrefix(rawURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(rawURL, prefix)
}

func TestUploadImageRejectsUnsupportedMime(t *testing.T) {
	svc, err := NewService(newFakeObjectStore(), config.MediaConfig{MaxUploadMB: 5}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.UploadImage(context.Background(), UploadInput{
		Prefix:      "staff",
		Filename:    "resume.pdf",
		ContentType: "application/pdf",
		Payload:     []byte("not an image"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
}

func TestUploadImageRejectsOversizedPayload(t *testing.T) {
	svc, _ := NewService(newFakeObjectStore(), config.MediaConfig{MaxUploadMB: 1}, nil)

	payload := make([]byte, 1024*1024+1)
	_, err := svc.UploadImage(context.Background(), UploadInput{
		Prefix:      "sponsors",
		Filename:    "logo.png",
		ContentType: "image/png",
		Payload:     payload,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION error for oversized payload, got %v", err)
	}
}

func TestUploadImageStoresUnderPrefix(t *testing.T) {
	store := newFakeObjectStore()
	svc, _ := NewService(store, config.MediaConfig{MaxUploadMB: 5}, nil)

	url, err := svc.UploadImage(context.Background(), UploadInput{
		Prefix:      "staff",
		Filename:    "portrait.jpg",
		ContentType: "image/jpeg; charset=binary",
		Payload:     []byte{0xFF, 0xD8, 0xFF},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(url, "/staff/") {
		t.Fatalf("expected url under staff/ prefix, got %s", url)
	}
	if len(store.uploads) != 1 {
		t.Fatalf("expected one stored object, got %d", len(store.uploads))
	}
	for key := range store.uploads {
		if !strings.HasPrefix(key, "staff/") || !strings.HasSuffix(key, ".jpg") {
			t.Fatalf("unexpected object key %q", key)
		}
	}
}

func TestDeleteByURLSwallowsFailures(t *testing.T) {
	store := newFakeObjectStore()
	store.failDel = true
	svc, _ := NewService(store, config.MediaConfig{MaxUploadMB: 5}, nil)

	// Must not panic or propagate the error.
	svc.DeleteByURL(context.Background(), "https://storage.googleapis.com/test-bucket/staff/old.jpg")
}

func TestDeleteByURLIgnoresForeignURLs(t *testing.T) {
	store := newFakeObjectStore()
	svc, _ := NewService(store, config.MediaConfig{MaxUploadMB: 5}, nil)

	svc.DeleteByURL(context.Background(), "https://example.com/elsewhere.png")
	if len(store.deleted) != 0 {
		t.Fatal("foreign url must not trigger deletes")
	}
}
