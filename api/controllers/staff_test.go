package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/internal/staff"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
)

type stubStaffService struct {
	created *staff.CreateInput
	rows    []models.StaffMember
}

func (s *stubStaffService) Create(ctx context.Context, input staff.CreateInput) (*models.StaffMember, error) {
	s.created = &input
	return &models.StaffMember{Name: input.Name, Role: input.Role}, nil
}

func (s *stubStaffService) Update(ctx context.Context, id uuid.UUID, input staff.UpdateInput) (*models.StaffMember, error) {
	return &models.StaffMember{}, nil
}

func (s *stubStaffService) ListActive(ctx context.Context) ([]models.StaffMember, error) {
	return s.rows, nil
}

func (s *stubStaffService) ListAll(ctx context.Context) ([]models.StaffMember, error) {
	return s.rows, nil
}

func (s *stubStaffService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func multipartStaffRequest(t *testing.T, fields map[string]string, imageName string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	if imageName != "" {
		part, err := writer.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/staff", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAdminStaffCreateParsesMultipartForm(t *testing.T) {
	svc := &stubStaffService{}
	handler := AdminStaffCreate(svc, config.MediaConfig{MaxUploadMB: 5}, nil)

	req := multipartStaffRequest(t, map[string]string{
		"name":          "Jamie Ortiz",
		"role":          "Head Coach",
		"bio":           "Coaches the evening sessions.",
		"display_order": "2",
	}, "portrait.png", []byte{0x89, 0x50, 0x4e, 0x47})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.created == nil {
		t.Fatal("expected service to receive the create input")
	}
	if svc.created.Name != "Jamie Ortiz" || svc.created.Role != "Head Coach" {
		t.Fatalf("unexpected input: %+v", svc.created)
	}
	if svc.created.DisplayOrder != 2 {
		t.Fatalf("expected display order 2, got %d", svc.created.DisplayOrder)
	}
	if svc.created.Image == nil {
		t.Fatal("expected image upload to be forwarded")
	}
	if svc.created.Image.Filename != "portrait.png" {
		t.Fatalf("unexpected filename %s", svc.created.Image.Filename)
	}
}

func TestAdminStaffCreateRejectsBadDisplayOrder(t *testing.T) {
	svc := &stubStaffService{}
	handler := AdminStaffCreate(svc, config.MediaConfig{MaxUploadMB: 5}, nil)

	req := multipartStaffRequest(t, map[string]string{
		"name":          "Jamie Ortiz",
		"role":          "Head Coach",
		"display_order": "not-a-number",
	}, "", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.created != nil {
		t.Fatal("service should not be called on invalid input")
	}
}

func TestPublicStaffListWritesEnvelope(t *testing.T) {
	svc := &stubStaffService{rows: []models.StaffMember{{Name: "Jamie"}}}
	handler := PublicStaffList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/staff", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Success bool                 `json:"success"`
		Data    []models.StaffMember `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success {
		t.Fatal("expected success envelope")
	}
	if len(payload.Data) != 1 || payload.Data[0].Name != "Jamie" {
		t.Fatalf("unexpected payload: %+v", payload.Data)
	}
}
