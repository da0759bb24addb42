package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/api/middleware"
	"github.com/mfigueroa-dev/clubcore-backend/internal/attendance"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
)

type stubAttendanceService struct {
	recorded *attendance.RecordInput
	summary  *attendance.Summary
	deleted  []uuid.UUID
}

func (s *stubAttendanceService) Record(ctx context.Context, input attendance.RecordInput) (*models.Attendance, error) {
	s.recorded = &input
	return &models.Attendance{UserID: input.UserID, Points: input.Points}, nil
}

func (s *stubAttendanceService) SummaryForUser(ctx context.Context, userID uuid.UUID) (*attendance.Summary, error) {
	if s.summary != nil {
		return s.summary, nil
	}
	return &attendance.Summary{}, nil
}

func (s *stubAttendanceService) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestAdminAttendanceRecordParsesDate(t *testing.T) {
	svc := &stubAttendanceService{}
	handler := AdminAttendanceRecord(svc, nil)

	userID := uuid.New()
	body := `{"user_id":"` + userID.String() + `","date":"2026-03-14","points":10,"event_name":"Spring Open"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/attendance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.recorded == nil {
		t.Fatal("expected record input")
	}
	if svc.recorded.UserID != userID {
		t.Fatalf("unexpected user %s", svc.recorded.UserID)
	}
	want := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !svc.recorded.Date.Equal(want) {
		t.Fatalf("unexpected date %s", svc.recorded.Date)
	}
	if svc.recorded.EventName == nil || *svc.recorded.EventName != "Spring Open" {
		t.Fatalf("unexpected event name %+v", svc.recorded.EventName)
	}
}

func TestAdminAttendanceRecordRejectsBadDate(t *testing.T) {
	svc := &stubAttendanceService{}
	handler := AdminAttendanceRecord(svc, nil)

	body := `{"user_id":"` + uuid.NewString() + `","date":"14/03/2026","points":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/attendance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.recorded != nil {
		t.Fatal("service should not be called on invalid date")
	}
}

func TestAttendanceSummaryUsesAuthenticatedUser(t *testing.T) {
	userID := uuid.New()
	svc := &stubAttendanceService{summary: &attendance.Summary{TotalPoints: 42}}
	handler := AttendanceSummary(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total_points":42`) {
		t.Fatalf("expected total points in body: %s", rec.Body.String())
	}
}

func TestAttendanceSummaryRejectsMissingIdentity(t *testing.T) {
	svc := &stubAttendanceService{}
	handler := AttendanceSummary(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
