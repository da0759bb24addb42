package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
)

const maxPointsPerEntry = 100

type attendanceRepository interface {
	Create(ctx context.Context, row *models.Attendance) (*models.Attendance, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Attendance, error)
	TotalPoints(ctx context.Context, userID uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Attendance, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RecordInput holds the fields accepted when recording attendance.
type RecordInput struct {
	UserID    uuid.UUID
	Date      time.Time
	Points    int
	EventName *string
}

// Summary pairs a user's ledger with their point total.
type Summary struct {
	Entries     []models.Attendance `json:"entries"`
	TotalPoints int64               `json:"total_points"`
}

// Service exposes the attendance ledger operations.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Attendance, error)
	SummaryForUser(ctx context.Context, userID uuid.UUID) (*Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  attendanceRepository
	users usersRepository
}

// NewService builds the attendance service.
func NewService(repo attendanceRepository, users usersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("attendance repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, users: users}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Attendance, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
	}
	if input.Date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	if input.Points < 0 || input.Points > maxPointsPerEntry {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("points must be between 0 and %d", maxPointsPerEntry))
	}

	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	var eventName *string
	if input.EventName != nil {
		trimmed := strings.TrimSpace(*input.EventName)
		if trimmed != "" {
			eventName = &trimmed
		}
	}

	row := &models.Attendance{
		UserID:    input.UserID,
		Date:      input.Date,
		Points:    input.Points,
		EventName: eventName,
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record attendance")
	}
	return created, nil
}

func (s *service) SummaryForUser(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	entries, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attendance")
	}
	total, err := s.repo.TotalPoints(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum attendance points")
	}

	return &Summary{Entries: entries, TotalPoints: total}, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "attendance id is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "attendance entry not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup attendance entry")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete attendance entry")
	}
	return nil
}
