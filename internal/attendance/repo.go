package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
)

// Repository exposes attendance persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new attendance row.
func (r *Repository) Create(ctx context.Context, row *models.Attendance) (*models.Attendance, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ListForUser returns attendance rows for the user, newest date first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Attendance, error) {
	var rows []models.Attendance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TotalPoints sums the points for the user.
func (r *Repository) TotalPoints(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("user_id = ?", userID).
		Select("SUM(points)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// FindByID loads a single attendance row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Attendance, error) {
	var row models.Attendance
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes an attendance row. Rows are immutable; corrections are
// delete plus re-create.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Attendance{}, "id = ?", id).Error
}

// CountForUserOnDate reports existing rows for the user and calendar date.
func (r *Repository) CountForUserOnDate(ctx context.Context, userID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("user_id = ? AND date = ?", userID, date).
		Count(&count).Error
	return count, err
}
