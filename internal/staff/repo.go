package staff

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
)

// Repository exposes staff directory persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a staff member row.
func (r *Repository) Create(ctx context.Context, row *models.StaffMember) (*models.StaffMember, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByID loads a staff member row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	var row models.StaffMember
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListActive returns active rows ordered by display_order ascending.
func (r *Repository) ListActive(ctx context.Context) ([]models.StaffMember, error) {
	var rows []models.StaffMember
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every row, active or not, ordered by display_order.
func (r *Repository) ListAll(ctx context.Context) ([]models.StaffMember, error) {
	var rows []models.StaffMember
	err := r.db.WithContext(ctx).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists the full staff member row.
func (r *Repository) Update(ctx context.Context, row *models.StaffMember) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// Deactivate soft deletes the row by flipping is_active.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
}
