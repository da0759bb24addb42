package sponsors

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
)

// Repository exposes sponsor listing persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a sponsor row.
func (r *Repository) Create(ctx context.Context, row *models.Sponsor) (*models.Sponsor, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByID loads a sponsor row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sponsor, error) {
	var row models.Sponsor
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListActive returns active rows whose date window covers now, ordered by
// display_order ascending.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]models.Sponsor, error) {
	var rows []models.Sponsor
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every row regardless of active state.
func (r *Repository) ListAll(ctx context.Context) ([]models.Sponsor, error) {
	var rows []models.Sponsor
	err := r.db.WithContext(ctx).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveByTier returns active in-window rows for a single tier.
func (r *Repository) ListActiveByTier(ctx context.Context, tier enums.SponsorTier, now time.Time) ([]models.Sponsor, error) {
	var rows []models.Sponsor
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND tier = ?", true, tier).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("display_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists the full sponsor row.
func (r *Repository) Update(ctx context.Context, row *models.Sponsor) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// Deactivate soft deletes the row by flipping is_active.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Sponsor{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
}
