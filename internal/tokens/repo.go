package tokens

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
)

// Repository exposes registration token persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert persists a token row. The token column is the primary key, so a
// colliding value surfaces as a unique violation rather than silently
// overwriting an existing row.
func (r *Repository) Insert(ctx context.Context, token, identifier string, expiresAt time.Time) error {
	row := &models.RegistrationToken{
		Token:      token,
		Identifier: identifier,
		ExpiresAt:  expiresAt,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// Find loads a token row by its value.
func (r *Repository) Find(ctx context.Context, token string) (*models.RegistrationToken, error) {
	var row models.RegistrationToken
	if err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes a token row. Used after successful redemption.
func (r *Repository) Delete(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&models.RegistrationToken{}, "token = ?", token).Error
}

// DeleteExpired purges tokens whose expiry is before the cutoff and returns
// the number of rows removed.
func (r *Repository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.RegistrationToken{}, "expires_at < ?", cutoff)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
