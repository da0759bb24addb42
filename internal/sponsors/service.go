package sponsors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/internal/media"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
)

const logoPrefix = "sponsors"

type sponsorsRepository interface {
	Create(ctx context.Context, row *models.Sponsor) (*models.Sponsor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sponsor, error)
	ListActive(ctx context.Context, now time.Time) ([]models.Sponsor, error)
	ListAll(ctx context.Context) ([]models.Sponsor, error)
	ListActiveByTier(ctx context.Context, tier enums.SponsorTier, now time.Time) ([]models.Sponsor, error)
	Update(ctx context.Context, row *models.Sponsor) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// LogoUpload carries a multipart logo image.
type LogoUpload struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// CreateInput holds the fields accepted when creating a sponsor.
type CreateInput struct {
	Name         string
	WebsiteURL   *string
	Tier         enums.SponsorTier
	DisplayOrder int
	StartDate    *time.Time
	EndDate      *time.Time
	Logo         *LogoUpload
}

// UpdateInput holds the mutable fields; nil pointers leave values untouched.
type UpdateInput struct {
	Name         *string
	WebsiteURL   *string
	Tier         *enums.SponsorTier
	DisplayOrder *int
	IsActive     *bool
	StartDate    *time.Time
	EndDate      *time.Time
	Logo         *LogoUpload
}

// TierGroup buckets active sponsors under their tier for display.
type TierGroup struct {
	Tier     enums.SponsorTier `json:"tier"`
	Sponsors []models.Sponsor  `json:"sponsors"`
}

// Service exposes sponsor listing management.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Sponsor, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Sponsor, error)
	ListActive(ctx context.Context) ([]models.Sponsor, error)
	ListAll(ctx context.Context) ([]models.Sponsor, error)
	ListByTier(ctx context.Context) ([]TierGroup, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  sponsorsRepository
	media media.Service
	now   func() time.Time
}

// NewService builds the sponsors service.
func NewService(repo sponsorsRepository, mediaSvc media.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sponsors repository required")
	}
	if mediaSvc == nil {
		return nil, fmt.Errorf("media service required")
	}
	return &service{repo: repo, media: mediaSvc, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Sponsor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sponsor tier")
	}
	if input.Logo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logo image is required")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date must not precede start_date")
	}

	logoURL, err := s.media.UploadImage(ctx, media.UploadInput{
		Prefix:      logoPrefix,
		Filename:    input.Logo.Filename,
		ContentType: input.Logo.ContentType,
		Payload:     input.Logo.Payload,
	})
	if err != nil {
		return nil, err
	}

	row := &models.Sponsor{
		Name:         name,
		LogoURL:      logoURL,
		WebsiteURL:   input.WebsiteURL,
		Tier:         input.Tier,
		DisplayOrder: input.DisplayOrder,
		IsActive:     true,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sponsor")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Sponsor, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sponsor id is required")
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sponsor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup sponsor")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		row.Name = name
	}
	if input.WebsiteURL != nil {
		row.WebsiteURL = input.WebsiteURL
	}
	if input.Tier != nil {
		if !input.Tier.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sponsor tier")
		}
		row.Tier = *input.Tier
	}
	if input.DisplayOrder != nil {
		row.DisplayOrder = *input.DisplayOrder
	}
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
	if input.StartDate != nil {
		row.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		row.EndDate = input.EndDate
	}
	if row.StartDate != nil && row.EndDate != nil && row.EndDate.Before(*row.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date must not precede start_date")
	}

	var replacedURL string
	if input.Logo != nil {
		url, err := s.media.UploadImage(ctx, media.UploadInput{
			Prefix:      logoPrefix,
			Filename:    input.Logo.Filename,
			ContentType: input.Logo.ContentType,
			Payload:     input.Logo.Payload,
		})
		if err != nil {
			return nil, err
		}
		replacedURL = row.LogoURL
		row.LogoURL = url
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sponsor")
	}

	if replacedURL != "" {
		s.media.DeleteByURL(ctx, replacedURL)
	}

	return row, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Sponsor, error) {
	rows, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sponsors")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Sponsor, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sponsors")
	}
	return rows, nil
}

func (s *service) ListByTier(ctx context.Context) ([]TierGroup, error) {
	now := s.now()
	tiers := []enums.SponsorTier{
		enums.SponsorTierPlatinum,
		enums.SponsorTierGold,
		enums.SponsorTierSilver,
		enums.SponsorTierBronze,
	}

	groups := make([]TierGroup, 0, len(tiers))
	for _, tier := range tiers {
		rows, err := s.repo.ListActiveByTier(ctx, tier, now)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sponsors by tier")
		}
		if len(rows) == 0 {
			continue
		}
		groups = append(groups, TierGroup{Tier: tier, Sponsors: rows})
	}
	return groups, nil
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sponsor id is required")
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sponsor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup sponsor")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate sponsor")
	}

	s.media.DeleteByURL(ctx, row.LogoURL)
	return nil
}
