package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/internal/media"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
)

const imagePrefix = "staff"

type staffRepository interface {
	Create(ctx context.Context, row *models.StaffMember) (*models.StaffMember, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error)
	ListActive(ctx context.Context) ([]models.StaffMember, error)
	ListAll(ctx context.Context) ([]models.StaffMember, error)
	Update(ctx context.Context, row *models.StaffMember) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ImageUpload carries an optional multipart image for create/update calls.
type ImageUpload struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// CreateInput holds the fields accepted when creating a staff member.
type CreateInput struct {
	Name         string
	Role         string
	Bio          *string
	Email        *string
	DisplayOrder int
	Image        *ImageUpload
}

// UpdateInput holds the mutable fields; nil pointers leave values untouched.
type UpdateInput struct {
	Name         *string
	Role         *string
	Bio          *string
	Email        *string
	DisplayOrder *int
	IsActive     *bool
	Image        *ImageUpload
}

// Service exposes staff directory management.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.StaffMember, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.StaffMember, error)
	ListActive(ctx context.Context) ([]models.StaffMember, error)
	ListAll(ctx context.Context) ([]models.StaffMember, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  staffRepository
	media media.Service
}

// NewService builds the staff service.
func NewService(repo staffRepository, mediaSvc media.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	if mediaSvc == nil {
		return nil, fmt.Errorf("media service required")
	}
	return &service{repo: repo, media: mediaSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.StaffMember, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role is required")
	}

	row := &models.StaffMember{
		Name:         name,
		Role:         role,
		Bio:          input.Bio,
		Email:        input.Email,
		DisplayOrder: input.DisplayOrder,
		IsActive:     true,
	}

	if input.Image != nil {
		url, err := s.media.UploadImage(ctx, media.UploadInput{
			Prefix:      imagePrefix,
			Filename:    input.Image.Filename,
			ContentType: input.Image.ContentType,
			Payload:     input.Image.Payload,
		})
		if err != nil {
			return nil, err
		}
		row.ImageURL = &url
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create staff member")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.StaffMember, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id is required")
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "staff member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup staff member")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		row.Name = name
	}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if role == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role cannot be empty")
		}
		row.Role = role
	}
	if input.Bio != nil {
		row.Bio = input.Bio
	}
	if input.Email != nil {
		row.Email = input.Email
	}
	if input.DisplayOrder != nil {
		row.DisplayOrder = *input.DisplayOrder
	}
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}

	var replacedURL string
	if input.Image != nil {
		url, err := s.media.UploadImage(ctx, media.UploadInput{
			Prefix:      imagePrefix,
			Filename:    input.Image.Filename,
			ContentType: input.Image.ContentType,
			Payload:     input.Image.Payload,
		})
		if err != nil {
			return nil, err
		}
		if row.ImageURL != nil {
			replacedURL = *row.ImageURL
		}
		row.ImageURL = &url
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update staff member")
	}

	if replacedURL != "" {
		s.media.DeleteByURL(ctx, replacedURL)
	}

	return row, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.StaffMember, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.StaffMember, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}
	return rows, nil
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "staff member not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup staff member")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate staff member")
	}
	return nil
}
