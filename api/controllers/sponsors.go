package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/api/responses"
	"github.com/mfigueroa-dev/clubcore-backend/internal/sponsors"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
)

const sponsorDateLayout = "2006-01-02"

func formDateValue(r *http.Request, name string) (*time.Time, error) {
	raw := formValue(r, name)
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(sponsorDateLayout, *raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must use YYYY-MM-DD")
	}
	return &parsed, nil
}

// PublicSponsorsList returns active sponsors grouped by tier.
func PublicSponsorsList(svc sponsors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sponsors service unavailable"))
			return
		}

		groups, err := svc.ListByTier(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, groups)
	}
}

// AdminSponsorsList returns every sponsor regardless of visibility window.
func AdminSponsorsList(svc sponsors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sponsors service unavailable"))
			return
		}

		rows, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// AdminSponsorCreate accepts a multipart form; the logo file is mandatory.
func AdminSponsorCreate(svc sponsors.Service, media config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sponsors service unavailable"))
			return
		}

		if err := parseMultipart(r, media.MaxUploadBytes()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sponsors.CreateInput{
			WebsiteURL: formValue(r, "website_url"),
		}
		if name := formValue(r, "name"); name != nil {
			input.Name = *name
		}
		if rawTier := formValue(r, "tier"); rawTier != nil {
			tier, err := enums.ParseSponsorTier(*rawTier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid sponsor tier"))
				return
			}
			input.Tier = tier
		}
		if order, err := formIntValue(r, "display_order"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if order != nil {
			input.DisplayOrder = *order
		}

		var err error
		if input.StartDate, err = formDateValue(r, "start_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.EndDate, err = formDateValue(r, "end_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		logo, err := formFile(r, "logo")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logo != nil {
			input.Logo = &sponsors.LogoUpload{
				Filename:    logo.Filename,
				ContentType: logo.ContentType,
				Payload:     logo.Payload,
			}
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AdminSponsorUpdate applies the provided multipart fields; omitted fields
// keep their stored values.
func AdminSponsorUpdate(svc sponsors.Service, media config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sponsors service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "sponsorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sponsor id"))
			return
		}

		if err := parseMultipart(r, media.MaxUploadBytes()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sponsors.UpdateInput{
			Name:       formValue(r, "name"),
			WebsiteURL: formValue(r, "website_url"),
		}
		if rawTier := formValue(r, "tier"); rawTier != nil {
			tier, err := enums.ParseSponsorTier(*rawTier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid sponsor tier"))
				return
			}
			input.Tier = &tier
		}
		if order, err := formIntValue(r, "display_order"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else {
			input.DisplayOrder = order
		}
		if active, err := formBoolValue(r, "is_active"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else {
			input.IsActive = active
		}
		if input.StartDate, err = formDateValue(r, "start_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.EndDate, err = formDateValue(r, "end_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		logo, err := formFile(r, "logo")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logo != nil {
			input.Logo = &sponsors.LogoUpload{
				Filename:    logo.Filename,
				ContentType: logo.ContentType,
				Payload:     logo.Payload,
			}
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// AdminSponsorDelete deactivates a sponsor and drops its stored logo.
func AdminSponsorDelete(svc sponsors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sponsors service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "sponsorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sponsor id"))
			return
		}

		if err := svc.SoftDelete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
