package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/api/responses"
	"github.com/mfigueroa-dev/clubcore-backend/internal/staff"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
)

// PublicStaffList returns the active staff directory for the public site.
func PublicStaffList(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		rows, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// AdminStaffList returns every staff member, active or not.
func AdminStaffList(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
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

// AdminStaffCreate accepts a multipart form with an optional portrait image.
func AdminStaffCreate(svc staff.Service, media config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		if err := parseMultipart(r, media.MaxUploadBytes()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := staff.CreateInput{
			Bio:   formValue(r, "bio"),
			Email: formValue(r, "email"),
		}
		if name := formValue(r, "name"); name != nil {
			input.Name = *name
		}
		if role := formValue(r, "role"); role != nil {
			input.Role = *role
		}
		if order, err := formIntValue(r, "display_order"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if order != nil {
			input.DisplayOrder = *order
		}

		image, err := formFile(r, "image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if image != nil {
			input.Image = &staff.ImageUpload{
				Filename:    image.Filename,
				ContentType: image.ContentType,
				Payload:     image.Payload,
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

// AdminStaffUpdate applies the provided multipart fields; omitted fields keep
// their stored values.
func AdminStaffUpdate(svc staff.Service, media config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "staffId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid staff id"))
			return
		}

		if err := parseMultipart(r, media.MaxUploadBytes()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := staff.UpdateInput{
			Name:  formValue(r, "name"),
			Role:  formValue(r, "role"),
			Bio:   formValue(r, "bio"),
			Email: formValue(r, "email"),
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

		image, err := formFile(r, "image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if image != nil {
			input.Image = &staff.ImageUpload{
				Filename:    image.Filename,
				ContentType: image.ContentType,
				Payload:     image.Payload,
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

// AdminStaffDelete deactivates a staff member without dropping the row.
func AdminStaffDelete(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "staffId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid staff id"))
			return
		}

		if err := svc.SoftDelete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
