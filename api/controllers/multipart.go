package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
)

type fileUpload struct {
	Filename    string
	ContentType string
	Payload     []byte
}

func parseMultipart(r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.New(pkgerrors.CodeValidation, "upload exceeds the size limit")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart payload")
	}
	return nil
}

// formValue returns nil when the field was omitted entirely, preserving the
// distinction between "not sent" and "sent empty" for partial updates.
func formValue(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	trimmed := strings.TrimSpace(values[0])
	return &trimmed
}

func formIntValue(r *http.Request, name string) (*int, error) {
	raw := formValue(r, name)
	if raw == nil {
		return nil, nil
	}
	parsed, err := strconv.Atoi(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must be an integer")
	}
	return &parsed, nil
}

func formBoolValue(r *http.Request, name string) (*bool, error) {
	raw := formValue(r, name)
	if raw == nil {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a boolean")
	}
	return &parsed, nil
}

func formFile(r *http.Request, field string) (*fileUpload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded file")
	}
	defer func() { _ = file.Close() }()

	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded file")
	}

	return &fileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Payload:     payload,
	}, nil
}
