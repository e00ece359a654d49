package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/chefascend/cook-server-go/internal/errors"
)

var validate = validator.New()

// decodeAndValidate parses the JSON body into req and runs the struct's
// validation tags. The returned error is always an AppError.
func decodeAndValidate(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return apperrors.ValidationError("Invalid JSON body").WithCause(err)
	}

	if err := validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			details := make(map[string]string, len(validationErrs))
			for _, fieldErr := range validationErrs {
				details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
			}
			return apperrors.ValidationError("Request validation failed").WithDetails(details)
		}
		return apperrors.ValidationError("Request validation failed").WithCause(err)
	}

	return nil
}

// parseIDParam reads a positive int64 URL parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput(name, "must be a positive integer")
	}
	return id, nil
}

// parseIntParam reads a positive int URL parameter.
func parseIntParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, apperrors.InvalidInput(name, "must be a positive integer")
	}
	return value, nil
}
