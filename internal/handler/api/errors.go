package api

import (
	"errors"
	"net/http"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/usecase"
	xhttp "SignalForge/pkg/http"
)

// toAppError maps domain failures onto the HTTP error envelope.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		return xhttp.FieldError(vErr.Field, vErr.Reason).WithError(err)
	}
	var inErr *models.InputError
	if errors.As(err, &inErr) {
		return xhttp.UnprocessableError(inErr.Error()).WithError(err)
	}
	if errors.Is(err, usecase.ErrNoFeatureStore) {
		return xhttp.NewAppError("ERR_UNAVAILABLE", "", err.Error(), http.StatusServiceUnavailable).WithError(err)
	}
	return xhttp.InternalError("Something went wrong").WithError(err)
}
