package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/stock-tracker/internal/api/response"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/validation"
)

const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T. Unknown fields and trailing data
// are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return req, errors.New("invalid JSON: unexpected data after object")
	}

	return req, nil
}

// statusFor maps a service error to its HTTP status code.
func statusFor(err error) int {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr),
		errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrUnknownSymbol),
		errors.Is(err, apperrors.ErrInsufficientQuantity),
		errors.Is(err, apperrors.ErrInvalidFrequency):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Client errors use the
// error text as message; server errors use fallback and keep the cause in details.
func respondServiceError(w http.ResponseWriter, err error, fallback error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		response.RespondError(w, status, fallback.Error(), err.Error())
		return
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		response.RespondError(w, status, "validation failed", verr.Fields)
		return
	}

	response.RespondError(w, status, rootMessage(err), err.Error())
}

// rootMessage returns the sentinel text of err, e.g. "insufficient quantity".
func rootMessage(err error) string {
	for _, sentinel := range []error{
		apperrors.ErrInvalidInput,
		apperrors.ErrUnknownSymbol,
		apperrors.ErrInsufficientQuantity,
		apperrors.ErrInvalidFrequency,
		apperrors.ErrUnauthorized,
		apperrors.ErrInvalidCredentials,
		apperrors.ErrUserNotFound,
		apperrors.ErrUserExists,
		apperrors.ErrUpstreamUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
