package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/logging"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteDomainError maps domain errors onto HTTP responses. Validation
// and coercion failures carry enough detail for the caller to fix the
// input; storage internals never leak past the generic message.
func WriteDomainError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var schemaErr *apperrors.SchemaError
	var formatErr *apperrors.FormatError
	var coercionErr *apperrors.CoercionError

	switch {
	case errors.As(err, &schemaErr):
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_columns", schemaErr.Error())
	case errors.As(err, &formatErr):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_format", formatErr.Error())
	case errors.As(err, &coercionErr):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_value", coercionErr.Error())
	case errors.Is(err, apperrors.ErrEmptyDataset):
		_ = ErrorResponse(w, http.StatusBadRequest, "empty_dataset", apperrors.ErrEmptyDataset.Error())
	case errors.Is(err, apperrors.ErrUploadTooBig):
		_ = ErrorResponse(w, http.StatusRequestEntityTooLarge, "upload_too_large", apperrors.ErrUploadTooBig.Error())
	case errors.Is(err, apperrors.ErrTooManyRows):
		_ = ErrorResponse(w, http.StatusBadRequest, "too_many_rows", apperrors.ErrTooManyRows.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Dataset not found")
	case errors.Is(err, apperrors.ErrUsernameTaken):
		_ = ErrorResponse(w, http.StatusConflict, "username_taken", apperrors.ErrUsernameTaken.Error())
	case errors.Is(err, apperrors.ErrEmailTaken):
		_ = ErrorResponse(w, http.StatusConflict, "email_taken", apperrors.ErrEmailTaken.Error())
	case errors.Is(err, apperrors.ErrInvalidLogin):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_login", apperrors.ErrInvalidLogin.Error())
	default:
		logger.Error("Request failed", zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
