// Package handler holds the HTTP handlers. Each handler depends on a small
// interface so tests can substitute the service.
package handler

import (
	"errors"
	"net/http"

	"github.com/minyuzhao/rtutor/internal/api/response"
	"github.com/minyuzhao/rtutor/internal/service"
	"github.com/minyuzhao/rtutor/internal/store"
	"github.com/minyuzhao/rtutor/pkg/models"
)

// serviceError maps service-layer errors onto HTTP responses.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyInput):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			"Input must not be empty", nil)
	case errors.Is(err, service.ErrInputTooLong):
		response.Error(w, http.StatusBadRequest, "INPUT_TOO_LONG",
			"Input exceeds the maximum allowed length", nil)
	case errors.Is(err, service.ErrUnsafeCode):
		response.Error(w, http.StatusUnprocessableEntity, "UNSAFE_CODE",
			"The submitted code contains disallowed operations", nil)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND",
			"The requested resource does not exist", nil)
	case errors.Is(err, models.ErrProviderUnavailable):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"The AI provider is not available", nil)
	case errors.Is(err, models.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"The AI request took too long and was cancelled", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
