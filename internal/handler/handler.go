package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"tiendita/internal/model"

	"github.com/rs/zerolog"
)

// Envelope is the success response shape: a human-readable message plus the
// payload.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeData writes a success envelope.
func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Message: message, Data: data})
}

// writeError writes an error response with a stable code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps service errors to HTTP responses. Domain errors are
// actionable and carry their own message; anything else gets a generic retry
// hint without internal detail.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var stockErr *model.InsufficientStockError
	if errors.As(err, &stockErr) {
		logger.Warn().
			Str("product_id", stockErr.ProductID).
			Int("available", stockErr.Available).
			Msg("insufficient stock")
		writeJSON(w, http.StatusConflict, struct {
			Error     string `json:"error"`
			Message   string `json:"message"`
			ProductID string `json:"productId"`
			Available int    `json:"available"`
		}{
			Error:     model.ErrCodeInsufficientStock,
			Message:   stockErr.Error(),
			ProductID: stockErr.ProductID,
			Available: stockErr.Available,
		})
		return
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, model.ErrCodeInternalError,
			"The request timed out, please try again", logger)
		return
	}

	logger.Error().Err(err).Msg("unhandled service error")
	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError,
		"Something went wrong, please try again", logger)
}

// statusForCode maps domain error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeCartNotFound, model.ErrCodeItemNotFound,
		model.ErrCodeProductNotFound, model.ErrCodeZoneNotFound,
		model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeCartClosed, model.ErrCodeInvalidTransition:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON decodes a closed request struct, rejecting unknown fields so
// malformed payloads fail loudly instead of defaulting silently.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Invalid request body")
	}
	return nil
}
