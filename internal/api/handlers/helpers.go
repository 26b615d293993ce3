package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/acortes/librarium-be/internal/apperr"
)

var validate = validator.New()

// decodeJSON decodes a request body into dst and runs struct validation.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.E(apperr.ErrValidation, "Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.E(apperr.ErrValidation, "Missing fields")
	}
	return nil
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeMessage writes the {"message": ...} success shape.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps a taxonomy error onto its HTTP status and the
// {"error": ...} body. Unknown errors become opaque 500s.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"

	switch {
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrInvalidToken),
		errors.Is(err, apperr.ErrConflict):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, apperr.ErrInvalidCredentials),
		errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
		msg = err.Error()
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
		msg = err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	default:
		log.Error().Err(err).Msg("Unhandled error in request")
	}

	writeJSON(w, status, map[string]string{"error": msg})
}
