// Package respond holds the JSON and error writers shared by the handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Error maps domain errors onto status codes: bad input 400, not found 404, invalid
// transition 409, anything else 500.
func Error(w http.ResponseWriter, err error) {
	var (
		vErr      *order.ValidationError
		fieldErrs validator.ValidationErrors
		repoErr   *order.RepositoryError
	)

	switch {
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}

		JSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
	case errors.As(err, &vErr):
		fields := make(map[string]string)
		for _, e := range unwrapAll(err) {
			if errors.As(e, &vErr) {
				fields[vErr.Field] = vErr.Message
			}
		}

		JSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Fields: fields})
	case errors.Is(err, ErrMalformed):
		JSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, order.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		JSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, order.ErrInvalidTransition):
		JSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &repoErr):
		slog.Error("repository failure", "op", repoErr.Op, "error", repoErr.Err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		slog.Error("request failed", "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}

	return []error{err}
}
