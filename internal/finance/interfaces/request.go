package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sebuszqo/FinanceTracker/internal/auth"
	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/sebuszqo/FinanceTracker/internal/response"
)

// currentUserID reads the identity attached by the access-token middleware.
func currentUserID(w http.ResponseWriter, r *http.Request, respondError response.ErrorFunc) (int64, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return u.ID, true
}

// pathID parses the {id} URL parameter. Anything that is not a positive
// integer cannot name a record, so it is reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, respondError response.ErrorFunc, resource string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusNotFound, resource+" not found")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, response.MaxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		var fieldErr *json.UnmarshalTypeError
		if errors.As(err, &fieldErr) && fieldErr.Field != "" {
			if domain.IsDateError(fieldErr) {
				return appErrors.NewValidationError(fieldErr.Field, fieldErr.Field+" must be a valid date in YYYY-MM-DD format")
			}
			return appErrors.NewValidationError(fieldErr.Field, fmt.Sprintf("%s has an invalid type", fieldErr.Field))
		}
		return err
	}
	return nil
}

// respondServiceError maps service errors to the HTTP taxonomy.
func respondServiceError(w http.ResponseWriter, respondError response.ErrorFunc, err error, resource, action string) {
	if fields := appErrors.FieldErrors(err); fields != nil {
		respondError(w, http.StatusBadRequest, appErrors.Summary(fields), fields)
		return
	}
	switch {
	case errors.Is(err, appErrors.ErrNotFound):
		respondError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, appErrors.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("finance request failed", "action", action, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func respondBadBody(w http.ResponseWriter, respondError response.ErrorFunc, err error) {
	if fields := appErrors.FieldErrors(err); fields != nil {
		respondError(w, http.StatusBadRequest, appErrors.Summary(fields), fields)
		return
	}
	respondError(w, http.StatusBadRequest, "Invalid request body")
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string, ve *appErrors.ValidationErrors) *domain.Date {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		ve.Add(name, name+" must be a date in YYYY-MM-DD format")
		return nil
	}
	return &d
}

// queryPositiveInt parses an optional positive integer query parameter.
func queryPositiveInt(r *http.Request, name string, ve *appErrors.ValidationErrors) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		ve.Add(name, name+" must be a positive integer")
		return 0
	}
	return v
}
