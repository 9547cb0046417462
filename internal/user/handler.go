package user

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/metrics"
	"github.com/sebuszqo/FinanceTracker/internal/response"
)

type Handler struct {
	userService  Service
	metrics      *metrics.Collector
	respondJSON  response.JSONFunc
	respondError response.ErrorFunc
}

func NewHandler(userService Service, collector *metrics.Collector, respondJSON response.JSONFunc, respondError response.ErrorFunc) *Handler {
	if userService == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &Handler{
		userService:  userService,
		metrics:      collector,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, response.MaxBodyBytes)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case appErrors.IsValidationErrors(err):
			h.metrics.RecordAuthAttempt("register", metrics.ResultFailure)
			fields := appErrors.FieldErrors(err)
			h.respondError(w, http.StatusBadRequest, appErrors.Summary(fields), fields)
		case errors.Is(err, ErrEmailAlreadyExists):
			h.metrics.RecordAuthAttempt("register", metrics.ResultFailure)
			h.respondError(w, http.StatusConflict, "A user with this email already exists")
		case errors.Is(err, ErrUsernameAlreadyExists):
			h.metrics.RecordAuthAttempt("register", metrics.ResultFailure)
			h.respondError(w, http.StatusConflict, "A user with this username already exists")
		default:
			h.metrics.RecordAuthAttempt("register", metrics.ResultError)
			h.respondError(w, http.StatusInternalServerError, "Could not register user")
		}
		return
	}

	h.metrics.RecordAuthAttempt("register", metrics.ResultSuccess)
	h.respondJSON(w, http.StatusCreated, map[string]string{
		"status":  "success",
		"message": "User registered successfully",
	})
}
