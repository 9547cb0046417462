package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/metrics"
	"github.com/sebuszqo/FinanceTracker/internal/response"
	"github.com/sebuszqo/FinanceTracker/internal/user"
)

type Handler struct {
	authService  Service
	metrics      *metrics.Collector
	respondJSON  response.JSONFunc
	respondError response.ErrorFunc
}

func NewHandler(authService Service, collector *metrics.Collector, respondJSON response.JSONFunc, respondError response.ErrorFunc) *Handler {
	if authService == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &Handler{
		authService:  authService,
		metrics:      collector,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type sessionResponse struct {
	Token     string      `json:"token"`
	Refresh   string      `json:"refresh,omitempty"`
	User      user.Public `json:"user"`
	IsNewUser *bool       `json:"isNewUser,omitempty"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, response.MaxBodyBytes)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ve appErrors.ValidationErrors
	if req.Email == "" {
		ve.Add("email", "email is required")
	}
	if req.Password == "" {
		ve.Add("password", "password is required")
	}
	if ve.HasErrors() {
		fields := ve.Fields()
		h.respondError(w, http.StatusBadRequest, appErrors.Summary(fields), fields)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			h.metrics.RecordAuthAttempt("password", metrics.ResultFailure)
			h.respondError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, ErrProviderOnlyAccount):
			h.metrics.RecordAuthAttempt("password", metrics.ResultFailure)
			h.respondError(w, http.StatusUnauthorized, "This account uses Google sign-in")
		default:
			h.metrics.RecordAuthAttempt("password", metrics.ResultError)
			h.respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.metrics.RecordAuthAttempt("password", metrics.ResultSuccess)
	h.respondJSON(w, http.StatusOK, sessionResponse{
		Token:   session.AccessToken,
		Refresh: session.RefreshToken,
		User:    session.User.Public(),
	})
}

func (h *Handler) HandleGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, response.MaxBodyBytes)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		h.respondError(w, http.StatusBadRequest, "token is required", map[string]string{"token": "token is required"})
		return
	}

	session, err := h.authService.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, ErrExternalAuthFailure) {
			h.metrics.RecordAuthAttempt("google", metrics.ResultFailure)
			h.respondError(w, http.StatusInternalServerError, "Google authentication failed")
			return
		}
		h.metrics.RecordAuthAttempt("google", metrics.ResultError)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.RecordAuthAttempt("google", metrics.ResultSuccess)
	isNew := session.IsNewUser
	h.respondJSON(w, http.StatusOK, sessionResponse{
		Token:     session.AccessToken,
		Refresh:   session.RefreshToken,
		User:      session.User.Public(),
		IsNewUser: &isNew,
	})
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, response.MaxBodyBytes)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Refresh == "" {
		h.respondError(w, http.StatusBadRequest, "refresh is required", map[string]string{"refresh": "refresh is required"})
		return
	}

	session, err := h.authService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			h.metrics.RecordAuthAttempt("refresh", metrics.ResultFailure)
			h.respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		h.metrics.RecordAuthAttempt("refresh", metrics.ResultError)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.RecordAuthAttempt("refresh", metrics.ResultSuccess)
	h.respondJSON(w, http.StatusOK, map[string]string{
		"token": session.AccessToken,
	})
}
