package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

const unauthenticatedMessage = "Authentication credentials were not provided or are invalid"

// JWTAccessTokenMiddleware rejects any request without a valid access token
// for a user that still exists, and otherwise stores that user in the context.
func (h *Handler) JWTAccessTokenMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				h.unauthenticated(w)
				return
			}

			u, err := h.authService.Authenticate(r.Context(), tokenString)
			if err != nil {
				if errors.Is(err, ErrUnauthenticated) {
					h.unauthenticated(w)
					return
				}
				slog.Error("failed to authenticate request", slog.String("error", err.Error()))
				h.respondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
		})
	}
}

func (h *Handler) unauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	h.respondError(w, http.StatusUnauthorized, unauthenticatedMessage)
}

// bearerToken extracts the credential from "Bearer <token>". The scheme is
// case-insensitive; anything else is rejected.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
