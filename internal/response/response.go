// Package response writes the JSON envelopes shared by every HTTP handler.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

// JSONFunc and ErrorFunc are injected into handlers so tests can swap them.
type (
	JSONFunc  func(w http.ResponseWriter, status int, payload interface{})
	ErrorFunc func(w http.ResponseWriter, status int, message string, errors ...map[string]string)
)

func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// Error writes {"status":"error","message":...,"code":status}. A non-empty
// field map is added under "errors".
func Error(w http.ResponseWriter, status int, message string, errors ...map[string]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}

	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}

	JSON(w, status, payload)
}
