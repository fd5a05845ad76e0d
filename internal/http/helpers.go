package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// FallbackHeader marks responses served by the in-memory fallback store.
// Callers should treat such results as ephemeral: they do not survive a
// process restart.
const FallbackHeader = "X-Using-Fallback"

type contextKey string

const requestIDKey contextKey = "request_id"

// markFallback sets the fallback header when the in-memory store produced
// the response. Must be called before the body is written.
func markFallback(w http.ResponseWriter, fellBack bool) {
	if fellBack {
		w.Header().Set(FallbackHeader, "true")
	}
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

// writeError emits the uniform failure shape: a JSON object with a single
// error message and nothing else.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
