package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// maxRequestBytes caps JSON request bodies
const maxRequestBytes = 64 << 10

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
}

// writeJSONResponse writes data as JSON with the given status code
func writeJSONResponse(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSONResponse(w, logger, status, ErrorResponse{Error: message})
}

// decodeJSON reads a size limited JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
