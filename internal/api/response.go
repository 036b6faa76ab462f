package api

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiError is the body of every failed request. RequestID echoes the id the
// middleware assigned so callers can match a failure to the server log.
type apiError struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes msg in the error envelope. It must run behind
// loggingMiddleware for the request id to be known.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{
		Status:    status,
		Error:     msg,
		RequestID: w.Header().Get(RequestIDHeader),
	})
}
