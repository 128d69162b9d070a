package handlers

import (
	"encoding/json"
	"net/http"

	"media-share/internal/apperr"
	"media-share/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// errorResponse is the error body shape. Code is present only for
// errors carrying a machine-readable code.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, errorResponse{Error: message})
}

// writeAppError maps a pipeline error onto the wire. The taxonomy's
// message is user-facing; the wrapped cause is only ever logged.
func writeAppError(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		logging.Error("request failed: %v", err)
	} else {
		logging.Debug("request rejected: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.Status)
	writeJSON(w, errorResponse{Error: ae.Message, Code: ae.Code})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}
