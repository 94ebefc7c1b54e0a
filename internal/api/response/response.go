// Package response writes the JSON bodies, error envelopes and file downloads
// returned by the API handlers.
package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ErrorResponse is the envelope of every non-2xx answer.
// Details carries either the underlying error text or, for validation
// failures, a map from JSON field name to message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON encodes data as the body of a response with the given status.
// Encoding errors are logged; the status line has already been sent by then.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.Int("status", status), slog.String("err", err.Error()))
	}
}

// RespondNoContent answers 204 with an empty body.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondError sends an ErrorResponse.
//
// Example:
//
//	response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
//	response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing session")
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// RespondAttachment sends body as a file download named filename.
func RespondAttachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("failed to write attachment", slog.String("filename", filename), slog.String("err", err.Error()))
	}
}
