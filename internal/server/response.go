package server

import (
	"encoding/json"
	"net/http"

	"github.com/itzenzy2/PersonalChatBot/internal/logging"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Fixed client-facing messages.
const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgNoHistory        = "No history provided"
	msgNotFound         = "Not Found"
)

// writeJSON writes a JSON response. Replies are readable from any origin.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Warn().Err(err).Msg("writing response body")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
