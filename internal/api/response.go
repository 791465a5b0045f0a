package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// jsonRetryableError writes a JSON error response with a retryable hint, so
// clients can distinguish "try again" from "fix the credential".
func jsonRetryableError(w http.ResponseWriter, status int, message string, retryable bool) {
	jsonResponse(w, status, map[string]any{"error": message, "retryable": retryable})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
