package utils

import (
	"net/http"

	"github.com/goccy/go-json"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteProblem writes an error body with optional extra fields (redirect, fields, reason).
func WriteProblem(w http.ResponseWriter, status int, message string, extra map[string]interface{}) {
	body := map[string]interface{}{"error": message}
	for k, v := range extra {
		body[k] = v
	}
	WriteJSON(w, status, body)
}

// DecodeJSON decodes a request body into out.
func DecodeJSON(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}
