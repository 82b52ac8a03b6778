package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error envelope shared with the backend API: errors is
// either a message string or a field -> message map.
type ErrorBody struct {
	Errors   any    `json:"errors"`
	Redirect string `json:"redirect,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"errors": errs}.
func WriteError(w http.ResponseWriter, code int, errs any) {
	WriteJSON(w, code, ErrorBody{Errors: errs})
}

// NoCache marks the response as not storable. Everything the dashboard
// returns is session-bound.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
