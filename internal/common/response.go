package common

import (
	"encoding/json"
	"net/http"
)

// errorBody is the single error shape every endpoint returns, nested under
// an "error" key so clients can branch on payload shape alone.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON encodes v onto w with the given status. Encoding failures are dropped;
// by the time they can happen the status line is already on the wire.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes the storefront's error envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": errorBody{Code: code, Message: message, Details: details},
	})
}
