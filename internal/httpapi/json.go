package httpapi

import (
	"encoding/json"
	"net/http"
)

const contentTypeJSON = "application/json;charset=utf-8"

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
