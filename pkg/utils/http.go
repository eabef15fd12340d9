package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error returned by the HTTP API.
type ErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// WriteJSONResponse writes a JSON response with the given status code
// Sets Content-Type header and handles JSON encoding
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONError writes an ErrorBody with the given status code.
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, ErrorBody{Error: message, Code: statusCode})
}
