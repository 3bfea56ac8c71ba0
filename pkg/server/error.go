package server

import (
	"encoding/json"
	"net/http"
)

type HTTPErrorResponse struct {
	Error string `json:"error"`
}

func SendHTTPError(w http.ResponseWriter, httpCode int, resp interface{}) {
	sendJSON(w, httpCode, resp)
}

func SendHTTPResponse(w http.ResponseWriter, httpCode int, resp interface{}) {
	sendJSON(w, httpCode, resp)
}

func sendJSON(w http.ResponseWriter, httpCode int, resp interface{}) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(httpCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Failed to encode response payload to JSON", http.StatusInternalServerError)
	}
}
