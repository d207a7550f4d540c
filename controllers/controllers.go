package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/blogem/entrylog/logging"
	"github.com/blogem/entrylog/services"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse is the body of requests that return no record
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON encodes data as the JSON response body with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a fixed error message with the given status code
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// Controllers holds all controller instances
type Controllers struct {
	Entries *EntryController
	Health  *HealthController
}

// NewControllers creates and initializes all controller instances
func NewControllers(services *services.Services, log logging.Logger) *Controllers {
	return &Controllers{
		Entries: NewEntryController(services, log),
		Health:  NewHealthController(),
	}
}
