package controllers

import "net/http"

// HealthController answers liveness probes
type HealthController struct{}

// NewHealthController creates a new health controller
func NewHealthController() *HealthController {
	return &HealthController{}
}

// Index handles GET /health
func (c *HealthController) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "entrylog",
	})
}
