package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blogem/entrylog/logging"
	"github.com/blogem/entrylog/models"
	"github.com/blogem/entrylog/repositories"
	"github.com/blogem/entrylog/services"
)

const (
	msgCreateFailed = "Error creating item"
	msgFetchFailed  = "Error fetching items"
	msgUpdateFailed = "Error updating item"
	msgDeleteFailed = "Error deleting item"
	msgNotFound     = "Item not found"
	msgDeleted      = "Item deleted"
)

// maxBodyBytes bounds the size of create and update bodies
const maxBodyBytes = 1 << 20

// EntryController handles entry log requests
type EntryController struct {
	services *services.Services
	log      logging.Logger
}

// NewEntryController creates a new entry controller
func NewEntryController(services *services.Services, log logging.Logger) *EntryController {
	return &EntryController{
		services: services,
		log:      log.With("component", "entries"),
	}
}

// Create handles POST /items
func (c *EntryController) Create(w http.ResponseWriter, r *http.Request) {
	var form models.EntryForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		c.log.Debug(r.Context(), "rejecting create body", "error", err)
		writeError(w, http.StatusBadRequest, msgCreateFailed)
		return
	}

	entry, err := c.services.Entries.CreateEntry(r.Context(), &form)
	if err != nil {
		c.log.Warn(r.Context(), "create entry failed", "error", err)
		writeError(w, http.StatusBadRequest, msgCreateFailed)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// List handles GET /items
func (c *EntryController) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := models.ParsePageRequest(query.Get("page"), query.Get("limit"))

	page, err := c.services.Entries.ListEntries(r.Context(), req)
	if err != nil {
		c.log.Error(r.Context(), "list entries failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Update handles PUT /items/{id}
func (c *EntryController) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&patch); err != nil {
		c.log.Debug(r.Context(), "rejecting update body", "id", id, "error", err)
		writeError(w, http.StatusBadRequest, msgUpdateFailed)
		return
	}

	entry, err := c.services.Entries.UpdateEntry(r.Context(), id, patch)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		c.log.Warn(r.Context(), "update entry failed", "id", id, "error", err)
		writeError(w, http.StatusBadRequest, msgUpdateFailed)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /items/{id}
func (c *EntryController) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := c.services.Entries.DeleteEntry(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		c.log.Warn(r.Context(), "delete entry failed", "id", id, "error", err)
		writeError(w, http.StatusBadRequest, msgDeleteFailed)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgDeleted})
}
