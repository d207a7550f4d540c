package models

import (
	"fmt"
	"time"
)

// EntryForm represents the request body accepted when creating an entry
type EntryForm struct {
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageURL,omitempty"`
	TypeOfEnter EntryType `json:"typeOfEnter"`
	Tags        []string  `json:"tags"`
	ResidentID  string    `json:"residentId,omitempty"`
}

// Validate validates the entry form data
func (f *EntryForm) Validate() []string {
	var errors []string

	if f.TypeOfEnter == "" {
		errors = append(errors, "typeOfEnter is required")
	} else if !f.TypeOfEnter.IsValid() {
		errors = append(errors, fmt.Sprintf("typeOfEnter must be one of %v", EntryTypes))
	}

	if f.ResidentID != "" && !IsValidEntryID(f.ResidentID) {
		errors = append(errors, "residentId must be a valid object id")
	}

	return errors
}

// ToEntry builds a new entry from the form, stamped with the given creation time
func (f *EntryForm) ToEntry(createdAt time.Time) *Entry {
	tags := make([]string, len(f.Tags))
	copy(tags, f.Tags)

	return &Entry{
		ID:          NewEntryID(),
		Name:        f.Name,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		Date:        Timestamp(createdAt),
		TypeOfEnter: f.TypeOfEnter,
		Tags:        tags,
		ResidentID:  f.ResidentID,
	}
}
