package models

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// PageRequest is a validated page/limit pair
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest parses the raw page and limit query values.
// Missing, non-integer or non-positive values fall back to the defaults,
// so Limit is always at least 1 and the page count is always finite.
func ParsePageRequest(page, limit string) PageRequest {
	return PageRequest{
		Page:  parsePositive(page, DefaultPage),
		Limit: parsePositive(limit, DefaultLimit),
	}
}

// Offset returns the number of entries to skip before this page
func (p PageRequest) Offset() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	skipped := int64(p.Page - 1)
	if skipped > math.MaxInt64/int64(p.Limit) {
		return math.MaxInt64
	}
	return skipped * int64(p.Limit)
}

// PaginationMetadata describes a windowed view of the entry log
type PaginationMetadata struct {
	TotalItems      int64 `json:"totalItems"`
	TotalPages      int64 `json:"totalPages"`
	CurrentPage     int   `json:"currentPage"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewPaginationMetadata computes the metadata for req over totalItems entries
func NewPaginationMetadata(totalItems int64, req PageRequest) PaginationMetadata {
	limit := int64(req.Limit)
	if limit <= 0 {
		limit = DefaultLimit
	}
	totalPages := totalItems / limit
	if totalItems%limit != 0 {
		totalPages++
	}

	return PaginationMetadata{
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		CurrentPage:     req.Page,
		HasNextPage:     int64(req.Page) < totalPages,
		HasPreviousPage: req.Page > 1,
	}
}

// EntryPage is the response body of a list request
type EntryPage struct {
	Metadata PaginationMetadata `json:"metadata"`
	Items    []Entry            `json:"items"`
}

func parsePositive(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
