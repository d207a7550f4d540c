package services

import (
	"github.com/blogem/entrylog/repositories"
)

// Services holds all service instances
type Services struct {
	Entries EntryService
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories) *Services {
	return &Services{
		Entries: NewEntryService(repos.Entries),
	}
}
