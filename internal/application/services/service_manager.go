package services

import (
	"github.com/sheetlens/sheetlens/internal/infrastructure/persistence"
	"github.com/sheetlens/sheetlens/internal/infrastructure/transport"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	Link    *LinkService
	Fetch   *FetchService
	Facets  *FacetService
	Session *SessionService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(client *transport.Client, store *persistence.StateRepository) *ServiceManager {
	sm := &ServiceManager{}

	// Initialize services in dependency order
	sm.Link = NewLinkService()
	sm.Fetch = NewFetchService(client)
	sm.Facets = NewFacetService()
	sm.Session = NewSessionService(sm.Link, sm.Fetch, sm.Facets, store)

	return sm
}
