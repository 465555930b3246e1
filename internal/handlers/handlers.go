// Package handlers wires HTTP routes to the domain services.
package handlers

import (
	"github.com/intakt/hunter/backend/internal/auth"
	"github.com/intakt/hunter/backend/internal/config"
	"github.com/intakt/hunter/backend/internal/contacts"
	"github.com/intakt/hunter/backend/internal/ingest"
	"github.com/intakt/hunter/backend/internal/leads"
	"github.com/intakt/hunter/backend/internal/lists"
	"github.com/intakt/hunter/backend/internal/scrape"
)

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	cfg      *config.Config
	auth     *auth.Service
	leads    *leads.Service
	contacts *contacts.Service
	lists    *lists.Service
	scrape   *scrape.Client
	ingest   *ingest.Service
}

// New creates the handler set.
func New(
	cfg *config.Config,
	authSvc *auth.Service,
	leadsSvc *leads.Service,
	contactsSvc *contacts.Service,
	listsSvc *lists.Service,
	scrapeClient *scrape.Client,
	ingestSvc *ingest.Service,
) *Handlers {
	return &Handlers{
		cfg:      cfg,
		auth:     authSvc,
		leads:    leadsSvc,
		contacts: contactsSvc,
		lists:    listsSvc,
		scrape:   scrapeClient,
		ingest:   ingestSvc,
	}
}
