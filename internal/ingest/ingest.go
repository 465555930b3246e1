// Package ingest receives scraped rows from the n8n pipeline, upserts them
// into the store, and feeds the realtime change feed. In the hosted-store
// deployment this service replaced, the pipeline wrote rows directly and the
// store emitted the change feed; here both halves live behind one endpoint.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/intakt/hunter/backend/internal/contacts"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/models"
	"github.com/intakt/hunter/backend/internal/realtime"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Batch is one delivery from the pipeline. Leads are keyed by place_id;
// contacts attach to their lead by place_id.
type Batch struct {
	ClientQueryID string               `json:"clientQueryId"`
	UserID        string               `json:"userId" binding:"required"`
	Leads         []models.Lead        `json:"leads"`
	Contacts      []models.LeadContact `json:"contacts"`
}

// Summary reports what a batch did.
type Summary struct {
	LeadsInserted int `json:"leads_inserted"`
	LeadsUpdated  int `json:"leads_updated"`
	ContactsAdded int `json:"contacts_added"`
	LeadsRejected int `json:"leads_rejected"`
}

// Service applies pipeline batches.
type Service struct {
	db       *gorm.DB
	hub      *realtime.Hub
	contacts *contacts.Service
}

// NewService creates an ingest service. hub and contacts may be nil (no
// realtime fanout / no cache invalidation).
func NewService(db *gorm.DB, hub *realtime.Hub, contactsSvc *contacts.Service) *Service {
	return &Service{db: db, hub: hub, contacts: contactsSvc}
}

// Apply upserts a batch. Each lead publishes an INSERT or UPDATE change to
// the owning user's feed; contact arrivals invalidate the cached count.
func (s *Service) Apply(ctx context.Context, batch Batch) (*Summary, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store configuration missing")
	}
	if batch.UserID == "" {
		return nil, fmt.Errorf("batch is missing userId")
	}

	summary := &Summary{}

	for i := range batch.Leads {
		lead := batch.Leads[i]
		if lead.PlaceID == "" {
			summary.LeadsRejected++
			continue
		}
		lead.UserID = batch.UserID
		if batch.ClientQueryID != "" {
			qid := batch.ClientQueryID
			lead.QueryID = &qid
		}

		changeType, err := s.upsertLead(ctx, &lead)
		if err != nil {
			return nil, fmt.Errorf("failed to ingest lead %s: %w", lead.PlaceID, err)
		}

		switch changeType {
		case realtime.ChangeInsert:
			summary.LeadsInserted++
		case realtime.ChangeUpdate:
			summary.LeadsUpdated++
		}

		if s.hub != nil {
			lead.NormalizeContacted()
			s.hub.Publish(batch.UserID, realtime.NewChange(changeType, lead))
		}
	}

	for i := range batch.Contacts {
		contact := batch.Contacts[i]
		if contact.PlaceID == "" {
			continue
		}
		if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
			return nil, fmt.Errorf("failed to ingest contact for %s: %w", contact.PlaceID, err)
		}
		summary.ContactsAdded++
		if s.contacts != nil {
			s.contacts.InvalidateCount(ctx, contact.PlaceID)
		}
	}

	logger.Log.Info("pipeline batch applied",
		logger.WithUserID(batch.UserID),
		zap.String("client_query_id", batch.ClientQueryID),
		zap.Int("leads_inserted", summary.LeadsInserted),
		zap.Int("leads_updated", summary.LeadsUpdated),
		zap.Int("contacts_added", summary.ContactsAdded),
	)

	return summary, nil
}

// Delete removes a lead and publishes a DELETE change. Exposed for pipeline
// cleanup deliveries.
func (s *Service) Delete(ctx context.Context, userID, placeID string) error {
	if s.db == nil {
		return fmt.Errorf("store configuration missing")
	}

	var lead models.Lead
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to load lead %s: %w", placeID, err)
	}

	if err := s.db.WithContext(ctx).Delete(&lead).Error; err != nil {
		return fmt.Errorf("failed to delete lead %s: %w", placeID, err)
	}

	if s.hub != nil {
		lead.NormalizeContacted()
		s.hub.Publish(userID, realtime.NewChange(realtime.ChangeDelete, lead))
	}

	return nil
}

// upsertLead creates or updates one lead row, reporting which it did. The
// match is scoped to the batch's user: the same place prospected by two users
// is two independent rows.
func (s *Service) upsertLead(ctx context.Context, lead *models.Lead) (realtime.ChangeType, error) {
	var existing models.Lead
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND place_id = ?", lead.UserID, lead.PlaceID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.WithContext(ctx).Create(lead).Error; err != nil {
			return "", err
		}
		return realtime.ChangeInsert, nil
	} else if err != nil {
		return "", err
	}

	// The pipeline never clears the contacted flag on re-scrape.
	if lead.Contacted == nil {
		lead.Contacted = existing.Contacted
	}
	lead.CreatedAt = existing.CreatedAt

	if err := s.db.WithContext(ctx).Model(&models.Lead{}).
		Where("user_id = ? AND place_id = ?", lead.UserID, lead.PlaceID).
		Updates(lead).Error; err != nil {
		return "", err
	}
	return realtime.ChangeUpdate, nil
}
