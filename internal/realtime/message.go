package realtime

import (
	"time"

	"github.com/intakt/hunter/backend/internal/models"
)

// ChangeType tags a row-level change event.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// LeadChange is one row-level event on a user's leads.
type LeadChange struct {
	Type ChangeType  `json:"type"`
	Row  models.Lead `json:"row"`

	// Timestamp is when the event was published, for client-side debugging.
	Timestamp time.Time `json:"timestamp"`
}

// NewChange builds a change event stamped now.
func NewChange(t ChangeType, row models.Lead) LeadChange {
	return LeadChange{Type: t, Row: row, Timestamp: time.Now().UTC()}
}
