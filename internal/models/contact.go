package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadContact is a person associated with a Lead. Rows are written by the
// enrichment stage of the scrape pipeline and are read-only here.
type LeadContact struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"-"`
	PlaceID string `gorm:"index;not null;column:place_id" json:"place_id"`

	FullName  *string `json:"full_name"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Title     *string `json:"title"`

	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	LinkedInURL *string `gorm:"column:linkedin_url" json:"linkedin_url"`

	Seniority  *string `json:"seniority"`
	Department *string `json:"department"`

	City        *string `json:"city"`
	State       *string `json:"state"`
	Country     *string `json:"country"`
	CompanyName *string `json:"company_name"`

	Source *string `json:"source"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name the pipeline writes to.
func (LeadContact) TableName() string {
	return "lead_contacts"
}

// BeforeCreate assigns a UUID primary key (works on both Postgres and the
// SQLite test databases, unlike a server-side default).
func (c *LeadContact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
