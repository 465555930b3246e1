package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// List is a user-curated named collection of leads.
type List struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string  `gorm:"index;not null" json:"-"`
	Name        string  `gorm:"not null" json:"name"`
	Description *string `json:"description"`
	IsArchived  bool    `gorm:"default:false" json:"is_archived"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key.
func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// ListItem is the membership row joining a list to a lead. The composite
// primary key is the uniqueness invariant: a lead appears at most once per
// list, and inserts are upserts on (list_id, place_id).
type ListItem struct {
	ListID  string `gorm:"primaryKey;column:list_id" json:"list_id"`
	PlaceID string `gorm:"primaryKey;column:place_id" json:"place_id"`

	CreatedAt time.Time `json:"created_at"`
}

// ListWithCount is a List annotated with its membership count.
type ListWithCount struct {
	List
	ItemsCount int64 `json:"items_count"`
}
