package models

import "time"

// Lead is a prospected business record produced by the external scrape
// pipeline. The place id is stable per Google Maps business but two users can
// each prospect the same place, so rows are keyed by (user_id, place_id).
// The only field this service ever mutates is Contacted.
type Lead struct {
	UserID  string `gorm:"primaryKey;not null" json:"user_id,omitempty"`
	PlaceID string `gorm:"primaryKey;column:place_id" json:"place_id"`
	QueryID *string `gorm:"index" json:"query_id"`

	Title       *string `json:"title"`
	Category    *string `json:"category"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	CountryCode *string `json:"country_code"`

	Phone           *string `json:"phone"`
	PhoneNormalized *string `json:"phone_normalized"`

	URL      *string `gorm:"column:url" json:"url"`
	Website  *string `json:"website"`
	ImageURL *string `gorm:"column:image_url" json:"image_url"`

	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"review_count"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`

	Facebook  *string `json:"facebook"`
	Instagram *string `json:"instagram"`
	LinkedIn  *string `gorm:"column:linkedin" json:"linkedin"`
	Twitter   *string `json:"twitter"`
	YouTube   *string `gorm:"column:youtube" json:"youtube"`
	TikTok    *string `gorm:"column:tiktok" json:"tiktok"`
	Pinterest *string `json:"pinterest"`
	Discord   *string `json:"discord"`

	CreatedAt time.Time `json:"created_at"`

	// Nullable so rows written before the column existed read back as
	// absent; absent is normalized to false everywhere.
	Contacted *bool `json:"contacted"`
}

// SocialColumns lists the eight social-profile columns, in the order the
// tri-state socials filter checks them.
var SocialColumns = []string{
	"facebook", "instagram", "linkedin", "twitter",
	"youtube", "tiktok", "pinterest", "discord",
}

// LeadColumns is the fixed projection allow-list for lead reads. Never
// replaced with a wildcard: it is the contract for which fields leave the
// store.
var LeadColumns = []string{
	"query_id", "place_id", "user_id", "title", "category", "address", "city",
	"country_code", "phone", "phone_normalized", "url", "website", "image_url",
	"rating", "review_count", "lat", "lng",
	"facebook", "instagram", "linkedin", "twitter",
	"youtube", "tiktok", "pinterest", "discord",
	"created_at", "contacted",
}

// NormalizeContacted maps an absent contacted flag to false.
func (l *Lead) NormalizeContacted() {
	if l.Contacted == nil {
		f := false
		l.Contacted = &f
	}
}

// IsContacted reports the contacted flag with absent treated as false.
func (l *Lead) IsContacted() bool {
	return l.Contacted != nil && *l.Contacted
}

// DisplayName returns the best human-readable name for notifications.
func (l *Lead) DisplayName() string {
	if l.Title != nil && *l.Title != "" {
		return *l.Title
	}
	return l.PlaceID
}
