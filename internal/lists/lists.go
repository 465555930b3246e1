// Package lists implements user-curated lead collections: creation,
// deletion, and idempotent membership.
package lists

import (
	"context"
	"fmt"
	"strings"

	"github.com/intakt/hunter/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPageSize matches the list-detail page.
const DefaultPageSize = 20

// ErrEmptyName rejects lists whose name is empty after trimming.
var ErrEmptyName = fmt.Errorf("list name is required")

// ErrNoUser rejects list operations without an authenticated user.
var ErrNoUser = fmt.Errorf("no authenticated user")

// LeadsResult is one page of a list's leads.
type LeadsResult struct {
	Rows     []models.Lead `json:"rows"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// Service manages lists for a single backing store.
type Service struct {
	db *gorm.DB
}

// NewService creates a lists service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create makes a new list owned by userID. The name must be non-empty after
// trimming; the handler rejects this earlier, the service enforces it.
func (s *Service) Create(ctx context.Context, userID, name string, description *string) (*models.List, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store configuration missing")
	}
	if userID == "" {
		return nil, ErrNoUser
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	list := models.List{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := s.db.WithContext(ctx).Create(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	return &list, nil
}

// List returns the user's non-archived lists, newest first, each annotated
// with its membership count.
func (s *Service) List(ctx context.Context, userID string) ([]models.ListWithCount, error) {
	if s.db == nil {
		return []models.ListWithCount{}, nil
	}
	if userID == "" {
		return nil, ErrNoUser
	}

	var rows []models.ListWithCount
	err := s.db.WithContext(ctx).
		Model(&models.List{}).
		Select("lists.*, (SELECT COUNT(*) FROM list_items WHERE list_items.list_id = lists.id) AS items_count").
		Where("user_id = ? AND is_archived = ?", userID, false).
		Order("created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lists: %w", err)
	}

	return rows, nil
}

// Get returns a single list by id.
func (s *Service) Get(ctx context.Context, listID string) (*models.List, error) {
	if s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var list models.List
	if err := s.db.WithContext(ctx).Where("id = ?", listID).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// Delete removes a list and its membership rows. Deleting an id that does
// not exist is a no-op, matching the unconditional delete of the original.
func (s *Service) Delete(ctx context.Context, listID string) error {
	if s.db == nil {
		return fmt.Errorf("store configuration missing")
	}

	if err := s.db.WithContext(ctx).Where("list_id = ?", listID).Delete(&models.ListItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete list items: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("id = ?", listID).Delete(&models.List{}).Error; err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	return nil
}

// AddLeads upserts membership rows keyed on (list_id, place_id). Re-adding
// an already-present lead is a no-op, and the returned count reports only
// rows actually inserted.
func (s *Service) AddLeads(ctx context.Context, listID string, placeIDs []string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store configuration missing")
	}
	if len(placeIDs) == 0 {
		return 0, nil
	}

	items := make([]models.ListItem, 0, len(placeIDs))
	for _, placeID := range placeIDs {
		items = append(items, models.ListItem{ListID: listID, PlaceID: placeID})
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "list_id"}, {Name: "place_id"}},
			DoNothing: true,
		}).
		Create(&items)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to add leads to list: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// Leads returns one page of a list's leads, newest membership first. The
// lead lookup is scoped to the list owner since a place id is only unique
// within one user's leads. Rows whose lead has vanished are dropped rather
// than surfaced as nulls.
func (s *Service) Leads(ctx context.Context, userID, listID string, page, pageSize int) (*LeadsResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if s.db == nil {
		return &LeadsResult{Rows: []models.Lead{}, Page: page, PageSize: pageSize}, nil
	}

	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.ListItem{}).
		Where("list_id = ?", listID).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch list leads: %w", err)
	}

	var items []models.ListItem
	err = s.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("created_at DESC, place_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch list leads: %w", err)
	}

	placeIDs := make([]string, 0, len(items))
	for _, item := range items {
		placeIDs = append(placeIDs, item.PlaceID)
	}

	byPlace := make(map[string]models.Lead, len(placeIDs))
	if len(placeIDs) > 0 {
		var leadRows []models.Lead
		err = s.db.WithContext(ctx).
			Select(models.LeadColumns).
			Where("user_id = ? AND place_id IN ?", userID, placeIDs).
			Find(&leadRows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to fetch list leads: %w", err)
		}
		for _, lead := range leadRows {
			lead.NormalizeContacted()
			byPlace[lead.PlaceID] = lead
		}
	}

	// Preserve membership order; dangling joins disappear here.
	rows := make([]models.Lead, 0, len(items))
	for _, item := range items {
		if lead, ok := byPlace[item.PlaceID]; ok {
			rows = append(rows, lead)
		}
	}

	return &LeadsResult{
		Rows:     rows,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Remove deletes a membership row by composite key. Removing an absent row
// is a no-op.
func (s *Service) Remove(ctx context.Context, listID, placeID string) error {
	if s.db == nil {
		return fmt.Errorf("store configuration missing")
	}

	err := s.db.WithContext(ctx).
		Where("list_id = ? AND place_id = ?", listID, placeID).
		Delete(&models.ListItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove lead from list: %w", err)
	}

	return nil
}
