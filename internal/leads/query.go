// Package leads implements the lead browsing query: free-text search,
// tri-state filters, deterministic ordering, and clamped pagination.
package leads

import (
	"context"
	"fmt"
	"strings"

	"github.com/intakt/hunter/backend/internal/models"
	"gorm.io/gorm"
)

// Sort keys accepted by List.
const (
	SortRecent      = "recent"
	SortRatingDesc  = "rating_desc"
	SortRatingAsc   = "rating_asc"
	SortReviewsDesc = "reviews_desc"
)

// Tri-state filter values.
const (
	FilterAny  = "any"
	FilterHas  = "has"
	FilterNone = "none"

	ContactedAny = "any"
	ContactedNo  = "no"
	ContactedYes = "yes"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams is the filter state for a lead listing.
type ListParams struct {
	Q        string `form:"q" json:"q,omitempty"`
	Page     int    `form:"page" json:"page"`
	PageSize int    `form:"pageSize" json:"pageSize"`
	Sort     string `form:"sort" json:"sort"`

	Website   string `form:"website" json:"website"`
	Socials   string `form:"socials" json:"socials"`
	Contacted string `form:"contacted" json:"contacted"`
}

// normalized returns a copy with defaults applied.
func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.Sort == "" {
		p.Sort = SortRecent
	}
	if p.Website == "" {
		p.Website = FilterAny
	}
	if p.Socials == "" {
		p.Socials = FilterAny
	}
	if p.Contacted == "" {
		p.Contacted = ContactedAny
	}
	return p
}

// Validate rejects unknown enum values before they reach the store.
func (p ListParams) Validate() error {
	p = p.normalized()
	switch p.Sort {
	case SortRecent, SortRatingDesc, SortRatingAsc, SortReviewsDesc:
	default:
		return fmt.Errorf("unknown sort %q", p.Sort)
	}
	switch p.Website {
	case FilterAny, FilterHas, FilterNone:
	default:
		return fmt.Errorf("unknown website filter %q", p.Website)
	}
	switch p.Socials {
	case FilterAny, FilterHas, FilterNone:
	default:
		return fmt.Errorf("unknown socials filter %q", p.Socials)
	}
	switch p.Contacted {
	case ContactedAny, ContactedNo, ContactedYes:
	default:
		return fmt.Errorf("unknown contacted filter %q", p.Contacted)
	}
	return nil
}

// Result is one page of leads plus pagination bookkeeping.
type Result struct {
	Rows      []models.Lead `json:"rows"`
	Page      int           `json:"page"`
	PageSize  int           `json:"pageSize"`
	Total     int64         `json:"total"`
	PageCount int           `json:"pageCount"`
}

// ErrContactedColumnMissing signals that the contacted column has not been
// provisioned yet, so the caller can show a migration hint instead of a
// generic failure.
type ErrContactedColumnMissing struct {
	cause error
}

func (e *ErrContactedColumnMissing) Error() string {
	return "contacted functionality requires a database migration; run the leads.contacted migration"
}

func (e *ErrContactedColumnMissing) Unwrap() error { return e.cause }

// Service answers lead queries for a single backing store. A nil db puts the
// service in degraded mode: reads return empty results, writes fail.
type Service struct {
	db *gorm.DB
}

// NewService creates a lead query service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Degraded reports whether the service has no backing store.
func (s *Service) Degraded() bool {
	return s.db == nil
}

// List returns one page of a user's leads under the given filters.
//
// The visible set is a deterministic function of the params against the row
// set: each sort mode carries place_id as a stable secondary key, and the
// requested page is clamped to [1, pageCount] after counting, so asking for
// a page past the end returns the last page rather than an error.
func (s *Service) List(ctx context.Context, userID string, params ListParams) (*Result, error) {
	p := params.normalized()

	// Bad params are rejected even without a store; only valid queries fail
	// soft.
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if s.db == nil {
		return &Result{
			Rows:      []models.Lead{},
			Page:      p.Page,
			PageSize:  p.PageSize,
			Total:     0,
			PageCount: 1,
		}, nil
	}

	query := s.filtered(ctx, userID, p)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	pageCount := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	if pageCount < 1 {
		pageCount = 1
	}
	if p.Page > pageCount {
		p.Page = pageCount
	}

	var rows []models.Lead
	err := query.
		Select(models.LeadColumns).
		Order(orderClause(p.Sort)).
		Offset((p.Page - 1) * p.PageSize).
		Limit(p.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	// Absent contacted reads as false.
	for i := range rows {
		rows[i].NormalizeContacted()
	}

	return &Result{
		Rows:      rows,
		Page:      p.Page,
		PageSize:  p.PageSize,
		Total:     total,
		PageCount: pageCount,
	}, nil
}

// Get returns a single lead by place id within the user's scope.
func (s *Service) Get(ctx context.Context, userID, placeID string) (*models.Lead, error) {
	if s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var lead models.Lead
	err := s.db.WithContext(ctx).
		Select(models.LeadColumns).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	lead.NormalizeContacted()
	return &lead, nil
}

// SetContacted toggles the contacted flag on one of the user's leads. Unlike
// reads this is a mutation and must fail loudly when the store is
// unconfigured.
func (s *Service) SetContacted(ctx context.Context, userID, placeID string, contacted bool) error {
	if s.db == nil {
		return fmt.Errorf("store configuration missing")
	}

	err := s.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		Update("contacted", contacted).Error
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "contacted") && strings.Contains(msg, "does not exist") {
			return &ErrContactedColumnMissing{cause: err}
		}
		return fmt.Errorf("failed to update lead contacted status: %w", err)
	}

	return nil
}

// filtered builds the WHERE side of a listing query.
func (s *Service) filtered(ctx context.Context, userID string, p ListParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Lead{}).Where("user_id = ?", userID)

	if q := strings.TrimSpace(p.Q); q != "" {
		// Substring match, OR across the four text fields. LOWER/LIKE keeps
		// it portable across Postgres and the SQLite test databases.
		needle := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(category) LIKE ? OR LOWER(city) LIKE ? OR LOWER(address) LIKE ?",
			needle, needle, needle, needle,
		)
	}

	switch p.Website {
	case FilterNone:
		query = query.Where("website IS NULL")
	case FilterHas:
		query = query.Where("website IS NOT NULL")
	}

	switch p.Socials {
	case FilterNone:
		for _, col := range models.SocialColumns {
			query = query.Where(col + " IS NULL")
		}
	case FilterHas:
		conds := make([]string, len(models.SocialColumns))
		for i, col := range models.SocialColumns {
			conds[i] = col + " IS NOT NULL"
		}
		query = query.Where(strings.Join(conds, " OR "))
	}

	switch p.Contacted {
	case ContactedNo:
		query = query.Where("(contacted IS NULL OR contacted = ?)", false)
	case ContactedYes:
		query = query.Where("contacted = ?", true)
	}

	return query
}

// orderClause maps a sort key to SQL. Null placement mirrors the original
// contract: recent pushes null timestamps last, the rating/review sorts pull
// nulls first. place_id breaks ties so pagination is deterministic.
func orderClause(sort string) string {
	switch sort {
	case SortRatingDesc:
		return "rating DESC NULLS FIRST, place_id ASC"
	case SortRatingAsc:
		return "rating ASC NULLS FIRST, place_id ASC"
	case SortReviewsDesc:
		return "review_count DESC NULLS FIRST, place_id ASC"
	default: // SortRecent
		return "created_at DESC NULLS LAST, place_id ASC"
	}
}
