// Package contacts provides read-only access to lead contacts. These back
// preview widgets, so every read fails soft: an unreachable store yields an
// empty slice or a zero count, never an error.
package contacts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/intakt/hunter/backend/internal/cache"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// DefaultPreviewLimit matches the contact preview widget.
	DefaultPreviewLimit = 5

	countCacheTTL = time.Minute
)

// Service answers contact reads, with counts cached in redis when available.
type Service struct {
	db    *gorm.DB
	cache *cache.RedisClient
}

// NewService creates a contacts service. Both db and cache may be nil.
func NewService(db *gorm.DB, redis *cache.RedisClient) *Service {
	return &Service{db: db, cache: redis}
}

// ListForPlace returns up to limit contacts for a lead, newest first.
func (s *Service) ListForPlace(ctx context.Context, placeID string, limit int) []models.LeadContact {
	if placeID == "" {
		logger.Log.Warn("ListForPlace called without placeID")
		return []models.LeadContact{}
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if s.db == nil {
		return []models.LeadContact{}
	}

	var rows []models.LeadContact
	err := s.db.WithContext(ctx).
		Where("place_id = ?", placeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		logger.Log.Error("failed to fetch contacts",
			logger.WithPlaceID(placeID),
			zap.Error(err),
		)
		return []models.LeadContact{}
	}

	return rows
}

// Count returns the exact number of contacts for a lead, or 0 on any
// failure. Counts are cached briefly; the cache is advisory.
func (s *Service) Count(ctx context.Context, placeID string) int64 {
	if placeID == "" {
		logger.Log.Warn("Count called without placeID")
		return 0
	}
	if s.db == nil {
		return 0
	}

	key := countCacheKey(placeID)
	if n, err := s.cache.GetInt(ctx, key); err == nil {
		return n
	} else if !cache.IsMiss(err) {
		logger.Log.Warn("contact count cache read failed", zap.Error(err))
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.LeadContact{}).
		Where("place_id = ?", placeID).
		Count(&count).Error
	if err != nil {
		logger.Log.Error("failed to count contacts",
			logger.WithPlaceID(placeID),
			zap.Error(err),
		)
		return 0
	}

	if err := s.cache.SetEx(ctx, key, strconv.FormatInt(count, 10), countCacheTTL); err != nil {
		logger.Log.Warn("contact count cache write failed", zap.Error(err))
	}

	return count
}

// InvalidateCount drops the cached count after the pipeline ingests new
// contacts for a lead.
func (s *Service) InvalidateCount(ctx context.Context, placeID string) {
	if err := s.cache.Del(ctx, countCacheKey(placeID)); err != nil {
		logger.Log.Warn("contact count cache invalidation failed", zap.Error(err))
	}
}

func countCacheKey(placeID string) string {
	return fmt.Sprintf("hunter:contacts:count:%s", placeID)
}
