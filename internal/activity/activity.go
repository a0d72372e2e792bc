// Package activity tracks recent event frequency per entity.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/chittyos/trustengine/internal/domain"
)

// Service counts recent trust events for entities. Counts feed the
// watch engine's activity_count variable and the activity endpoint.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewService creates a new activity service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// GetEventCount returns the number of events for an entity within a time window.
// This is the ActivityGetter function signature expected by the watch engine.
func (s *Service) GetEventCount(ctx context.Context, tenantID, entityID string, windowSecs int) (int64, error) {
	if tenantID == "" || entityID == "" {
		return 0, fmt.Errorf("tenantID and entityID are required")
	}
	if s.repo == nil {
		return 0, fmt.Errorf("no data source available")
	}

	since := time.Now().Add(-time.Duration(windowSecs) * time.Second)
	return s.repo.CountEventsByEntity(ctx, tenantID, entityID, since)
}

// Touch bumps the rolling in-cache event counter for an entity and
// returns the new count. The counter approximates recent activity
// without a database round trip; the authoritative count comes from
// GetEventCount.
func (s *Service) Touch(ctx context.Context, tenantID, entityID string, window time.Duration) (int64, error) {
	if tenantID == "" || entityID == "" {
		return 0, fmt.Errorf("tenantID and entityID are required")
	}
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.IncrementCounter(ctx, tenantID, "activity:"+entityID, window)
}

// GetActivityGetter returns an ActivityGetter function for the watch engine.
func (s *Service) GetActivityGetter() func(ctx context.Context, tenantID, entityID string, windowSecs int) (int64, error) {
	return s.GetEventCount
}
