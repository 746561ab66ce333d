package service

import (
	"context"
	"encoding/json"
	"fmt"

	"excentrica/internal/logger"
	"excentrica/internal/models"
	"excentrica/internal/repository"
)

// ActivityIndex is the full-text index over activity entries
type ActivityIndex interface {
	IndexActivity(ctx context.Context, entry *models.ActivityLog) error
	SearchActivity(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error)
}

const (
	ActivitySourceSearch   = "search"
	ActivitySourceDatabase = "database"
)

type ActivityService struct {
	logs  repository.ActivityLogs
	index ActivityIndex
}

// NewActivityService accepts a nil index when search is disabled
func NewActivityService(logs repository.ActivityLogs, index ActivityIndex) *ActivityService {
	return &ActivityService{logs: logs, index: index}
}

// Record persists an activity message and indexes it for search
func (s *ActivityService) Record(ctx context.Context, data []byte) error {
	var msg models.ActivityLoggedEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal activity event: %w", err)
	}

	entry := &models.ActivityLog{
		ActorID:    msg.ActorID,
		Action:     msg.Action,
		EntityType: msg.EntityType,
		EntityID:   msg.EntityID,
		Details:    msg.Details,
		CreatedAt:  msg.Timestamp,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to store activity: %w", err)
	}

	if s.index != nil {
		if err := s.index.IndexActivity(ctx, entry); err != nil {
			// the stored row stays authoritative
			logger.WithContext(ctx).Error("Failed to index activity", "error", err, "activity_id", entry.ID)
		}
	}
	return nil
}

// List searches the index when available and falls back to the database
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, string, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > maxPageSize {
		filter.PageSize = 50
	}

	if s.index != nil {
		items, err := s.index.SearchActivity(ctx, filter)
		if err == nil {
			return items, ActivitySourceSearch, nil
		}
		logger.WithContext(ctx).Warn("Activity search failed, falling back to database", "error", err)
	}

	items, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list activity: %w", err)
	}
	return items, ActivitySourceDatabase, nil
}
