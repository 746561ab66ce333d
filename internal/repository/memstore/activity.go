package memstore

import (
	"context"
	"strings"

	"excentrica/internal/models"
)

type activityRepo struct{ s *Store }

func (r *activityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	defer r.s.lock(ctx)()

	entry.ID = r.s.nextID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.s.now()
	}
	r.s.activity = append(r.s.activity, *entry)
	return nil
}

func (r *activityRepo) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	defer r.s.lock(ctx)()

	query := strings.ToLower(filter.Query)
	items := []models.ActivityLog{}
	for i := len(r.s.activity) - 1; i >= 0; i-- {
		v := r.s.activity[i]
		if filter.EntityType != "" && v.EntityType != filter.EntityType {
			continue
		}
		if filter.ActorID != nil && v.ActorID != *filter.ActorID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(v.Action), query) &&
			!strings.Contains(strings.ToLower(string(v.Details)), query) {
			continue
		}
		items = append(items, v)
	}
	return paginate(items, filter.Page, filter.PageSize), nil
}
