package repository

import (
	"context"
	"fmt"
	"strings"

	"excentrica/internal/database"
	"excentrica/internal/models"
)

type ActivityLogRepository struct {
	db *database.DB
}

func NewActivityLogRepository(db *database.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	var details *string
	if len(entry.Details) > 0 {
		s := string(entry.Details)
		details = &s
	}

	query := `
		INSERT INTO activity_logs (actor_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		RETURNING id`

	return executor(ctx, r.db).QueryRowxContext(ctx, query,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		details,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *ActivityLogRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	var conditions []string
	var args []interface{}

	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		conditions = append(conditions, fmt.Sprintf("(action ILIKE $%d OR details::text ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	query := fmt.Sprintf(`
		SELECT id, actor_id, action, entity_type, entity_id, COALESCE(details, 'null'::jsonb) AS details, created_at
		FROM activity_logs
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	items := []models.ActivityLog{}
	err := executor(ctx, r.db).SelectContext(ctx, &items, query, args...)
	return items, err
}
