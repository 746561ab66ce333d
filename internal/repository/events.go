package repository

import (
	"context"

	"excentrica/internal/database"
	"excentrica/internal/models"
)

const eventColumns = `id, title, description, location, start_at, status, event_type,
	max_participants, registration_deadline, author_id, created_at, updated_at`

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, location, start_at, status, event_type,
		                    max_participants, registration_deadline, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	return executor(ctx, r.db).QueryRowxContext(ctx, query,
		event.Title,
		event.Description,
		event.Location,
		event.StartAt,
		event.Status,
		event.EventType,
		event.MaxParticipants,
		event.RegistrationDeadline,
		event.AuthorID,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return get[models.Event](ctx, r.db, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *EventRepository) GetForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return get[models.Event](ctx, r.db, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}
