package repository

import (
	"context"

	"excentrica/internal/database"
	"excentrica/internal/models"
)

const sorteoColumns = `id, title, description, event_type, prize_description, prize_value, winners_count,
	max_participants, draw_date, draw_time, registration_deadline, status, created_by, created_at, updated_at`

type SorteoRepository struct {
	db *database.DB
}

func NewSorteoRepository(db *database.DB) *SorteoRepository {
	return &SorteoRepository{db: db}
}

func (r *SorteoRepository) Create(ctx context.Context, s *models.Sorteo) error {
	query := `
		INSERT INTO special_events (title, description, event_type, prize_description, prize_value,
		                            winners_count, max_participants, draw_date, draw_time,
		                            registration_deadline, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return executor(ctx, r.db).QueryRowxContext(ctx, query,
		s.Title,
		s.Description,
		s.EventType,
		s.PrizeDescription,
		s.PrizeValue,
		s.WinnersCount,
		s.MaxParticipants,
		s.DrawDate,
		s.DrawTime,
		s.RegistrationDeadline,
		s.Status,
		s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SorteoRepository) GetByID(ctx context.Context, id int64) (*models.Sorteo, error) {
	return get[models.Sorteo](ctx, r.db, `SELECT `+sorteoColumns+` FROM special_events WHERE id = $1`, id)
}

func (r *SorteoRepository) GetForUpdate(ctx context.Context, id int64) (*models.Sorteo, error) {
	return get[models.Sorteo](ctx, r.db, `SELECT `+sorteoColumns+` FROM special_events WHERE id = $1 FOR UPDATE`, id)
}

func (r *SorteoRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to models.SorteoStatus) (bool, error) {
	res, err := executor(ctx, r.db).ExecContext(ctx, `
		UPDATE special_events
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
