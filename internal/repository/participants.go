package repository

import (
	"context"
	"fmt"
	"time"

	"excentrica/internal/database"
	"excentrica/internal/models"

	"github.com/lib/pq"
)

const participantColumns = `id, sorteo_id, user_id, name, email, phone, is_winner, prize_claimed, status,
	disqualification_notes, registered_at, claimed_at`

const participantUserIndex = "sorteo_participants_user_uidx"

type ParticipantRepository struct {
	db *database.DB
}

func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(ctx context.Context, p *models.SorteoParticipant) error {
	query := `
		INSERT INTO sorteo_participants (sorteo_id, user_id, name, email, phone, status, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := executor(ctx, r.db).QueryRowxContext(ctx, query,
		p.SorteoID,
		p.UserID,
		p.Name,
		p.Email,
		p.Phone,
		p.Status,
		p.RegisteredAt,
	).Scan(&p.ID)

	return mapUniqueViolation(err, participantUserIndex)
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id int64) (*models.SorteoParticipant, error) {
	return get[models.SorteoParticipant](ctx, r.db,
		`SELECT `+participantColumns+` FROM sorteo_participants WHERE id = $1`, id)
}

func (r *ParticipantRepository) GetForUpdate(ctx context.Context, id int64) (*models.SorteoParticipant, error) {
	return get[models.SorteoParticipant](ctx, r.db,
		`SELECT `+participantColumns+` FROM sorteo_participants WHERE id = $1 FOR UPDATE`, id)
}

func (r *ParticipantRepository) ExistsForUser(ctx context.Context, sorteoID, userID int64) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM sorteo_participants WHERE sorteo_id = $1 AND user_id = $2)`,
		sorteoID, userID)
	return exists, err
}

func (r *ParticipantRepository) CountActive(ctx context.Context, sorteoID int64) (int, error) {
	var count int
	err := executor(ctx, r.db).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sorteo_participants WHERE sorteo_id = $1 AND status = 'activo'`, sorteoID)
	return count, err
}

func (r *ParticipantRepository) ListEligible(ctx context.Context, sorteoID int64) ([]models.SorteoParticipant, error) {
	items := []models.SorteoParticipant{}
	err := executor(ctx, r.db).SelectContext(ctx, &items, `
		SELECT `+participantColumns+`
		FROM sorteo_participants
		WHERE sorteo_id = $1 AND status = 'activo' AND is_winner = FALSE
		ORDER BY id
		FOR UPDATE`, sorteoID)
	return items, err
}

func (r *ParticipantRepository) List(ctx context.Context, sorteoID int64, filter models.ParticipantFilter) ([]models.SorteoParticipant, error) {
	args := []interface{}{sorteoID}
	query := `SELECT ` + participantColumns + ` FROM sorteo_participants WHERE sorteo_id = $1`

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.WinnersOnly {
		query += " AND is_winner = TRUE"
	}
	query += " ORDER BY registered_at, id"

	items := []models.SorteoParticipant{}
	err := executor(ctx, r.db).SelectContext(ctx, &items, query, args...)
	return items, err
}

func (r *ParticipantRepository) MarkWinners(ctx context.Context, sorteoID int64, ids []int64) (int64, error) {
	res, err := executor(ctx, r.db).ExecContext(ctx, `
		UPDATE sorteo_participants
		SET is_winner = TRUE
		WHERE sorteo_id = $1 AND id = ANY($2) AND status = 'activo' AND is_winner = FALSE`,
		sorteoID, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ParticipantRepository) MarkClaimed(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := executor(ctx, r.db).ExecContext(ctx, `
		UPDATE sorteo_participants
		SET prize_claimed = TRUE, claimed_at = $1
		WHERE id = $2 AND is_winner = TRUE AND prize_claimed = FALSE`, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *ParticipantRepository) Disqualify(ctx context.Context, id int64, notes *string) (bool, error) {
	res, err := executor(ctx, r.db).ExecContext(ctx, `
		UPDATE sorteo_participants
		SET status = 'descalificado', disqualification_notes = $1
		WHERE id = $2 AND is_winner = FALSE`, notes, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
