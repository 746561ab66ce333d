package repository

import (
	"context"
	"fmt"
	"strings"

	"excentrica/internal/database"
	"excentrica/internal/models"
)

const registrationColumns = `r.id, r.event_id, r.user_id, r.status, r.registration_code, r.notes,
	r.registered_at, r.approved_at, r.updated_at`

const registrationDetailColumns = registrationColumns + `,
	e.title AS event_title, e.start_at AS event_start_at, e.location AS event_location`

const activeRegistrationIndex = "event_registrations_active_uidx"

type RegistrationRepository struct {
	db *database.DB
}

func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO event_registrations (event_id, user_id, status, registration_code, notes, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, updated_at`

	err := executor(ctx, r.db).QueryRowxContext(ctx, query,
		reg.EventID,
		reg.UserID,
		reg.Status,
		reg.RegistrationCode,
		reg.Notes,
		reg.RegisteredAt,
	).Scan(&reg.ID, &reg.UpdatedAt)

	return mapUniqueViolation(err, activeRegistrationIndex)
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	return get[models.Registration](ctx, r.db,
		`SELECT `+registrationColumns+` FROM event_registrations r WHERE r.id = $1`, id)
}

func (r *RegistrationRepository) GetForUpdate(ctx context.Context, id int64) (*models.Registration, error) {
	return get[models.Registration](ctx, r.db,
		`SELECT `+registrationColumns+` FROM event_registrations r WHERE r.id = $1 FOR UPDATE`, id)
}

func (r *RegistrationRepository) GetLatest(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	return get[models.Registration](ctx, r.db, `
		SELECT `+registrationColumns+`
		FROM event_registrations r
		WHERE r.event_id = $1 AND r.user_id = $2
		ORDER BY (r.status <> 'cancelado') DESC, r.registered_at DESC, r.id DESC
		LIMIT 1
		FOR UPDATE`, eventID, userID)
}

func (r *RegistrationRepository) GetActive(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	return get[models.Registration](ctx, r.db, `
		SELECT `+registrationColumns+`
		FROM event_registrations r
		WHERE r.event_id = $1 AND r.user_id = $2 AND r.status <> 'cancelado'`, eventID, userID)
}

func (r *RegistrationRepository) GetDetailByCode(ctx context.Context, code string) (*models.RegistrationDetail, error) {
	return get[models.RegistrationDetail](ctx, r.db, `
		SELECT `+registrationDetailColumns+`
		FROM event_registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.registration_code = $1`, code)
}

func (r *RegistrationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM event_registrations WHERE registration_code = $1)`, code)
	return exists, err
}

func (r *RegistrationRepository) CountActive(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := executor(ctx, r.db).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status <> 'cancelado'`, eventID)
	return count, err
}

func (r *RegistrationRepository) CountByStatus(ctx context.Context, eventID int64) (map[models.RegistrationStatus]int, error) {
	var rows []struct {
		Status models.RegistrationStatus `db:"status"`
		Count  int                       `db:"count"`
	}
	err := executor(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS count
		FROM event_registrations
		WHERE event_id = $1
		GROUP BY status`, eventID)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.RegistrationStatus]int, len(models.RegistrationStatuses))
	for _, s := range models.RegistrationStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *RegistrationRepository) ListByUser(ctx context.Context, userID int64) ([]models.RegistrationDetail, error) {
	items := []models.RegistrationDetail{}
	err := executor(ctx, r.db).SelectContext(ctx, &items, `
		SELECT `+registrationDetailColumns+`
		FROM event_registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY r.registered_at DESC, r.id DESC`, userID)
	return items, err
}

func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		conditions = append(conditions, fmt.Sprintf("r.event_id = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM event_registrations r ` + where
	if err := executor(ctx, r.db).GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT %s
		FROM event_registrations r
		JOIN events e ON e.id = r.event_id
		%s
		ORDER BY r.registered_at DESC, r.id DESC
		LIMIT $%d OFFSET $%d`, registrationDetailColumns, where, len(args)-1, len(args))

	items := []models.RegistrationDetail{}
	if err := executor(ctx, r.db).SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *RegistrationRepository) UpdateStatus(ctx context.Context, reg *models.Registration) error {
	query := `
		UPDATE event_registrations
		SET status = $1, notes = $2, approved_at = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	return executor(ctx, r.db).QueryRowxContext(ctx, query,
		reg.Status,
		reg.Notes,
		reg.ApprovedAt,
		reg.ID,
	).Scan(&reg.UpdatedAt)
}

func (r *RegistrationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM event_registrations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
