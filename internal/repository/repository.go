package repository

import (
	"context"
	"time"

	"excentrica/internal/database"
	"excentrica/internal/models"
)

// Provider runs fn inside a transaction. Repositories called with the ctx passed to fn
// take part in that transaction; a non-nil error from fn rolls everything back.
type Provider interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
}

type Events interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	// GetForUpdate locks the event row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id int64) (*models.Event, error)
}

type Registrations interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Registration, error)
	// GetLatest returns the most recent registration of the user, cancelled or not
	GetLatest(ctx context.Context, eventID, userID int64) (*models.Registration, error)
	GetActive(ctx context.Context, eventID, userID int64) (*models.Registration, error)
	GetDetailByCode(ctx context.Context, code string) (*models.RegistrationDetail, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CountActive(ctx context.Context, eventID int64) (int, error)
	CountByStatus(ctx context.Context, eventID int64) (map[models.RegistrationStatus]int, error)
	ListByUser(ctx context.Context, userID int64) ([]models.RegistrationDetail, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error)
	// UpdateStatus persists status, notes and approved_at
	UpdateStatus(ctx context.Context, reg *models.Registration) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type Sorteos interface {
	Create(ctx context.Context, sorteo *models.Sorteo) error
	GetByID(ctx context.Context, id int64) (*models.Sorteo, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Sorteo, error)
	// CompareAndSetStatus moves the sorteo to `to` only while it is still in `from`
	CompareAndSetStatus(ctx context.Context, id int64, from, to models.SorteoStatus) (bool, error)
}

type Participants interface {
	Create(ctx context.Context, p *models.SorteoParticipant) error
	GetByID(ctx context.Context, id int64) (*models.SorteoParticipant, error)
	GetForUpdate(ctx context.Context, id int64) (*models.SorteoParticipant, error)
	ExistsForUser(ctx context.Context, sorteoID, userID int64) (bool, error)
	// CountActive counts participants that are not disqualified
	CountActive(ctx context.Context, sorteoID int64) (int, error)
	ListEligible(ctx context.Context, sorteoID int64) ([]models.SorteoParticipant, error)
	List(ctx context.Context, sorteoID int64, filter models.ParticipantFilter) ([]models.SorteoParticipant, error)
	// MarkWinners flags the given eligible participants and returns how many rows changed
	MarkWinners(ctx context.Context, sorteoID int64, ids []int64) (int64, error)
	// MarkClaimed succeeds only for an unclaimed winner
	MarkClaimed(ctx context.Context, id int64, at time.Time) (bool, error)
	// Disqualify succeeds only for a participant that is not a winner
	Disqualify(ctx context.Context, id int64, notes *string) (bool, error)
}

type ActivityLogs interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error)
}

type Repositories struct {
	Provider      Provider
	Events        Events
	Registrations Registrations
	Sorteos       Sorteos
	Participants  Participants
	ActivityLogs  ActivityLogs
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Provider:      NewTxProvider(db),
		Events:        NewEventRepository(db),
		Registrations: NewRegistrationRepository(db),
		Sorteos:       NewSorteoRepository(db),
		Participants:  NewParticipantRepository(db),
		ActivityLogs:  NewActivityLogRepository(db),
	}
}
