package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Event represents a published activity users can register to
type Event struct {
	ID                   int64       `json:"id" db:"id"`
	Title                string      `json:"title" db:"title"`
	Description          *string     `json:"description" db:"description"`
	Location             *string     `json:"location" db:"location"`
	StartAt              time.Time   `json:"start_at" db:"start_at"`
	Status               EventStatus `json:"status" db:"status"`
	EventType            EventType   `json:"event_type" db:"event_type"`
	MaxParticipants      *int        `json:"max_participants" db:"max_participants"`
	RegistrationDeadline *time.Time  `json:"registration_deadline" db:"registration_deadline"`
	AuthorID             int64       `json:"author_id" db:"author_id"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" db:"updated_at"`
}

// Registration represents one user's sign-up to an event
type Registration struct {
	ID               int64              `json:"id" db:"id"`
	EventID          int64              `json:"event_id" db:"event_id"`
	UserID           int64              `json:"user_id" db:"user_id"`
	Status           RegistrationStatus `json:"status" db:"status"`
	RegistrationCode string             `json:"registration_code" db:"registration_code"`
	Notes            *string            `json:"notes" db:"notes"`
	RegisteredAt     time.Time          `json:"registered_at" db:"registered_at"`
	ApprovedAt       *time.Time         `json:"approved_at" db:"approved_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// RegistrationDetail is a registration joined with the fields of its event
type RegistrationDetail struct {
	Registration
	EventTitle    string    `json:"event_title" db:"event_title"`
	EventStartAt  time.Time `json:"event_start_at" db:"event_start_at"`
	EventLocation *string   `json:"event_location" db:"event_location"`
}

// Sorteo is a raffle-type special event
type Sorteo struct {
	ID                   int64               `json:"id" db:"id"`
	Title                string              `json:"title" db:"title"`
	Description          *string             `json:"description" db:"description"`
	EventType            EventType           `json:"event_type" db:"event_type"`
	PrizeDescription     *string             `json:"prize_description" db:"prize_description"`
	PrizeValue           decimal.NullDecimal `json:"prize_value" db:"prize_value"`
	WinnersCount         int                 `json:"winners_count" db:"winners_count"`
	MaxParticipants      *int                `json:"max_participants" db:"max_participants"`
	DrawDate             *time.Time          `json:"draw_date" db:"draw_date"`
	DrawTime             *string             `json:"draw_time" db:"draw_time"`
	RegistrationDeadline *time.Time          `json:"registration_deadline" db:"registration_deadline"`
	Status               SorteoStatus        `json:"status" db:"status"`
	CreatedBy            int64               `json:"created_by" db:"created_by"`
	CreatedAt            time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at" db:"updated_at"`
}

// SorteoParticipant is an entry in a sorteo's drawing pool
type SorteoParticipant struct {
	ID                    int64             `json:"id" db:"id"`
	SorteoID              int64             `json:"sorteo_id" db:"sorteo_id"`
	UserID                *int64            `json:"user_id" db:"user_id"`
	Name                  string            `json:"name" db:"name"`
	Email                 string            `json:"email" db:"email"`
	Phone                 *string           `json:"phone" db:"phone"`
	IsWinner              bool              `json:"is_winner" db:"is_winner"`
	PrizeClaimed          bool              `json:"prize_claimed" db:"prize_claimed"`
	Status                ParticipantStatus `json:"status" db:"status"`
	DisqualificationNotes *string           `json:"disqualification_notes" db:"disqualification_notes"`
	RegisteredAt          time.Time         `json:"registered_at" db:"registered_at"`
	ClaimedAt             *time.Time        `json:"claimed_at" db:"claimed_at"`
}

// Eligible reports whether the participant belongs to the drawing pool
func (p *SorteoParticipant) Eligible() bool {
	return p.Status == ParticipantActive && !p.IsWinner
}

// ActivityLog is an audit entry written by the activity consumer
type ActivityLog struct {
	ID         int64           `json:"id" db:"id"`
	ActorID    int64           `json:"actor_id" db:"actor_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   int64           `json:"entity_id" db:"entity_id"`
	Details    json.RawMessage `json:"details" db:"details"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
