package models

import (
	"encoding/json"
	"time"
)

// NATS Event Types
const (
	EventActivityLogged            = "activity.logged"
	EventRegistrationCreated       = "registration.created"
	EventRegistrationCancelled     = "registration.cancelled"
	EventRegistrationStatusChanged = "registration.status_changed"
	EventSorteoDrawn               = "sorteo.drawn"
	EventSorteoParticipantJoined   = "sorteo.participant_joined"
	EventSorteoStatusChanged       = "sorteo.status_changed"
)

// Activity actions
const (
	ActionRegistrationCreated   = "registration.created"
	ActionRegistrationCancelled = "registration.cancelled"
	ActionRegistrationStatus    = "registration.status_changed"
	ActionRegistrationDeleted   = "registration.deleted"
	ActionDrawExecuted          = "sorteo.draw_executed"
	ActionPrizeClaimed          = "sorteo.prize_claimed"
	ActionParticipantDisqualify = "sorteo.participant_disqualified"
	ActionParticipantJoined     = "sorteo.participant_joined"
	ActionSorteoStatus          = "sorteo.status_changed"
)

// Entity types for activity entries
const (
	EntityRegistration = "event_registration"
	EntitySorteo       = "sorteo"
	EntityParticipant  = "sorteo_participant"
)

// ActivityLoggedEvent is the fire-and-forget audit message
type ActivityLoggedEvent struct {
	ActorID    int64           `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// RegistrationCreatedEvent represents a new sign-up
type RegistrationCreatedEvent struct {
	RegistrationID   int64     `json:"registration_id"`
	EventID          int64     `json:"event_id"`
	UserID           int64     `json:"user_id"`
	RegistrationCode string    `json:"registration_code"`
	Timestamp        time.Time `json:"timestamp"`
}

// RegistrationCancelledEvent represents a user cancellation
type RegistrationCancelledEvent struct {
	RegistrationID int64     `json:"registration_id"`
	EventID        int64     `json:"event_id"`
	UserID         int64     `json:"user_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// RegistrationStatusChangedEvent represents a staff transition
type RegistrationStatusChangedEvent struct {
	RegistrationID int64              `json:"registration_id"`
	EventID        int64              `json:"event_id"`
	From           RegistrationStatus `json:"from"`
	To             RegistrationStatus `json:"to"`
	ActorID        int64              `json:"actor_id"`
	Timestamp      time.Time          `json:"timestamp"`
}

// SorteoDrawnEvent represents an executed draw
type SorteoDrawnEvent struct {
	SorteoID  int64     `json:"sorteo_id"`
	WinnerIDs []int64   `json:"winner_ids"`
	PoolSize  int       `json:"pool_size"`
	ActorID   int64     `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SorteoParticipantJoinedEvent represents a new raffle entry
type SorteoParticipantJoinedEvent struct {
	SorteoID      int64     `json:"sorteo_id"`
	ParticipantID int64     `json:"participant_id"`
	UserID        *int64    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// SorteoStatusChangedEvent represents a staff lifecycle change
type SorteoStatusChangedEvent struct {
	SorteoID  int64        `json:"sorteo_id"`
	From      SorteoStatus `json:"from"`
	To        SorteoStatus `json:"to"`
	ActorID   int64        `json:"actor_id"`
	Timestamp time.Time    `json:"timestamp"`
}
