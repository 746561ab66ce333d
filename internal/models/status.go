package models

import "fmt"

// EventStatus - editorial state of an event
type EventStatus string

const (
	EventDraft    EventStatus = "draft"
	EventPending  EventStatus = "pending"
	EventApproved EventStatus = "approved"
	EventRejected EventStatus = "rejected"
)

// EventType distinguishes normal events from special ones
type EventType string

const (
	EventTypeNormal     EventType = "normal"
	EventTypeSorteo     EventType = "sorteo"
	EventTypeRecurrente EventType = "recurrente"
)

// RegistrationStatus - состояние регистрации на событие
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmado"
	RegistrationRejected  RegistrationStatus = "rechazado"
	RegistrationCancelled RegistrationStatus = "cancelado"
)

// RegistrationStatuses lists every registration status
var RegistrationStatuses = []RegistrationStatus{
	RegistrationPending,
	RegistrationConfirmed,
	RegistrationRejected,
	RegistrationCancelled,
}

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationRejected, RegistrationCancelled:
		return true
	}
	return false
}

// Active reports whether the registration occupies a slot
func (s RegistrationStatus) Active() bool {
	return s != RegistrationCancelled
}

// ParseRegistrationStatus validates a caller supplied status
func ParseRegistrationStatus(v string) (RegistrationStatus, error) {
	s := RegistrationStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown registration status %q", v)
	}
	return s, nil
}

// ParticipantStatus - состояние участника розыгрыша
type ParticipantStatus string

const (
	ParticipantActive       ParticipantStatus = "activo"
	ParticipantDisqualified ParticipantStatus = "descalificado"
)

func (s ParticipantStatus) Valid() bool {
	return s == ParticipantActive || s == ParticipantDisqualified
}

// SorteoStatus - жизненный цикл розыгрыша
type SorteoStatus string

const (
	SorteoActive    SorteoStatus = "activo"
	SorteoPaused    SorteoStatus = "pausado"
	SorteoFinished  SorteoStatus = "finalizado"
	SorteoCancelled SorteoStatus = "cancelado"
)

func (s SorteoStatus) Valid() bool {
	switch s {
	case SorteoActive, SorteoPaused, SorteoFinished, SorteoCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle change is possible
func (s SorteoStatus) Terminal() bool {
	return s == SorteoFinished || s == SorteoCancelled
}

// ParseSorteoStatus validates a caller supplied status
func ParseSorteoStatus(v string) (SorteoStatus, error) {
	s := SorteoStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown sorteo status %q", v)
	}
	return s, nil
}
