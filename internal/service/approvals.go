package service

import (
	"context"
	"fmt"
	"time"

	apperrors "excentrica/internal/errors"
	"excentrica/internal/messaging"
	"excentrica/internal/models"
	"excentrica/internal/repository"
)

// registrationTransitions lists the moves staff may make. Cancellation belongs to the
// owning user and nothing leaves cancelado.
var registrationTransitions = map[models.RegistrationStatus][]models.RegistrationStatus{
	models.RegistrationPending:   {models.RegistrationConfirmed, models.RegistrationRejected},
	models.RegistrationConfirmed: {models.RegistrationRejected, models.RegistrationPending},
	models.RegistrationRejected:  {models.RegistrationPending, models.RegistrationConfirmed},
	models.RegistrationCancelled: {},
}

// CanTransition reports whether staff may move a registration from one status to another
func CanTransition(from, to models.RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type ApprovalService struct {
	provider      repository.Provider
	registrations repository.Registrations
	publisher     *eventPublisher
	now           func() time.Time
}

func NewApprovalService(repos *repository.Repositories, publisher messaging.Publisher, now func() time.Time) *ApprovalService {
	return &ApprovalService{
		provider:      repos.Provider,
		registrations: repos.Registrations,
		publisher:     &eventPublisher{publisher: publisher, now: now},
		now:           now,
	}
}

// UpdateStatus approves, rejects or re-opens a registration
func (s *ApprovalService) UpdateStatus(ctx context.Context, id int64, req *models.UpdateRegistrationStatusRequest, actorID int64) (*models.Registration, error) {
	target, err := models.ParseRegistrationStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidStatus, err.Error())
	}

	var reg *models.Registration
	var from models.RegistrationStatus

	err = s.provider.Transact(ctx, func(ctx context.Context) error {
		current, err := s.registrations.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get registration: %w", err)
		}
		if current == nil {
			return apperrors.ErrRegistrationNotFound
		}

		from = current.Status
		if !CanTransition(from, target) {
			return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, target)
		}

		current.Status = target
		switch target {
		case models.RegistrationConfirmed:
			approvedAt := s.now()
			current.ApprovedAt = &approvedAt
		case models.RegistrationRejected, models.RegistrationPending:
			current.ApprovedAt = nil
		}
		if req.Notes != nil {
			current.Notes = req.Notes
		}

		if err := s.registrations.UpdateStatus(ctx, current); err != nil {
			return fmt.Errorf("failed to update registration: %w", err)
		}
		reg = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.publish(ctx, models.EventRegistrationStatusChanged, models.RegistrationStatusChangedEvent{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		From:           from,
		To:             reg.Status,
		ActorID:        actorID,
		Timestamp:      s.now(),
	})
	s.publisher.activity(ctx, actorID, models.ActionRegistrationStatus, models.EntityRegistration, reg.ID, map[string]interface{}{
		"from":  from,
		"to":    reg.Status,
		"notes": reg.Notes,
	})

	return reg, nil
}

// Delete purges the registration row. Unlike cancellation no history remains.
func (s *ApprovalService) Delete(ctx context.Context, id int64, actorID int64) error {
	var deleted *models.Registration

	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		reg, err := s.registrations.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get registration: %w", err)
		}
		if reg == nil {
			return apperrors.ErrRegistrationNotFound
		}

		ok, err := s.registrations.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete registration: %w", err)
		}
		if !ok {
			return apperrors.ErrRegistrationNotFound
		}
		deleted = reg
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.activity(ctx, actorID, models.ActionRegistrationDeleted, models.EntityRegistration, id, map[string]interface{}{
		"event_id":          deleted.EventID,
		"user_id":           deleted.UserID,
		"registration_code": deleted.RegistrationCode,
	})
	return nil
}
