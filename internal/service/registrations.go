package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "excentrica/internal/errors"
	"excentrica/internal/messaging"
	"excentrica/internal/metrics"
	"excentrica/internal/models"
	"excentrica/internal/repository"
)

const maxPageSize = 100

type RegistrationService struct {
	provider      repository.Provider
	events        repository.Events
	registrations repository.Registrations
	publisher     *eventPublisher
	now           func() time.Time
}

func NewRegistrationService(repos *repository.Repositories, publisher messaging.Publisher, now func() time.Time) *RegistrationService {
	return &RegistrationService{
		provider:      repos.Provider,
		events:        repos.Events,
		registrations: repos.Registrations,
		publisher:     &eventPublisher{publisher: publisher, now: now},
		now:           now,
	}
}

// Register signs the user up for an approved event. The event row stays locked
// while the deadline, duplicate and capacity checks run and the row is inserted.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	var reg *models.Registration

	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		event, err := s.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil || event.Status != models.EventApproved {
			return apperrors.ErrEventNotFound
		}

		now := s.now()
		if event.RegistrationDeadline != nil && now.After(*event.RegistrationDeadline) {
			return apperrors.ErrDeadlinePassed
		}

		existing, err := s.registrations.GetActive(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("failed to get registration: %w", err)
		}
		if existing != nil {
			return apperrors.ErrAlreadyRegistered
		}

		if event.MaxParticipants != nil {
			count, err := s.registrations.CountActive(ctx, eventID)
			if err != nil {
				return fmt.Errorf("failed to count registrations: %w", err)
			}
			if count >= *event.MaxParticipants {
				return apperrors.ErrCapacityExceeded
			}
		}

		code, err := s.uniqueCode(ctx, eventID, now)
		if err != nil {
			return err
		}

		reg = &models.Registration{
			EventID:          eventID,
			UserID:           userID,
			Status:           models.RegistrationPending,
			RegistrationCode: code,
			RegisteredAt:     now,
		}
		if err := s.registrations.Create(ctx, reg); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyRegistered) {
				return err
			}
			return fmt.Errorf("failed to create registration: %w", err)
		}
		return nil
	})

	metrics.RecordRegistration(registrationResult(err))
	if err != nil {
		return nil, err
	}

	s.publisher.publish(ctx, models.EventRegistrationCreated, models.RegistrationCreatedEvent{
		RegistrationID:   reg.ID,
		EventID:          reg.EventID,
		UserID:           reg.UserID,
		RegistrationCode: reg.RegistrationCode,
		Timestamp:        reg.RegisteredAt,
	})
	s.publisher.activity(ctx, userID, models.ActionRegistrationCreated, models.EntityRegistration, reg.ID, map[string]interface{}{
		"event_id":          eventID,
		"registration_code": reg.RegistrationCode,
	})

	return reg, nil
}

func registrationResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrDeadlinePassed):
		return "deadline"
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, apperrors.ErrAlreadyRegistered):
		return "duplicate"
	default:
		return "error"
	}
}

// Unregister cancels the caller's registration. Cancelling twice is a no-op.
func (s *RegistrationService) Unregister(ctx context.Context, eventID, userID int64) error {
	var cancelled *models.Registration

	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		reg, err := s.registrations.GetLatest(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("failed to get registration: %w", err)
		}
		if reg == nil {
			return apperrors.ErrRegistrationNotFound
		}
		if reg.Status == models.RegistrationCancelled {
			return nil
		}

		reg.Status = models.RegistrationCancelled
		if err := s.registrations.UpdateStatus(ctx, reg); err != nil {
			return fmt.Errorf("failed to cancel registration: %w", err)
		}
		cancelled = reg
		return nil
	})
	if err != nil {
		return err
	}

	if cancelled != nil {
		s.publisher.publish(ctx, models.EventRegistrationCancelled, models.RegistrationCancelledEvent{
			RegistrationID: cancelled.ID,
			EventID:        cancelled.EventID,
			UserID:         cancelled.UserID,
			Timestamp:      s.now(),
		})
		s.publisher.activity(ctx, userID, models.ActionRegistrationCancelled, models.EntityRegistration, cancelled.ID, map[string]interface{}{
			"event_id": eventID,
		})
	}

	return nil
}

// VerifyCode never fails on unknown or malformed codes; it reports them as invalid
func (s *RegistrationService) VerifyCode(ctx context.Context, code string) (*models.VerifyCodeResponse, error) {
	normalized, ok := NormalizeCode(code)
	if !ok {
		return &models.VerifyCodeResponse{Valid: false}, nil
	}

	detail, err := s.registrations.GetDetailByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration by code: %w", err)
	}
	if detail == nil {
		return &models.VerifyCodeResponse{Valid: false}, nil
	}

	return &models.VerifyCodeResponse{
		Valid:        true,
		Registration: detail,
		CanEnter:     detail.Status == models.RegistrationConfirmed,
	}, nil
}

func (s *RegistrationService) ListMine(ctx context.Context, userID int64) ([]models.RegistrationDetail, error) {
	items, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return items, nil
}

func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) (*models.ListRegistrationsResponse, error) {
	if filter.Page < 1 {
		return nil, apperrors.Validation("page must be >= 1")
	}
	if filter.PageSize < 1 || filter.PageSize > maxPageSize {
		return nil, apperrors.Validation("page_size must be between 1 and %d", maxPageSize)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, *filter.Status)
	}

	items, total, err := s.registrations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	return &models.ListRegistrationsResponse{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// Stats counts registrations per status and the capacity still available
func (s *RegistrationService) Stats(ctx context.Context, eventID int64) (*models.RegistrationStats, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}

	counts, err := s.registrations.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}

	active := 0
	for status, n := range counts {
		if status.Active() {
			active += n
		}
	}

	stats := &models.RegistrationStats{
		EventID:         eventID,
		ByStatus:        counts,
		Active:          active,
		MaxParticipants: event.MaxParticipants,
	}
	if event.MaxParticipants != nil {
		remaining := max(*event.MaxParticipants-active, 0)
		stats.Remaining = &remaining
	}
	return stats, nil
}
