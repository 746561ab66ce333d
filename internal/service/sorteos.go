package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	apperrors "excentrica/internal/errors"
	"excentrica/internal/messaging"
	"excentrica/internal/metrics"
	"excentrica/internal/models"
	"excentrica/internal/repository"
)

// sorteoTransitions are the lifecycle moves staff may make directly.
// finalizado is reached only through SelectWinners.
var sorteoTransitions = map[models.SorteoStatus][]models.SorteoStatus{
	models.SorteoActive: {models.SorteoPaused, models.SorteoCancelled},
	models.SorteoPaused: {models.SorteoActive, models.SorteoCancelled},
}

type DrawingService struct {
	provider     repository.Provider
	sorteos      repository.Sorteos
	participants repository.Participants
	publisher    *eventPublisher
	now          func() time.Time
	newRand      func() (*rand.Rand, error)
}

func NewDrawingService(repos *repository.Repositories, publisher messaging.Publisher, now func() time.Time) *DrawingService {
	return &DrawingService{
		provider:     repos.Provider,
		sorteos:      repos.Sorteos,
		participants: repos.Participants,
		publisher:    &eventPublisher{publisher: publisher, now: now},
		now:          now,
		newRand:      newDrawRand,
	}
}

// lockSorteo loads a sorteo-type special event under a row lock
func (s *DrawingService) lockSorteo(ctx context.Context, id int64) (*models.Sorteo, error) {
	sorteo, err := s.sorteos.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sorteo: %w", err)
	}
	if sorteo == nil || sorteo.EventType != models.EventTypeSorteo {
		return nil, apperrors.ErrSorteoNotFound
	}
	return sorteo, nil
}

// SelectWinners draws min(winners_count, pool) eligible participants and finalizes the
// sorteo in one transaction. Any failure leaves flags and status untouched.
func (s *DrawingService) SelectWinners(ctx context.Context, sorteoID, actorID int64) (*models.SelectWinnersResponse, error) {
	start := time.Now()
	var winners []models.SorteoParticipant
	var poolSize int

	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		sorteo, err := s.lockSorteo(ctx, sorteoID)
		if err != nil {
			return err
		}
		if sorteo.Status != models.SorteoActive {
			return apperrors.ErrSorteoNotActive
		}

		pool, err := s.participants.ListEligible(ctx, sorteoID)
		if err != nil {
			return fmt.Errorf("failed to list eligible participants: %w", err)
		}
		if len(pool) == 0 {
			return apperrors.ErrInsufficientParticipants
		}
		poolSize = len(pool)

		rng, err := s.newRand()
		if err != nil {
			return err
		}
		k := min(max(sorteo.WinnersCount, 1), len(pool))
		selected := sampleWithoutReplacement(rng, pool, k)

		ids := make([]int64, len(selected))
		for i := range selected {
			ids[i] = selected[i].ID
			selected[i].IsWinner = true
		}

		marked, err := s.participants.MarkWinners(ctx, sorteoID, ids)
		if err != nil {
			return fmt.Errorf("failed to mark winners: %w", err)
		}
		if marked != int64(len(ids)) {
			return fmt.Errorf("failed to mark winners: %d of %d rows updated", marked, len(ids))
		}

		ok, err := s.sorteos.CompareAndSetStatus(ctx, sorteoID, models.SorteoActive, models.SorteoFinished)
		if err != nil {
			return fmt.Errorf("failed to finalize sorteo: %w", err)
		}
		if !ok {
			return apperrors.ErrSorteoNotActive
		}

		sort.Slice(selected, func(i, j int) bool { return selected[i].ID < selected[j].ID })
		winners = selected
		return nil
	})

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordDraw(status, time.Since(start).Seconds(), len(winners))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(winners))
	for i, w := range winners {
		ids[i] = w.ID
	}
	s.publisher.publish(ctx, models.EventSorteoDrawn, models.SorteoDrawnEvent{
		SorteoID:  sorteoID,
		WinnerIDs: ids,
		PoolSize:  poolSize,
		ActorID:   actorID,
		Timestamp: s.now(),
	})
	s.publisher.activity(ctx, actorID, models.ActionDrawExecuted, models.EntitySorteo, sorteoID, map[string]interface{}{
		"winner_ids": ids,
		"pool_size":  poolSize,
	})

	return &models.SelectWinnersResponse{
		WinnersSelected: len(winners),
		Winners:         winners,
	}, nil
}

// MarkPrizeClaimed records the physical prize handoff. Repeating it is an error.
func (s *DrawingService) MarkPrizeClaimed(ctx context.Context, participantID, actorID int64) (*models.SorteoParticipant, error) {
	var participant *models.SorteoParticipant

	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		p, err := s.participants.GetForUpdate(ctx, participantID)
		if err != nil {
			return fmt.Errorf("failed to get participant: %w", err)
		}
		if p == nil {
			return apperrors.ErrParticipantNotFound
		}
		if !p.IsWinner {
			return apperrors.ErrNotWinner
		}
		if p.PrizeClaimed {
			return apperrors.ErrAlreadyClaimed
		}

		claimedAt := s.now()
		ok, err := s.participants.MarkClaimed(ctx, participantID, claimedAt)
		if err != nil {
			return fmt.Errorf("failed to mark prize claimed: %w", err)
		}
		if !ok {
			return apperrors.ErrAlreadyClaimed
		}

		p.PrizeClaimed = true
		p.ClaimedAt = &claimedAt
		participant = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.activity(ctx, actorID, models.ActionPrizeClaimed, models.EntityParticipant, participantID, map[string]interface{}{
		"sorteo_id": participant.SorteoID,
	})
	return participant, nil
}

// DisqualifyParticipant removes a participant from the drawing pool. Winners are rejected.
func (s *DrawingService) DisqualifyParticipant(ctx context.Context, participantID int64, notes *string, actorID int64) (*models.SorteoParticipant, error) {
	var participant *models.SorteoParticipant

	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		p, err := s.participants.GetForUpdate(ctx, participantID)
		if err != nil {
			return fmt.Errorf("failed to get participant: %w", err)
		}
		if p == nil {
			return apperrors.ErrParticipantNotFound
		}
		if p.IsWinner {
			return apperrors.ErrAlreadyWinner
		}

		ok, err := s.participants.Disqualify(ctx, participantID, notes)
		if err != nil {
			return fmt.Errorf("failed to disqualify participant: %w", err)
		}
		if !ok {
			return apperrors.ErrAlreadyWinner
		}

		p.Status = models.ParticipantDisqualified
		p.DisqualificationNotes = notes
		participant = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.activity(ctx, actorID, models.ActionParticipantDisqualify, models.EntityParticipant, participantID, map[string]interface{}{
		"sorteo_id": participant.SorteoID,
		"notes":     notes,
	})
	return participant, nil
}

// JoinSorteo adds the user to the drawing pool of an active sorteo
func (s *DrawingService) JoinSorteo(ctx context.Context, sorteoID, userID int64, req *models.JoinSorteoRequest) (*models.SorteoParticipant, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.Validation("email is invalid")
	}

	var participant *models.SorteoParticipant

	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		sorteo, err := s.lockSorteo(ctx, sorteoID)
		if err != nil {
			return err
		}
		if sorteo.Status != models.SorteoActive {
			return apperrors.ErrSorteoNotActive
		}

		now := s.now()
		if sorteo.RegistrationDeadline != nil && now.After(*sorteo.RegistrationDeadline) {
			return apperrors.ErrDeadlinePassed
		}

		exists, err := s.participants.ExistsForUser(ctx, sorteoID, userID)
		if err != nil {
			return fmt.Errorf("failed to check participation: %w", err)
		}
		if exists {
			return apperrors.ErrAlreadyRegistered
		}

		if sorteo.MaxParticipants != nil {
			count, err := s.participants.CountActive(ctx, sorteoID)
			if err != nil {
				return fmt.Errorf("failed to count participants: %w", err)
			}
			if count >= *sorteo.MaxParticipants {
				return apperrors.ErrCapacityExceeded
			}
		}

		uid := userID
		participant = &models.SorteoParticipant{
			SorteoID:     sorteoID,
			UserID:       &uid,
			Name:         name,
			Email:        email,
			Phone:        req.Phone,
			Status:       models.ParticipantActive,
			RegisteredAt: now,
		}
		if err := s.participants.Create(ctx, participant); err != nil {
			if apperrors.Is(err, apperrors.ErrAlreadyRegistered) {
				return err
			}
			return fmt.Errorf("failed to create participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.publish(ctx, models.EventSorteoParticipantJoined, models.SorteoParticipantJoinedEvent{
		SorteoID:      sorteoID,
		ParticipantID: participant.ID,
		UserID:        participant.UserID,
		Timestamp:     participant.RegisteredAt,
	})
	s.publisher.activity(ctx, userID, models.ActionParticipantJoined, models.EntityParticipant, participant.ID, map[string]interface{}{
		"sorteo_id": sorteoID,
	})
	return participant, nil
}

// ChangeStatus pauses, resumes or cancels a sorteo
func (s *DrawingService) ChangeStatus(ctx context.Context, sorteoID int64, status string, actorID int64) (*models.Sorteo, error) {
	target, err := models.ParseSorteoStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidStatus, err.Error())
	}

	var sorteo *models.Sorteo
	var from models.SorteoStatus

	err = s.provider.Transact(ctx, func(ctx context.Context) error {
		current, err := s.lockSorteo(ctx, sorteoID)
		if err != nil {
			return err
		}

		from = current.Status
		if !canChangeSorteo(from, target) {
			return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, target)
		}

		ok, err := s.sorteos.CompareAndSetStatus(ctx, sorteoID, from, target)
		if err != nil {
			return fmt.Errorf("failed to update sorteo status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: sorteo changed concurrently", apperrors.ErrInvalidState)
		}

		current.Status = target
		sorteo = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.publish(ctx, models.EventSorteoStatusChanged, models.SorteoStatusChangedEvent{
		SorteoID:  sorteoID,
		From:      from,
		To:        target,
		ActorID:   actorID,
		Timestamp: s.now(),
	})
	s.publisher.activity(ctx, actorID, models.ActionSorteoStatus, models.EntitySorteo, sorteoID, map[string]interface{}{
		"from": from,
		"to":   target,
	})
	return sorteo, nil
}

func canChangeSorteo(from, to models.SorteoStatus) bool {
	for _, allowed := range sorteoTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *DrawingService) Get(ctx context.Context, sorteoID int64) (*models.Sorteo, error) {
	sorteo, err := s.sorteos.GetByID(ctx, sorteoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sorteo: %w", err)
	}
	if sorteo == nil || sorteo.EventType != models.EventTypeSorteo {
		return nil, apperrors.ErrSorteoNotFound
	}
	return sorteo, nil
}

func (s *DrawingService) ListParticipants(ctx context.Context, sorteoID int64, filter models.ParticipantFilter) ([]models.SorteoParticipant, error) {
	if _, err := s.Get(ctx, sorteoID); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, *filter.Status)
	}

	items, err := s.participants.List(ctx, sorteoID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return items, nil
}
