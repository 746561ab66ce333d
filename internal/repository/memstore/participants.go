package memstore

import (
	"context"
	"sort"
	"time"

	apperrors "excentrica/internal/errors"
	"excentrica/internal/models"
)

type participantRepo struct{ s *Store }

func (r *participantRepo) Create(ctx context.Context, p *models.SorteoParticipant) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.sorteos[p.SorteoID]; !ok {
		return errMissing("sorteo", p.SorteoID)
	}
	if p.UserID != nil {
		for _, v := range r.s.participants {
			if v.SorteoID == p.SorteoID && v.UserID != nil && *v.UserID == *p.UserID {
				return apperrors.ErrAlreadyRegistered
			}
		}
	}

	p.ID = r.s.nextID()
	r.s.participants[p.ID] = *p
	return nil
}

func (r *participantRepo) GetByID(ctx context.Context, id int64) (*models.SorteoParticipant, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.participants[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *participantRepo) GetForUpdate(ctx context.Context, id int64) (*models.SorteoParticipant, error) {
	return r.GetByID(ctx, id)
}

func (r *participantRepo) ExistsForUser(ctx context.Context, sorteoID, userID int64) (bool, error) {
	defer r.s.lock(ctx)()

	for _, v := range r.s.participants {
		if v.SorteoID == sorteoID && v.UserID != nil && *v.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *participantRepo) CountActive(ctx context.Context, sorteoID int64) (int, error) {
	defer r.s.lock(ctx)()

	count := 0
	for _, v := range r.s.participants {
		if v.SorteoID == sorteoID && v.Status == models.ParticipantActive {
			count++
		}
	}
	return count, nil
}

func (r *participantRepo) ListEligible(ctx context.Context, sorteoID int64) ([]models.SorteoParticipant, error) {
	defer r.s.lock(ctx)()

	items := []models.SorteoParticipant{}
	for _, v := range r.s.participants {
		if v.SorteoID == sorteoID && v.Eligible() {
			items = append(items, v)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *participantRepo) List(ctx context.Context, sorteoID int64, filter models.ParticipantFilter) ([]models.SorteoParticipant, error) {
	defer r.s.lock(ctx)()

	items := []models.SorteoParticipant{}
	for _, v := range r.s.participants {
		if v.SorteoID != sorteoID {
			continue
		}
		if filter.Status != nil && v.Status != *filter.Status {
			continue
		}
		if filter.WinnersOnly && !v.IsWinner {
			continue
		}
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *participantRepo) MarkWinners(ctx context.Context, sorteoID int64, ids []int64) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for _, id := range ids {
		v, ok := r.s.participants[id]
		if !ok || v.SorteoID != sorteoID || !v.Eligible() {
			continue
		}
		v.IsWinner = true
		r.s.participants[id] = v
		n++
	}
	return n, nil
}

func (r *participantRepo) MarkClaimed(ctx context.Context, id int64, at time.Time) (bool, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.participants[id]
	if !ok || !v.IsWinner || v.PrizeClaimed {
		return false, nil
	}
	v.PrizeClaimed = true
	v.ClaimedAt = &at
	r.s.participants[id] = v
	return true, nil
}

func (r *participantRepo) Disqualify(ctx context.Context, id int64, notes *string) (bool, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.participants[id]
	if !ok || v.IsWinner {
		return false, nil
	}
	v.Status = models.ParticipantDisqualified
	v.DisqualificationNotes = notes
	r.s.participants[id] = v
	return true, nil
}
