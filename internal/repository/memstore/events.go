package memstore

import (
	"context"

	"excentrica/internal/models"
)

type eventRepo struct{ s *Store }

func (r *eventRepo) Create(ctx context.Context, event *models.Event) error {
	defer r.s.lock(ctx)()

	now := r.s.now()
	event.ID = r.s.nextID()
	event.CreatedAt = now
	event.UpdatedAt = now
	r.s.events[event.ID] = *event
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *eventRepo) GetForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return r.GetByID(ctx, id)
}

type sorteoRepo struct{ s *Store }

func (r *sorteoRepo) Create(ctx context.Context, sorteo *models.Sorteo) error {
	defer r.s.lock(ctx)()

	now := r.s.now()
	sorteo.ID = r.s.nextID()
	sorteo.CreatedAt = now
	sorteo.UpdatedAt = now
	r.s.sorteos[sorteo.ID] = *sorteo
	return nil
}

func (r *sorteoRepo) GetByID(ctx context.Context, id int64) (*models.Sorteo, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.sorteos[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *sorteoRepo) GetForUpdate(ctx context.Context, id int64) (*models.Sorteo, error) {
	return r.GetByID(ctx, id)
}

func (r *sorteoRepo) CompareAndSetStatus(ctx context.Context, id int64, from, to models.SorteoStatus) (bool, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.sorteos[id]
	if !ok || v.Status != from {
		return false, nil
	}
	v.Status = to
	v.UpdatedAt = r.s.now()
	r.s.sorteos[id] = v
	return true, nil
}
