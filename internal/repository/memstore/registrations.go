package memstore

import (
	"context"
	"sort"

	apperrors "excentrica/internal/errors"
	"excentrica/internal/models"
)

type registrationRepo struct{ s *Store }

func (r *registrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.events[reg.EventID]; !ok {
		return errMissing("event", reg.EventID)
	}
	for _, existing := range r.s.registrations {
		if existing.RegistrationCode == reg.RegistrationCode {
			return apperrors.ErrConflict
		}
		if reg.Status.Active() && existing.EventID == reg.EventID && existing.UserID == reg.UserID && existing.Status.Active() {
			return apperrors.ErrAlreadyRegistered
		}
	}

	reg.ID = r.s.nextID()
	reg.UpdatedAt = r.s.now()
	r.s.registrations[reg.ID] = *reg
	return nil
}

func (r *registrationRepo) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.registrations[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *registrationRepo) GetForUpdate(ctx context.Context, id int64) (*models.Registration, error) {
	return r.GetByID(ctx, id)
}

func (r *registrationRepo) GetLatest(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	defer r.s.lock(ctx)()

	var latest *models.Registration
	for _, v := range r.s.registrations {
		if v.EventID != eventID || v.UserID != userID {
			continue
		}
		if latest == nil || newer(v, *latest) {
			v := v
			latest = &v
		}
	}
	return latest, nil
}

// newer orders active registrations first, then by most recent
func newer(a, b models.Registration) bool {
	if a.Status.Active() != b.Status.Active() {
		return a.Status.Active()
	}
	if !a.RegisteredAt.Equal(b.RegisteredAt) {
		return a.RegisteredAt.After(b.RegisteredAt)
	}
	return a.ID > b.ID
}

func (r *registrationRepo) GetActive(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	defer r.s.lock(ctx)()

	for _, v := range r.s.registrations {
		if v.EventID == eventID && v.UserID == userID && v.Status.Active() {
			return &v, nil
		}
	}
	return nil, nil
}

func (r *registrationRepo) GetDetailByCode(ctx context.Context, code string) (*models.RegistrationDetail, error) {
	defer r.s.lock(ctx)()

	for _, v := range r.s.registrations {
		if v.RegistrationCode == code {
			d := r.detail(v)
			return &d, nil
		}
	}
	return nil, nil
}

func (r *registrationRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	defer r.s.lock(ctx)()

	for _, v := range r.s.registrations {
		if v.RegistrationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *registrationRepo) CountActive(ctx context.Context, eventID int64) (int, error) {
	defer r.s.lock(ctx)()

	count := 0
	for _, v := range r.s.registrations {
		if v.EventID == eventID && v.Status.Active() {
			count++
		}
	}
	return count, nil
}

func (r *registrationRepo) CountByStatus(ctx context.Context, eventID int64) (map[models.RegistrationStatus]int, error) {
	defer r.s.lock(ctx)()

	counts := make(map[models.RegistrationStatus]int, len(models.RegistrationStatuses))
	for _, st := range models.RegistrationStatuses {
		counts[st] = 0
	}
	for _, v := range r.s.registrations {
		if v.EventID == eventID {
			counts[v.Status]++
		}
	}
	return counts, nil
}

func (r *registrationRepo) ListByUser(ctx context.Context, userID int64) ([]models.RegistrationDetail, error) {
	defer r.s.lock(ctx)()

	items := []models.RegistrationDetail{}
	for _, v := range r.s.registrations {
		if v.UserID == userID {
			items = append(items, r.detail(v))
		}
	}
	sortDetails(items)
	return items, nil
}

func (r *registrationRepo) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	defer r.s.lock(ctx)()

	items := []models.RegistrationDetail{}
	for _, v := range r.s.registrations {
		if filter.EventID != nil && v.EventID != *filter.EventID {
			continue
		}
		if filter.UserID != nil && v.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && v.Status != *filter.Status {
			continue
		}
		items = append(items, r.detail(v))
	}
	sortDetails(items)
	return paginate(items, filter.Page, filter.PageSize), len(items), nil
}

func (r *registrationRepo) UpdateStatus(ctx context.Context, reg *models.Registration) error {
	defer r.s.lock(ctx)()

	v, ok := r.s.registrations[reg.ID]
	if !ok {
		return errMissing("registration", reg.ID)
	}
	v.Status = reg.Status
	v.Notes = reg.Notes
	v.ApprovedAt = reg.ApprovedAt
	v.UpdatedAt = r.s.now()
	r.s.registrations[reg.ID] = v
	reg.UpdatedAt = v.UpdatedAt
	return nil
}

func (r *registrationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.registrations[id]; !ok {
		return false, nil
	}
	delete(r.s.registrations, id)
	return true, nil
}

func (r *registrationRepo) detail(v models.Registration) models.RegistrationDetail {
	d := models.RegistrationDetail{Registration: v}
	if e, ok := r.s.events[v.EventID]; ok {
		d.EventTitle = e.Title
		d.EventStartAt = e.StartAt
		d.EventLocation = e.Location
	}
	return d
}

func sortDetails(items []models.RegistrationDetail) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].RegisteredAt.Equal(items[j].RegisteredAt) {
			return items[i].RegisteredAt.After(items[j].RegisteredAt)
		}
		return items[i].ID > items[j].ID
	})
}
