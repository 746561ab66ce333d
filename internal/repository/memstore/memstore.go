// Package memstore is an in-process implementation of the repository interfaces.
// A transaction holds the store-wide lock for its whole duration and restores a
// snapshot when it fails, so concurrent callers observe serializable behaviour.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"excentrica/internal/models"
	"excentrica/internal/repository"
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	seq           int64
	events        map[int64]models.Event
	registrations map[int64]models.Registration
	sorteos       map[int64]models.Sorteo
	participants  map[int64]models.SorteoParticipant
	activity      []models.ActivityLog
}

func New() *Store {
	return &Store{
		now:           time.Now,
		events:        map[int64]models.Event{},
		registrations: map[int64]models.Registration{},
		sorteos:       map[int64]models.Sorteo{},
		participants:  map[int64]models.SorteoParticipant{},
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Provider:      s,
		Events:        &eventRepo{s},
		Registrations: &registrationRepo{s},
		Sorteos:       &sorteoRepo{s},
		Participants:  &participantRepo{s},
		ActivityLogs:  &activityRepo{s},
	}
}

type txKey struct{}

type snapshot struct {
	seq           int64
	events        map[int64]models.Event
	registrations map[int64]models.Registration
	sorteos       map[int64]models.Sorteo
	participants  map[int64]models.SorteoParticipant
	activity      []models.ActivityLog
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		seq:           s.seq,
		events:        maps.Clone(s.events),
		registrations: maps.Clone(s.registrations),
		sorteos:       maps.Clone(s.sorteos),
		participants:  maps.Clone(s.participants),
		activity:      append([]models.ActivityLog(nil), s.activity...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.seq = snap.seq
	s.events = snap.events
	s.registrations = snap.registrations
	s.sorteos = snap.sorteos
	s.participants = snap.participants
	s.activity = snap.activity
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		} else if err != nil {
			s.restore(snap)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, txKey{}, s))
}

// lock acquires the store lock unless ctx already runs inside a transaction
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// SetClock replaces the time source used for created_at style columns
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Activity returns a copy of all stored activity entries
func (s *Store) Activity() []models.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ActivityLog(nil), s.activity...)
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func errMissing(kind string, id int64) error {
	return fmt.Errorf("memstore: %s %d does not exist", kind, id)
}
