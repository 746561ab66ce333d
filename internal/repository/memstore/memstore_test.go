package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "excentrica/internal/errors"
	"excentrica/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEvent(t *testing.T, s *Store) *models.Event {
	t.Helper()
	e := &models.Event{Title: "Feria", StartAt: time.Now().Add(24 * time.Hour), Status: models.EventApproved, EventType: models.EventTypeNormal}
	require.NoError(t, s.Repositories().Events.Create(context.Background(), e))
	return e
}

func TestTransact_RollbackOnError(t *testing.T) {
	s := New()
	repos := s.Repositories()
	e := seedEvent(t, s)
	boom := errors.New("boom")

	err := repos.Provider.Transact(context.Background(), func(ctx context.Context) error {
		reg := &models.Registration{EventID: e.ID, UserID: 1, Status: models.RegistrationPending, RegistrationCode: "A"}
		require.NoError(t, repos.Registrations.Create(ctx, reg))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repos.Registrations.CountActive(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTransact_RollbackOnPanic(t *testing.T) {
	s := New()
	repos := s.Repositories()
	e := seedEvent(t, s)

	assert.Panics(t, func() {
		_ = repos.Provider.Transact(context.Background(), func(ctx context.Context) error {
			reg := &models.Registration{EventID: e.ID, UserID: 1, Status: models.RegistrationPending, RegistrationCode: "A"}
			_ = repos.Registrations.Create(ctx, reg)
			panic("boom")
		})
	})

	exists, err := repos.Registrations.CodeExists(context.Background(), "A")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTransact_Nested(t *testing.T) {
	s := New()
	repos := s.Repositories()

	err := repos.Provider.Transact(context.Background(), func(ctx context.Context) error {
		return repos.Provider.Transact(ctx, func(ctx context.Context) error {
			return repos.Events.Create(ctx, &models.Event{Title: "x", Status: models.EventApproved})
		})
	})
	require.NoError(t, err)
}

func TestRegistrations_ActiveUniqueness(t *testing.T) {
	s := New()
	repos := s.Repositories()
	ctx := context.Background()
	e := seedEvent(t, s)

	first := &models.Registration{EventID: e.ID, UserID: 5, Status: models.RegistrationPending, RegistrationCode: "A"}
	require.NoError(t, repos.Registrations.Create(ctx, first))

	dup := &models.Registration{EventID: e.ID, UserID: 5, Status: models.RegistrationPending, RegistrationCode: "B"}
	assert.ErrorIs(t, repos.Registrations.Create(ctx, dup), apperrors.ErrAlreadyRegistered)

	first.Status = models.RegistrationCancelled
	require.NoError(t, repos.Registrations.UpdateStatus(ctx, first))
	require.NoError(t, repos.Registrations.Create(ctx, dup))

	latest, err := repos.Registrations.GetLatest(ctx, e.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, dup.ID, latest.ID)
}

func TestParticipants_Guards(t *testing.T) {
	s := New()
	repos := s.Repositories()
	ctx := context.Background()

	sorteo := &models.Sorteo{Title: "Rifa", EventType: models.EventTypeSorteo, WinnersCount: 1, Status: models.SorteoActive}
	require.NoError(t, repos.Sorteos.Create(ctx, sorteo))

	p := &models.SorteoParticipant{SorteoID: sorteo.ID, Name: "Ana", Email: "ana@example.com", Status: models.ParticipantActive}
	require.NoError(t, repos.Participants.Create(ctx, p))

	ok, err := repos.Participants.MarkClaimed(ctx, p.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repos.Participants.MarkWinners(ctx, sorteo.ID, []int64{p.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = repos.Participants.Disqualify(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.Participants.MarkClaimed(ctx, p.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}
