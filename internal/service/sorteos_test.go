package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "excentrica/internal/errors"
	"excentrica/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================
// SelectWinners
// =============================

func TestSelectWinners(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sorteo := env.createSorteo(t, 2, nil)
	participants := env.addParticipants(t, sorteo.ID, 5)

	res, err := env.services.Sorteos.SelectWinners(ctx, sorteo.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.WinnersSelected)
	require.Len(t, res.Winners, 2)
	assert.NotEqual(t, res.Winners[0].ID, res.Winners[1].ID)

	ids := map[int64]bool{}
	for _, p := range participants {
		ids[p.ID] = true
	}
	for _, w := range res.Winners {
		assert.True(t, ids[w.ID])
		assert.True(t, w.IsWinner)
	}

	stored, err := env.services.Sorteos.Get(ctx, sorteo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SorteoFinished, stored.Status)

	winners, err := env.services.Sorteos.ListParticipants(ctx, sorteo.ID, models.ParticipantFilter{WinnersOnly: true})
	require.NoError(t, err)
	assert.Len(t, winners, 2)

	_, err = env.services.Sorteos.SelectWinners(ctx, sorteo.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	winners, err = env.services.Sorteos.ListParticipants(ctx, sorteo.ID, models.ParticipantFilter{WinnersOnly: true})
	require.NoError(t, err)
	assert.Len(t, winners, 2)

	assert.Contains(t, env.publisher.subjects(), models.EventSorteoDrawn)
}

func TestSelectWinners_PoolSmallerThanWinnersCount(t *testing.T) {
	env := newTestEnv(t)
	sorteo := env.createSorteo(t, 5, nil)
	env.addParticipants(t, sorteo.ID, 3)

	res, err := env.services.Sorteos.SelectWinners(context.Background(), sorteo.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.WinnersSelected)
}

func TestSelectWinners_EmptyPool(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sorteo := env.createSorteo(t, 1, nil)

	_, err := env.services.Sorteos.SelectWinners(ctx, sorteo.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientParticipants)

	stored, err := env.services.Sorteos.Get(ctx, sorteo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SorteoActive, stored.Status)
}

func TestSelectWinners_OnlyDisqualified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sorteo := env.createSorteo(t, 1, nil)
	participants := env.addParticipants(t, sorteo.ID, 2)
	for _, p := range participants {
		_, err := env.services.Sorteos.DisqualifyParticipant(ctx, p.ID, nil, 1)
		require.NoError(t, err)
	}

	_, err := env.services.Sorteos.SelectWinners(ctx, sorteo.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientParticipants)
}

func TestSelectWinners_NotFoundOrNotActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Sorteos.SelectWinners(ctx, 999, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	recurring := env.createSorteo(t, 1, func(s *models.Sorteo) { s.EventType = models.EventTypeRecurrente })
	_, err = env.services.Sorteos.SelectWinners(ctx, recurring.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	paused := env.createSorteo(t, 1, func(s *models.Sorteo) { s.Status = models.SorteoPaused })
	env.addParticipants(t, paused.ID, 2)
	_, err = env.services.Sorteos.SelectWinners(ctx, paused.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrSorteoNotActive)
}

func TestSelectWinners_RollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sorteo := env.createSorteo(t, 2, nil)
	env.addParticipants(t, sorteo.ID, 4)

	env.services.Sorteos.newRand = func() (*rand.Rand, error) {
		return nil, errors.New("entropy unavailable")
	}

	_, err := env.services.Sorteos.SelectWinners(ctx, sorteo.ID, 1)
	require.Error(t, err)

	stored, err := env.services.Sorteos.Get(ctx, sorteo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SorteoActive, stored.Status)

	winners, err := env.services.Sorteos.ListParticipants(ctx, sorteo.ID, models.ParticipantFilter{WinnersOnly: true})
	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestSelectWinners_ConcurrentDrawsRunOnce(t *testing.T) {
	env := newTestEnv(t)
	sorteo := env.createSorteo(t, 1, nil)
	env.addParticipants(t, sorteo.ID, 10)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.services.Sorteos.SelectWinners(context.Background(), sorteo.ID, 1); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())

	winners, err := env.services.Sorteos.ListParticipants(context.Background(), sorteo.ID, models.ParticipantFilter{WinnersOnly: true})
	require.NoError(t, err)
	assert.Len(t, winners, 1)
}

// =============================
// Prize claim and disqualification
// =============================

func TestMarkPrizeClaimed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sorteo := env.createSorteo(t, 1, nil)
	env.addParticipants(t, sorteo.ID, 3)

	res, err := env.services.Sorteos.SelectWinners(ctx, sorteo.ID, 1)
	require.NoError(t, err)
	winner := res.Winners[0]

	claimed, err := env.services.Sorteos.MarkPrizeClaimed(ctx, winner.ID, 1)
	require.NoError(t, err)
	assert.True(t, claimed.PrizeClaimed)
	require.NotNil(t, claimed.ClaimedAt)
	assert.Equal(t, env.now, *claimed.ClaimedAt)

	_, err = env.services.Sorteos.MarkPrizeClaimed(ctx, winner.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyClaimed)

	losers, err := env.services.Sorteos.ListParticipants(ctx, sorteo.ID, models.ParticipantFilter{})
	require.NoError(t, err)
	for _, p := range losers {
		if p.IsWinner {
			continue
		}
		_, err = env.services.Sorteos.MarkPrizeClaimed(ctx, p.ID, 1)
		assert.ErrorIs(t, err, apperrors.ErrNotWinner)
	}

	_, err = env.services.Sorteos.MarkPrizeClaimed(ctx, 999, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDisqualifyParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sorteo := env.createSorteo(t, 1, nil)
	participants := env.addParticipants(t, sorteo.ID, 2)

	notes := "datos duplicados"
	p, err := env.services.Sorteos.DisqualifyParticipant(ctx, participants[0].ID, &notes, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantDisqualified, p.Status)
	assert.Equal(t, notes, *p.DisqualificationNotes)

	res, err := env.services.Sorteos.SelectWinners(ctx, sorteo.ID, 1)
	require.NoError(t, err)
	require.Len(t, res.Winners, 1)
	assert.Equal(t, participants[1].ID, res.Winners[0].ID)

	_, err = env.services.Sorteos.DisqualifyParticipant(ctx, participants[1].ID, nil, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyWinner)

	_, err = env.services.Sorteos.DisqualifyParticipant(ctx, 999, nil, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// =============================
// JoinSorteo
// =============================

func TestJoinSorteo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sorteo := env.createSorteo(t, 1, func(s *models.Sorteo) { s.MaxParticipants = intPtr(2) })

	req := &models.JoinSorteoRequest{Name: " Ana ", Email: "ana@example.com"}
	p, err := env.services.Sorteos.JoinSorteo(ctx, sorteo.ID, 21, req)
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, models.ParticipantActive, p.Status)
	require.NotNil(t, p.UserID)
	assert.Equal(t, int64(21), *p.UserID)

	_, err = env.services.Sorteos.JoinSorteo(ctx, sorteo.ID, 21, req)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)

	_, err = env.services.Sorteos.JoinSorteo(ctx, sorteo.ID, 22, &models.JoinSorteoRequest{Name: "Luis", Email: "luis@example.com"})
	require.NoError(t, err)

	_, err = env.services.Sorteos.JoinSorteo(ctx, sorteo.ID, 23, &models.JoinSorteoRequest{Name: "Eva", Email: "eva@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)

	_, err = env.services.Sorteos.JoinSorteo(ctx, sorteo.ID, 23, &models.JoinSorteoRequest{Name: "", Email: "eva@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Contains(t, env.publisher.subjects(), models.EventSorteoParticipantJoined)
}

func TestJoinSorteo_Closed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := &models.JoinSorteoRequest{Name: "Ana", Email: "ana@example.com"}

	paused := env.createSorteo(t, 1, func(s *models.Sorteo) { s.Status = models.SorteoPaused })
	_, err := env.services.Sorteos.JoinSorteo(ctx, paused.ID, 21, req)
	assert.ErrorIs(t, err, apperrors.ErrSorteoNotActive)

	deadline := env.now.Add(-time.Minute)
	late := env.createSorteo(t, 1, func(s *models.Sorteo) { s.RegistrationDeadline = &deadline })
	_, err = env.services.Sorteos.JoinSorteo(ctx, late.ID, 21, req)
	assert.ErrorIs(t, err, apperrors.ErrDeadlinePassed)

	_, err = env.services.Sorteos.JoinSorteo(ctx, 999, 21, req)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// =============================
// ChangeStatus
// =============================

func TestChangeSorteoStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sorteo := env.createSorteo(t, 1, nil)

	updated, err := env.services.Sorteos.ChangeStatus(ctx, sorteo.ID, "pausado", 1)
	require.NoError(t, err)
	assert.Equal(t, models.SorteoPaused, updated.Status)

	updated, err = env.services.Sorteos.ChangeStatus(ctx, sorteo.ID, "activo", 1)
	require.NoError(t, err)
	assert.Equal(t, models.SorteoActive, updated.Status)

	_, err = env.services.Sorteos.ChangeStatus(ctx, sorteo.ID, "finalizado", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = env.services.Sorteos.ChangeStatus(ctx, sorteo.ID, "archivado", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	_, err = env.services.Sorteos.ChangeStatus(ctx, sorteo.ID, "cancelado", 1)
	require.NoError(t, err)

	_, err = env.services.Sorteos.ChangeStatus(ctx, sorteo.ID, "activo", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}
