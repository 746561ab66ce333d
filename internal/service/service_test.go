package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"excentrica/internal/models"
	"excentrica/internal/repository"
	"excentrica/internal/repository/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    interface{}
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *recordingPublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.subject
	}
	return out
}

func (p *recordingPublisher) activities() []models.ActivityLoggedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.ActivityLoggedEvent
	for _, m := range p.messages {
		if e, ok := m.data.(models.ActivityLoggedEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store     *memstore.Store
	repos     *repository.Repositories
	services  *Services
	publisher *recordingPublisher
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     memstore.New(),
		publisher: &recordingPublisher{},
		now:       time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	env.repos = env.store.Repositories()
	env.services = NewServices(env.repos, env.publisher, nil, WithClock(func() time.Time { return env.now }))
	return env
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func (env *testEnv) createEvent(t *testing.T, mutate func(e *models.Event)) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:     "Festival de la Vendimia",
		StartAt:   env.now.Add(72 * time.Hour),
		Status:    models.EventApproved,
		EventType: models.EventTypeNormal,
		AuthorID:  1,
	}
	if mutate != nil {
		mutate(e)
	}
	require.NoError(t, env.repos.Events.Create(context.Background(), e))
	return e
}

func (env *testEnv) createSorteo(t *testing.T, winners int, mutate func(s *models.Sorteo)) *models.Sorteo {
	t.Helper()
	s := &models.Sorteo{
		Title:        "Sorteo aniversario",
		EventType:    models.EventTypeSorteo,
		PrizeValue:   decimal.NewNullDecimal(decimal.RequireFromString("1500.50")),
		WinnersCount: winners,
		Status:       models.SorteoActive,
		CreatedBy:    1,
	}
	if mutate != nil {
		mutate(s)
	}
	require.NoError(t, env.repos.Sorteos.Create(context.Background(), s))
	return s
}

func (env *testEnv) addParticipants(t *testing.T, sorteoID int64, n int) []models.SorteoParticipant {
	t.Helper()
	out := make([]models.SorteoParticipant, 0, n)
	for i := 0; i < n; i++ {
		p := &models.SorteoParticipant{
			SorteoID:     sorteoID,
			Name:         "Participante",
			Email:        "p@example.com",
			Status:       models.ParticipantActive,
			RegisteredAt: env.now,
		}
		require.NoError(t, env.repos.Participants.Create(context.Background(), p))
		out = append(out, *p)
	}
	return out
}
