// Package seed fills a store with demo events, sorteos and participants.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"excentrica/internal/logger"
	"excentrica/internal/models"
	"excentrica/internal/repository"

	"github.com/shopspring/decimal"
)

type Options struct {
	Events                int
	Sorteos               int
	ParticipantsPerSorteo int
	DryRun                bool
}

// Summary перечисляет созданные записи
type Summary struct {
	EventIDs       []int64 `json:"event_ids"`
	SorteoIDs      []int64 `json:"sorteo_ids"`
	ParticipantIDs []int64 `json:"participant_ids"`
}

type Generator struct {
	repos *repository.Repositories
	rng   *rand.Rand
	now   func() time.Time
}

func NewGenerator(repos *repository.Repositories) *Generator {
	return &Generator{
		repos: repos,
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:   time.Now,
	}
}

var (
	eventTitles = []string{
		"Fiesta de la Patria Gaucha",
		"Noche de los Museos",
		"Carnaval de las Llamadas",
		"Feria del Libro",
		"Festival de Jazz de Punta del Este",
		"Semana Criolla del Prado",
	}
	locations = []string{
		"Tacuarembó", "Montevideo", "Barrio Sur", "Punta del Este", "Colonia del Sacramento", "Salto",
	}
	prizes = []string{
		"Cena para dos", "Entradas VIP", "Fin de semana en las termas", "Orden de compra", "Bicicleta",
	}
	firstNames = []string{"Ana", "Luis", "Eva", "Martín", "Lucía", "Diego", "Sofía", "Pablo"}
)

// Generate создает демо-данные в одной транзакции
func (g *Generator) Generate(ctx context.Context, opts Options) (*Summary, error) {
	log := logger.WithContext(ctx)

	if opts.DryRun {
		log.Info("[DRY RUN] Would generate demo data",
			"events", opts.Events, "sorteos", opts.Sorteos, "participants_per_sorteo", opts.ParticipantsPerSorteo)
		return &Summary{}, nil
	}

	summary := &Summary{}
	err := g.repos.Provider.Transact(ctx, func(ctx context.Context) error {
		for i := 0; i < opts.Events; i++ {
			event := g.event(i)
			if err := g.repos.Events.Create(ctx, event); err != nil {
				return fmt.Errorf("failed to create event: %w", err)
			}
			summary.EventIDs = append(summary.EventIDs, event.ID)
		}

		for i := 0; i < opts.Sorteos; i++ {
			sorteo := g.sorteo(i)
			if err := g.repos.Sorteos.Create(ctx, sorteo); err != nil {
				return fmt.Errorf("failed to create sorteo: %w", err)
			}
			summary.SorteoIDs = append(summary.SorteoIDs, sorteo.ID)

			for j := 0; j < opts.ParticipantsPerSorteo; j++ {
				p := g.participant(sorteo.ID, j)
				if err := g.repos.Participants.Create(ctx, p); err != nil {
					return fmt.Errorf("failed to create participant: %w", err)
				}
				summary.ParticipantIDs = append(summary.ParticipantIDs, p.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Generated demo data",
		"events", len(summary.EventIDs), "sorteos", len(summary.SorteoIDs), "participants", len(summary.ParticipantIDs))
	return summary, nil
}

func (g *Generator) event(i int) *models.Event {
	now := g.now()
	start := now.Add(time.Duration(g.rng.IntN(60)+7) * 24 * time.Hour)
	deadline := start.Add(-24 * time.Hour)
	capacity := g.rng.IntN(191) + 10
	location := locations[g.rng.IntN(len(locations))]

	return &models.Event{
		Title:                fmt.Sprintf("%s %d", eventTitles[i%len(eventTitles)], now.Year()),
		Location:             &location,
		StartAt:              start,
		Status:               models.EventApproved,
		EventType:            models.EventTypeNormal,
		MaxParticipants:      &capacity,
		RegistrationDeadline: &deadline,
		AuthorID:             1,
	}
}

func (g *Generator) sorteo(i int) *models.Sorteo {
	now := g.now()
	drawDate := now.Add(time.Duration(g.rng.IntN(30)+3) * 24 * time.Hour)
	deadline := drawDate.Add(-time.Hour)
	drawTime := "20:00"
	prize := prizes[i%len(prizes)]
	// стоимость приза в песо, два знака после запятой
	value := decimal.New(int64(g.rng.IntN(500000)+10000), -2)

	return &models.Sorteo{
		Title:                fmt.Sprintf("Sorteo %s", prize),
		EventType:            models.EventTypeSorteo,
		PrizeDescription:     &prize,
		PrizeValue:           decimal.NewNullDecimal(value),
		WinnersCount:         g.rng.IntN(3) + 1,
		DrawDate:             &drawDate,
		DrawTime:             &drawTime,
		RegistrationDeadline: &deadline,
		Status:               models.SorteoActive,
		CreatedBy:            1,
	}
}

func (g *Generator) participant(sorteoID int64, j int) *models.SorteoParticipant {
	name := firstNames[g.rng.IntN(len(firstNames))]
	return &models.SorteoParticipant{
		SorteoID:     sorteoID,
		Name:         name,
		Email:        fmt.Sprintf("participante%d.%d@example.com", sorteoID, j),
		Status:       models.ParticipantActive,
		RegisteredAt: g.now(),
	}
}
