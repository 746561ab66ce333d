package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	for i, migration := range Migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

// Migrations is the ordered list of idempotent DDL statements
var Migrations = []string{
	createEventsTable,
	createEventRegistrationsTable,
	createActiveRegistrationIndex,
	createSpecialEventsTable,
	createSorteoParticipantsTable,
	createActiveParticipantIndex,
	createActivityLogsTable,
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    description TEXT,
    location VARCHAR(500),
    start_at TIMESTAMPTZ NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'draft',
    event_type VARCHAR(20) NOT NULL DEFAULT 'normal',
    max_participants INTEGER,
    registration_deadline TIMESTAMPTZ,
    author_id BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('draft', 'pending', 'approved', 'rejected')),
    CHECK (event_type IN ('normal', 'sorteo', 'recurrente')),
    CHECK (max_participants IS NULL OR max_participants > 0)
);`

const createEventRegistrationsTable = `
CREATE TABLE IF NOT EXISTS event_registrations (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    registration_code VARCHAR(64) NOT NULL UNIQUE,
    notes TEXT,
    registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    approved_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'confirmado', 'rechazado', 'cancelado'))
);`

const createActiveRegistrationIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS event_registrations_active_uidx
ON event_registrations (event_id, user_id) WHERE status <> 'cancelado';`

const createSpecialEventsTable = `
CREATE TABLE IF NOT EXISTS special_events (
    id SERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    description TEXT,
    event_type VARCHAR(20) NOT NULL DEFAULT 'sorteo',
    prize_description TEXT,
    prize_value NUMERIC(12,2),
    winners_count INTEGER NOT NULL DEFAULT 1,
    max_participants INTEGER,
    draw_date DATE,
    draw_time VARCHAR(5),
    registration_deadline TIMESTAMPTZ,
    status VARCHAR(20) NOT NULL DEFAULT 'activo',
    created_by BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (event_type IN ('sorteo', 'recurrente')),
    CHECK (winners_count >= 1),
    CHECK (status IN ('activo', 'pausado', 'finalizado', 'cancelado'))
);`

const createSorteoParticipantsTable = `
CREATE TABLE IF NOT EXISTS sorteo_participants (
    id SERIAL PRIMARY KEY,
    sorteo_id INTEGER NOT NULL REFERENCES special_events(id) ON DELETE CASCADE,
    user_id BIGINT,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL,
    phone VARCHAR(50),
    is_winner BOOLEAN NOT NULL DEFAULT FALSE,
    prize_claimed BOOLEAN NOT NULL DEFAULT FALSE,
    status VARCHAR(20) NOT NULL DEFAULT 'activo',
    disqualification_notes TEXT,
    registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    claimed_at TIMESTAMPTZ,

    CHECK (status IN ('activo', 'descalificado')),
    CHECK (NOT prize_claimed OR is_winner)
);`

const createActiveParticipantIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS sorteo_participants_user_uidx
ON sorteo_participants (sorteo_id, user_id) WHERE user_id IS NOT NULL;`

const createActivityLogsTable = `
CREATE TABLE IF NOT EXISTS activity_logs (
    id SERIAL PRIMARY KEY,
    actor_id BIGINT NOT NULL,
    action VARCHAR(100) NOT NULL,
    entity_type VARCHAR(50) NOT NULL,
    entity_id BIGINT NOT NULL,
    details JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS activity_logs_entity_idx ON activity_logs (entity_type, entity_id);`
