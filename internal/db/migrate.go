package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate applies the schema. Statements are idempotent so the seed and
// the api-server can both call this safely on startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS salons (
			id          uuid PRIMARY KEY,
			name        text NOT NULL,
			branch      text NOT NULL DEFAULT '',
			created_at  timestamptz NOT NULL DEFAULT now(),
			updated_at  timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			id              uuid PRIMARY KEY,
			salon_id        uuid NOT NULL REFERENCES salons(id),
			name            text NOT NULL,
			role            text NOT NULL,
			serves_gender   text NOT NULL DEFAULT 'both',
			weekly_schedule jsonb NOT NULL DEFAULT '{}',
			active          boolean NOT NULL DEFAULT true,
			created_at      timestamptz NOT NULL DEFAULT now(),
			updated_at      timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_employees_salon ON employees (salon_id) WHERE active`,
		`CREATE TABLE IF NOT EXISTS services (
			id               uuid PRIMARY KEY,
			salon_id         uuid NOT NULL REFERENCES salons(id),
			name             text NOT NULL,
			duration_minutes integer NOT NULL CHECK (duration_minutes > 0),
			gender           text NOT NULL DEFAULT 'both',
			created_at       timestamptz NOT NULL DEFAULT now(),
			updated_at       timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS salon_hours (
			salon_id   uuid NOT NULL REFERENCES salons(id),
			weekday    integer NOT NULL CHECK (weekday BETWEEN 0 AND 6),
			open       boolean NOT NULL DEFAULT true,
			open_time  text NOT NULL DEFAULT '',
			close_time text NOT NULL DEFAULT '',
			PRIMARY KEY (salon_id, weekday)
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id            uuid PRIMARY KEY,
			salon_id      uuid NOT NULL REFERENCES salons(id),
			employee_id   uuid NOT NULL REFERENCES employees(id),
			customer_id   uuid NOT NULL,
			service_ids   uuid[] NOT NULL,
			start_time    timestamptz NOT NULL,
			estimated_end timestamptz,
			actual_start  timestamptz,
			actual_end    timestamptz,
			status        text NOT NULL,
			cancel_reason text,
			cancelled_by  text,
			created_at    timestamptz NOT NULL DEFAULT now(),
			updated_at    timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_employee_start
			ON appointments (employee_id, start_time)`,
		`CREATE TABLE IF NOT EXISTS event_logs (
			id             bigserial PRIMARY KEY,
			event_type     text NOT NULL,
			appointment_id uuid,
			payload        jsonb,
			created_at     timestamptz NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return nil
}
