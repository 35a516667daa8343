package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/salonos/scheduling/internal/schedule"
)

type PgDirectory struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgDirectory(pool *pgxpool.Pool, logger *zap.Logger) *PgDirectory {
	return &PgDirectory{pool: pool, logger: logger}
}

// Helpers

func scanSalon(row pgx.Row) (*Salon, error) {
	var s Salon

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Branch,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSalonNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgDirectory) scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	var rawSchedule []byte

	err := row.Scan(
		&e.ID,
		&e.SalonID,
		&e.Name,
		&e.Role,
		&e.ServesGender,
		&rawSchedule,
		&e.Active,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}

	if e.ServesGender == "" {
		e.ServesGender = schedule.PolicyBoth
	}
	e.WeeklySchedule = schedule.ParseWeeklySchedule(rawSchedule, r.logger.With(
		zap.String("employee_id", e.ID.String())))

	return &e, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service

	err := row.Scan(
		&s.ID,
		&s.SalonID,
		&s.Name,
		&s.DurationMinutes,
		&s.Gender,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

// Interface methods

func (r *PgDirectory) GetSalon(ctx context.Context, id uuid.UUID) (*Salon, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, branch, created_at, updated_at
		FROM salons
		WHERE id = $1
	`, id)
	return scanSalon(row)
}

func (r *PgDirectory) GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, salon_id, name, role, serves_gender, weekly_schedule, active, created_at, updated_at
		FROM employees
		WHERE id = $1
	`, id)
	return r.scanEmployee(row)
}

func (r *PgDirectory) ListActiveBySalon(ctx context.Context, salonID uuid.UUID) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, salon_id, name, role, serves_gender, weekly_schedule, active, created_at, updated_at
		FROM employees
		WHERE salon_id = $1 AND active
		ORDER BY name
	`, salonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Employee
	for rows.Next() {
		e, err := r.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ListServices resolves every requested id. A partial match is an error: a
// booking must never silently drop one of its services.
func (r *PgDirectory) ListServices(ctx context.Context, ids []uuid.UUID) ([]Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, salon_id, name, duration_minutes, gender, created_at, updated_at
		FROM services
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[uuid.UUID]Service)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		found[s.ID] = *s
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]Service, 0, len(ids))
	for _, id := range ids {
		s, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
		}
		result = append(result, s)
	}

	return result, nil
}

// PgCalendar reads per-salon hours from salon_hours, falling back to the
// chain-wide default table for weekdays without a row.
type PgCalendar struct {
	pool     *pgxpool.Pool
	salons   SalonStore
	fallback WeeklyHours
}

func NewPgCalendar(pool *pgxpool.Pool, salons SalonStore, fallback WeeklyHours) *PgCalendar {
	return &PgCalendar{pool: pool, salons: salons, fallback: fallback}
}

func (c *PgCalendar) GetSalon(ctx context.Context, id uuid.UUID) (*Salon, error) {
	return c.salons.GetSalon(ctx, id)
}

func (c *PgCalendar) HoursOn(ctx context.Context, salonID uuid.UUID, date time.Time) (schedule.WorkingWindow, error) {
	var day DayHours

	row := c.pool.QueryRow(ctx, `
		SELECT open, open_time, close_time
		FROM salon_hours
		WHERE salon_id = $1 AND weekday = $2
	`, salonID, int(date.Weekday()))

	err := row.Scan(&day.Open, &day.OpenTime, &day.CloseTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, serr := c.salons.GetSalon(ctx, salonID); serr != nil {
				return schedule.WorkingWindow{}, serr
			}
			return c.fallback.WindowOn(date), nil
		}
		return schedule.WorkingWindow{}, err
	}

	return (WeeklyHours{date.Weekday(): day}).WindowOn(date), nil
}
