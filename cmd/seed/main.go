package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonos/scheduling/internal/db"
	"github.com/salonos/scheduling/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	salonIDs, err := seedSalons(context.Background(), pool, 3)
	if err != nil {
		log.Fatalf("seed salons: %v", err)
	}
	if err := seedServices(context.Background(), pool, salonIDs); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedEmployees(context.Background(), pool, salonIDs, 12); err != nil {
		log.Fatalf("seed employees: %v", err)
	}

	log.Println("seed complete")
}

func seedSalons(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d salons", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Company() + " Salon"
		branch := gofakeit.City()

		_, err := tx.Exec(ctx, `
			INSERT INTO salons (id, name, branch, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, branch)
		if err != nil {
			return nil, err
		}

		// Monday through Saturday, closed Sunday.
		for wd := 1; wd <= 6; wd++ {
			closeTime := "18:00"
			if wd == 6 {
				closeTime = "19:00"
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO salon_hours (salon_id, weekday, open, open_time, close_time)
				VALUES ($1, $2, true, $3, $4)
			`, id, wd, "09:00", closeTime)
			if err != nil {
				return nil, err
			}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO salon_hours (salon_id, weekday, open, open_time, close_time)
			VALUES ($1, 0, false, '', '')
		`, id)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("salons seeded")
	return ids, nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool, salonIDs []uuid.UUID) error {
	services := []struct {
		name     string
		duration int
		gender   string
	}{
		{"Men's Haircut", 30, "male"},
		{"Women's Haircut", 45, "female"},
		{"Beard Trim", 15, "male"},
		{"Hair Coloring", 90, "both"},
		{"Blow Dry", 30, "both"},
		{"Kids Cut", 20, "both"},
		{"Highlights", 120, "female"},
		{"Head Shave", 20, "male"},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, salonID := range salonIDs {
		for _, s := range services {
			_, err := tx.Exec(ctx, `
				INSERT INTO services (id, salon_id, name, duration_minutes, gender, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, uuid.New(), salonID, s.name, s.duration, s.gender)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("services seeded")
	return nil
}

func seedEmployees(ctx context.Context, pool *pgxpool.Pool, salonIDs []uuid.UUID, perSalon int) error {
	log.Printf("seeding %d employees per salon", perSalon)

	roles := []string{"barber", "barber", "barber", "stylist", "stylist", "receptionist", "cleaner"}
	policies := []string{"both", "both", "male", "female"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, salonID := range salonIDs {
		for i := 0; i < perSalon; i++ {
			role := roles[gofakeit.Number(0, len(roles)-1)]
			policy := policies[gofakeit.Number(0, len(policies)-1)]

			ws, err := json.Marshal(randomWeeklySchedule())
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO employees (id, salon_id, name, role, serves_gender, weekly_schedule, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
			`, uuid.New(), salonID, gofakeit.Name(), role, policy, ws)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("employees seeded")
	return nil
}

func randomWeeklySchedule() schedule.WeeklySchedule {
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	ws := schedule.WeeklySchedule{
		"sunday": {Available: false},
	}

	dayOff := days[gofakeit.Number(0, len(days)-1)]
	for _, day := range days {
		if day == dayOff {
			ws[day] = schedule.DaySchedule{Available: false}
			continue
		}
		start := "09:00"
		end := "18:00"
		if gofakeit.Bool() {
			start = "10:00"
			end = "19:00"
		}
		ws[day] = schedule.DaySchedule{Available: true, Start: start, End: end}
	}

	return ws
}
