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

	"github.com/medilink/scheduling/internal/db"
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

	providerIDs, err := seedProviders(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedWindows(context.Background(), pool, providerIDs); err != nil {
		log.Fatalf("seed windows: %v", err)
	}

	log.Println("seed complete")
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d providers", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]
		fee := gofakeit.Price(30, 250)

		_, err := pool.Exec(ctx, `
			INSERT INTO providers (id, full_name, specialty, consultation_fee, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, gofakeit.Name(), specialty, fee)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		_, err := pool.Exec(ctx, `
			INSERT INTO patients (id, full_name, email, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), gofakeit.Name(), email)
		if err != nil {
			return err
		}
	}
	return nil
}

// seedWindows gives every provider a weekday recurring pattern for the next
// quarter plus the occasional blocked day.
func seedWindows(ctx context.Context, pool *pgxpool.Pool, providerIDs []uuid.UUID) error {
	log.Printf("seeding windows for %d providers", len(providerIDs))

	days, err := json.Marshal(map[string]bool{
		"monday":    true,
		"tuesday":   true,
		"wednesday": true,
		"thursday":  true,
		"friday":    true,
		"saturday":  false,
		"sunday":    false,
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	recStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	recEnd := recStart.AddDate(0, 3, 0)
	dailyStart := time.Date(2000, time.January, 1, 9, 0, 0, 0, time.UTC)
	dailyEnd := time.Date(2000, time.January, 1, 17, 0, 0, 0, time.UTC)

	for _, providerID := range providerIDs {
		_, err := pool.Exec(ctx, `
			INSERT INTO availability_windows
				(id, provider_id, kind, start_at, end_at, days_of_week, recurrence_start, recurrence_end, active, created_at, updated_at)
			VALUES ($1, $2, 'recurring', $3, $4, $5, $6, $7, TRUE, now(), now())
		`, uuid.New(), providerID, dailyStart, dailyEnd, days, recStart, recEnd)
		if err != nil {
			return err
		}

		if gofakeit.Bool() {
			blockStart := recStart.AddDate(0, 0, gofakeit.Number(1, 30))
			_, err := pool.Exec(ctx, `
				INSERT INTO availability_windows
					(id, provider_id, kind, start_at, end_at, active, created_at, updated_at)
				VALUES ($1, $2, 'blocked', $3, $4, TRUE, now(), now())
			`, uuid.New(), providerID, blockStart, blockStart.Add(24*time.Hour))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
