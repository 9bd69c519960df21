// simulate fires concurrent booking requests at one provider and the same
// instant, then reports the outcome split. With the engine working correctly
// exactly one request succeeds and the rest are rejected as taken or busy.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/scheduling/internal/config"
	"github.com/medilink/scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	baseURL := flag.String("url", "http://localhost:8080", "api server base URL")
	workers := flag.Int("workers", 50, "concurrent booking attempts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	providerID, patientIDs, err := loadFixtures(ctx, pool, *workers)
	if err != nil {
		log.Fatalf("load fixtures: %v", err)
	}

	// Next Monday 10:00 UTC is inside every seeded recurring window.
	instant := nextMonday(time.Now().UTC()).Add(10 * time.Hour)

	log.Printf("firing %d concurrent bookings provider=%s instant=%s", *workers, providerID, instant)

	var created, taken, busy, other int64
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(patientID uuid.UUID) {
			defer wg.Done()
			status, errCode := book(*baseURL, patientID, providerID, instant)
			switch {
			case status == http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case errCode == "slot_taken":
				atomic.AddInt64(&taken, 1)
			case errCode == "provider_busy":
				atomic.AddInt64(&busy, 1)
			default:
				atomic.AddInt64(&other, 1)
				log.Printf("unexpected outcome status=%d error=%s", status, errCode)
			}
		}(patientIDs[i%len(patientIDs)])
	}
	wg.Wait()

	fmt.Printf("created=%d slot_taken=%d provider_busy=%d other=%d\n", created, taken, busy, other)
	if created != 1 {
		log.Fatalf("double-booking invariant violated: %d bookings succeeded", created)
	}
	log.Println("exactly one booking succeeded")
}

func loadFixtures(ctx context.Context, pool *pgxpool.Pool, patientCount int) (uuid.UUID, []uuid.UUID, error) {
	var providerID uuid.UUID
	err := pool.QueryRow(ctx, `
		SELECT w.provider_id
		FROM availability_windows w
		WHERE w.kind = 'recurring' AND w.active
		LIMIT 1
	`).Scan(&providerID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("pick provider: %w", err)
	}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, patientCount)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	var patients []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, nil, err
		}
		patients = append(patients, id)
	}
	if len(patients) == 0 {
		return uuid.Nil, nil, fmt.Errorf("no patients seeded")
	}

	return providerID, patients, rows.Err()
}

func book(baseURL string, patientID, providerID uuid.UUID, instant time.Time) (int, string) {
	body, _ := json.Marshal(map[string]any{
		"patient_id":   patientID.String(),
		"provider_id":  providerID.String(),
		"scheduled_at": instant.Format(time.RFC3339),
	})

	resp, err := http.Post(baseURL+"/appointments", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, ""
	}

	var errResp struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	return resp.StatusCode, errResp.Error
}

func nextMonday(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Monday || !day.After(t) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
