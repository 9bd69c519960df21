package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilink/scheduling/internal/config"
)

// keyedLocker serializes critical sections per provider with plain mutexes,
// standing in for the Redis locker.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *keyedLocker) WithProviderLock(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[providerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[providerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

type fixture struct {
	svc        *Service
	repo       *MemoryRepository
	providerID uuid.UUID
	patientID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := NewMemoryRepository()
	providerID := uuid.New()
	patientID := uuid.New()
	repo.AddProvider(Provider{ID: providerID, FullName: "Dr. Reyes"})
	repo.AddPatient(Patient{ID: patientID, FullName: "Ana Castillo"})

	cfg := config.Config{WindowRetention: 30 * 24 * time.Hour}
	svc := NewService(repo, newKeyedLocker(), cfg, zerolog.Nop())

	return &fixture{svc: svc, repo: repo, providerID: providerID, patientID: patientID}
}

// addAllWeekWindow gives the provider a recurring window on every weekday of
// 2024, 09:00-17:00 UTC.
func (f *fixture) addAllWeekWindow(t *testing.T) {
	t.Helper()

	days, err := ParseWeekdaySet(map[string]bool{
		"monday": true, "tuesday": true, "wednesday": true,
		"thursday": true, "friday": true, "saturday": true, "sunday": true,
	})
	if err != nil {
		t.Fatalf("parse weekday set: %v", err)
	}

	_, err = f.svc.CreateWindow(context.Background(), AvailabilityWindow{
		ProviderID:      f.providerID,
		Kind:            KindRecurring,
		StartAt:         clock(9, 0),
		EndAt:           clock(17, 0),
		DaysOfWeek:      days,
		RecurrenceStart: datePtr(2024, 1, 1),
		RecurrenceEnd:   datePtr(2024, 12, 31),
	})
	if err != nil {
		t.Fatalf("create window: %v", err)
	}
}
