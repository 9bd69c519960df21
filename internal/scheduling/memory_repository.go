package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs the unit
// tests and local development without Postgres; the conflict and uniqueness
// behavior mirrors the SQL implementation.
type MemoryRepository struct {
	mu           sync.Mutex
	providers    map[uuid.UUID]Provider
	patients     map[uuid.UUID]Patient
	payments     map[uuid.UUID]struct{}
	windows      map[uuid.UUID]AvailabilityWindow
	appointments map[uuid.UUID]Appointment
	events       []EventLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		providers:    make(map[uuid.UUID]Provider),
		patients:     make(map[uuid.UUID]Patient),
		payments:     make(map[uuid.UUID]struct{}),
		windows:      make(map[uuid.UUID]AvailabilityWindow),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

// Fixture helpers, not part of the Repository interface.

func (r *MemoryRepository) AddProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID] = p
}

func (r *MemoryRepository) AddPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = p
}

func (r *MemoryRepository) AddPayment(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[id] = struct{}{}
}

func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}

// Repository interface

func (r *MemoryRepository) ProviderExists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.providers[id]
	return ok, nil
}

func (r *MemoryRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.patients[id]
	return ok, nil
}

func (r *MemoryRepository) PaymentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.payments[id]
	return ok, nil
}

func (r *MemoryRepository) CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *w
	stored.ID = uuid.New()
	stored.Active = true
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.windows[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok {
		return nil, ErrWindowNotFound
	}
	return &w, nil
}

func (r *MemoryRepository) UpdateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.windows[w.ID]
	if !ok {
		return nil, ErrWindowNotFound
	}
	stored.Kind = w.Kind
	stored.StartAt = w.StartAt
	stored.EndAt = w.EndAt
	stored.DaysOfWeek = w.DaysOfWeek
	stored.RecurrenceStart = w.RecurrenceStart
	stored.RecurrenceEnd = w.RecurrenceEnd
	stored.UpdatedAt = time.Now().UTC()
	r.windows[w.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) DeactivateWindow(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok {
		return ErrWindowNotFound
	}
	w.Active = false
	w.UpdatedAt = time.Now().UTC()
	r.windows[id] = w
	return nil
}

func (r *MemoryRepository) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[id]; !ok {
		return ErrWindowNotFound
	}
	delete(r.windows, id)
	return nil
}

func (r *MemoryRepository) ListActiveWindows(ctx context.Context, providerID uuid.UUID) ([]AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []AvailabilityWindow
	for _, w := range r.windows {
		if w.ProviderID == providerID && w.Active {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result, nil
}

func (r *MemoryRepository) DeleteWindowsDeactivatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, w := range r.windows {
		if !w.Active && w.UpdatedAt.Before(cutoff) {
			delete(r.windows, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.appointments {
		if other.ProviderID == a.ProviderID && other.ScheduledAt.Equal(a.ScheduledAt) {
			return nil, ErrSlotTaken
		}
	}

	stored := *a
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.appointments[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.appointments[a.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	for _, other := range r.appointments {
		if other.ID != a.ID && other.ProviderID == a.ProviderID && other.ScheduledAt.Equal(a.ScheduledAt) {
			return nil, ErrSlotTaken
		}
	}
	stored.ScheduledAt = a.ScheduledAt
	stored.PaymentRef = a.PaymentRef
	stored.CallLink = a.CallLink
	stored.UpdatedAt = time.Now().UTC()
	r.appointments[a.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *MemoryRepository) ListAppointmentsBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.ProviderID == providerID && a.ScheduledAt.After(from) && a.ScheduledAt.Before(to) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

func (r *MemoryRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.After(result[j].ScheduledAt) })
	return page(result, limit, offset), nil
}

func (r *MemoryRepository) ListAppointmentsByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.ProviderID == providerID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.After(result[j].ScheduledAt) })
	return page(result, limit, offset), nil
}

func (r *MemoryRepository) NextAppointmentForPatient(ctx context.Context, patientID uuid.UUID, after time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var next *Appointment
	for _, a := range r.appointments {
		if a.PatientID != patientID || !a.ScheduledAt.After(after) {
			continue
		}
		if next == nil || a.ScheduledAt.Before(next.ScheduledAt) {
			copied := a
			next = &copied
		}
	}
	if next == nil {
		return nil, ErrAppointmentNotFound
	}
	return next, nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

func page(items []Appointment, limit, offset int) []Appointment {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
