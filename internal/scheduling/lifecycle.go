package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateWindow validates and persists a new availability window, returning
// the stored row.
func (s *Service) CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	ok, err := s.repo.ProviderExists(ctx, w.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("check provider: %w", err)
	}
	if !ok {
		return nil, ErrProviderNotFound
	}

	normalizeWindow(&w)
	if err := validateWindow(&w); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateWindow(ctx, &w)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	return created, nil
}

// WindowUpdate is a partial window update. Nil fields keep their current
// value; any bound change re-validates the whole window as if created anew.
type WindowUpdate struct {
	StartAt         *time.Time
	EndAt           *time.Time
	DaysOfWeek      *WeekdaySet
	RecurrenceStart *time.Time
	RecurrenceEnd   *time.Time
}

func (s *Service) UpdateWindow(ctx context.Context, id uuid.UUID, upd WindowUpdate) (*AvailabilityWindow, error) {
	w, err := s.repo.GetWindowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.StartAt != nil {
		w.StartAt = *upd.StartAt
	}
	if upd.EndAt != nil {
		w.EndAt = *upd.EndAt
	}
	if upd.DaysOfWeek != nil {
		w.DaysOfWeek = *upd.DaysOfWeek
	}
	if upd.RecurrenceStart != nil {
		w.RecurrenceStart = upd.RecurrenceStart
	}
	if upd.RecurrenceEnd != nil {
		w.RecurrenceEnd = upd.RecurrenceEnd
	}

	normalizeWindow(w)
	if err := validateWindow(w); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateWindow(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("update window: %w", err)
	}
	return updated, nil
}

// DeactivateWindow soft-deletes the window. Appointments already booked
// through it remain valid; the resolver simply stops considering it.
func (s *Service) DeactivateWindow(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateWindow(ctx, id)
}

// PurgeWindow physically removes the row. Administrative path for erroneous
// entries; appointments never reference windows so the delete is safe.
func (s *Service) PurgeWindow(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteWindow(ctx, id)
}

func (s *Service) ListActiveWindows(ctx context.Context, providerID uuid.UUID) ([]AvailabilityWindow, error) {
	ok, err := s.repo.ProviderExists(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("check provider: %w", err)
	}
	if !ok {
		return nil, ErrProviderNotFound
	}
	return s.repo.ListActiveWindows(ctx, providerID)
}

// ReapDeactivatedWindows hard-deletes windows that have been inactive longer
// than the retention period. Called periodically by the window reaper.
func (s *Service) ReapDeactivatedWindows(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.WindowRetention)
	n, err := s.repo.DeleteWindowsDeactivatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reap deactivated windows: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("purged deactivated windows")
	}
	return n, nil
}
