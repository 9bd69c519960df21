package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilink/scheduling/internal/config"
	redisclient "github.com/medilink/scheduling/internal/redis"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
	}
}

// BookingRequest carries everything needed to commit a new appointment.
type BookingRequest struct {
	PatientID   uuid.UUID
	ProviderID  uuid.UUID
	ScheduledAt time.Time
	PaymentRef  *uuid.UUID
	CallLink    *string
}

// Book commits a new appointment: validate references, check the instant is
// offered, check it is free, insert. The availability check, conflict check
// and insert run under the per-provider lock so that two concurrent requests
// for overlapping instants cannot both pass the checks. The unique index on
// (provider_id, scheduled_at) backstops the residual exact-instant race.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.ScheduledAt.IsZero() {
		return nil, newValidationError("scheduled_at", "a well-formed timestamp is required")
	}
	instant := req.ScheduledAt.UTC()

	if err := s.checkReferences(ctx, req.PatientID, req.ProviderID, req.PaymentRef); err != nil {
		return nil, err
	}

	var created *Appointment

	err := s.locker.WithProviderLock(ctx, req.ProviderID, func(lockCtx context.Context) error {
		if err := s.checkBookable(lockCtx, req.ProviderID, instant, uuid.Nil); err != nil {
			return err
		}

		appt, err := s.repo.InsertAppointment(lockCtx, &Appointment{
			PatientID:       req.PatientID,
			ProviderID:      req.ProviderID,
			ScheduledAt:     instant,
			DurationMinutes: int(SlotDuration / time.Minute),
			PaymentRef:      req.PaymentRef,
			CallLink:        req.CallLink,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"provider_id":  req.ProviderID.String(),
			"patient_id":   req.PatientID.String(),
			"scheduled_at": instant,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	return created, nil
}

// RescheduleRequest is a partial appointment update. Nil fields keep their
// current value.
type RescheduleRequest struct {
	ScheduledAt *time.Time
	PaymentRef  *uuid.UUID
	CallLink    *string
}

// Reschedule re-runs the full availability and conflict checks against the
// new instant. The appointment's own row is excluded from the conflict scan
// so moving within a slot width of the old instant is not a self-conflict.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req RescheduleRequest) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PaymentRef != nil {
		ok, err := s.repo.PaymentExists(ctx, *req.PaymentRef)
		if err != nil {
			return nil, fmt.Errorf("check payment: %w", err)
		}
		if !ok {
			return nil, ErrPaymentNotFound
		}
		appt.PaymentRef = req.PaymentRef
	}
	if req.CallLink != nil {
		appt.CallLink = req.CallLink
	}

	if req.ScheduledAt == nil || req.ScheduledAt.UTC().Equal(appt.ScheduledAt) {
		updated, err := s.repo.UpdateAppointment(ctx, appt)
		if err != nil {
			return nil, fmt.Errorf("update appointment: %w", err)
		}
		return updated, nil
	}

	instant := req.ScheduledAt.UTC()
	var updated *Appointment

	err = s.locker.WithProviderLock(ctx, appt.ProviderID, func(lockCtx context.Context) error {
		if err := s.checkBookable(lockCtx, appt.ProviderID, instant, appt.ID); err != nil {
			return err
		}

		appt.ScheduledAt = instant
		u, err := s.repo.UpdateAppointment(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		updated = u

		s.logEvent(lockCtx, u.ID, EventAppointmentRescheduled, map[string]any{
			"provider_id":  u.ProviderID.String(),
			"scheduled_at": instant,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	return updated, nil
}

// Cancel deletes the appointment, freeing its slot immediately.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return err
	}

	apptID := id
	s.logEvent(ctx, apptID, EventAppointmentCancelled, map[string]any{})
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	limit, offset = clampPage(limit, offset)
	return s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListAppointmentsByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]Appointment, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	limit, offset = clampPage(limit, offset)
	return s.repo.ListAppointmentsByProvider(ctx, providerID, limit, offset)
}

// NextAppointmentForPatient returns the patient's earliest upcoming
// appointment, or ErrAppointmentNotFound when there is none.
func (s *Service) NextAppointmentForPatient(ctx context.Context, patientID uuid.UUID) (*Appointment, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	return s.repo.NextAppointmentForPatient(ctx, patientID, time.Now().UTC())
}

// IsOfferedAt resolves whether the instant falls inside any active,
// non-blocked availability window for the provider.
func (s *Service) IsOfferedAt(ctx context.Context, providerID uuid.UUID, instant time.Time) (bool, error) {
	windows, err := s.repo.ListActiveWindows(ctx, providerID)
	if err != nil {
		return false, fmt.Errorf("load windows: %w", err)
	}
	return offeredAt(windows, instant.UTC()), nil
}

// HasConflict reports whether an existing appointment occupies a slot
// overlapping the candidate instant.
func (s *Service) HasConflict(ctx context.Context, providerID uuid.UUID, instant time.Time) (bool, error) {
	from, to := conflictRange(instant.UTC())
	existing, err := s.repo.ListAppointmentsBetween(ctx, providerID, from, to)
	if err != nil {
		return false, fmt.Errorf("load appointments: %w", err)
	}
	return conflictsWith(existing, instant.UTC(), uuid.Nil), nil
}

const maxSlotRange = 31 * 24 * time.Hour

// AvailableSlots samples the resolver over [from, to) at slot granularity and
// returns the instants that are both offered and free.
func (s *Service) AvailableSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return nil, newValidationError("range", "to must be after from")
	}
	if to.Sub(from) > maxSlotRange {
		return nil, newValidationError("range", "range must not exceed 31 days")
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	ok, err := s.repo.ProviderExists(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("check provider: %w", err)
	}
	if !ok {
		return nil, ErrProviderNotFound
	}

	windows, err := s.repo.ListActiveWindows(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("load windows: %w", err)
	}
	existing, err := s.repo.ListAppointmentsBetween(ctx, providerID, from.Add(-SlotDuration), to.Add(SlotDuration))
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	var slots []time.Time
	for t := from.Truncate(SlotDuration); t.Before(to); t = t.Add(SlotDuration) {
		if t.Before(from) {
			continue
		}
		if offeredAt(windows, t) && !conflictsWith(existing, t, uuid.Nil) {
			slots = append(slots, t)
		}
	}
	return slots, nil
}

// checkBookable runs the availability and conflict checks for one candidate
// instant. Call it inside the provider lock.
func (s *Service) checkBookable(ctx context.Context, providerID uuid.UUID, instant time.Time, exclude uuid.UUID) error {
	windows, err := s.repo.ListActiveWindows(ctx, providerID)
	if err != nil {
		return fmt.Errorf("load windows: %w", err)
	}
	if !offeredAt(windows, instant) {
		return ErrNotOffered
	}

	from, to := conflictRange(instant)
	existing, err := s.repo.ListAppointmentsBetween(ctx, providerID, from, to)
	if err != nil {
		return fmt.Errorf("load appointments: %w", err)
	}
	if conflictsWith(existing, instant, exclude) {
		return ErrSlotTaken
	}
	return nil
}

func (s *Service) checkReferences(ctx context.Context, patientID, providerID uuid.UUID, paymentRef *uuid.UUID) error {
	ok, err := s.repo.PatientExists(ctx, patientID)
	if err != nil {
		return fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return ErrPatientNotFound
	}

	ok, err = s.repo.ProviderExists(ctx, providerID)
	if err != nil {
		return fmt.Errorf("check provider: %w", err)
	}
	if !ok {
		return ErrProviderNotFound
	}

	if paymentRef != nil {
		ok, err = s.repo.PaymentExists(ctx, *paymentRef)
		if err != nil {
			return fmt.Errorf("check payment: %w", err)
		}
		if !ok {
			return ErrPaymentNotFound
		}
	}

	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}

// storageCtx bounds a read-only persistence round-trip. The booking critical
// section is bounded separately by the lock TTL.
func (s *Service) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StorageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.StorageTimeout)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
