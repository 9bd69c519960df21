package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow
	var daysRaw []byte

	err := row.Scan(
		&w.ID,
		&w.ProviderID,
		&w.Kind,
		&w.StartAt,
		&w.EndAt,
		&daysRaw,
		&w.RecurrenceStart,
		&w.RecurrenceEnd,
		&w.Active,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, classifyStorageErr(err)
	}

	if len(daysRaw) > 0 {
		var names map[string]bool
		if err := json.Unmarshal(daysRaw, &names); err != nil {
			return nil, fmt.Errorf("decode days_of_week: %w", err)
		}
		set, err := ParseWeekdaySet(names)
		if err != nil {
			return nil, fmt.Errorf("decode days_of_week: %w", err)
		}
		w.DaysOfWeek = set
	}

	w.StartAt = w.StartAt.UTC()
	w.EndAt = w.EndAt.UTC()
	return &w, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProviderID,
		&a.ScheduledAt,
		&a.DurationMinutes,
		&a.PaymentRef,
		&a.CallLink,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, classifyStorageErr(err)
	}

	a.ScheduledAt = a.ScheduledAt.UTC()
	return &a, nil
}

func daysJSON(w *AvailabilityWindow) ([]byte, error) {
	if w.Kind != KindRecurring {
		return nil, nil
	}
	return json.Marshal(w.DaysOfWeek.Names())
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// classifyStorageErr folds timeouts and connection failures into
// ErrStorageUnavailable so callers can tell retryable faults apart from
// business rejections.
func classifyStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}

// Existence checks

func (r *PgRepository) ProviderExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM providers WHERE id = $1)`, id)
}

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id)
}

func (r *PgRepository) PaymentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id)
}

func (r *PgRepository) exists(ctx context.Context, query string, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, classifyStorageErr(err)
	}
	return ok, nil
}

// Availability windows

func (r *PgRepository) CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	days, err := daysJSON(w)
	if err != nil {
		return nil, fmt.Errorf("encode days_of_week: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_windows
			(id, provider_id, kind, start_at, end_at, days_of_week, recurrence_start, recurrence_end, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, now(), now())
		RETURNING id, provider_id, kind, start_at, end_at, days_of_week, recurrence_start, recurrence_end, active, created_at, updated_at
	`, uuid.New(), w.ProviderID, w.Kind, w.StartAt, w.EndAt, days, w.RecurrenceStart, w.RecurrenceEnd)

	return scanWindow(row)
}

func (r *PgRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, provider_id, kind, start_at, end_at, days_of_week, recurrence_start, recurrence_end, active, created_at, updated_at
		FROM availability_windows
		WHERE id = $1
	`, id)
	return scanWindow(row)
}

func (r *PgRepository) UpdateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	days, err := daysJSON(w)
	if err != nil {
		return nil, fmt.Errorf("encode days_of_week: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE availability_windows
		SET kind = $2,
		    start_at = $3,
		    end_at = $4,
		    days_of_week = $5,
		    recurrence_start = $6,
		    recurrence_end = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, provider_id, kind, start_at, end_at, days_of_week, recurrence_start, recurrence_end, active, created_at, updated_at
	`, w.ID, w.Kind, w.StartAt, w.EndAt, days, w.RecurrenceStart, w.RecurrenceEnd)

	return scanWindow(row)
}

func (r *PgRepository) DeactivateWindow(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_windows
		SET active = FALSE,
		    updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return classifyStorageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return classifyStorageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) ListActiveWindows(ctx context.Context, providerID uuid.UUID) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, kind, start_at, end_at, days_of_week, recurrence_start, recurrence_end, active, created_at, updated_at
		FROM availability_windows
		WHERE provider_id = $1 AND active
		ORDER BY start_at ASC
	`, providerID)
	if err != nil {
		return nil, classifyStorageErr(err)
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyStorageErr(err)
	}

	return result, nil
}

func (r *PgRepository) DeleteWindowsDeactivatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_windows
		WHERE NOT active AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, classifyStorageErr(err)
	}
	return tag.RowsAffected(), nil
}

// Appointments

func (r *PgRepository) InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, provider_id, scheduled_at, duration_minutes, payment_ref, call_link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, patient_id, provider_id, scheduled_at, duration_minutes, payment_ref, call_link, created_at, updated_at
	`, uuid.New(), a.PatientID, a.ProviderID, a.ScheduledAt, a.DurationMinutes, a.PaymentRef, a.CallLink)

	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, provider_id, scheduled_at, duration_minutes, payment_ref, call_link, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET scheduled_at = $2,
		    payment_ref = $3,
		    call_link = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, provider_id, scheduled_at, duration_minutes, payment_ref, call_link, created_at, updated_at
	`, a.ID, a.ScheduledAt, a.PaymentRef, a.CallLink)

	updated, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return classifyStorageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) ListAppointmentsBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, provider_id, scheduled_at, duration_minutes, payment_ref, call_link, created_at, updated_at
		FROM appointments
		WHERE provider_id = $1 AND scheduled_at > $2 AND scheduled_at < $3
		ORDER BY scheduled_at ASC
	`, providerID, from, to)
	if err != nil {
		return nil, classifyStorageErr(err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, provider_id, scheduled_at, duration_minutes, payment_ref, call_link, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, classifyStorageErr(err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListAppointmentsByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, provider_id, scheduled_at, duration_minutes, payment_ref, call_link, created_at, updated_at
		FROM appointments
		WHERE provider_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`, providerID, limit, offset)
	if err != nil {
		return nil, classifyStorageErr(err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) NextAppointmentForPatient(ctx context.Context, patientID uuid.UUID, after time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, provider_id, scheduled_at, duration_minutes, payment_ref, call_link, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1 AND scheduled_at > $2
		ORDER BY scheduled_at ASC
		LIMIT 1
	`, patientID, after)
	return scanAppointment(row)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyStorageErr(err)
	}

	return result, nil
}

// Event logging

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
