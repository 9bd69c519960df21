package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medilink/scheduling/internal/scheduling"
)

type CreateWindowRequest struct {
	ProviderID string `json:"provider_id" validate:"required,uuid"`
	Kind       string `json:"kind" validate:"required,oneof=specific recurring blocked"`

	// specific / blocked
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	// recurring
	DaysOfWeek      map[string]bool `json:"days_of_week,omitempty"`
	RecurrenceStart *string         `json:"recurrence_start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RecurrenceEnd   *string         `json:"recurrence_end,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DailyStart      *string         `json:"daily_start,omitempty" validate:"omitempty,datetime=15:04"`
	DailyEnd        *string         `json:"daily_end,omitempty" validate:"omitempty,datetime=15:04"`
}

type UpdateWindowRequest struct {
	StartAt         *time.Time      `json:"start_at,omitempty"`
	EndAt           *time.Time      `json:"end_at,omitempty"`
	DaysOfWeek      map[string]bool `json:"days_of_week,omitempty"`
	RecurrenceStart *string         `json:"recurrence_start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RecurrenceEnd   *string         `json:"recurrence_end,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DailyStart      *string         `json:"daily_start,omitempty" validate:"omitempty,datetime=15:04"`
	DailyEnd        *string         `json:"daily_end,omitempty" validate:"omitempty,datetime=15:04"`
}

type WindowResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProviderID      uuid.UUID       `json:"provider_id"`
	Kind            string          `json:"kind"`
	StartAt         time.Time       `json:"start_at"`
	EndAt           time.Time       `json:"end_at"`
	DaysOfWeek      map[string]bool `json:"days_of_week,omitempty"`
	RecurrenceStart *time.Time      `json:"recurrence_start,omitempty"`
	RecurrenceEnd   *time.Time      `json:"recurrence_end,omitempty"`
	Active          bool            `json:"active"`
}

func toWindowResponse(w *scheduling.AvailabilityWindow) WindowResponse {
	resp := WindowResponse{
		ID:              w.ID,
		ProviderID:      w.ProviderID,
		Kind:            string(w.Kind),
		StartAt:         w.StartAt,
		EndAt:           w.EndAt,
		RecurrenceStart: w.RecurrenceStart,
		RecurrenceEnd:   w.RecurrenceEnd,
		Active:          w.Active,
	}
	if w.Kind == scheduling.KindRecurring {
		resp.DaysOfWeek = w.DaysOfWeek.Names()
	}
	return resp
}

type BookAppointmentRequest struct {
	PatientID   string     `json:"patient_id" validate:"required,uuid"`
	ProviderID  string     `json:"provider_id" validate:"required,uuid"`
	ScheduledAt *time.Time `json:"scheduled_at" validate:"required"`
	PaymentRef  *string    `json:"payment_ref,omitempty" validate:"omitempty,uuid"`
	CallLink    *string    `json:"call_link,omitempty" validate:"omitempty,url"`
}

type RescheduleAppointmentRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PaymentRef  *string    `json:"payment_ref,omitempty" validate:"omitempty,uuid"`
	CallLink    *string    `json:"call_link,omitempty" validate:"omitempty,url"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	ProviderID      uuid.UUID  `json:"provider_id"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	PaymentRef      *uuid.UUID `json:"payment_ref,omitempty"`
	CallLink        *string    `json:"call_link,omitempty"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		ProviderID:      a.ProviderID,
		ScheduledAt:     a.ScheduledAt,
		DurationMinutes: a.DurationMinutes,
		PaymentRef:      a.PaymentRef,
		CallLink:        a.CallLink,
	}
}

type AvailableSlotsResponse struct {
	ProviderID uuid.UUID   `json:"provider_id"`
	From       time.Time   `json:"from"`
	To         time.Time   `json:"to"`
	Slots      []time.Time `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
