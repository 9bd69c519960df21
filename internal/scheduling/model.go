package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// SlotDuration is the fixed length of every appointment. Two bookings for the
// same provider conflict when their instants are closer than this.
const SlotDuration = 30 * time.Minute

type WindowKind string

const (
	KindSpecific  WindowKind = "specific"
	KindRecurring WindowKind = "recurring"
	KindBlocked   WindowKind = "blocked"
)

type Provider struct {
	ID              uuid.UUID
	FullName        string
	Specialty       *string
	ConsultationFee float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Patient struct {
	ID        uuid.UUID
	FullName  string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilityWindow is offered (or withheld, for blocked) provider time.
//
// Specific and blocked windows use StartAt/EndAt as an absolute UTC interval.
// Recurring windows use only the clock component of StartAt/EndAt as daily
// bounds, applied on every flagged weekday between RecurrenceStart and
// RecurrenceEnd (dates, inclusive).
type AvailabilityWindow struct {
	ID              uuid.UUID
	ProviderID      uuid.UUID
	Kind            WindowKind
	StartAt         time.Time
	EndAt           time.Time
	DaysOfWeek      WeekdaySet
	RecurrenceStart *time.Time
	RecurrenceEnd   *time.Time
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	ProviderID      uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	PaymentRef      *uuid.UUID
	CallLink        *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EventLog rows are the engine's post-commit feed for the notification layer.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
