package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrProviderNotFound    = errors.New("provider not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrPaymentNotFound     = errors.New("payment record not found")
	ErrWindowNotFound      = errors.New("availability window not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrNotOffered means the instant is outside every active availability
	// window for the provider. A business rejection, not a fault.
	ErrNotOffered = errors.New("provider has no availability at this time")

	// ErrSlotTaken means another appointment already occupies an overlapping
	// slot, including the race caught by the storage-level unique index.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrProviderBusy means the per-provider lock could not be acquired.
	// Unlike ErrSlotTaken, the caller may retry the same instant shortly.
	ErrProviderBusy = errors.New("provider is being booked, please retry")

	// ErrStorageUnavailable classifies timeouts and connection failures, the
	// only class eligible for caller-side retry with backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError rejects malformed input before persistence is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
