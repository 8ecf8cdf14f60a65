package booking

import (
	"errors"
	"fmt"
)

// Kind classifies a booking failure. Callers branch on Kind, never on Message.
type Kind string

const (
	KindFacilityUnavailable   Kind = "FACILITY_UNAVAILABLE"
	KindInvalidWindow         Kind = "INVALID_WINDOW"
	KindOutsideOperatingHours Kind = "OUTSIDE_OPERATING_HOURS"
	KindDurationTooShort      Kind = "DURATION_TOO_SHORT"
	KindCapacityExceeded      Kind = "CAPACITY_EXCEEDED"
	KindUnderMaintenance      Kind = "UNDER_MAINTENANCE"
	KindSlotConflict          Kind = "SLOT_CONFLICT"
	KindInvalidTransition     Kind = "INVALID_TRANSITION"
	KindMaxExtensionsReached  Kind = "MAX_EXTENSIONS_REACHED"
	KindNotCheckedIn          Kind = "NOT_CHECKED_IN"
	KindAlreadyWaitlisted     Kind = "ALREADY_WAITLISTED"
	KindUnauthorized          Kind = "UNAUTHORIZED"
	KindNotFound              Kind = "NOT_FOUND"
	KindValidation            Kind = "VALIDATION"
)

// Error is a client-facing failure from the booking core. Message is safe to
// show to the caller.
type Error struct {
	Kind    Kind
	Message string
	// Fields is set for KindValidation only.
	Fields map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Kind so sentinels such as ErrSlotConflict work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrFacilityUnavailable   = &Error{Kind: KindFacilityUnavailable}
	ErrInvalidWindow         = &Error{Kind: KindInvalidWindow}
	ErrOutsideOperatingHours = &Error{Kind: KindOutsideOperatingHours}
	ErrDurationTooShort      = &Error{Kind: KindDurationTooShort}
	ErrCapacityExceeded      = &Error{Kind: KindCapacityExceeded}
	ErrUnderMaintenance      = &Error{Kind: KindUnderMaintenance}
	ErrSlotConflict          = &Error{Kind: KindSlotConflict}
	ErrInvalidTransition     = &Error{Kind: KindInvalidTransition}
	ErrMaxExtensionsReached  = &Error{Kind: KindMaxExtensionsReached}
	ErrNotCheckedIn          = &Error{Kind: KindNotCheckedIn}
	ErrAlreadyWaitlisted     = &Error{Kind: KindAlreadyWaitlisted}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrValidation            = &Error{Kind: KindValidation}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// is not a booking error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
