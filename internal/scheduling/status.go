// Package scheduling holds the booking rules: the appointment status
// lifecycle and the exact-instant double-booking rule.
//
// An appointment always starts out pending. Any transition between known
// statuses is permitted, including moving out of cancelled; only the status
// values themselves are validated. Changing status never re-runs the
// double-booking check, so un-cancelling a slot can coexist with a later
// booking at the same instant.
package scheduling

import (
	"errors"
	"time"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

var ErrUnknownStatus = errors.New("unknown appointment status")

// ParseStatus validates a raw status value against the closed set.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return Status(raw), nil
	default:
		return "", ErrUnknownStatus
	}
}

// Blocks reports whether an appointment in this status occupies its time
// slot for double-booking purposes. Cancelled appointments never block.
func (s Status) Blocks() bool {
	return s != StatusCancelled
}

// Booking is the slice of an appointment the conflict rule looks at.
type Booking struct {
	Date   time.Time
	Status Status
}

// Conflicts reports whether a requested instant collides with any existing
// booking for the same user. Equality is exact; appointments have no
// duration, so overlapping-but-distinct instants never conflict.
func Conflicts(requested time.Time, existing []Booking) bool {
	for _, b := range existing {
		if b.Status.Blocks() && b.Date.Equal(requested) {
			return true
		}
	}
	return false
}
