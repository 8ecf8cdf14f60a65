// Package notify carries booking notifications from the core to users. Delivery
// is best effort: the core hands a Notification to a Sink after its transaction
// commits and never waits for, or learns about, the outcome.
package notify

import (
	"context"
	"time"
)

type Type string

const (
	TypeBookingConfirmed Type = "BOOKING_CONFIRMED"
	TypeBookingPending   Type = "BOOKING_PENDING"
	TypeBookingRejected  Type = "BOOKING_REJECTED"
	TypeBookingCancelled Type = "BOOKING_CANCELLED"
	TypeBookingExtended  Type = "BOOKING_EXTENDED"
	TypeBookingExpired   Type = "BOOKING_EXPIRED"
	TypeBookingReminder  Type = "BOOKING_REMINDER"
	TypeWaitlistPromoted Type = "WAITLIST_PROMOTED"
)

type Notification struct {
	UserID    int64     `json:"userId"`
	BookingID *int64    `json:"bookingId,omitempty"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier delivers a notification over one channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Sink accepts notifications without blocking the caller.
type Sink interface {
	Send(ctx context.Context, n Notification)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Send(context.Context, Notification) {}
