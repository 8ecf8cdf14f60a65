package booking

import (
	"fmt"
	"time"

	"github.com/codr1/campusbook/internal/notify"
)

func notice(b Booking, typ notify.Type, title, message string) notify.Notification {
	id := b.ID
	return notify.Notification{
		UserID:    b.UserID,
		BookingID: &id,
		Type:      typ,
		Title:     title,
		Message:   message,
	}
}

func confirmedNotice(b Booking, facility string) notify.Notification {
	return notice(b, notify.TypeBookingConfirmed, "Booking Confirmed",
		fmt.Sprintf("Your booking for %s on %s is confirmed!", facility, b.Date))
}

func pendingNotice(b Booking, facility string) notify.Notification {
	return notice(b, notify.TypeBookingPending, "Booking Submitted",
		fmt.Sprintf("Your booking for %s on %s is awaiting approval.", facility, b.Date))
}

func approvedNotice(b Booking, facility, remarks string) notify.Notification {
	msg := fmt.Sprintf("Your booking for %s on %s has been approved.", facility, b.Date)
	if remarks != "" {
		msg += " Note: " + remarks
	}
	return notice(b, notify.TypeBookingConfirmed, "Booking Approved!", msg)
}

func rejectedNotice(b Booking, facility, remarks string) notify.Notification {
	msg := fmt.Sprintf("Unfortunately, your booking for %s on %s was not approved.", facility, b.Date)
	if remarks != "" {
		msg += " Reason: " + remarks
	}
	return notice(b, notify.TypeBookingRejected, "Booking Rejected", msg)
}

func cancelledNotice(b Booking, facility string) notify.Notification {
	return notice(b, notify.TypeBookingCancelled, "Booking Cancelled",
		fmt.Sprintf("Your booking for %s on %s has been cancelled.", facility, b.Date))
}

func promotedNotice(b Booking, facility string) notify.Notification {
	return notice(b, notify.TypeWaitlistPromoted, "Waitlist Promotion!",
		fmt.Sprintf("Great news! A slot opened up for %s on %s. Your booking is now confirmed.", facility, b.Date))
}

func extendedNotice(b Booking, facility string) notify.Notification {
	return notice(b, notify.TypeBookingExtended, "Booking Extended",
		fmt.Sprintf("Your booking for %s has been extended by 30 minutes. New end time: %s. Extensions used: %d/%d",
			facility, b.EndTime, b.ExtensionCount, b.MaxExtensions))
}

func expiredNotice(b Booking, facility string) notify.Notification {
	return notice(b, notify.TypeBookingExpired, "Booking Expired",
		fmt.Sprintf("Your booking session for %s has expired. Total extensions used: %d", facility, b.ExtensionCount))
}

func reminderNotice(b Booking, facility string, lead time.Duration) notify.Notification {
	return notice(b, notify.TypeBookingReminder, "Booking Expiring Soon",
		fmt.Sprintf("Your booking for %s expires in %d minutes. You can extend it if you need more time.",
			facility, int(lead/time.Minute)))
}
