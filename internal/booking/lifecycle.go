package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/notify"
	"github.com/codr1/campusbook/internal/slot"
)

// Cancel moves a PENDING or CONFIRMED booking to CANCELLED and, in the same
// transaction, promotes the head of the waitlist for its facility, date and
// start time.
func (s *Service) Cancel(ctx context.Context, actor Actor, id int64) (Booking, error) {
	var (
		cancelled Booking
		promoted  *Booking
	)
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		b, err := loadBooking(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if !actor.owns(b.UserID) && !actor.IsAdmin() {
			return newError(KindUnauthorized, "You are not authorised to cancel this booking.")
		}
		switch {
		case b.Status == StatusCancelled:
			return newError(KindInvalidTransition, "Booking is already cancelled.")
		case b.Status == StatusCompleted:
			return newError(KindInvalidTransition, "Cannot cancel a completed booking.")
		case !b.Status.can(eventCancel):
			return newError(KindInvalidTransition, "Cannot cancel a %s booking.", b.Status)
		}

		if err := transition(ctx, tx.Queries, b, StatusCancelled, s.clock()); err != nil {
			return err
		}
		if cancelled, err = loadBooking(ctx, tx.Queries, id); err != nil {
			return err
		}
		promoted, err = s.promoteHead(ctx, tx.Queries, cancelled)
		return err
	})
	if err != nil {
		return Booking{}, err
	}

	facilityName := s.facilityName(ctx, cancelled.FacilityID)
	outbox := []notify.Notification{cancelledNotice(cancelled, facilityName)}
	if promoted != nil {
		outbox = append(outbox, promotedNotice(*promoted, facilityName))
		log.Ctx(ctx).Info().
			Int64("cancelled_booking_id", cancelled.ID).
			Int64("promoted_booking_id", promoted.ID).
			Int64("user_id", promoted.UserID).
			Msg("Waitlist entry promoted")
	}
	s.send(ctx, outbox)
	return cancelled, nil
}

// CheckIn stamps the check-in time and moves CONFIRMED to ACTIVE.
func (s *Service) CheckIn(ctx context.Context, actor Actor, id int64) (Booking, error) {
	if !actor.CanOperateDesk() {
		return Booking{}, newError(KindUnauthorized, "Only administrators and security can check in bookings.")
	}
	var checkedIn Booking
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		b, err := loadBooking(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if !b.Status.can(eventCheckIn) {
			return newError(KindInvalidTransition, "Only CONFIRMED bookings can be checked in.")
		}
		affected, err := tx.Queries.CheckInBooking(ctx, dbq.CheckInBookingParams{ID: id, CheckInTime: s.clock()})
		if err != nil {
			return fmt.Errorf("check in booking %d: %w", id, err)
		}
		if affected == 0 {
			return newError(KindInvalidTransition, "Only CONFIRMED bookings can be checked in.")
		}
		checkedIn, err = loadBooking(ctx, tx.Queries, id)
		return err
	})
	return checkedIn, err
}

// CheckOut requires a recorded check-in and moves ACTIVE to COMPLETED. A
// checked-in session the expiry job already closed can still be checked out.
func (s *Service) CheckOut(ctx context.Context, actor Actor, id int64) (Booking, error) {
	if !actor.CanOperateDesk() {
		return Booking{}, newError(KindUnauthorized, "Only administrators and security can check out bookings.")
	}
	var checkedOut Booking
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		b, err := loadBooking(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if b.CheckInTime == nil {
			return newError(KindNotCheckedIn, "Cannot check out, no check-in recorded.")
		}
		if !b.Status.can(eventCheckOut) {
			return newError(KindInvalidTransition, "Only checked-in bookings can be checked out. Current status: %s", b.Status)
		}
		affected, err := tx.Queries.CheckOutBooking(ctx, dbq.CheckOutBookingParams{ID: id, CheckOutTime: s.clock()})
		if err != nil {
			return fmt.Errorf("check out booking %d: %w", id, err)
		}
		if affected == 0 {
			return newError(KindInvalidTransition, "Only checked-in bookings can be checked out. Current status: %s", b.Status)
		}
		checkedOut, err = loadBooking(ctx, tx.Queries, id)
		return err
	})
	return checkedOut, err
}

// Extend adds one slot length to a CONFIRMED or ACTIVE booking. The new tail
// must stay inside operating hours and must not overlap another booking.
func (s *Service) Extend(ctx context.Context, actor Actor, id int64) (Booking, error) {
	var (
		extended     Booking
		facilityName string
	)
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		b, err := loadBooking(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if !actor.owns(b.UserID) && !actor.IsAdmin() {
			return newError(KindUnauthorized, "You are not authorised to extend this booking.")
		}
		if !b.Status.can(eventExtend) {
			return newError(KindInvalidTransition,
				"Only confirmed or active bookings can be extended. Current status: %s", b.Status)
		}
		if b.ExtensionCount >= b.MaxExtensions {
			return newError(KindMaxExtensionsReached, "Maximum extensions (%d) reached for this booking.", b.MaxExtensions)
		}

		facility, err := s.facility(ctx, b.FacilityID)
		if err != nil {
			return err
		}
		facilityName = facility.Name
		tail := slot.Window{Start: b.EndTime, End: b.EndTime.Add(slot.Length)}
		if tail.End > facility.ClosingTime {
			return newError(KindOutsideOperatingHours,
				"Cannot extend past closing time %s.", facility.ClosingTime)
		}
		if err := checkSlotFree(ctx, tx.Queries, b.FacilityID, b.Date, tail, b.ID); err != nil {
			return err
		}

		affected, err := tx.Queries.ExtendBooking(ctx, dbq.ExtendBookingParams{
			ID:             b.ID,
			EndTime:        tail.End.String(),
			ExtensionCount: int64(b.ExtensionCount),
			UpdatedAt:      s.clock(),
		})
		if err != nil {
			return fmt.Errorf("extend booking %d: %w", id, err)
		}
		if affected == 0 {
			return newError(KindMaxExtensionsReached, "Maximum extensions (%d) reached for this booking.", b.MaxExtensions)
		}
		extended, err = loadBooking(ctx, tx.Queries, id)
		return err
	})
	if err != nil {
		return Booking{}, err
	}

	s.send(ctx, []notify.Notification{extendedNotice(extended, facilityName)})
	return extended, nil
}

// transition performs a guarded status change. It fails when the booking
// left its current status after it was read.
func transition(ctx context.Context, q *dbq.Queries, b Booking, to Status, at time.Time) error {
	affected, err := q.TransitionBookingStatus(ctx, dbq.TransitionBookingStatusParams{
		ID:        b.ID,
		From:      string(b.Status),
		To:        string(to),
		UpdatedAt: at,
	})
	if err != nil {
		return fmt.Errorf("transition booking %d to %s: %w", b.ID, to, err)
	}
	if affected == 0 {
		return newError(KindInvalidTransition, "Booking %d is no longer %s.", b.ID, b.Status)
	}
	return nil
}
