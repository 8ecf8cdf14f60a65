package booking

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/db"
)

// Purge physically removes a booking. Back-references are severed first, in
// fixed order, inside one transaction: notifications keep their text but lose
// the booking link, approval history is deleted, then the booking row.
func (s *Service) Purge(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin() {
		return newError(KindUnauthorized, "Only administrators can delete bookings.")
	}
	var detached, approvals int64
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		if _, err := loadBooking(ctx, tx.Queries, id); err != nil {
			return err
		}
		var err error
		if detached, err = tx.Queries.ClearNotificationBooking(ctx, id); err != nil {
			return fmt.Errorf("detach notifications from booking %d: %w", id, err)
		}
		if approvals, err = tx.Queries.DeleteApprovalsByBooking(ctx, id); err != nil {
			return fmt.Errorf("delete approvals of booking %d: %w", id, err)
		}
		affected, err := tx.Queries.DeleteBooking(ctx, id)
		if err != nil {
			return fmt.Errorf("delete booking %d: %w", id, err)
		}
		if affected == 0 {
			return newError(KindNotFound, "Booking not found with id: %d", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Int64("booking_id", id).
		Int64("admin_id", actor.UserID).
		Int64("notifications_detached", detached).
		Int64("approvals_deleted", approvals).
		Msg("Booking purged")
	return nil
}
