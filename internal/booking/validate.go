package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/codr1/campusbook/internal/catalog"
	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/slot"
)

// validateProposal runs the facility checks for a proposed booking in their
// fixed order and stops at the first failure. The slot conflict check is
// separate because it must run inside the writing transaction.
func (s *Service) validateProposal(ctx context.Context, facilityID int64, date slot.Date, window slot.Window, attendees int) (catalog.Facility, error) {
	facility, err := s.facility(ctx, facilityID)
	if err != nil {
		return catalog.Facility{}, err
	}
	if !facility.IsAvailable {
		return catalog.Facility{}, newError(KindFacilityUnavailable, "Facility '%s' is currently unavailable.", facility.Name)
	}
	if err := checkWindow(facility, window); err != nil {
		return catalog.Facility{}, err
	}
	if attendees > facility.Capacity {
		return catalog.Facility{}, newError(KindCapacityExceeded,
			"Attendees (%d) exceeds facility capacity (%d).", attendees, facility.Capacity)
	}
	blocked, err := s.catalog.IsUnderMaintenance(ctx, facility.ID, date)
	if err != nil {
		return catalog.Facility{}, err
	}
	if blocked {
		return catalog.Facility{}, newError(KindUnderMaintenance, "Facility '%s' is under maintenance on %s", facility.Name, date)
	}
	return facility, nil
}

// checkWindow covers ordering, operating hours and minimum length, in that order.
func checkWindow(facility catalog.Facility, window slot.Window) error {
	if window.Start >= window.End {
		return newError(KindInvalidWindow, "End time must be after start time.")
	}
	if window.Start < facility.OpeningTime || window.End > facility.ClosingTime {
		return newError(KindOutsideOperatingHours, "Booking must be within operating hours: %s", facility.Hours())
	}
	if window.Duration() < slot.Length {
		return newError(KindDurationTooShort, "Minimum booking duration is %d minutes.", int(slot.Length.Minutes()))
	}
	return nil
}

// checkSlotFree fails when a CONFIRMED or ACTIVE booking other than excludeID
// overlaps window. Run it on the transaction that performs the write.
func checkSlotFree(ctx context.Context, q *dbq.Queries, facilityID int64, date slot.Date, window slot.Window, excludeID int64) error {
	conflicts, err := q.ListConflictingBookings(ctx, dbq.ListConflictingBookingsParams{
		FacilityID: facilityID,
		Date:       date.String(),
		StartTime:  window.Start.String(),
		EndTime:    window.End.String(),
		ExcludeID:  excludeID,
	})
	if err != nil {
		return fmt.Errorf("check conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		return newError(KindSlotConflict, "Time slot %s on %s is already booked.", window, date)
	}
	return nil
}

func (s *Service) facility(ctx context.Context, id int64) (catalog.Facility, error) {
	facility, err := s.catalog.GetFacility(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrFacilityNotFound) {
			return catalog.Facility{}, newError(KindNotFound, "Facility not found with id: %d", id)
		}
		return catalog.Facility{}, err
	}
	return facility, nil
}

// facilityName is for notification text only; lookup failures fall back to
// a generic label.
func (s *Service) facilityName(ctx context.Context, id int64) string {
	facility, err := s.catalog.GetFacility(ctx, id)
	if err != nil {
		return fmt.Sprintf("facility #%d", id)
	}
	return facility.Name
}
