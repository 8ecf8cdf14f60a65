package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/slot"
)

type WaitlistStatus string

const (
	WaitlistWaiting  WaitlistStatus = "WAITING"
	WaitlistPromoted WaitlistStatus = "PROMOTED"
	WaitlistExpired  WaitlistStatus = "EXPIRED"
)

// WaitlistEntry is a queued request for a (facility, date, start time) slot.
// Positions of WAITING entries in one slot are always 1..N.
type WaitlistEntry struct {
	ID         int64          `json:"id"`
	FacilityID int64          `json:"facilityId"`
	UserID     int64          `json:"userId"`
	Date       slot.Date      `json:"date"`
	StartTime  slot.TimeOfDay `json:"startTime"`
	EndTime    slot.TimeOfDay `json:"endTime"`
	Purpose    string         `json:"purpose,omitempty"`
	Position   int            `json:"position"`
	Status     WaitlistStatus `json:"status"`
	JoinedAt   time.Time      `json:"joinedAt"`
}

func (e WaitlistEntry) Window() slot.Window {
	return slot.Window{Start: e.StartTime, End: e.EndTime}
}

type WaitlistRequest struct {
	FacilityID int64
	Date       slot.Date
	StartTime  slot.TimeOfDay
	EndTime    slot.TimeOfDay
	Purpose    string
}

func (r WaitlistRequest) validate() error {
	fields := map[string]string{}
	if r.FacilityID <= 0 {
		fields["facilityId"] = "is required"
	}
	if _, err := slot.ParseDate(string(r.Date)); err != nil {
		fields["date"] = "must be a date in YYYY-MM-DD format"
	}
	if !r.StartTime.Valid() {
		fields["startTime"] = "must be a time of day"
	}
	if !r.EndTime.Valid() {
		fields["endTime"] = "must be a time of day"
	}
	if len(fields) > 0 {
		return validationError(fields)
	}
	return nil
}

// JoinWaitlist appends the actor to the queue for the requested slot. The
// window must be a bookable window for the facility; the slot itself may or
// may not be taken.
func (s *Service) JoinWaitlist(ctx context.Context, actor Actor, req WaitlistRequest) (WaitlistEntry, error) {
	if err := req.validate(); err != nil {
		return WaitlistEntry{}, err
	}
	facility, err := s.facility(ctx, req.FacilityID)
	if err != nil {
		return WaitlistEntry{}, err
	}
	if err := checkWindow(facility, slot.Window{Start: req.StartTime, End: req.EndTime}); err != nil {
		return WaitlistEntry{}, err
	}

	var joined WaitlistEntry
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		existing, err := tx.Queries.CountWaitingForUser(ctx, dbq.CountWaitingForUserParams{
			FacilityID: req.FacilityID,
			UserID:     actor.UserID,
			Date:       req.Date.String(),
			StartTime:  req.StartTime.String(),
		})
		if err != nil {
			return fmt.Errorf("count waitlist entries for user: %w", err)
		}
		if existing > 0 {
			return newError(KindAlreadyWaitlisted, "You are already on the waitlist for this slot.")
		}
		waiting, err := tx.Queries.CountWaitingEntries(ctx, dbq.CountWaitingEntriesParams{
			FacilityID: req.FacilityID,
			Date:       req.Date.String(),
			StartTime:  req.StartTime.String(),
		})
		if err != nil {
			return fmt.Errorf("count waitlist entries: %w", err)
		}
		id, err := tx.Queries.CreateWaitlistEntry(ctx, dbq.CreateWaitlistEntryParams{
			FacilityID: req.FacilityID,
			UserID:     actor.UserID,
			Date:       req.Date.String(),
			StartTime:  req.StartTime.String(),
			EndTime:    req.EndTime.String(),
			Purpose:    nullString(req.Purpose),
			Position:   waiting + 1,
			JoinedAt:   s.clock(),
		})
		if err != nil {
			return fmt.Errorf("create waitlist entry: %w", err)
		}
		joined, err = loadWaitlistEntry(ctx, tx.Queries, id)
		return err
	})
	if err != nil {
		return WaitlistEntry{}, err
	}

	log.Ctx(ctx).Info().
		Int64("waitlist_entry_id", joined.ID).
		Int64("facility_id", joined.FacilityID).
		Int64("user_id", joined.UserID).
		Int("position", joined.Position).
		Msg("Joined waitlist")
	return joined, nil
}

// LeaveWaitlist removes an entry and closes the gap it leaves in its slot.
func (s *Service) LeaveWaitlist(ctx context.Context, actor Actor, id int64) error {
	return s.db.RunInTx(ctx, func(tx *db.DB) error {
		entry, err := loadWaitlistEntry(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if !actor.owns(entry.UserID) && !actor.IsAdmin() {
			return newError(KindUnauthorized, "You are not authorised to remove this waitlist entry.")
		}
		if _, err := tx.Queries.DeleteWaitlistEntry(ctx, id); err != nil {
			return fmt.Errorf("delete waitlist entry %d: %w", id, err)
		}
		if entry.Status != WaitlistWaiting {
			return nil
		}
		if _, err := tx.Queries.ShiftWaitlistPositions(ctx, dbq.ShiftWaitlistPositionsParams{
			FacilityID:    entry.FacilityID,
			Date:          entry.Date.String(),
			StartTime:     entry.StartTime.String(),
			AfterPosition: int64(entry.Position),
		}); err != nil {
			return fmt.Errorf("shift waitlist positions: %w", err)
		}
		return nil
	})
}

// ListMyWaitlist returns every entry the actor ever queued, in any status.
func (s *Service) ListMyWaitlist(ctx context.Context, actor Actor) ([]WaitlistEntry, error) {
	rows, err := s.db.Queries.ListWaitlistByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist for user %d: %w", actor.UserID, err)
	}
	return waitlistFromRows(rows)
}

func (s *Service) ListWaitlistByFacility(ctx context.Context, actor Actor, facilityID int64) ([]WaitlistEntry, error) {
	if !actor.IsAdmin() {
		return nil, newError(KindUnauthorized, "Only administrators can view facility waitlists.")
	}
	if _, err := s.facility(ctx, facilityID); err != nil {
		return nil, err
	}
	rows, err := s.db.Queries.ListWaitlistByFacility(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist for facility %d: %w", facilityID, err)
	}
	return waitlistFromRows(rows)
}

func (s *Service) ListWaitlist(ctx context.Context, actor Actor) ([]WaitlistEntry, error) {
	if !actor.IsAdmin() {
		return nil, newError(KindUnauthorized, "Only administrators can view all waitlists.")
	}
	rows, err := s.db.Queries.ListWaitlistEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return waitlistFromRows(rows)
}

// promoteHead turns the first WAITING entry for the cancelled booking's slot
// into a new CONFIRMED booking and shifts the rest of the queue up. It runs on
// the cancelling transaction. When the head's window still overlaps another
// booking the queue is left untouched and nil is returned.
func (s *Service) promoteHead(ctx context.Context, q *dbq.Queries, cancelled Booking) (*Booking, error) {
	rows, err := q.ListWaitingEntriesForSlot(ctx, dbq.ListWaitingEntriesForSlotParams{
		FacilityID: cancelled.FacilityID,
		Date:       cancelled.Date.String(),
		StartTime:  cancelled.StartTime.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list waitlist for slot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	head, err := waitlistFromRow(rows[0])
	if err != nil {
		return nil, err
	}

	if err := checkSlotFree(ctx, q, head.FacilityID, head.Date, head.Window(), 0); err != nil {
		if errors.Is(err, ErrSlotConflict) {
			log.Ctx(ctx).Info().
				Int64("waitlist_entry_id", head.ID).
				Str("window", head.Window().String()).
				Msg("Waitlist head still conflicts, not promoting")
			return nil, nil
		}
		return nil, err
	}

	affected, err := q.UpdateWaitlistStatus(ctx, dbq.UpdateWaitlistStatusParams{
		ID:     head.ID,
		Status: string(WaitlistPromoted),
	})
	if err != nil {
		return nil, fmt.Errorf("promote waitlist entry %d: %w", head.ID, err)
	}
	if affected == 0 {
		return nil, nil
	}

	purpose := head.Purpose
	if strings.TrimSpace(purpose) == "" {
		purpose = promotedPurpose
	}
	id, err := q.CreateBooking(ctx, dbq.CreateBookingParams{
		FacilityID:    head.FacilityID,
		UserID:        head.UserID,
		Date:          head.Date.String(),
		StartTime:     head.StartTime.String(),
		EndTime:       head.EndTime.String(),
		Status:        string(StatusConfirmed),
		Purpose:       purpose,
		Attendees:     1,
		MaxExtensions: int64(s.maxExtensions),
		CreatedAt:     s.clock(),
	})
	if err != nil {
		return nil, fmt.Errorf("create promoted booking: %w", err)
	}

	if _, err := q.ShiftWaitlistPositions(ctx, dbq.ShiftWaitlistPositionsParams{
		FacilityID:    head.FacilityID,
		Date:          head.Date.String(),
		StartTime:     head.StartTime.String(),
		AfterPosition: int64(head.Position),
	}); err != nil {
		return nil, fmt.Errorf("shift waitlist positions: %w", err)
	}

	promoted, err := loadBooking(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return &promoted, nil
}

func loadWaitlistEntry(ctx context.Context, q *dbq.Queries, id int64) (WaitlistEntry, error) {
	row, err := q.GetWaitlistEntry(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WaitlistEntry{}, newError(KindNotFound, "Waitlist entry not found with id: %d", id)
		}
		return WaitlistEntry{}, fmt.Errorf("get waitlist entry %d: %w", id, err)
	}
	return waitlistFromRow(row)
}

func waitlistFromRow(row dbq.WaitlistEntry) (WaitlistEntry, error) {
	start, err := slot.ParseTimeOfDay(row.StartTime)
	if err != nil {
		return WaitlistEntry{}, fmt.Errorf("waitlist entry %d start time: %w", row.ID, err)
	}
	end, err := slot.ParseTimeOfDay(row.EndTime)
	if err != nil {
		return WaitlistEntry{}, fmt.Errorf("waitlist entry %d end time: %w", row.ID, err)
	}
	return WaitlistEntry{
		ID:         row.ID,
		FacilityID: row.FacilityID,
		UserID:     row.UserID,
		Date:       slot.Date(row.Date),
		StartTime:  start,
		EndTime:    end,
		Purpose:    row.Purpose.String,
		Position:   int(row.Position),
		Status:     WaitlistStatus(row.Status),
		JoinedAt:   row.JoinedAt,
	}, nil
}

func waitlistFromRows(rows []dbq.WaitlistEntry) ([]WaitlistEntry, error) {
	out := make([]WaitlistEntry, 0, len(rows))
	for _, row := range rows {
		e, err := waitlistFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
