package booking

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/notify"
)

type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Approval is one immutable admin decision on a booking.
type Approval struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"bookingId"`
	ReviewedBy *int64    `json:"reviewedBy,omitempty"`
	Decision   Decision  `json:"decision"`
	Remarks    string    `json:"remarks,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

// Approve confirms a PENDING booking. PENDING bookings hold no slot, so the
// window is checked for conflicts again before confirming.
func (s *Service) Approve(ctx context.Context, actor Actor, bookingID int64, remarks string) (Approval, error) {
	return s.decide(ctx, actor, bookingID, DecisionApproved, remarks)
}

// Reject closes a PENDING booking as REJECTED.
func (s *Service) Reject(ctx context.Context, actor Actor, bookingID int64, remarks string) (Approval, error) {
	return s.decide(ctx, actor, bookingID, DecisionRejected, remarks)
}

func (s *Service) decide(ctx context.Context, actor Actor, bookingID int64, decision Decision, remarks string) (Approval, error) {
	verb, ev, to := "approved", eventApprove, StatusConfirmed
	if decision == DecisionRejected {
		verb, ev, to = "rejected", eventReject, StatusRejected
	}
	if !actor.IsAdmin() {
		return Approval{}, newError(KindUnauthorized, "Only administrators can review bookings.")
	}
	remarks = strings.TrimSpace(remarks)

	var (
		approval Approval
		decided  Booking
	)
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		b, err := loadBooking(ctx, tx.Queries, bookingID)
		if err != nil {
			return err
		}
		if !b.Status.can(ev) {
			return newError(KindInvalidTransition,
				"Only PENDING bookings can be %s. Current status: %s", verb, b.Status)
		}
		if decision == DecisionApproved {
			if err := checkSlotFree(ctx, tx.Queries, b.FacilityID, b.Date, b.Window(), b.ID); err != nil {
				return err
			}
		}

		now := s.clock()
		if err := transition(ctx, tx.Queries, b, to, now); err != nil {
			return err
		}
		id, err := tx.Queries.CreateBookingApproval(ctx, dbq.CreateBookingApprovalParams{
			BookingID:  b.ID,
			ReviewedBy: sql.NullInt64{Int64: actor.UserID, Valid: actor.UserID != 0},
			Decision:   string(decision),
			Remarks:    nullString(remarks),
			DecidedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("record approval decision: %w", err)
		}
		row, err := tx.Queries.GetBookingApproval(ctx, id)
		if err != nil {
			return fmt.Errorf("get approval %d: %w", id, err)
		}
		approval = approvalFromRow(row)
		decided, err = loadBooking(ctx, tx.Queries, b.ID)
		return err
	})
	if err != nil {
		return Approval{}, err
	}

	log.Ctx(ctx).Info().
		Int64("booking_id", decided.ID).
		Int64("reviewer_id", actor.UserID).
		Str("decision", string(decision)).
		Msg("Booking reviewed")

	facilityName := s.facilityName(ctx, decided.FacilityID)
	if decision == DecisionApproved {
		s.send(ctx, []notify.Notification{approvedNotice(decided, facilityName, remarks)})
	} else {
		s.send(ctx, []notify.Notification{rejectedNotice(decided, facilityName, remarks)})
	}
	return approval, nil
}

// ListPending returns every booking awaiting a decision.
func (s *Service) ListPending(ctx context.Context, actor Actor) ([]Booking, error) {
	if !actor.IsAdmin() {
		return nil, newError(KindUnauthorized, "Only administrators can view pending approvals.")
	}
	rows, err := s.db.Queries.ListBookingsByStatus(ctx, string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("list pending bookings: %w", err)
	}
	return bookingsFromRows(rows)
}

func (s *Service) ListApprovals(ctx context.Context, actor Actor) ([]Approval, error) {
	if !actor.IsAdmin() {
		return nil, newError(KindUnauthorized, "Only administrators can view approvals.")
	}
	rows, err := s.db.Queries.ListApprovals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	return approvalsFromRows(rows), nil
}

// ListApprovalsForBooking returns the decision history of one booking, visible
// to its owner and to admins.
func (s *Service) ListApprovalsForBooking(ctx context.Context, actor Actor, bookingID int64) ([]Approval, error) {
	b, err := loadBooking(ctx, s.db.Queries, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(b.UserID) && !actor.IsAdmin() {
		return nil, newError(KindUnauthorized, "You are not authorised to view this booking's approvals.")
	}
	rows, err := s.db.Queries.ListApprovalsByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list approvals for booking %d: %w", bookingID, err)
	}
	return approvalsFromRows(rows), nil
}

func approvalFromRow(row dbq.BookingApproval) Approval {
	a := Approval{
		ID:        row.ID,
		BookingID: row.BookingID,
		Decision:  Decision(row.Decision),
		Remarks:   row.Remarks.String,
		DecidedAt: row.DecidedAt,
	}
	if row.ReviewedBy.Valid {
		reviewer := row.ReviewedBy.Int64
		a.ReviewedBy = &reviewer
	}
	return a
}

func approvalsFromRows(rows []dbq.BookingApproval) []Approval {
	out := make([]Approval, 0, len(rows))
	for _, row := range rows {
		out = append(out, approvalFromRow(row))
	}
	return out
}
