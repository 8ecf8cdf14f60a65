// Package booking is the reservation core: the conflict detector, the booking
// lifecycle, the per-slot waitlist, approval decisions and the scan operations
// the scheduler drives. Every operation takes the acting user explicitly and
// performs its read-check-write sequence in a single store transaction.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/catalog"
	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/notify"
	"github.com/codr1/campusbook/internal/slot"
)

type ApprovalPolicy string

const (
	// PolicyAutoConfirm confirms every valid booking immediately.
	PolicyAutoConfirm ApprovalPolicy = "auto_confirm"
	// PolicyRequiresApproval holds bookings PENDING when the facility requires
	// approval or the requester is a visitor.
	PolicyRequiresApproval ApprovalPolicy = "requires_approval"
)

const (
	defaultMaxExtensions = 2
	defaultReminderLead  = 5 * time.Minute
	promotedPurpose      = "Promoted from waitlist"
)

type Options struct {
	ApprovalPolicy ApprovalPolicy
	MaxExtensions  int
	ReminderLead   time.Duration
	// Location is the zone booking dates and times are expressed in.
	Location *time.Location
	Now      func() time.Time
}

type Service struct {
	db            *db.DB
	catalog       catalog.Reader
	notifier      notify.Sink
	policy        ApprovalPolicy
	maxExtensions int
	reminderLead  time.Duration
	loc           *time.Location
	now           func() time.Time
}

func NewService(database *db.DB, facilities catalog.Reader, notifier notify.Sink, opts Options) *Service {
	if notifier == nil {
		notifier = notify.Discard
	}
	if opts.ApprovalPolicy == "" {
		opts.ApprovalPolicy = PolicyRequiresApproval
	}
	if opts.MaxExtensions <= 0 {
		opts.MaxExtensions = defaultMaxExtensions
	}
	if opts.ReminderLead <= 0 {
		opts.ReminderLead = defaultReminderLead
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		db:            database,
		catalog:       facilities,
		notifier:      notifier,
		policy:        opts.ApprovalPolicy,
		maxExtensions: opts.MaxExtensions,
		reminderLead:  opts.ReminderLead,
		loc:           opts.Location,
		now:           opts.Now,
	}
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// send hands notifications to the sink. Call it only after the transaction
// that produced them has committed.
func (s *Service) send(ctx context.Context, outbox []notify.Notification) {
	for _, n := range outbox {
		s.notifier.Send(ctx, n)
	}
}

func (s *Service) initialStatus(facility catalog.Facility, actor Actor) Status {
	if s.policy == PolicyRequiresApproval && (facility.RequiresApproval || actor.Role == RoleVisitor) {
		return StatusPending
	}
	return StatusConfirmed
}

// Create validates req and stores a new booking for the actor. The conflict
// check and the insert share one transaction.
func (s *Service) Create(ctx context.Context, actor Actor, req Request) (Booking, error) {
	if err := req.validate(); err != nil {
		return Booking{}, err
	}
	window := req.window()
	facility, err := s.validateProposal(ctx, req.FacilityID, req.Date, window, req.Attendees)
	if err != nil {
		return Booking{}, err
	}
	status := s.initialStatus(facility, actor)

	var created Booking
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		if err := checkSlotFree(ctx, tx.Queries, facility.ID, req.Date, window, 0); err != nil {
			return err
		}
		id, err := tx.Queries.CreateBooking(ctx, dbq.CreateBookingParams{
			FacilityID:     facility.ID,
			UserID:         actor.UserID,
			Date:           req.Date.String(),
			StartTime:      window.Start.String(),
			EndTime:        window.End.String(),
			Status:         string(status),
			Purpose:        strings.TrimSpace(req.Purpose),
			Attendees:      int64(req.Attendees),
			IsRecurring:    req.IsRecurring,
			RecurrenceRule: nullString(req.RecurrenceRule),
			Notes:          nullString(req.Notes),
			MaxExtensions:  int64(s.maxExtensions),
			CreatedAt:      s.clock(),
		})
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		created, err = loadBooking(ctx, tx.Queries, id)
		return err
	})
	if err != nil {
		return Booking{}, err
	}

	log.Ctx(ctx).Info().
		Int64("booking_id", created.ID).
		Int64("facility_id", created.FacilityID).
		Int64("user_id", created.UserID).
		Str("status", string(created.Status)).
		Msg("Booking created")

	if created.Status == StatusPending {
		s.send(ctx, []notify.Notification{pendingNotice(created, facility.Name)})
	} else {
		s.send(ctx, []notify.Notification{confirmedNotice(created, facility.Name)})
	}
	return created, nil
}

// Update replaces the schedule and details of a non-terminal booking and
// re-runs the full validation, ignoring the booking's own window.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, req Request) (Booking, error) {
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return Booking{}, err
	}
	if !actor.owns(current.UserID) && !actor.IsAdmin() {
		return Booking{}, newError(KindUnauthorized, "You are not authorised to modify this booking.")
	}
	if req.FacilityID == 0 {
		req.FacilityID = current.FacilityID
	}
	if err := req.validate(); err != nil {
		return Booking{}, err
	}
	if req.FacilityID != current.FacilityID {
		return Booking{}, validationError(map[string]string{"facilityId": "cannot be changed; cancel and rebook instead"})
	}
	if current.Status.Terminal() {
		return Booking{}, newError(KindInvalidTransition, "Cannot update a %s booking.", current.Status)
	}
	window := req.window()
	if _, err := s.validateProposal(ctx, current.FacilityID, req.Date, window, req.Attendees); err != nil {
		return Booking{}, err
	}

	var updated Booking
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		fresh, err := loadBooking(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if fresh.Status.Terminal() {
			return newError(KindInvalidTransition, "Cannot update a %s booking.", fresh.Status)
		}
		if err := checkSlotFree(ctx, tx.Queries, fresh.FacilityID, req.Date, window, fresh.ID); err != nil {
			return err
		}
		if _, err := tx.Queries.UpdateBookingDetails(ctx, dbq.UpdateBookingDetailsParams{
			ID:             id,
			Date:           req.Date.String(),
			StartTime:      window.Start.String(),
			EndTime:        window.End.String(),
			Purpose:        strings.TrimSpace(req.Purpose),
			Attendees:      int64(req.Attendees),
			Notes:          nullString(req.Notes),
			IsRecurring:    req.IsRecurring,
			RecurrenceRule: nullString(req.RecurrenceRule),
			ResetWindow:    req.Date != fresh.Date || window != fresh.Window(),
			UpdatedAt:      s.clock(),
		}); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		updated, err = loadBooking(ctx, tx.Queries, id)
		return err
	})
	if err != nil {
		return Booking{}, err
	}
	return updated, nil
}

// Get returns a booking visible to the actor: its owner, admins and security.
func (s *Service) Get(ctx context.Context, actor Actor, id int64) (Booking, error) {
	b, err := loadBooking(ctx, s.db.Queries, id)
	if err != nil {
		return Booking{}, err
	}
	if !actor.owns(b.UserID) && !actor.CanOperateDesk() {
		return Booking{}, newError(KindUnauthorized, "You are not authorised to view this booking.")
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, actor Actor) ([]Booking, error) {
	rows, err := s.db.Queries.ListBookingsByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list bookings for user %d: %w", actor.UserID, err)
	}
	return bookingsFromRows(rows)
}

func (s *Service) ListAll(ctx context.Context, actor Actor) ([]Booking, error) {
	if !actor.IsAdmin() {
		return nil, newError(KindUnauthorized, "Only administrators can list all bookings.")
	}
	rows, err := s.db.Queries.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookingsFromRows(rows)
}

// ListByFacility returns the facility's bookings, on one date when date is set.
func (s *Service) ListByFacility(ctx context.Context, facilityID int64, date *slot.Date) ([]Booking, error) {
	if _, err := s.facility(ctx, facilityID); err != nil {
		return nil, err
	}
	var (
		rows []dbq.Booking
		err  error
	)
	if date != nil {
		rows, err = s.db.Queries.ListBookingsByFacilityAndDate(ctx, dbq.ListBookingsByFacilityAndDateParams{
			FacilityID: facilityID,
			Date:       date.String(),
		})
	} else {
		rows, err = s.db.Queries.ListBookingsByFacility(ctx, facilityID)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings for facility %d: %w", facilityID, err)
	}
	return bookingsFromRows(rows)
}

func (s *Service) ListByStatus(ctx context.Context, actor Actor, status Status) ([]Booking, error) {
	if !actor.IsAdmin() {
		return nil, newError(KindUnauthorized, "Only administrators can list bookings by status.")
	}
	rows, err := s.db.Queries.ListBookingsByStatus(ctx, string(status))
	if err != nil {
		return nil, fmt.Errorf("list %s bookings: %w", status, err)
	}
	return bookingsFromRows(rows)
}

// ListToday returns today's CONFIRMED bookings for the front desk.
func (s *Service) ListToday(ctx context.Context, actor Actor) ([]Booking, error) {
	if !actor.CanOperateDesk() {
		return nil, newError(KindUnauthorized, "Only administrators and security can view today's bookings.")
	}
	rows, err := s.db.Queries.ListBookingsByDateAndStatus(ctx, dbq.ListBookingsByDateAndStatusParams{
		Date:   slot.DateOf(s.clock()).String(),
		Status: string(StatusConfirmed),
	})
	if err != nil {
		return nil, fmt.Errorf("list today's bookings: %w", err)
	}
	return bookingsFromRows(rows)
}

type Availability struct {
	FacilityID   int64       `json:"facilityId"`
	FacilityName string      `json:"facilityName"`
	Date         slot.Date   `json:"date"`
	Slots        []slot.Slot `json:"slots"`
}

// Availability lays the slot grid over the facility's hours on date and marks
// the cells held by CONFIRMED or ACTIVE bookings.
func (s *Service) Availability(ctx context.Context, facilityID int64, date slot.Date) (Availability, error) {
	facility, err := s.facility(ctx, facilityID)
	if err != nil {
		return Availability{}, err
	}
	rows, err := s.db.Queries.ListOccupiedWindows(ctx, dbq.ListOccupiedWindowsParams{
		FacilityID: facilityID,
		Date:       date.String(),
	})
	if err != nil {
		return Availability{}, fmt.Errorf("list occupied windows: %w", err)
	}
	occupied := make([]slot.Window, 0, len(rows))
	for _, row := range rows {
		start, err := slot.ParseTimeOfDay(row.StartTime)
		if err != nil {
			return Availability{}, fmt.Errorf("occupied window start: %w", err)
		}
		end, err := slot.ParseTimeOfDay(row.EndTime)
		if err != nil {
			return Availability{}, fmt.Errorf("occupied window end: %w", err)
		}
		occupied = append(occupied, slot.Window{Start: start, End: end})
	}
	return Availability{
		FacilityID:   facility.ID,
		FacilityName: facility.Name,
		Date:         date,
		Slots:        slices.Collect(slot.Grid(facility.OpeningTime, facility.ClosingTime, occupied)),
	}, nil
}

func loadBooking(ctx context.Context, q *dbq.Queries, id int64) (Booking, error) {
	row, err := q.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Booking{}, newError(KindNotFound, "Booking not found with id: %d", id)
		}
		return Booking{}, fmt.Errorf("get booking %d: %w", id, err)
	}
	return bookingFromRow(row)
}
