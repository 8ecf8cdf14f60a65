package dbq

import (
	"context"
	"database/sql"
	"time"
)

const bookingColumns = `id, facility_id, user_id, date, start_time, end_time, status, purpose, attendees,
	is_recurring, recurrence_rule, notes, check_in_time, check_out_time, max_extensions,
	extension_count, original_end_time, expired_at, reminder_sent, created_at, updated_at`

func scanBooking(row rowScanner) (Booking, error) {
	var i Booking
	err := row.Scan(
		&i.ID,
		&i.FacilityID,
		&i.UserID,
		&i.Date,
		&i.StartTime,
		&i.EndTime,
		&i.Status,
		&i.Purpose,
		&i.Attendees,
		&i.IsRecurring,
		&i.RecurrenceRule,
		&i.Notes,
		&i.CheckInTime,
		&i.CheckOutTime,
		&i.MaxExtensions,
		&i.ExtensionCount,
		&i.OriginalEndTime,
		&i.ExpiredAt,
		&i.ReminderSent,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) listBookings(ctx context.Context, query string, args ...interface{}) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Booking{}
	for rows.Next() {
		i, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createBooking = `-- name: CreateBooking :execlastid
INSERT INTO bookings (
    facility_id, user_id, date, start_time, end_time, status, purpose, attendees,
    is_recurring, recurrence_rule, notes, max_extensions, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateBookingParams struct {
	FacilityID     int64          `json:"facility_id"`
	UserID         int64          `json:"user_id"`
	Date           string         `json:"date"`
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	Status         string         `json:"status"`
	Purpose        string         `json:"purpose"`
	Attendees      int64          `json:"attendees"`
	IsRecurring    bool           `json:"is_recurring"`
	RecurrenceRule sql.NullString `json:"recurrence_rule"`
	Notes          sql.NullString `json:"notes"`
	MaxExtensions  int64          `json:"max_extensions"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createBooking,
		arg.FacilityID,
		arg.UserID,
		arg.Date,
		arg.StartTime,
		arg.EndTime,
		arg.Status,
		arg.Purpose,
		arg.Attendees,
		arg.IsRecurring,
		arg.RecurrenceRule,
		arg.Notes,
		arg.MaxExtensions,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getBooking = `-- name: GetBooking :one
SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

func (q *Queries) GetBooking(ctx context.Context, id int64) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, getBooking, id))
}

const listBookings = `-- name: ListBookings :many
SELECT ` + bookingColumns + ` FROM bookings ORDER BY date DESC, start_time DESC, id DESC`

func (q *Queries) ListBookings(ctx context.Context) ([]Booking, error) {
	return q.listBookings(ctx, listBookings)
}

const listBookingsByUser = `-- name: ListBookingsByUser :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE user_id = ?
ORDER BY date DESC, start_time DESC, id DESC`

func (q *Queries) ListBookingsByUser(ctx context.Context, userID int64) ([]Booking, error) {
	return q.listBookings(ctx, listBookingsByUser, userID)
}

const listBookingsByFacility = `-- name: ListBookingsByFacility :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE facility_id = ?
ORDER BY date, start_time, id`

func (q *Queries) ListBookingsByFacility(ctx context.Context, facilityID int64) ([]Booking, error) {
	return q.listBookings(ctx, listBookingsByFacility, facilityID)
}

const listBookingsByFacilityAndDate = `-- name: ListBookingsByFacilityAndDate :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE facility_id = ? AND date = ?
ORDER BY start_time, id`

type ListBookingsByFacilityAndDateParams struct {
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"`
}

func (q *Queries) ListBookingsByFacilityAndDate(ctx context.Context, arg ListBookingsByFacilityAndDateParams) ([]Booking, error) {
	return q.listBookings(ctx, listBookingsByFacilityAndDate, arg.FacilityID, arg.Date)
}

const listBookingsByStatus = `-- name: ListBookingsByStatus :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE status = ?
ORDER BY date, start_time, id`

func (q *Queries) ListBookingsByStatus(ctx context.Context, status string) ([]Booking, error) {
	return q.listBookings(ctx, listBookingsByStatus, status)
}

const listBookingsByDateAndStatus = `-- name: ListBookingsByDateAndStatus :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE date = ? AND status = ?
ORDER BY start_time, id`

type ListBookingsByDateAndStatusParams struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

func (q *Queries) ListBookingsByDateAndStatus(ctx context.Context, arg ListBookingsByDateAndStatusParams) ([]Booking, error) {
	return q.listBookings(ctx, listBookingsByDateAndStatus, arg.Date, arg.Status)
}

const listConflictingBookings = `-- name: ListConflictingBookings :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE facility_id = ?
  AND date = ?
  AND status IN ('CONFIRMED', 'ACTIVE')
  AND start_time < ?
  AND end_time > ?
  AND id != ?
ORDER BY start_time`

type ListConflictingBookingsParams struct {
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	ExcludeID  int64  `json:"exclude_id"`
}

// ListConflictingBookings returns slot-holding bookings whose window overlaps
// [StartTime, EndTime). ExcludeID lets updates and extensions skip themselves.
func (q *Queries) ListConflictingBookings(ctx context.Context, arg ListConflictingBookingsParams) ([]Booking, error) {
	return q.listBookings(ctx, listConflictingBookings,
		arg.FacilityID,
		arg.Date,
		arg.EndTime,
		arg.StartTime,
		arg.ExcludeID,
	)
}

const listOccupiedWindows = `-- name: ListOccupiedWindows :many
SELECT start_time, end_time FROM bookings
WHERE facility_id = ? AND date = ? AND status IN ('CONFIRMED', 'ACTIVE')
ORDER BY start_time`

type ListOccupiedWindowsParams struct {
	FacilityID int64  `json:"facility_id"`
	Date       string `json:"date"`
}

type ListOccupiedWindowsRow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (q *Queries) ListOccupiedWindows(ctx context.Context, arg ListOccupiedWindowsParams) ([]ListOccupiedWindowsRow, error) {
	rows, err := q.db.QueryContext(ctx, listOccupiedWindows, arg.FacilityID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOccupiedWindowsRow{}
	for rows.Next() {
		var i ListOccupiedWindowsRow
		if err := rows.Scan(&i.StartTime, &i.EndTime); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateBookingDetails = `-- name: UpdateBookingDetails :execrows
UPDATE bookings
SET date = ?,
    start_time = ?,
    end_time = ?,
    purpose = ?,
    attendees = ?,
    notes = ?,
    is_recurring = ?,
    recurrence_rule = ?,
    reminder_sent = CASE WHEN ? THEN 0 ELSE reminder_sent END,
    extension_count = CASE WHEN ? THEN 0 ELSE extension_count END,
    original_end_time = CASE WHEN ? THEN NULL ELSE original_end_time END,
    updated_at = ?
WHERE id = ?`

type UpdateBookingDetailsParams struct {
	ID             int64          `json:"id"`
	Date           string         `json:"date"`
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	Purpose        string         `json:"purpose"`
	Attendees      int64          `json:"attendees"`
	Notes          sql.NullString `json:"notes"`
	IsRecurring    bool           `json:"is_recurring"`
	RecurrenceRule sql.NullString `json:"recurrence_rule"`
	ResetWindow    bool           `json:"reset_window"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (q *Queries) UpdateBookingDetails(ctx context.Context, arg UpdateBookingDetailsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBookingDetails,
		arg.Date,
		arg.StartTime,
		arg.EndTime,
		arg.Purpose,
		arg.Attendees,
		arg.Notes,
		arg.IsRecurring,
		arg.RecurrenceRule,
		arg.ResetWindow,
		arg.ResetWindow,
		arg.ResetWindow,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const transitionBookingStatus = `-- name: TransitionBookingStatus :execrows
UPDATE bookings
SET status = ?, updated_at = ?
WHERE id = ? AND status = ?`

type TransitionBookingStatusParams struct {
	ID        int64     `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransitionBookingStatus moves a booking from one status to another. It
// affects no rows when the booking is no longer in From.
func (q *Queries) TransitionBookingStatus(ctx context.Context, arg TransitionBookingStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, transitionBookingStatus, arg.To, arg.UpdatedAt, arg.ID, arg.From)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const checkInBooking = `-- name: CheckInBooking :execrows
UPDATE bookings
SET status = 'ACTIVE', check_in_time = ?, updated_at = ?
WHERE id = ? AND status = 'CONFIRMED'`

type CheckInBookingParams struct {
	ID          int64     `json:"id"`
	CheckInTime time.Time `json:"check_in_time"`
}

func (q *Queries) CheckInBooking(ctx context.Context, arg CheckInBookingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, checkInBooking, arg.CheckInTime, arg.CheckInTime, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const checkOutBooking = `-- name: CheckOutBooking :execrows
UPDATE bookings
SET status = 'COMPLETED', check_out_time = ?, updated_at = ?
WHERE id = ? AND status IN ('ACTIVE', 'EXPIRED') AND check_in_time IS NOT NULL`

type CheckOutBookingParams struct {
	ID           int64     `json:"id"`
	CheckOutTime time.Time `json:"check_out_time"`
}

func (q *Queries) CheckOutBooking(ctx context.Context, arg CheckOutBookingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, checkOutBooking, arg.CheckOutTime, arg.CheckOutTime, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const extendBooking = `-- name: ExtendBooking :execrows
UPDATE bookings
SET end_time = ?,
    extension_count = extension_count + 1,
    original_end_time = COALESCE(original_end_time, end_time),
    reminder_sent = 0,
    updated_at = ?
WHERE id = ?
  AND extension_count = ?
  AND extension_count < max_extensions
  AND status IN ('CONFIRMED', 'ACTIVE')`

type ExtendBookingParams struct {
	ID             int64     `json:"id"`
	EndTime        string    `json:"end_time"`
	ExtensionCount int64     `json:"extension_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExtendBooking is guarded on the extension count the caller read, so a
// concurrent extension of the same booking makes this one affect no rows.
func (q *Queries) ExtendBooking(ctx context.Context, arg ExtendBookingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, extendBooking, arg.EndTime, arg.UpdatedAt, arg.ID, arg.ExtensionCount)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listExpiryCandidates = `-- name: ListExpiryCandidates :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE status IN ('CONFIRMED', 'ACTIVE')
  AND expired_at IS NULL
  AND date <= ?
ORDER BY date, end_time, id`

func (q *Queries) ListExpiryCandidates(ctx context.Context, throughDate string) ([]Booking, error) {
	return q.listBookings(ctx, listExpiryCandidates, throughDate)
}

const listReminderCandidates = `-- name: ListReminderCandidates :many
SELECT ` + bookingColumns + ` FROM bookings
WHERE status IN ('CONFIRMED', 'ACTIVE')
  AND expired_at IS NULL
  AND reminder_sent = 0
  AND date BETWEEN ? AND ?
ORDER BY date, end_time, id`

type ListReminderCandidatesParams struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

func (q *Queries) ListReminderCandidates(ctx context.Context, arg ListReminderCandidatesParams) ([]Booking, error) {
	return q.listBookings(ctx, listReminderCandidates, arg.FromDate, arg.ToDate)
}

const expireBooking = `-- name: ExpireBooking :execrows
UPDATE bookings
SET status = 'EXPIRED', expired_at = ?, updated_at = ?
WHERE id = ? AND expired_at IS NULL AND status IN ('CONFIRMED', 'ACTIVE')`

type ExpireBookingParams struct {
	ID        int64     `json:"id"`
	ExpiredAt time.Time `json:"expired_at"`
}

func (q *Queries) ExpireBooking(ctx context.Context, arg ExpireBookingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, expireBooking, arg.ExpiredAt, arg.ExpiredAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markReminderSent = `-- name: MarkReminderSent :execrows
UPDATE bookings
SET reminder_sent = 1, updated_at = ?
WHERE id = ? AND reminder_sent = 0 AND status IN ('CONFIRMED', 'ACTIVE')`

type MarkReminderSentParams struct {
	ID        int64     `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) MarkReminderSent(ctx context.Context, arg MarkReminderSentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markReminderSent, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteBooking = `-- name: DeleteBooking :execrows
DELETE FROM bookings WHERE id = ?`

func (q *Queries) DeleteBooking(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBooking, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
