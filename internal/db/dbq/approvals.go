package dbq

import (
	"context"
	"database/sql"
	"time"
)

const approvalColumns = `id, booking_id, reviewed_by, decision, remarks, decided_at`

func scanApproval(row rowScanner) (BookingApproval, error) {
	var i BookingApproval
	err := row.Scan(
		&i.ID,
		&i.BookingID,
		&i.ReviewedBy,
		&i.Decision,
		&i.Remarks,
		&i.DecidedAt,
	)
	return i, err
}

func (q *Queries) listApprovals(ctx context.Context, query string, args ...interface{}) ([]BookingApproval, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BookingApproval{}
	for rows.Next() {
		i, err := scanApproval(rows)
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

const createBookingApproval = `-- name: CreateBookingApproval :execlastid
INSERT INTO booking_approvals (booking_id, reviewed_by, decision, remarks, decided_at)
VALUES (?, ?, ?, ?, ?)`

type CreateBookingApprovalParams struct {
	BookingID  int64          `json:"booking_id"`
	ReviewedBy sql.NullInt64  `json:"reviewed_by"`
	Decision   string         `json:"decision"`
	Remarks    sql.NullString `json:"remarks"`
	DecidedAt  time.Time      `json:"decided_at"`
}

func (q *Queries) CreateBookingApproval(ctx context.Context, arg CreateBookingApprovalParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createBookingApproval,
		arg.BookingID,
		arg.ReviewedBy,
		arg.Decision,
		arg.Remarks,
		arg.DecidedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getBookingApproval = `-- name: GetBookingApproval :one
SELECT ` + approvalColumns + ` FROM booking_approvals WHERE id = ?`

func (q *Queries) GetBookingApproval(ctx context.Context, id int64) (BookingApproval, error) {
	return scanApproval(q.db.QueryRowContext(ctx, getBookingApproval, id))
}

const listApprovals = `-- name: ListApprovals :many
SELECT ` + approvalColumns + ` FROM booking_approvals ORDER BY decided_at DESC, id DESC`

func (q *Queries) ListApprovals(ctx context.Context) ([]BookingApproval, error) {
	return q.listApprovals(ctx, listApprovals)
}

const listApprovalsByBooking = `-- name: ListApprovalsByBooking :many
SELECT ` + approvalColumns + ` FROM booking_approvals
WHERE booking_id = ?
ORDER BY decided_at, id`

func (q *Queries) ListApprovalsByBooking(ctx context.Context, bookingID int64) ([]BookingApproval, error) {
	return q.listApprovals(ctx, listApprovalsByBooking, bookingID)
}

const deleteApprovalsByBooking = `-- name: DeleteApprovalsByBooking :execrows
DELETE FROM booking_approvals WHERE booking_id = ?`

func (q *Queries) DeleteApprovalsByBooking(ctx context.Context, bookingID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteApprovalsByBooking, bookingID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
