package dbq

import (
	"context"
	"database/sql"
	"time"
)

const createNotification = `-- name: CreateNotification :execlastid
INSERT INTO notifications (user_id, booking_id, type, title, message, is_read, created_at)
VALUES (?, ?, ?, ?, ?, 0, ?)`

type CreateNotificationParams struct {
	UserID    int64         `json:"user_id"`
	BookingID sql.NullInt64 `json:"booking_id"`
	Type      string        `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createNotification,
		arg.UserID,
		arg.BookingID,
		arg.Type,
		arg.Title,
		arg.Message,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const listNotificationsByUser = `-- name: ListNotificationsByUser :many
SELECT id, user_id, booking_id, type, title, message, is_read, created_at
FROM notifications
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListNotificationsByUser(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, listNotificationsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Notification{}
	for rows.Next() {
		var i Notification
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.BookingID,
			&i.Type,
			&i.Title,
			&i.Message,
			&i.IsRead,
			&i.CreatedAt,
		); err != nil {
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

const markNotificationRead = `-- name: MarkNotificationRead :execrows
UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`

type MarkNotificationReadParams struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
}

func (q *Queries) MarkNotificationRead(ctx context.Context, arg MarkNotificationReadParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markNotificationRead, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const clearNotificationBooking = `-- name: ClearNotificationBooking :execrows
UPDATE notifications SET booking_id = NULL WHERE booking_id = ?`

// ClearNotificationBooking detaches inbox rows from a booking about to be
// deleted; the rows themselves are kept.
func (q *Queries) ClearNotificationBooking(ctx context.Context, bookingID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, clearNotificationBooking, bookingID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markAllNotificationsRead = `-- name: MarkAllNotificationsRead :execrows
UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markAllNotificationsRead, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
