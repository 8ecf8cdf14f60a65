package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codr1/campusbook/internal/db/dbq"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Inbox stores notifications for in-app display.
type Inbox struct {
	queries *dbq.Queries
}

func NewInbox(queries *dbq.Queries) *Inbox {
	return &Inbox{queries: queries}
}

type InboxEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	BookingID *int64    `json:"bookingId,omitempty"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func (i *Inbox) Notify(ctx context.Context, n Notification) error {
	bookingID := sql.NullInt64{}
	if n.BookingID != nil {
		bookingID = sql.NullInt64{Int64: *n.BookingID, Valid: true}
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := i.queries.CreateNotification(ctx, dbq.CreateNotificationParams{
		UserID:    n.UserID,
		BookingID: bookingID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: createdAt,
	})
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (i *Inbox) List(ctx context.Context, userID int64, unreadOnly bool) ([]InboxEntry, error) {
	rows, err := i.queries.ListNotificationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	entries := make([]InboxEntry, 0, len(rows))
	for _, row := range rows {
		if unreadOnly && row.IsRead {
			continue
		}
		entry := InboxEntry{
			ID:        row.ID,
			UserID:    row.UserID,
			Type:      Type(row.Type),
			Title:     row.Title,
			Message:   row.Message,
			IsRead:    row.IsRead,
			CreatedAt: row.CreatedAt,
		}
		if row.BookingID.Valid {
			id := row.BookingID.Int64
			entry.BookingID = &id
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MarkRead marks one of the user's notifications read.
func (i *Inbox) MarkRead(ctx context.Context, userID, id int64) error {
	affected, err := i.queries.MarkNotificationRead(ctx, dbq.MarkNotificationReadParams{ID: id, UserID: userID})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	affected, err := i.queries.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return affected, nil
}
