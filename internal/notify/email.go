package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/codr1/campusbook/internal/db/dbq"
)

// EmailSender provides a testable abstraction over SES delivery.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// EmailNotifier mails the notification to the address on file for the user.
// Users without an address are skipped.
type EmailNotifier struct {
	queries *dbq.Queries
	sender  EmailSender
}

func NewEmailNotifier(queries *dbq.Queries, sender EmailSender) *EmailNotifier {
	return &EmailNotifier{queries: queries, sender: sender}
}

func (e *EmailNotifier) Notify(ctx context.Context, n Notification) error {
	if e == nil || e.sender == nil || e.queries == nil {
		return nil
	}
	user, err := e.queries.GetUserByID(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load user %d for email: %w", n.UserID, err)
	}
	if !user.Email.Valid {
		return nil
	}
	recipient := strings.TrimSpace(user.Email.String)
	if recipient == "" {
		return nil
	}

	body := n.Message
	if user.DisplayName != "" {
		body = fmt.Sprintf("Hi %s,\n\n%s", user.DisplayName, n.Message)
	}
	return e.sender.Send(ctx, recipient, n.Title, body)
}
