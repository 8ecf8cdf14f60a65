package notify

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/testutil"
)

type recordingNotifier struct {
	mu       sync.Mutex
	received []Notification
	ctxErrs  []error
	err      error
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, n)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

type fakeEmailSender struct {
	calls     int32
	recipient string
	subject   string
	body      string
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	atomic.AddInt32(&f.calls, 1)
	f.recipient = recipient
	f.subject = subject
	f.body = body
	return nil
}

func insertTestUser(t *testing.T, database *db.DB, email string) int64 {
	t.Helper()

	id, err := database.Queries.CreateUser(context.Background(), dbq.CreateUserParams{
		Email:       sql.NullString{String: email, Valid: email != ""},
		DisplayName: "Test User",
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func TestDispatcherDetachesFromCallerCancellation(t *testing.T) {
	first := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("broker down")}
	dispatcher := NewDispatcher(time.Second, first, nil, failing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dispatcher.Send(ctx, Notification{UserID: 7, Type: TypeBookingConfirmed, Title: "Booking Confirmed"})
	dispatcher.Wait()

	for name, n := range map[string]*recordingNotifier{"first": first, "failing": failing} {
		if len(n.received) != 1 {
			t.Fatalf("%s notifier received %d notifications", name, len(n.received))
		}
		if n.ctxErrs[0] != nil {
			t.Fatalf("%s notifier saw cancelled context: %v", name, n.ctxErrs[0])
		}
		if n.received[0].CreatedAt.IsZero() {
			t.Fatalf("%s notifier received zero CreatedAt", name)
		}
	}
}

func TestInboxStoresAndMarksRead(t *testing.T) {
	database := testutil.NewTestDB(t)
	inbox := NewInbox(database.Queries)
	ctx := context.Background()

	for _, title := range []string{"Booking Confirmed", "Booking Extended"} {
		if err := inbox.Notify(ctx, Notification{UserID: 3, Type: TypeBookingConfirmed, Title: title, Message: "m"}); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	entries, err := inbox.List(ctx, 3, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if err := inbox.MarkRead(ctx, 3, entries[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := inbox.MarkRead(ctx, 99, entries[1].ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for another user, got %v", err)
	}

	unread, err := inbox.List(ctx, 3, true)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected 1 unread, got %d", len(unread))
	}

	affected, err := inbox.MarkAllRead(ctx, 3)
	if err != nil || affected != 1 {
		t.Fatalf("mark all read: affected=%d err=%v", affected, err)
	}
}

func TestEmailNotifierUsesAddressOnFile(t *testing.T) {
	database := testutil.NewTestDB(t)
	withEmail := insertTestUser(t, database, "member@test.com")
	withoutEmail := insertTestUser(t, database, "")
	sender := &fakeEmailSender{}
	notifier := NewEmailNotifier(database.Queries, sender)
	ctx := context.Background()

	if err := notifier.Notify(ctx, Notification{UserID: withoutEmail, Title: "t", Message: "m"}); err != nil {
		t.Fatalf("notify without email: %v", err)
	}
	if err := notifier.Notify(ctx, Notification{UserID: 4242, Title: "t", Message: "m"}); err != nil {
		t.Fatalf("notify unknown user: %v", err)
	}
	if atomic.LoadInt32(&sender.calls) != 0 {
		t.Fatalf("expected no sends, got %d", sender.calls)
	}

	if err := notifier.Notify(ctx, Notification{UserID: withEmail, Title: "Booking Confirmed", Message: "See you there"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sender.calls != 1 || sender.recipient != "member@test.com" || sender.subject != "Booking Confirmed" {
		t.Fatalf("unexpected send %+v", sender)
	}
}

func TestRoutingKey(t *testing.T) {
	tests := map[Type]string{
		TypeBookingConfirmed: "booking.confirmed",
		TypeWaitlistPromoted: "waitlist.promoted",
		TypeBookingReminder:  "booking.reminder",
	}
	for typ, want := range tests {
		if got := RoutingKey(typ); got != want {
			t.Fatalf("RoutingKey(%s) = %q, want %q", typ, got, want)
		}
	}
}
