package booking

import (
	"context"
	"testing"
	"time"

	"github.com/codr1/campusbook/internal/notify"
	"github.com/codr1/campusbook/internal/slot"
)

func TestExpireOverdueIsIdempotent(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	ctx := context.Background()

	past := h.mustCreate(t, student, "09:00", "10:00")
	endsLater := h.mustCreate(t, other, "10:00", "11:00")
	active := h.mustCreate(t, other, "08:00", "09:00")
	if _, err := h.svc.CheckIn(ctx, guard, active.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}

	tick := testDate.At(slot.MustTimeOfDay("10:15"), time.UTC)
	h.clock.Set(tick)

	expired, err := h.svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expected 2 expired, got %d", expired)
	}

	got, err := h.svc.Get(ctx, admin, past.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusExpired || got.ExpiredAt == nil || !got.ExpiredAt.Equal(tick) {
		t.Fatalf("expected EXPIRED at %s, got %s at %v", tick, got.Status, got.ExpiredAt)
	}
	if still, _ := h.svc.Get(ctx, admin, endsLater.ID); still.Status != StatusConfirmed {
		t.Fatalf("booking ending later should stay CONFIRMED, got %s", still.Status)
	}
	if h.sink.last().Type != notify.TypeBookingExpired {
		t.Fatalf("expected expired notification, got %s", h.sink.last().Type)
	}

	before := len(h.sink.types())
	h.clock.Set(tick.Add(time.Minute))
	expired, err = h.svc.ExpireOverdue(ctx)
	if err != nil || expired != 0 {
		t.Fatalf("second tick: expired=%d err=%v", expired, err)
	}
	again, _ := h.svc.Get(ctx, admin, past.ID)
	if again.Status != StatusExpired || !again.ExpiredAt.Equal(tick) {
		t.Fatalf("second tick changed booking: %s at %v", again.Status, again.ExpiredAt)
	}
	if len(h.sink.types()) != before {
		t.Fatal("second tick sent notifications")
	}
}

func TestExpireOverdueBoundary(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	ctx := context.Background()

	b := h.mustCreate(t, student, "09:00", "10:00")

	h.clock.Set(testDate.At(slot.MustTimeOfDay("10:00"), time.UTC))
	if n, err := h.svc.ExpireOverdue(ctx); err != nil || n != 0 {
		t.Fatalf("at end time: expired=%d err=%v", n, err)
	}
	h.clock.Set(testDate.At(slot.MustTimeOfDay("10:00"), time.UTC).Add(time.Second))
	if n, err := h.svc.ExpireOverdue(ctx); err != nil || n != 1 {
		t.Fatalf("just after end: expired=%d err=%v", n, err)
	}
	if got, _ := h.svc.Get(ctx, admin, b.ID); got.Status != StatusExpired {
		t.Fatalf("expected EXPIRED, got %s", got.Status)
	}
}

func TestExpireOverdueIgnoresPendingAndCancelled(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyRequiresApproval})
	ctx := context.Background()

	pending := h.mustCreate(t, visitor, "09:00", "10:00")
	cancelled := h.mustCreate(t, student, "11:00", "12:00")
	if _, err := h.svc.Cancel(ctx, student, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	h.clock.Set(testDate.At(slot.MustTimeOfDay("20:00"), time.UTC))
	if n, err := h.svc.ExpireOverdue(ctx); err != nil || n != 0 {
		t.Fatalf("expired=%d err=%v", n, err)
	}
	if got, _ := h.svc.Get(ctx, admin, pending.ID); got.Status != StatusPending {
		t.Fatalf("pending booking changed to %s", got.Status)
	}
}

func TestSendRemindersOnce(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm, ReminderLead: 5 * time.Minute})
	ctx := context.Background()

	soon := h.mustCreate(t, student, "09:00", "10:00")
	h.mustCreate(t, other, "10:00", "11:00")

	h.clock.Set(testDate.At(slot.MustTimeOfDay("09:50"), time.UTC))
	if n, err := h.svc.SendReminders(ctx); err != nil || n != 0 {
		t.Fatalf("outside lead: sent=%d err=%v", n, err)
	}

	h.clock.Set(testDate.At(slot.MustTimeOfDay("09:56"), time.UTC))
	n, err := h.svc.SendReminders(ctx)
	if err != nil || n != 1 {
		t.Fatalf("inside lead: sent=%d err=%v", n, err)
	}
	last := h.sink.last()
	if last.Type != notify.TypeBookingReminder || last.UserID != student.UserID || *last.BookingID != soon.ID {
		t.Fatalf("unexpected reminder %+v", last)
	}

	h.clock.Set(testDate.At(slot.MustTimeOfDay("09:58"), time.UTC))
	if n, err := h.svc.SendReminders(ctx); err != nil || n != 0 {
		t.Fatalf("repeat tick: sent=%d err=%v", n, err)
	}
	got, _ := h.svc.Get(ctx, admin, soon.ID)
	if !got.ReminderSent {
		t.Fatal("expected reminder flag set")
	}
}

func TestCleanupWaitlistsExpiresStartedSlots(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	early, err := h.svc.JoinWaitlist(ctx, student, h.waitlistRequest("09:00", "10:00"))
	if err != nil {
		t.Fatalf("join early: %v", err)
	}
	if _, err := h.svc.JoinWaitlist(ctx, other, h.waitlistRequest("09:00", "10:00")); err != nil {
		t.Fatalf("join early second: %v", err)
	}
	late, err := h.svc.JoinWaitlist(ctx, student, h.waitlistRequest("15:00", "16:00"))
	if err != nil {
		t.Fatalf("join late: %v", err)
	}

	h.clock.Set(testDate.At(slot.MustTimeOfDay("09:00"), time.UTC))
	n, err := h.svc.CleanupWaitlists(ctx)
	if err != nil || n != 2 {
		t.Fatalf("cleanup: expired=%d err=%v", n, err)
	}

	mine, err := h.svc.ListMyWaitlist(ctx, student)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	statuses := map[int64]WaitlistStatus{}
	for _, e := range mine {
		statuses[e.ID] = e.Status
	}
	if statuses[early.ID] != WaitlistExpired || statuses[late.ID] != WaitlistWaiting {
		t.Fatalf("unexpected statuses %v", statuses)
	}

	// a second pass finds nothing left to expire
	if n, err := h.svc.CleanupWaitlists(ctx); err != nil || n != 0 {
		t.Fatalf("second cleanup: expired=%d err=%v", n, err)
	}
}
