package booking

import (
	"context"
	"database/sql"
	"testing"

	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/notify"
)

func TestApproveConfirmsPendingBooking(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyRequiresApproval})
	ctx := context.Background()

	pending := h.mustCreate(t, visitor, "09:00", "10:00")

	_, err := h.svc.Approve(ctx, student, pending.ID, "")
	assertKind(t, err, KindUnauthorized)

	approval, err := h.svc.Approve(ctx, admin, pending.ID, "  Bring ID  ")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approval.Decision != DecisionApproved || approval.BookingID != pending.ID || approval.Remarks != "Bring ID" {
		t.Fatalf("unexpected approval %+v", approval)
	}
	if approval.ReviewedBy == nil || *approval.ReviewedBy != admin.UserID {
		t.Fatalf("expected reviewer %d, got %v", admin.UserID, approval.ReviewedBy)
	}

	confirmed, err := h.svc.Get(ctx, admin, pending.ID)
	if err != nil || confirmed.Status != StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s (%v)", confirmed.Status, err)
	}
	if last := h.sink.last(); last.Type != notify.TypeBookingConfirmed || last.UserID != visitor.UserID {
		t.Fatalf("unexpected notification %+v", last)
	}

	_, err = h.svc.Approve(ctx, admin, pending.ID, "")
	assertKind(t, err, KindInvalidTransition)

	history, err := h.svc.ListApprovalsForBooking(ctx, visitor, pending.ID)
	if err != nil || len(history) != 1 {
		t.Fatalf("history: %v (%d)", err, len(history))
	}
	if _, err := h.svc.ListApprovalsForBooking(ctx, student, pending.ID); KindOf(err) != KindUnauthorized {
		t.Fatalf("expected stranger refused, got %v", err)
	}
}

func TestApproveRechecksConflicts(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyRequiresApproval})
	ctx := context.Background()

	pending := h.mustCreate(t, visitor, "09:00", "10:00")
	h.mustCreate(t, student, "09:30", "10:30")

	_, err := h.svc.Approve(ctx, admin, pending.ID, "")
	assertKind(t, err, KindSlotConflict)

	still, _ := h.svc.Get(ctx, admin, pending.ID)
	if still.Status != StatusPending {
		t.Fatalf("failed approval changed status to %s", still.Status)
	}
	all, err := h.svc.ListApprovals(ctx, admin)
	if err != nil || len(all) != 0 {
		t.Fatalf("expected no approval records, got %d (%v)", len(all), err)
	}
}

func TestRejectPendingBooking(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyRequiresApproval})
	ctx := context.Background()

	pending := h.mustCreate(t, visitor, "09:00", "10:00")
	listed, err := h.svc.ListPending(ctx, admin)
	if err != nil || len(listed) != 1 {
		t.Fatalf("list pending: %v (%d)", err, len(listed))
	}

	approval, err := h.svc.Reject(ctx, admin, pending.ID, "Facility reserved for exams")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if approval.Decision != DecisionRejected {
		t.Fatalf("expected REJECTED decision, got %s", approval.Decision)
	}
	rejected, _ := h.svc.Get(ctx, admin, pending.ID)
	if rejected.Status != StatusRejected {
		t.Fatalf("expected REJECTED, got %s", rejected.Status)
	}
	if h.sink.last().Type != notify.TypeBookingRejected {
		t.Fatalf("expected rejected notification, got %s", h.sink.last().Type)
	}

	_, err = h.svc.Reject(ctx, admin, pending.ID, "")
	assertKind(t, err, KindInvalidTransition)

	confirmed := h.mustCreate(t, student, "11:00", "12:00")
	_, err = h.svc.Reject(ctx, admin, confirmed.ID, "")
	assertKind(t, err, KindInvalidTransition)

	if pendingNow, _ := h.svc.ListPending(ctx, admin); len(pendingNow) != 0 {
		t.Fatalf("expected no pending bookings, got %d", len(pendingNow))
	}
}

func TestPurgeRemovesBookingAndHistory(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyRequiresApproval})
	ctx := context.Background()

	b := h.mustCreate(t, visitor, "09:00", "10:00")
	if _, err := h.svc.Approve(ctx, admin, b.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := h.svc.db.Queries.CreateNotification(ctx, dbq.CreateNotificationParams{
		UserID:    visitor.UserID,
		BookingID: sql.NullInt64{Int64: b.ID, Valid: true},
		Type:      string(notify.TypeBookingConfirmed),
		Title:     "Booking Approved!",
		Message:   "See you there",
		CreatedAt: h.clock.Now(),
	}); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	err := h.svc.Purge(ctx, student, b.ID)
	assertKind(t, err, KindUnauthorized)

	if err := h.svc.Purge(ctx, admin, b.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	_, err = h.svc.Get(ctx, admin, b.ID)
	assertKind(t, err, KindNotFound)

	notes, err := h.svc.db.Queries.ListNotificationsByUser(ctx, visitor.UserID)
	if err != nil || len(notes) != 1 {
		t.Fatalf("list notifications: %v (%d)", err, len(notes))
	}
	if notes[0].BookingID.Valid {
		t.Fatalf("expected notification detached from purged booking")
	}

	err = h.svc.Purge(ctx, admin, b.ID)
	assertKind(t, err, KindNotFound)
}
