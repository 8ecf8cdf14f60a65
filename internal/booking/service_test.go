package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codr1/campusbook/internal/catalog"
	"github.com/codr1/campusbook/internal/notify"
	"github.com/codr1/campusbook/internal/slot"
	"github.com/codr1/campusbook/internal/testutil"
)

const testDate slot.Date = "2026-05-11"

var (
	student = Actor{UserID: 10, Role: RoleStudent}
	other   = Actor{UserID: 11, Role: RoleStaff}
	admin   = Actor{UserID: 1, Role: RoleAdmin}
	guard   = Actor{UserID: 2, Role: RoleSecurity}
	visitor = Actor{UserID: 12, Role: RoleVisitor}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingSink struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingSink) Send(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingSink) types() []notify.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Type, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Type)
	}
	return out
}

func (r *recordingSink) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return notify.Notification{}
	}
	return r.sent[len(r.sent)-1]
}

type harness struct {
	svc     *Service
	store   *catalog.Store
	sink    *recordingSink
	clock   *fakeClock
	hallID  int64
	closeAt slot.TimeOfDay
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	database := testutil.NewTestDB(t)
	store := catalog.NewStore(database.Queries)
	sink := &recordingSink{}
	clock := &fakeClock{now: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	opts.Location = time.UTC
	opts.Now = clock.Now

	hall, err := store.CreateFacility(context.Background(), catalog.Facility{
		Name:        "Main Hall",
		Capacity:    40,
		OpeningTime: slot.MustTimeOfDay("07:00"),
		ClosingTime: slot.MustTimeOfDay("22:00"),
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}

	return &harness{
		svc:     NewService(database, store, sink, opts),
		store:   store,
		sink:    sink,
		clock:   clock,
		hallID:  hall.ID,
		closeAt: hall.ClosingTime,
	}
}

func (h *harness) request(start, end string, attendees int) Request {
	return Request{
		FacilityID: h.hallID,
		Date:       testDate,
		StartTime:  slot.MustTimeOfDay(start),
		EndTime:    slot.MustTimeOfDay(end),
		Purpose:    "Study group",
		Attendees:  attendees,
	}
}

func (h *harness) mustCreate(t *testing.T, actor Actor, start, end string) Booking {
	t.Helper()
	b, err := h.svc.Create(context.Background(), actor, h.request(start, end, 5))
	if err != nil {
		t.Fatalf("create %s-%s: %v", start, end, err)
	}
	return b
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

func TestCreateEnforcesCapacity(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	ctx := context.Background()

	_, err := h.svc.Create(ctx, student, h.request("09:00", "10:00", 45))
	assertKind(t, err, KindCapacityExceeded)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected errors.Is ErrCapacityExceeded, got %v", err)
	}

	b, err := h.svc.Create(ctx, student, h.request("09:00", "10:00", 35))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", b.Status)
	}
	if b.MaxExtensions != defaultMaxExtensions || b.ExtensionCount != 0 {
		t.Fatalf("unexpected extension counters %d/%d", b.ExtensionCount, b.MaxExtensions)
	}
	if got := h.sink.types(); len(got) != 1 || got[0] != notify.TypeBookingConfirmed {
		t.Fatalf("expected one confirmed notification, got %v", got)
	}
}

func TestCreateValidationOrder(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	ctx := context.Background()

	closed, err := h.store.CreateFacility(ctx, catalog.Facility{
		Name:        "Closed Lab",
		Capacity:    10,
		OpeningTime: slot.MustTimeOfDay("08:00"),
		ClosingTime: slot.MustTimeOfDay("18:00"),
		IsAvailable: false,
	})
	if err != nil {
		t.Fatalf("create closed facility: %v", err)
	}
	if err := h.store.AddMaintenance(ctx, h.hallID, testDate, testDate, "Floor polish", nil); err != nil {
		t.Fatalf("add maintenance: %v", err)
	}

	tests := []struct {
		name string
		req  Request
		want Kind
	}{
		{
			name: "unavailable facility wins over a bad window",
			req:  Request{FacilityID: closed.ID, Date: testDate, StartTime: slot.MustTimeOfDay("12:00"), EndTime: slot.MustTimeOfDay("11:00"), Purpose: "x", Attendees: 99},
			want: KindFacilityUnavailable,
		},
		{
			name: "inverted window before hours",
			req:  h.request("23:00", "06:00", 99),
			want: KindInvalidWindow,
		},
		{
			name: "outside hours before duration",
			req:  h.request("06:30", "06:45", 99),
			want: KindOutsideOperatingHours,
		},
		{
			name: "duration before capacity",
			req:  h.request("09:00", "09:15", 99),
			want: KindDurationTooShort,
		},
		{
			name: "capacity before maintenance",
			req:  h.request("09:00", "10:00", 99),
			want: KindCapacityExceeded,
		},
		{
			name: "maintenance",
			req:  h.request("09:00", "10:00", 5),
			want: KindUnderMaintenance,
		},
		{
			name: "unknown facility",
			req:  Request{FacilityID: 9999, Date: testDate, StartTime: slot.MustTimeOfDay("09:00"), EndTime: slot.MustTimeOfDay("10:00"), Purpose: "x", Attendees: 1},
			want: KindNotFound,
		},
		{
			name: "missing fields",
			req:  Request{FacilityID: h.hallID, Date: "not-a-date", StartTime: slot.MustTimeOfDay("09:00"), EndTime: slot.MustTimeOfDay("10:00")},
			want: KindValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(ctx, student, tt.req)
			assertKind(t, err, tt.want)
		})
	}
}

func TestCreateValidationReportsFields(t *testing.T) {
	h := newHarness(t, Options{})
	_, err := h.svc.Create(context.Background(), student, Request{FacilityID: h.hallID, Date: "2026-13-40"})

	var bookingErr *Error
	if !errors.As(err, &bookingErr) || bookingErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"date", "purpose", "attendees"} {
		if _, ok := bookingErr.Fields[field]; !ok {
			t.Fatalf("expected field error for %s, got %v", field, bookingErr.Fields)
		}
	}
}

func TestTouchingEndpointsDoNotConflict(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	ctx := context.Background()

	h.mustCreate(t, student, "09:00", "10:00")
	h.mustCreate(t, other, "10:00", "11:00")
	h.mustCreate(t, other, "08:00", "09:00")

	_, err := h.svc.Create(ctx, other, h.request("09:30", "10:30", 5))
	assertKind(t, err, KindSlotConflict)
}

func TestConcurrentOverlappingCreates(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	ctx := context.Background()

	requests := []Request{
		h.request("10:00", "11:00", 5),
		h.request("10:30", "11:30", 5),
	}
	errs := make([]error, len(requests))
	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.svc.Create(ctx, Actor{UserID: int64(100 + i), Role: RoleStudent}, req)
		}()
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSlotConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("expected one success and one conflict, got %d and %d", succeeded, conflicted)
	}

	list, err := h.svc.ListByFacility(ctx, h.hallID, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != StatusConfirmed {
		t.Fatalf("expected exactly one confirmed booking, got %+v", list)
	}
}

func TestApprovalPolicy(t *testing.T) {
	ctx := context.Background()

	gated := newHarness(t, Options{ApprovalPolicy: PolicyRequiresApproval})
	if b := gated.mustCreate(t, student, "09:00", "10:00"); b.Status != StatusConfirmed {
		t.Fatalf("student on ungated facility: expected CONFIRMED, got %s", b.Status)
	}
	if b := gated.mustCreate(t, visitor, "11:00", "12:00"); b.Status != StatusPending {
		t.Fatalf("visitor: expected PENDING, got %s", b.Status)
	}
	if got := gated.sink.last().Type; got != notify.TypeBookingPending {
		t.Fatalf("expected pending notification, got %s", got)
	}

	studio, err := gated.store.CreateFacility(ctx, catalog.Facility{
		Name:             "Recording Studio",
		Capacity:         4,
		OpeningTime:      slot.MustTimeOfDay("09:00"),
		ClosingTime:      slot.MustTimeOfDay("17:00"),
		IsAvailable:      true,
		RequiresApproval: true,
	})
	if err != nil {
		t.Fatalf("create studio: %v", err)
	}
	req := gated.request("09:00", "10:00", 2)
	req.FacilityID = studio.ID
	b, err := gated.svc.Create(ctx, student, req)
	if err != nil {
		t.Fatalf("create studio booking: %v", err)
	}
	if b.Status != StatusPending {
		t.Fatalf("approval facility: expected PENDING, got %s", b.Status)
	}

	open := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	if b := open.mustCreate(t, visitor, "11:00", "12:00"); b.Status != StatusConfirmed {
		t.Fatalf("auto confirm visitor: expected CONFIRMED, got %s", b.Status)
	}
}

func TestPendingBookingsDoNotHoldSlots(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyRequiresApproval})

	pending := h.mustCreate(t, visitor, "09:00", "10:00")
	if pending.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", pending.Status)
	}
	confirmed := h.mustCreate(t, student, "09:00", "10:00")
	if confirmed.Status != StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", confirmed.Status)
	}
}

func TestUpdateExcludesItself(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	ctx := context.Background()

	b := h.mustCreate(t, student, "09:00", "10:00")
	h.mustCreate(t, other, "11:00", "12:00")

	updated, err := h.svc.Update(ctx, student, b.ID, h.request("09:30", "10:30", 8))
	if err != nil {
		t.Fatalf("update overlapping own window: %v", err)
	}
	if updated.StartTime != slot.MustTimeOfDay("09:30") || updated.Attendees != 8 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	_, err = h.svc.Update(ctx, student, b.ID, h.request("10:30", "11:30", 8))
	assertKind(t, err, KindSlotConflict)

	_, err = h.svc.Update(ctx, other, b.ID, h.request("09:00", "10:00", 1))
	assertKind(t, err, KindUnauthorized)

	if _, err := h.svc.Cancel(ctx, student, b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = h.svc.Update(ctx, student, b.ID, h.request("09:00", "10:00", 1))
	assertKind(t, err, KindInvalidTransition)
}

func TestUpdateResetsStateOnlyWhenWindowMoves(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm, ReminderLead: 5 * time.Minute})
	ctx := context.Background()

	b := h.mustCreate(t, student, "09:00", "10:00")
	if _, err := h.svc.Extend(ctx, student, b.ID); err != nil {
		t.Fatalf("extend: %v", err)
	}
	h.clock.Set(testDate.At(slot.MustTimeOfDay("10:27"), time.UTC))
	if sent, err := h.svc.SendReminders(ctx); err != nil || sent != 1 {
		t.Fatalf("send reminders: %d, %v", sent, err)
	}

	kept, err := h.svc.Update(ctx, student, b.ID, h.request("09:00", "10:30", 6))
	if err != nil {
		t.Fatalf("update attendees: %v", err)
	}
	if !kept.ReminderSent || kept.ExtensionCount != 1 || kept.OriginalEndTime == nil {
		t.Fatalf("expected window state kept, got %+v", kept)
	}

	moved, err := h.svc.Update(ctx, student, b.ID, h.request("13:00", "14:00", 6))
	if err != nil {
		t.Fatalf("move booking: %v", err)
	}
	if moved.ReminderSent || moved.ExtensionCount != 0 || moved.OriginalEndTime != nil {
		t.Fatalf("expected window state reset, got %+v", moved)
	}

	h.clock.Set(testDate.At(slot.MustTimeOfDay("13:57"), time.UTC))
	if sent, err := h.svc.SendReminders(ctx); err != nil || sent != 1 {
		t.Fatalf("expected a reminder for the new window: %d, %v", sent, err)
	}
}

func TestGetAndListVisibility(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyAutoConfirm})
	ctx := context.Background()

	b := h.mustCreate(t, student, "09:00", "10:00")

	if _, err := h.svc.Get(ctx, other, b.ID); KindOf(err) != KindUnauthorized {
		t.Fatalf("expected other user to be refused, got %v", err)
	}
	if _, err := h.svc.Get(ctx, guard, b.ID); err != nil {
		t.Fatalf("security should see bookings: %v", err)
	}
	if _, err := h.svc.Get(ctx, admin, b.ID+100); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	mine, err := h.svc.ListMine(ctx, student)
	if err != nil || len(mine) != 1 {
		t.Fatalf("list mine: %v (%d)", err, len(mine))
	}
	if _, err := h.svc.ListAll(ctx, student); KindOf(err) != KindUnauthorized {
		t.Fatalf("expected students to be refused ListAll, got %v", err)
	}
	byStatus, err := h.svc.ListByStatus(ctx, admin, StatusConfirmed)
	if err != nil || len(byStatus) != 1 {
		t.Fatalf("list by status: %v (%d)", err, len(byStatus))
	}
	date := testDate
	onDate, err := h.svc.ListByFacility(ctx, h.hallID, &date)
	if err != nil || len(onDate) != 1 {
		t.Fatalf("list by facility and date: %v (%d)", err, len(onDate))
	}

	h.clock.Set(time.Date(2026, 5, 11, 8, 0, 0, 0, time.UTC))
	today, err := h.svc.ListToday(ctx, guard)
	if err != nil || len(today) != 1 {
		t.Fatalf("list today: %v (%d)", err, len(today))
	}
}

func TestAvailabilityMarksHeldSlots(t *testing.T) {
	h := newHarness(t, Options{ApprovalPolicy: PolicyRequiresApproval})
	ctx := context.Background()

	h.mustCreate(t, student, "09:00", "10:00")
	h.mustCreate(t, visitor, "12:00", "13:00") // PENDING, does not hold

	avail, err := h.svc.Availability(ctx, h.hallID, testDate)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if avail.FacilityName != "Main Hall" || len(avail.Slots) != 30 {
		t.Fatalf("unexpected availability %s with %d slots", avail.FacilityName, len(avail.Slots))
	}
	taken := map[string]bool{}
	for _, s := range avail.Slots {
		if !s.Available {
			taken[s.StartTime.String()] = true
		}
	}
	if len(taken) != 2 || !taken["09:00"] || !taken["09:30"] {
		t.Fatalf("expected 09:00 and 09:30 taken, got %v", taken)
	}
}
