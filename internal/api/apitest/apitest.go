// Package apitest builds the fixtures the HTTP handler tests share.
package apitest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codr1/campusbook/internal/api/authz"
	"github.com/codr1/campusbook/internal/booking"
	"github.com/codr1/campusbook/internal/catalog"
	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/notify"
	"github.com/codr1/campusbook/internal/slot"
	"github.com/codr1/campusbook/internal/testutil"
)

// Date is the day every fixture booking falls on. The fixture clock sits on
// the day before.
const Date slot.Date = "2026-05-11"

type User = authz.AuthUser

var (
	Student = &authz.AuthUser{ID: 10, Role: booking.RoleStudent}
	Other   = &authz.AuthUser{ID: 11, Role: booking.RoleStaff}
	Admin   = &authz.AuthUser{ID: 1, Role: booking.RoleAdmin}
	Guard   = &authz.AuthUser{ID: 2, Role: booking.RoleSecurity}
)

type Fixture struct {
	DB      *db.DB
	Service *booking.Service
	Inbox   *notify.Inbox
	// FacilityID confirms bookings immediately; AuditoriumID holds them PENDING.
	FacilityID   int64
	AuditoriumID int64
}

// New opens a test database with two facilities open 07:00-22:00 and a
// booking service that writes notifications straight to the inbox.
func New(t *testing.T) *Fixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	store := catalog.NewStore(database.Queries)
	facility, err := store.CreateFacility(context.Background(), catalog.Facility{
		Name:        "Seminar Room",
		Capacity:    20,
		OpeningTime: slot.MustTimeOfDay("07:00"),
		ClosingTime: slot.MustTimeOfDay("22:00"),
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}
	auditorium, err := store.CreateFacility(context.Background(), catalog.Facility{
		Name:             "Auditorium",
		Capacity:         200,
		OpeningTime:      slot.MustTimeOfDay("07:00"),
		ClosingTime:      slot.MustTimeOfDay("22:00"),
		IsAvailable:      true,
		RequiresApproval: true,
	})
	if err != nil {
		t.Fatalf("create auditorium: %v", err)
	}

	inbox := notify.NewInbox(database.Queries)
	svc := booking.NewService(database, store, inboxSink{inbox: inbox, t: t}, booking.Options{
		ApprovalPolicy: booking.PolicyRequiresApproval,
		Location:       time.UTC,
		Now:            func() time.Time { return time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC) },
	})
	return &Fixture{
		DB:           database,
		Service:      svc,
		Inbox:        inbox,
		FacilityID:   facility.ID,
		AuditoriumID: auditorium.ID,
	}
}

// Book creates a confirmed booking for user.
func (f *Fixture) Book(t *testing.T, user *authz.AuthUser, start, end string) booking.Booking {
	t.Helper()
	return f.BookAt(t, f.FacilityID, user, start, end)
}

// BookAt creates a booking for user at facilityID.
func (f *Fixture) BookAt(t *testing.T, facilityID int64, user *authz.AuthUser, start, end string) booking.Booking {
	t.Helper()
	b, err := f.Service.Create(context.Background(), user.Actor(), booking.Request{
		FacilityID: facilityID,
		Date:       Date,
		StartTime:  slot.MustTimeOfDay(start),
		EndTime:    slot.MustTimeOfDay(end),
		Purpose:    "Reading group",
		Attendees:  4,
	})
	if err != nil {
		t.Fatalf("create booking %s-%s: %v", start, end, err)
	}
	return b
}

// inboxSink stores synchronously so tests can read what was sent.
type inboxSink struct {
	inbox *notify.Inbox
	t     *testing.T
}

func (s inboxSink) Send(ctx context.Context, n notify.Notification) {
	if err := s.inbox.Notify(ctx, n); err != nil {
		s.t.Errorf("store notification: %v", err)
	}
}

// Request builds a request carrying user. A nil user makes it anonymous.
func Request(method, target, body string, user *authz.AuthUser) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	return req
}

// Decode unmarshals the recorded body into dst.
func Decode(t *testing.T, recorder *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v (%s)", err, recorder.Body.String())
	}
}

// ExpectStatus fails the test when the recorded status differs from want.
func ExpectStatus(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()
	if recorder.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, recorder.Code, recorder.Body.String())
	}
}
