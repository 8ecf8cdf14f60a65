package notifications

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/codr1/campusbook/internal/api/apitest"
	"github.com/codr1/campusbook/internal/notify"
)

func setupNotificationsTest(t *testing.T) *apitest.Fixture {
	t.Helper()

	fixture := apitest.New(t)

	inbox = nil
	inboxOnce = sync.Once{}
	InitHandlers(fixture.Inbox)

	t.Cleanup(func() {
		inbox = nil
		inboxOnce = sync.Once{}
	})
	return fixture
}

func list(target string, user *apitest.User) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	HandleList(recorder, apitest.Request(http.MethodGet, target, "", user))
	return recorder
}

func TestInboxFlow(t *testing.T) {
	fixture := setupNotificationsTest(t)
	fixture.Book(t, apitest.Student, "09:00", "10:00")
	fixture.Book(t, apitest.Student, "11:00", "12:00")

	recorder := list("/notifications", apitest.Student)
	apitest.ExpectStatus(t, recorder, http.StatusOK)
	var entries []notify.InboxEntry
	apitest.Decode(t, recorder, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(entries))
	}
	if entries[0].Type != notify.TypeBookingConfirmed || entries[0].IsRead {
		t.Fatalf("unexpected entry %+v", entries[0])
	}

	id := fmt.Sprint(entries[0].ID)
	req := apitest.Request(http.MethodPatch, "/notifications/"+id+"/read", "", apitest.Student)
	req.SetPathValue("id", id)
	recorder = httptest.NewRecorder()
	HandleMarkRead(recorder, req)
	apitest.ExpectStatus(t, recorder, http.StatusNoContent)

	apitest.Decode(t, list("/notifications?unread=true", apitest.Student), &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 unread notification, got %d", len(entries))
	}

	recorder = httptest.NewRecorder()
	HandleMarkAllRead(recorder, apitest.Request(http.MethodPatch, "/notifications/read-all", "", apitest.Student))
	apitest.ExpectStatus(t, recorder, http.StatusOK)
	var updated map[string]int64
	apitest.Decode(t, recorder, &updated)
	if updated["updated"] != 1 {
		t.Fatalf("expected 1 updated, got %v", updated)
	}

	recorder = httptest.NewRecorder()
	HandleUnreadCount(recorder, apitest.Request(http.MethodGet, "/notifications/count", "", apitest.Student))
	apitest.ExpectStatus(t, recorder, http.StatusOK)
	var count map[string]int
	apitest.Decode(t, recorder, &count)
	if count["unread"] != 0 {
		t.Fatalf("expected no unread notifications, got %v", count)
	}
}

func TestMarkReadIsScopedToOwner(t *testing.T) {
	fixture := setupNotificationsTest(t)
	fixture.Book(t, apitest.Student, "09:00", "10:00")

	var entries []notify.InboxEntry
	apitest.Decode(t, list("/notifications", apitest.Student), &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(entries))
	}

	id := fmt.Sprint(entries[0].ID)
	req := apitest.Request(http.MethodPatch, "/notifications/"+id+"/read", "", apitest.Other)
	req.SetPathValue("id", id)
	recorder := httptest.NewRecorder()
	HandleMarkRead(recorder, req)
	apitest.ExpectStatus(t, recorder, http.StatusNotFound)

	apitest.ExpectStatus(t, list("/notifications", nil), http.StatusUnauthorized)
}
