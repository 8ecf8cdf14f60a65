// internal/api/notifications/handlers.go
package notifications

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/api/apiutil"
	"github.com/codr1/campusbook/internal/api/authz"
	"github.com/codr1/campusbook/internal/notify"
)

var (
	inbox     *notify.Inbox
	inboxOnce sync.Once
)

const notificationsQueryTimeout = 5 * time.Second

func InitHandlers(i *notify.Inbox) {
	if i == nil {
		return
	}
	inboxOnce.Do(func() {
		inbox = i
	})
}

func loadInbox() *notify.Inbox {
	return inbox
}

func withUser(w http.ResponseWriter, r *http.Request) (*notify.Inbox, *authz.AuthUser, bool) {
	i := loadInbox()
	if i == nil {
		log.Ctx(r.Context()).Error().Msg("Notification inbox not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Notifications are not enabled"})
		return nil, nil, false
	}
	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return nil, nil, false
	}
	return i, user, true
}

// GET /notifications?unread=true
func HandleList(w http.ResponseWriter, r *http.Request) {
	i, user, ok := withUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), notificationsQueryTimeout)
	defer cancel()

	entries, err := i.List(ctx, user.ID, apiutil.QueryBool(r, "unread"))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, entries)
}

// GET /notifications/count
func HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	i, user, ok := withUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), notificationsQueryTimeout)
	defer cancel()

	entries, err := i.List(ctx, user.ID, true)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, map[string]int{"unread": len(entries)})
}

// PATCH /notifications/{id}/read
func HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	i, user, ok := withUser(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), notificationsQueryTimeout)
	defer cancel()

	if err := i.MarkRead(ctx, user.ID, id); err != nil {
		if errors.Is(err, notify.ErrNotificationNotFound) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Notification not found", Err: err})
			return
		}
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PATCH /notifications/read-all
func HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	i, user, ok := withUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), notificationsQueryTimeout)
	defer cancel()

	updated, err := i.MarkAllRead(ctx, user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, map[string]int64{"updated": updated})
}
