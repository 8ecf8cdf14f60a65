// cmd/server/server.go
package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/api"
	"github.com/codr1/campusbook/internal/api/approvals"
	"github.com/codr1/campusbook/internal/api/apiutil"
	"github.com/codr1/campusbook/internal/api/bookings"
	"github.com/codr1/campusbook/internal/api/notifications"
	"github.com/codr1/campusbook/internal/api/waitlist"
	"github.com/codr1/campusbook/internal/booking"
	"github.com/codr1/campusbook/internal/config"
	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/notify"
	"github.com/codr1/campusbook/internal/ratelimit"
)

const healthCheckTimeout = 2 * time.Second

type serverDeps struct {
	DB       *db.DB
	Bookings *booking.Service
	Inbox    *notify.Inbox
	Tokens   api.UserResolver
	Limiter  *ratelimit.Limiter
}

func newServer(cfg *config.Config, deps serverDeps) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithRateLimit(deps.Limiter, cfg.RateLimit.TrustProxy),
		api.WithAuth(deps.Tokens),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	bookings.InitHandlers(deps.Bookings)
	waitlist.InitHandlers(deps.Bookings)
	approvals.InitHandlers(deps.Bookings)
	notifications.InitHandlers(deps.Inbox)

	// Register routes
	registerRoutes(router, deps.DB)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, database *db.DB) {
	authed := func(h http.HandlerFunc) http.Handler {
		return api.RequireAuth(h)
	}
	desk := func(h http.HandlerFunc) http.Handler {
		return api.RequireRole(booking.RoleAdmin, booking.RoleSecurity)(h)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Database unavailable", Err: err})
			return
		}
		apiutil.Respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Booking routes
	mux.Handle("POST /bookings", authed(bookings.HandleCreate))
	mux.Handle("GET /bookings", authed(bookings.HandleList))
	mux.Handle("GET /bookings/my", authed(bookings.HandleListMine))
	mux.Handle("GET /bookings/today", desk(bookings.HandleListToday))
	mux.Handle("GET /bookings/availability", authed(bookings.HandleAvailability))
	mux.Handle("GET /bookings/facility/{facilityId}", authed(bookings.HandleListByFacility))
	mux.Handle("GET /bookings/status/{status}", authed(bookings.HandleListByStatus))
	mux.Handle("GET /bookings/{id}", authed(bookings.HandleGet))
	mux.Handle("PUT /bookings/{id}", authed(bookings.HandleUpdate))
	mux.Handle("DELETE /bookings/{id}", authed(bookings.HandlePurge))
	mux.Handle("PATCH /bookings/{id}/cancel", authed(bookings.HandleCancel))
	mux.Handle("PATCH /bookings/{id}/check-in", desk(bookings.HandleCheckIn))
	mux.Handle("PATCH /bookings/{id}/check-out", desk(bookings.HandleCheckOut))
	mux.Handle("PATCH /bookings/{id}/extend", authed(bookings.HandleExtend))

	// Waitlist routes
	mux.Handle("POST /waitlist", authed(waitlist.HandleJoin))
	mux.Handle("GET /waitlist", authed(waitlist.HandleList))
	mux.Handle("GET /waitlist/my", authed(waitlist.HandleListMine))
	mux.Handle("GET /waitlist/facility/{facilityId}", authed(waitlist.HandleListByFacility))
	mux.Handle("DELETE /waitlist/{id}", authed(waitlist.HandleLeave))

	// Approval routes
	mux.Handle("GET /approvals", authed(approvals.HandleList))
	mux.Handle("GET /approvals/pending", authed(approvals.HandleListPending))
	mux.Handle("GET /approvals/booking/{bookingId}", authed(approvals.HandleListForBooking))
	mux.Handle("POST /approvals/{bookingId}/approve", authed(approvals.HandleApprove))
	mux.Handle("POST /approvals/{bookingId}/reject", authed(approvals.HandleReject))

	// Notification routes
	mux.Handle("GET /notifications", authed(notifications.HandleList))
	mux.Handle("GET /notifications/count", authed(notifications.HandleUnreadCount))
	mux.Handle("PATCH /notifications/read-all", authed(notifications.HandleMarkAllRead))
	mux.Handle("PATCH /notifications/{id}/read", authed(notifications.HandleMarkRead))
}
