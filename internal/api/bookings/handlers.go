// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/api/apiutil"
	"github.com/codr1/campusbook/internal/api/authz"
	"github.com/codr1/campusbook/internal/booking"
	"github.com/codr1/campusbook/internal/slot"
)

var (
	service     *booking.Service
	serviceOnce sync.Once
)

func InitHandlers(svc *booking.Service) {
	if svc == nil {
		return
	}
	serviceOnce.Do(func() {
		service = svc
	})
}

func loadService() *booking.Service {
	return service
}

type bookingPayload struct {
	FacilityID     int64  `json:"facilityId" validate:"required,gt=0"`
	Date           string `json:"date" validate:"required,calendardate"`
	StartTime      string `json:"startTime" validate:"required,timeofday"`
	EndTime        string `json:"endTime" validate:"required,timeofday"`
	Purpose        string `json:"purpose" validate:"required"`
	Attendees      int    `json:"attendees" validate:"gte=1"`
	Notes          string `json:"notes"`
	IsRecurring    bool   `json:"isRecurring"`
	RecurrenceRule string `json:"recurrenceRule" validate:"required_if=IsRecurring true"`
}

func (p bookingPayload) toRequest() booking.Request {
	// The validate tags have already accepted these formats.
	date, _ := slot.ParseDate(p.Date)
	start, _ := slot.ParseTimeOfDay(p.StartTime)
	end, _ := slot.ParseTimeOfDay(p.EndTime)
	return booking.Request{
		FacilityID:     p.FacilityID,
		Date:           date,
		StartTime:      start,
		EndTime:        end,
		Purpose:        p.Purpose,
		Attendees:      p.Attendees,
		Notes:          p.Notes,
		IsRecurring:    p.IsRecurring,
		RecurrenceRule: p.RecurrenceRule,
	}
}

// withActor resolves the service and the caller, writing the error response
// itself when either is missing.
func withActor(w http.ResponseWriter, r *http.Request) (*booking.Service, booking.Actor, bool) {
	svc := loadService()
	if svc == nil {
		log.Ctx(r.Context()).Error().Msg("Booking service not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Booking service not initialized"})
		return nil, booking.Actor{}, false
	}
	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return nil, booking.Actor{}, false
	}
	return svc, user.Actor(), true
}

// POST /bookings
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	var payload bookingPayload
	if err := apiutil.DecodeAndValidate(r, &payload); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	created, err := svc.Create(r.Context(), actor, payload.toRequest())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusCreated, created)
}

// PUT /bookings/{id}
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	var payload bookingPayload
	if err := apiutil.DecodeAndValidate(r, &payload); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	updated, err := svc.Update(r.Context(), actor, id, payload.toRequest())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, updated)
}

// GET /bookings/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	b, err := svc.Get(r.Context(), actor, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, b)
}

// GET /bookings
func HandleList(w http.ResponseWriter, r *http.Request) {
	respondList(w, r, func(ctx context.Context, svc *booking.Service, actor booking.Actor) ([]booking.Booking, error) {
		return svc.ListAll(ctx, actor)
	})
}

// GET /bookings/my
func HandleListMine(w http.ResponseWriter, r *http.Request) {
	respondList(w, r, func(ctx context.Context, svc *booking.Service, actor booking.Actor) ([]booking.Booking, error) {
		return svc.ListMine(ctx, actor)
	})
}

// GET /bookings/today
func HandleListToday(w http.ResponseWriter, r *http.Request) {
	respondList(w, r, func(ctx context.Context, svc *booking.Service, actor booking.Actor) ([]booking.Booking, error) {
		return svc.ListToday(ctx, actor)
	})
}

// GET /bookings/status/{status}
func HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	status, valid := booking.ParseStatus(strings.ToUpper(strings.TrimSpace(r.PathValue("status"))))
	if !valid {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "status", Reason: "is not a booking status"})
		return
	}
	respondList(w, r, func(ctx context.Context, svc *booking.Service, actor booking.Actor) ([]booking.Booking, error) {
		return svc.ListByStatus(ctx, actor, status)
	})
}

// GET /bookings/facility/{facilityId}?date=YYYY-MM-DD
func HandleListByFacility(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "facilityId")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, err := apiutil.QueryDate(r, "date", true)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	respondList(w, r, func(ctx context.Context, svc *booking.Service, _ booking.Actor) ([]booking.Booking, error) {
		return svc.ListByFacility(ctx, facilityID, date)
	})
}

func respondList(w http.ResponseWriter, r *http.Request, list func(context.Context, *booking.Service, booking.Actor) ([]booking.Booking, error)) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	items, err := list(r.Context(), svc, actor)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, items)
}

// GET /bookings/availability?facilityId=&date=
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := withActor(w, r)
	if !ok {
		return
	}
	facilityID, err := apiutil.QueryID(r, "facilityId")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, err := apiutil.QueryDate(r, "date", false)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	availability, err := svc.Availability(r.Context(), facilityID, *date)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, availability)
}

type transitionFunc func(svc *booking.Service, ctx context.Context, actor booking.Actor, id int64) (booking.Booking, error)

// PATCH /bookings/{id}/cancel
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, (*booking.Service).Cancel)
}

// PATCH /bookings/{id}/check-in
func HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, (*booking.Service).CheckIn)
}

// PATCH /bookings/{id}/check-out
func HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, (*booking.Service).CheckOut)
}

// PATCH /bookings/{id}/extend
func HandleExtend(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, (*booking.Service).Extend)
}

func handleTransition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	updated, err := apply(svc, r.Context(), actor, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, updated)
}

// DELETE /bookings/{id}
func HandlePurge(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := svc.Purge(r.Context(), actor, id); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
