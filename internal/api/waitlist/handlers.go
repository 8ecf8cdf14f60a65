// internal/api/waitlist/handlers.go
package waitlist

import (
	"net/http"
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

type joinPayload struct {
	FacilityID int64  `json:"facilityId" validate:"required,gt=0"`
	Date       string `json:"date" validate:"required,calendardate"`
	StartTime  string `json:"startTime" validate:"required,timeofday"`
	EndTime    string `json:"endTime" validate:"required,timeofday"`
	Purpose    string `json:"purpose"`
}

func withActor(w http.ResponseWriter, r *http.Request) (*booking.Service, booking.Actor, bool) {
	svc := loadService()
	if svc == nil {
		log.Ctx(r.Context()).Error().Msg("Waitlist service not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Waitlist service not initialized"})
		return nil, booking.Actor{}, false
	}
	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return nil, booking.Actor{}, false
	}
	return svc, user.Actor(), true
}

// POST /waitlist
func HandleJoin(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	var payload joinPayload
	if err := apiutil.DecodeAndValidate(r, &payload); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, _ := slot.ParseDate(payload.Date)
	start, _ := slot.ParseTimeOfDay(payload.StartTime)
	end, _ := slot.ParseTimeOfDay(payload.EndTime)

	entry, err := svc.JoinWaitlist(r.Context(), actor, booking.WaitlistRequest{
		FacilityID: payload.FacilityID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Purpose:    payload.Purpose,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusCreated, entry)
}

// DELETE /waitlist/{id}
func HandleLeave(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := svc.LeaveWaitlist(r.Context(), actor, id); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /waitlist/my
func HandleListMine(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	entries, err := svc.ListMyWaitlist(r.Context(), actor)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, entries)
}

// GET /waitlist
func HandleList(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	entries, err := svc.ListWaitlist(r.Context(), actor)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, entries)
}

// GET /waitlist/facility/{facilityId}
func HandleListByFacility(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	facilityID, err := apiutil.PathID(r, "facilityId")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	entries, err := svc.ListWaitlistByFacility(r.Context(), actor, facilityID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, entries)
}
