// internal/api/approvals/handlers.go
package approvals

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/api/apiutil"
	"github.com/codr1/campusbook/internal/api/authz"
	"github.com/codr1/campusbook/internal/booking"
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

type decisionPayload struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

type decideFunc func(svc *booking.Service, ctx context.Context, actor booking.Actor, bookingID int64, remarks string) (booking.Approval, error)

func withActor(w http.ResponseWriter, r *http.Request) (*booking.Service, booking.Actor, bool) {
	svc := loadService()
	if svc == nil {
		log.Ctx(r.Context()).Error().Msg("Approval service not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Approval service not initialized"})
		return nil, booking.Actor{}, false
	}
	user, err := authz.RequireUser(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return nil, booking.Actor{}, false
	}
	return svc, user.Actor(), true
}

// POST /approvals/{bookingId}/approve
func HandleApprove(w http.ResponseWriter, r *http.Request) {
	handleDecision(w, r, (*booking.Service).Approve)
}

// POST /approvals/{bookingId}/reject
func HandleReject(w http.ResponseWriter, r *http.Request) {
	handleDecision(w, r, (*booking.Service).Reject)
}

func handleDecision(w http.ResponseWriter, r *http.Request, decide decideFunc) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	bookingID, err := apiutil.PathID(r, "bookingId")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	var payload decisionPayload
	if err := apiutil.DecodeOptionalJSON(r, &payload); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if err := apiutil.ValidateStruct(payload); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	approval, err := decide(svc, r.Context(), actor, bookingID, payload.Remarks)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, approval)
}

// GET /approvals/pending
func HandleListPending(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	pending, err := svc.ListPending(r.Context(), actor)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, pending)
}

// GET /approvals
func HandleList(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	records, err := svc.ListApprovals(r.Context(), actor)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, records)
}

// GET /approvals/booking/{bookingId}
func HandleListForBooking(w http.ResponseWriter, r *http.Request) {
	svc, actor, ok := withActor(w, r)
	if !ok {
		return
	}
	bookingID, err := apiutil.PathID(r, "bookingId")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	records, err := svc.ListApprovalsForBooking(r.Context(), actor, bookingID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, records)
}
