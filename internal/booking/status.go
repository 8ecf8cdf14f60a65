package booking

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
	StatusNoShow    Status = "NO_SHOW"
	StatusExpired   Status = "EXPIRED"
)

var allStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusActive,
	StatusCompleted,
	StatusCancelled,
	StatusRejected,
	StatusNoShow,
	StatusExpired,
}

// ParseStatus reports whether raw names a known status.
func ParseStatus(raw string) (Status, bool) {
	for _, s := range allStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Terminal statuses have no outgoing transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusRejected, StatusCompleted, StatusExpired, StatusNoShow:
		return true
	}
	return false
}

// HoldsSlot reports whether a booking in this status occupies its window for
// conflict detection and availability.
func (s Status) HoldsSlot() bool {
	return s == StatusConfirmed || s == StatusActive
}

type event string

const (
	eventApprove  event = "approve"
	eventReject   event = "reject"
	eventCancel   event = "cancel"
	eventCheckIn  event = "check-in"
	eventCheckOut event = "check-out"
	eventExtend   event = "extend"
	eventExpire   event = "expire"
)

// transitions maps each event to the statuses it may fire from and the status
// it lands in. Extension keeps the current status.
var transitions = map[event]struct {
	from []Status
	to   Status
}{
	eventApprove:  {from: []Status{StatusPending}, to: StatusConfirmed},
	eventReject:   {from: []Status{StatusPending}, to: StatusRejected},
	eventCancel:   {from: []Status{StatusPending, StatusConfirmed}, to: StatusCancelled},
	eventCheckIn:  {from: []Status{StatusConfirmed}, to: StatusActive},
	eventCheckOut: {from: []Status{StatusActive, StatusExpired}, to: StatusCompleted},
	eventExtend:   {from: []Status{StatusConfirmed, StatusActive}},
	eventExpire:   {from: []Status{StatusConfirmed, StatusActive}, to: StatusExpired},
}

func (s Status) can(e event) bool {
	t, ok := transitions[e]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if from == s {
			return true
		}
	}
	return false
}
