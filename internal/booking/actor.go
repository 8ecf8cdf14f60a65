package booking

import "strings"

type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
	RoleSecurity Role = "SECURITY"
	RoleVisitor  Role = "VISITOR"
)

// ParseRole accepts any case. Unknown roles are returned as-is and fail every
// privileged check.
func ParseRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// Actor is the authenticated caller of a core operation.
type Actor struct {
	UserID int64
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanOperateDesk reports whether the actor may check bookings in and out.
func (a Actor) CanOperateDesk() bool {
	return a.Role == RoleAdmin || a.Role == RoleSecurity
}

func (a Actor) owns(userID int64) bool {
	return a.UserID == userID
}
