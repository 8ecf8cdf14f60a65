package authz

import (
	"context"
	"errors"
	"slices"

	"github.com/codr1/campusbook/internal/booking"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// AuthUser is the caller identity resolved from the bearer token.
type AuthUser struct {
	ID   int64
	Role booking.Role
}

// Actor converts the user into the explicit actor the booking core expects.
func (u *AuthUser) Actor() booking.Actor {
	return booking.Actor{UserID: u.ID, Role: u.Role}
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// RequireUser returns the authenticated user or ErrUnauthenticated.
func RequireUser(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequireRole checks that the authenticated user holds one of roles.
func RequireRole(ctx context.Context, roles ...booking.Role) error {
	user, err := RequireUser(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(roles, user.Role) {
		return ErrForbidden
	}
	return nil
}
