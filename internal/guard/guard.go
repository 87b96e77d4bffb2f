// Package guard holds the access checks that run before a booking operation.
// Each guard inspects the actor and either passes or returns a reason.
package guard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Shivanand-hulikatti/field-booking/internal/model"
)

var (
	// ErrUnauthenticated means no actor identity was established.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrNotVerified means the account has not confirmed its OTP yet.
	ErrNotVerified = errors.New("account is not verified")

	// ErrForbidden means the actor's role may not perform the operation.
	ErrForbidden = errors.New("role not permitted")
)

// Guard checks one access rule.
type Guard func(actor model.Actor) error

// Check runs guards in order and returns the first failure.
func Check(actor model.Actor, guards ...Guard) error {
	for _, g := range guards {
		if err := g(actor); err != nil {
			return err
		}
	}
	return nil
}

// Authenticated requires an actor identity.
func Authenticated() Guard {
	return func(actor model.Actor) error {
		if actor.UserID == "" {
			return ErrUnauthenticated
		}
		return nil
	}
}

// Verified requires a verified account.
func Verified() Guard {
	return func(actor model.Actor) error {
		if !actor.Verified {
			return ErrNotVerified
		}
		return nil
	}
}

// RequireRole allows only the listed roles.
func RequireRole(roles ...string) Guard {
	return func(actor model.Actor) error {
		if !slices.Contains(roles, actor.Role) {
			return fmt.Errorf("%w: %q", ErrForbidden, actor.Role)
		}
		return nil
	}
}

// Reader is the chain for read-only booking endpoints.
func Reader() []Guard {
	return []Guard{Authenticated(), Verified()}
}

// Player is the chain for booking, joining and schedule endpoints, which
// only accounts with the user role may call.
func Player() []Guard {
	return []Guard{Authenticated(), Verified(), RequireRole(model.RoleUser)}
}
