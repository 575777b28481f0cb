// Package auth is the access gate: it turns bearer tokens into an Identity
// and owns the single authorization rule used by checkout and fulfillment.
package auth

import (
	"context"
	"fmt"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) Authenticated() bool { return i.UserID != "" }
func (i Identity) IsAdmin() bool       { return i.Authenticated() && i.Role == RoleAdmin }

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// Authorize lets admins through unconditionally. Everyone else needs
// required to be the customer role and, when ownerID is set, to own the
// resource.
func Authorize(caller Identity, ownerID string, required Role) error {
	if !caller.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	if caller.IsAdmin() {
		return nil
	}
	if required == RoleAdmin {
		return fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	}
	if ownerID != "" && ownerID != caller.UserID {
		return fmt.Errorf("%w: not the owner", apperr.ErrForbidden)
	}
	return nil
}
