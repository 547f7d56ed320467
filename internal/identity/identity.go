// Package identity is the boundary to the session provider: it verifies
// bearer tokens and exposes the caller's identity and role.
package identity

import (
	"context"

	"github.com/dmehra2102/commerce-core/pkg/apperr"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

type Capability int

const (
	CapShop Capability = iota
	CapManageFulfillment
	CapViewReports
)

func (c Capability) String() string {
	switch c {
	case CapShop:
		return "shop"
	case CapManageFulfillment:
		return "manage_fulfillment"
	case CapViewReports:
		return "view_reports"
	}
	return "unknown"
}

var capabilities = map[Role][]Capability{
	RoleCustomer: {CapShop},
	RoleStaff:    {CapManageFulfillment, CapViewReports},
	RoleAdmin:    {CapShop, CapManageFulfillment, CapViewReports},
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := capabilities[r]
	return r, ok
}

func (r Role) Can(c Capability) bool {
	for _, have := range capabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

type Identity struct {
	CustomerID string
	Email      string
	Role       Role
}

// Require fails with Forbidden unless id's role grants c.
func (id Identity) Require(c Capability) error {
	if !id.Role.Can(c) {
		return apperr.Newf(apperr.KindForbidden, "role %s lacks %s", id.Role, c)
	}
	return nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the verified identity or an Unauthenticated error.
func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.CustomerID == "" {
		return Identity{}, apperr.New(apperr.KindUnauthenticated, "no authenticated identity")
	}
	return id, nil
}
