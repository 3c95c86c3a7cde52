package authz

import (
	"errors"
	"fmt"

	"backoffice/internal/model"
)

// Role names as issued in the portal's tokens.
const (
	RoleAdmin            = "admin"
	RoleEftReviewer      = "eft_reviewer"
	RoleEftAllocator     = "eft_allocator"
	RoleEasypayReviewer  = "easypay_reviewer"
	RoleEasypayAllocator = "easypay_allocator"
)

// WorkflowRoles holds every role that takes part in the allocation workflow.
var WorkflowRoles = []string{RoleAdmin, RoleEftReviewer, RoleEftAllocator, RoleEasypayReviewer, RoleEasypayAllocator}

// Operation is a gated step of the allocation workflow.
type Operation string

const (
	OpCreate   Operation = "create"
	OpView     Operation = "view"
	OpReview   Operation = "review"
	OpSubmit   Operation = "submit"
	OpAllocate Operation = "allocate" // also covers mark-duplicate
	OpScan     Operation = "scan"
)

var (
	ErrUnauthenticated = errors.New("no authenticated actor")
	ErrForbidden       = errors.New("access denied: insufficient permissions")
)

type key struct {
	family model.Family
	op     Operation
}

// Policy maps (family, operation) to the roles allowed to perform it.
type Policy map[key][]string

// DefaultPolicy is the single source of truth for allocation workflow roles.
var DefaultPolicy = buildDefaultPolicy()

func buildDefaultPolicy() Policy {
	p := Policy{}

	reviewerTier := map[model.Family][]string{
		model.FamilyEFT:     {RoleAdmin, RoleEftReviewer, RoleEftAllocator},
		model.FamilyEasypay: {RoleAdmin, RoleEasypayReviewer, RoleEasypayAllocator},
	}
	allocatorTier := map[model.Family][]string{
		model.FamilyEFT:     {RoleAdmin, RoleEftAllocator},
		model.FamilyEasypay: {RoleAdmin, RoleEasypayAllocator},
	}

	for family, roles := range reviewerTier {
		for _, op := range []Operation{OpCreate, OpView, OpReview, OpSubmit} {
			p[key{family, op}] = roles
		}
	}
	for family, roles := range allocatorTier {
		for _, op := range []Operation{OpAllocate, OpScan} {
			p[key{family, op}] = roles
		}
	}
	return p
}

// AllowedRoles returns the roles permitted for op on family, nil if the pair is unknown.
func (p Policy) AllowedRoles(family model.Family, op Operation) []string {
	return p[key{family, op}]
}

// Authorize returns nil when actor holds at least one allowed role.
func (p Policy) Authorize(actor *Actor, family model.Family, op Operation) error {
	if actor == nil || actor.ID == "" {
		return ErrUnauthenticated
	}
	allowed := p.AllowedRoles(family, op)
	if len(allowed) == 0 {
		return fmt.Errorf("%w: %s is not permitted on %s transactions", ErrForbidden, op, family)
	}
	if !actor.HasAnyRole(allowed...) {
		return fmt.Errorf("%w: %s on %s requires one of %v", ErrForbidden, op, family, allowed)
	}
	return nil
}
