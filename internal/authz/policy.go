package authz

import (
	"github.com/google/uuid"

	"colorgarb-portal/internal/models"
)

// Deny reasons surfaced in errors and recorded with access attempts.
const (
	ReasonMissingIdentity = "missing or invalid identity"
	ReasonOrgBoundary     = "organization boundary"
	ReasonFinanceOnly     = "finance access required"
	ReasonGranted         = "granted"
)

// Resource describes what a request is trying to reach. OrganizationID is nil
// for endpoints that are not organization-scoped ("list my orders").
type Resource struct {
	Descriptor     string
	OrganizationID *uuid.UUID
	FinanceOnly    bool
}

// Decision is the outcome of one policy evaluation. The reason doubles as the
// audit-log reason and the user-facing error detail.
type Decision struct {
	Allowed bool
	Reason  string
}

// AccessPolicy decides whether a caller may reach a resource. It is a pure
// function of its inputs: no storage lookups, no request state. Every
// evaluation must be recorded to the access-attempt stream by the caller.
type AccessPolicy struct{}

// NewAccessPolicy creates the portal access policy
func NewAccessPolicy() AccessPolicy {
	return AccessPolicy{}
}

// Evaluate applies the org-scoped access rules:
//   - no usable identity denies outright
//   - resources without an organization scope are open to any valid identity
//   - ColorGarbStaff crosses organization boundaries unconditionally
//   - Director covers Finance-only resources within their own organization
//   - everyone else must match the resource's organization
func (AccessPolicy) Evaluate(ctx Context, res Resource) Decision {
	if !ctx.HasIdentity() {
		return Decision{Allowed: false, Reason: ReasonMissingIdentity}
	}

	if res.OrganizationID == nil {
		return Decision{Allowed: true, Reason: ReasonGranted}
	}

	if ctx.Role == models.RoleColorGarbStaff {
		return Decision{Allowed: true, Reason: ReasonGranted}
	}

	sameOrg := ctx.OrganizationID != nil && *ctx.OrganizationID == *res.OrganizationID

	// Director is a superset of Finance: finance-only resources are open to
	// both roles, still within the organization boundary.
	if res.FinanceOnly && ctx.Role != models.RoleFinance && ctx.Role != models.RoleDirector {
		return Decision{Allowed: false, Reason: ReasonFinanceOnly}
	}

	if sameOrg {
		return Decision{Allowed: true, Reason: ReasonGranted}
	}
	return Decision{Allowed: false, Reason: ReasonOrgBoundary}
}
