package authz

import (
	"github.com/google/uuid"

	"colorgarb-portal/internal/models"
)

// Context is the resolved identity for one request, built from claims the
// gateway already verified. It is never persisted; the access-attempt log
// keeps its own copy of the fields it needs.
type Context struct {
	UserID uuid.UUID
	Role   models.UserRole
	// RawRole keeps the claim value even when it is not a recognized role,
	// so denied attempts can be logged with what the caller presented.
	RawRole string
	// OrganizationID is nil for ColorGarb staff.
	OrganizationID *uuid.UUID

	// Client metadata, recorded with every access attempt when available.
	ClientIP  string
	UserAgent string
	Method    string
	Path      string
}

// HasIdentity reports whether the request carried a usable identity: a
// user id, a recognized role, and, for organization roles, the
// organization the caller belongs to. A Director or Finance claim with a
// missing or malformed organization id is unusable, since every read for
// those roles must resolve to their own organization.
func (c Context) HasIdentity() bool {
	if c.UserID == uuid.Nil || !c.Role.Valid() {
		return false
	}
	return c.Role == models.RoleColorGarbStaff || c.OrganizationID != nil
}

// IsStaff reports whether the caller holds the cross-organization staff role
func (c Context) IsStaff() bool {
	return c.Role == models.RoleColorGarbStaff
}

// OrgIDString returns the caller's organization id for logging, empty when absent
func (c Context) OrgIDString() string {
	if c.OrganizationID == nil {
		return ""
	}
	return c.OrganizationID.String()
}
