package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"colorgarb-portal/internal/models"
)

func orgPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func TestEvaluate_MissingIdentity(t *testing.T) {
	policy := NewAccessPolicy()
	orgID := uuid.New()

	testCases := []struct {
		name string
		ctx  Context
	}{
		{"no_user_id", Context{Role: models.RoleDirector, OrganizationID: orgPtr(orgID)}},
		{"unrecognized_role", Context{UserID: uuid.New(), RawRole: "SuperAdmin", OrganizationID: orgPtr(orgID)}},
		{"director_without_org", Context{UserID: uuid.New(), Role: models.RoleDirector}},
		{"finance_without_org", Context{UserID: uuid.New(), Role: models.RoleFinance}},
		{"empty_context", Context{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decision := policy.Evaluate(tc.ctx, Resource{OrganizationID: orgPtr(orgID)})
			assert.False(t, decision.Allowed)
			assert.Equal(t, ReasonMissingIdentity, decision.Reason)
		})
	}
}

func TestEvaluate_OrgRoleWithoutOrgDeniedOnUnscopedResource(t *testing.T) {
	policy := NewAccessPolicy()

	// An org-less Director or Finance claim must not reach even
	// unscoped resources like listings, which are scoped downstream by
	// the caller's organization.
	for _, role := range []models.UserRole{models.RoleDirector, models.RoleFinance} {
		ctx := Context{UserID: uuid.New(), Role: role}
		decision := policy.Evaluate(ctx, Resource{Descriptor: "orders:list"})
		assert.False(t, decision.Allowed, "role %s", role)
		assert.Equal(t, ReasonMissingIdentity, decision.Reason)
	}

	staff := Context{UserID: uuid.New(), Role: models.RoleColorGarbStaff}
	assert.True(t, policy.Evaluate(staff, Resource{Descriptor: "orders:list"}).Allowed)
}

func TestEvaluate_UnscopedResourceAllowsAnyValidIdentity(t *testing.T) {
	policy := NewAccessPolicy()
	orgID := uuid.New()

	for _, role := range []models.UserRole{models.RoleDirector, models.RoleFinance, models.RoleColorGarbStaff} {
		ctx := Context{UserID: uuid.New(), Role: role, OrganizationID: orgPtr(orgID)}
		decision := policy.Evaluate(ctx, Resource{Descriptor: "orders:list"})
		assert.True(t, decision.Allowed, "role %s", role)
	}
}

func TestEvaluate_StaffCrossesOrganizationBoundary(t *testing.T) {
	policy := NewAccessPolicy()
	ctx := Context{UserID: uuid.New(), Role: models.RoleColorGarbStaff}

	// Staff carry no home organization and still reach every org.
	for i := 0; i < 5; i++ {
		decision := policy.Evaluate(ctx, Resource{OrganizationID: orgPtr(uuid.New())})
		assert.True(t, decision.Allowed)
		assert.Equal(t, ReasonGranted, decision.Reason)
	}
}

func TestEvaluate_OrganizationBoundary(t *testing.T) {
	policy := NewAccessPolicy()
	ownOrg := uuid.New()
	otherOrg := uuid.New()

	testCases := []struct {
		name        string
		role        models.UserRole
		resourceOrg uuid.UUID
		wantAllowed bool
	}{
		{"director_own_org", models.RoleDirector, ownOrg, true},
		{"director_other_org", models.RoleDirector, otherOrg, false},
		{"finance_own_org", models.RoleFinance, ownOrg, true},
		{"finance_other_org", models.RoleFinance, otherOrg, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := Context{UserID: uuid.New(), Role: tc.role, OrganizationID: orgPtr(ownOrg)}
			decision := policy.Evaluate(ctx, Resource{OrganizationID: orgPtr(tc.resourceOrg)})
			assert.Equal(t, tc.wantAllowed, decision.Allowed)
			if !tc.wantAllowed {
				assert.Equal(t, ReasonOrgBoundary, decision.Reason)
			}
		})
	}
}

func TestEvaluate_FinanceOnlyResource(t *testing.T) {
	policy := NewAccessPolicy()
	orgID := uuid.New()

	res := Resource{Descriptor: "orders:invoices", OrganizationID: orgPtr(orgID), FinanceOnly: true}

	finance := Context{UserID: uuid.New(), Role: models.RoleFinance, OrganizationID: orgPtr(orgID)}
	assert.True(t, policy.Evaluate(finance, res).Allowed)

	// Director is a superset of Finance within the same organization.
	director := Context{UserID: uuid.New(), Role: models.RoleDirector, OrganizationID: orgPtr(orgID)}
	assert.True(t, policy.Evaluate(director, res).Allowed)

	// The boundary still applies to finance-only resources.
	foreignDirector := Context{UserID: uuid.New(), Role: models.RoleDirector, OrganizationID: orgPtr(uuid.New())}
	decision := policy.Evaluate(foreignDirector, res)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonOrgBoundary, decision.Reason)

	staff := Context{UserID: uuid.New(), Role: models.RoleColorGarbStaff}
	assert.True(t, policy.Evaluate(staff, res).Allowed)
}

func TestEvaluate_Pure(t *testing.T) {
	policy := NewAccessPolicy()
	ctx := Context{UserID: uuid.New(), Role: models.RoleDirector, OrganizationID: orgPtr(uuid.New())}
	res := Resource{OrganizationID: orgPtr(uuid.New())}

	first := policy.Evaluate(ctx, res)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, policy.Evaluate(ctx, res))
	}
}
