package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole represents the portal role carried in verified JWT claims
type UserRole string

const (
	RoleDirector       UserRole = "Director"       // Org-level admin, superset of Finance
	RoleFinance        UserRole = "Finance"        // Org-level finance access
	RoleColorGarbStaff UserRole = "ColorGarbStaff" // Cross-organization staff
)

// Valid checks whether the role is one of the recognized portal roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleDirector, RoleFinance, RoleColorGarbStaff:
		return true
	}
	return false
}

// ParseRole returns an error if the value is not a recognized role
func ParseRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.Valid() {
		return "", fmt.Errorf("unrecognized role %q", value)
	}
	return role, nil
}

// CanMutateOrders reports whether the role may advance an order through the
// pipeline. Only staff have mutation capability.
func (r UserRole) CanMutateOrders() bool {
	return r == RoleColorGarbStaff
}

// Organization represents a client organization (school, theater, dance studio)
// Orders and non-staff users always belong to exactly one organization.
type Organization struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string         `json:"name" gorm:"not null;index:idx_organizations_name"`
	Type      string         `json:"type" gorm:"type:varchar(50)"`
	IsActive  bool           `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// User represents a portal user. OrganizationID is nil for ColorGarb staff,
// who are not bound to any client organization.
type User struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email          string         `json:"email" gorm:"not null;uniqueIndex:idx_users_email"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Role           UserRole       `json:"role" gorm:"type:varchar(30);not null"`
	OrganizationID *uuid.UUID     `json:"organizationId,omitempty" gorm:"type:uuid;index:idx_users_organization"`
	IsActive       bool           `json:"isActive" gorm:"not null;default:true"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// Order represents a costume order moving through the 13-stage pipeline
// OrganizationID is set at creation and never changes; ownership does not
// transfer. Related records are referenced by id only and resolved through
// repositories, never through navigation properties.
// Performance indexes: composite indexes on organization_id with frequently
// filtered columns for multi-tenant list queries.
type Order struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrganizationID   uuid.UUID      `json:"organizationId" gorm:"type:uuid;not null;index:idx_orders_organization;index:idx_orders_org_stage;index:idx_orders_org_active"`
	OrderNumber      string         `json:"orderNumber" gorm:"not null;uniqueIndex:idx_orders_order_number"`
	Description      string         `json:"description" gorm:"type:text"`
	CurrentStage     OrderStage     `json:"currentStage" gorm:"type:varchar(30);not null;default:'DesignProposal';index:idx_orders_org_stage"`
	OriginalShipDate time.Time      `json:"originalShipDate" gorm:"not null"`
	CurrentShipDate  time.Time      `json:"currentShipDate" gorm:"not null"`
	IsActive         bool           `json:"isActive" gorm:"not null;default:true;index:idx_orders_org_active"`
	CreatedAt        time.Time      `json:"createdAt" gorm:"index:idx_orders_created,sort:desc"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook to generate an order number when none was assigned
func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.OrderNumber == "" {
		o.OrderNumber = generateOrderNumber()
	}
	return
}

// generateOrderNumber creates a unique order number
func generateOrderNumber() string {
	timestamp := time.Now().Unix()
	return fmt.Sprintf("CG-%d", timestamp)
}
