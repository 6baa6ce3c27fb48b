package models

import (
	"time"

	"github.com/google/uuid"
)

// StageHistoryEntry records one applied order mutation. Entries are append
// only: they are never updated or deleted, and every accepted mutation writes
// exactly one entry in the same transaction that persists the change.
type StageHistoryEntry struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID        uuid.UUID  `json:"orderId" gorm:"type:uuid;not null;index:idx_stage_history_order"`
	OrganizationID uuid.UUID  `json:"organizationId" gorm:"type:uuid;not null;index:idx_stage_history_organization"`
	PreviousStage  OrderStage `json:"previousStage" gorm:"type:varchar(30);not null"`
	NewStage       OrderStage `json:"newStage" gorm:"type:varchar(30);not null"`
	ChangedBy      uuid.UUID  `json:"changedBy" gorm:"type:uuid;not null"`
	ChangedByRole  UserRole   `json:"changedByRole" gorm:"type:varchar(30);not null"`
	ShipDateBefore *time.Time `json:"shipDateBefore,omitempty"`
	ShipDateAfter  *time.Time `json:"shipDateAfter,omitempty"`
	Reason         string     `json:"reason" gorm:"type:text;not null"`
	Timestamp      time.Time  `json:"timestamp" gorm:"not null;index:idx_stage_history_timestamp"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// AccessAttempt records one authorization decision, granted or denied. This
// stream is separate from StageHistoryEntry: denied attempts never touch an
// order but are themselves a security signal worth keeping.
type AccessAttempt struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID         string    `json:"userId" gorm:"type:varchar(64);index:idx_access_attempts_user"`
	Role           string    `json:"role" gorm:"type:varchar(30)"`
	OrganizationID string    `json:"organizationId" gorm:"type:varchar(64)"`
	Resource       string    `json:"resource" gorm:"type:varchar(255);not null"`
	Method         string    `json:"method" gorm:"type:varchar(10)"`
	Path           string    `json:"path" gorm:"type:varchar(255)"`
	Allowed        bool      `json:"allowed" gorm:"not null;index:idx_access_attempts_allowed"`
	Reason         string    `json:"reason" gorm:"type:varchar(255)"`
	ClientIP       string    `json:"clientIp" gorm:"type:varchar(45)"`
	UserAgent      string    `json:"userAgent" gorm:"type:varchar(512)"`
	Timestamp      time.Time `json:"timestamp" gorm:"not null;index:idx_access_attempts_timestamp"`
	CreatedAt      time.Time `json:"createdAt"`
}
