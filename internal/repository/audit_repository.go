package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"colorgarb-portal/internal/models"
)

// AuditRepository persists the append-only stage history and the access
// attempt log. History entries are never updated or deleted.
type AuditRepository interface {
	RecordAttempt(ctx context.Context, attempt *models.AccessAttempt) error
	QueryEntries(ctx context.Context, filters AuditFilters) ([]models.StageHistoryEntry, error)
	QueryAttempts(ctx context.Context, filters AttemptFilters) ([]models.AccessAttempt, error)
}

// AuditFilters narrows stage history queries
type AuditFilters struct {
	OrderID        *uuid.UUID
	OrganizationID *uuid.UUID
	DateFrom       *time.Time
	DateTo         *time.Time
	Limit          int
}

// AttemptFilters narrows access attempt queries
type AttemptFilters struct {
	UserID   string
	Allowed  *bool
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// RecordAttempt logs an access decision. Attempt logging is best effort
// at the call sites, but the write itself reports failures so the
// service can log them.
func (r *auditRepository) RecordAttempt(ctx context.Context, attempt *models.AccessAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to record access attempt: %w", err)
	}
	return nil
}

// QueryEntries returns stage history in chronological order
func (r *auditRepository) QueryEntries(ctx context.Context, filters AuditFilters) ([]models.StageHistoryEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.StageHistoryEntry{})

	if filters.OrderID != nil {
		query = query.Where("order_id = ?", *filters.OrderID)
	}
	if filters.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filters.OrganizationID)
	}
	if filters.DateFrom != nil {
		query = query.Where("timestamp >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("timestamp <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var entries []models.StageHistoryEntry
	if err := query.Order("timestamp ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to query stage history: %w", err)
	}
	return entries, nil
}

// QueryAttempts returns access attempts, most recent first
func (r *auditRepository) QueryAttempts(ctx context.Context, filters AttemptFilters) ([]models.AccessAttempt, error) {
	query := r.db.WithContext(ctx).Model(&models.AccessAttempt{})

	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Allowed != nil {
		query = query.Where("allowed = ?", *filters.Allowed)
	}
	if filters.DateFrom != nil {
		query = query.Where("timestamp >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("timestamp <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var attempts []models.AccessAttempt
	if err := query.Order("timestamp DESC").Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to query access attempts: %w", err)
	}
	return attempts, nil
}
