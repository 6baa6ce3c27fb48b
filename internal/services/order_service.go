package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"colorgarb-portal/internal/authz"
	"colorgarb-portal/internal/models"
	"colorgarb-portal/internal/repository"
)

// BulkUpdateLimit caps how many orders a single bulk request may touch
const BulkUpdateLimit = 100

// StageUpdateInput carries a single-order stage change request
type StageUpdateInput struct {
	Stage    string
	ShipDate *time.Time
	Reason   string
}

// ShipDateUpdateInput carries a ship date revision without a stage change
type ShipDateUpdateInput struct {
	ShipDate time.Time
	Reason   string
}

// BulkStageUpdateInput carries a bulk stage change request
type BulkStageUpdateInput struct {
	OrderIDs []uuid.UUID
	Stage    string
	Reason   string
}

// BulkFailure describes one order that could not be updated
type BulkFailure struct {
	OrderID uuid.UUID `json:"orderId"`
	Reason  string    `json:"reason"`
}

// BulkOutcome reports per-order results of a bulk update. Both slices are
// always non-nil so callers can rely on the counts.
type BulkOutcome struct {
	Successful []uuid.UUID   `json:"successful"`
	Failed     []BulkFailure `json:"failed"`
}

// Notifier publishes order workflow events for downstream consumers
type Notifier interface {
	PublishStageChanged(ctx context.Context, order *models.Order, previousStage, newStage models.OrderStage, reason string) error
	PublishShipDateChanged(ctx context.Context, order *models.Order, before, after *time.Time, reason string) error
}

// OrderService implements the order workflow operations behind the portal
type OrderService interface {
	GetOrder(ctx context.Context, actor authz.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, actor authz.Context, filters repository.OrderFilters) ([]models.Order, int64, error)
	UpdateStage(ctx context.Context, actor authz.Context, orderID uuid.UUID, input StageUpdateInput) (*models.Order, error)
	UpdateShipDate(ctx context.Context, actor authz.Context, orderID uuid.UUID, input ShipDateUpdateInput) (*models.Order, error)
	BulkUpdateStage(ctx context.Context, actor authz.Context, input BulkStageUpdateInput) (*BulkOutcome, error)
	ValidStages(ctx context.Context, actor authz.Context, orderID uuid.UUID) ([]models.OrderStage, error)
	History(ctx context.Context, actor authz.Context, orderID uuid.UUID) ([]models.StageHistoryEntry, error)
	AuditEntries(ctx context.Context, actor authz.Context, filters repository.AuditFilters) ([]models.StageHistoryEntry, error)
	AuditAttempts(ctx context.Context, actor authz.Context, filters repository.AttemptFilters) ([]models.AccessAttempt, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	auditRepo repository.AuditRepository
	policy    authz.AccessPolicy
	validator *StageTransitionValidator
	notifier  Notifier
	logger    *logrus.Logger
}

// NewOrderService creates the order workflow service. The notifier may be
// nil when NATS is not configured.
func NewOrderService(
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	notifier Notifier,
	logger *logrus.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		policy:    authz.NewAccessPolicy(),
		validator: NewStageTransitionValidator(),
		notifier:  notifier,
		logger:    logger,
	}
}

// authorize evaluates the access policy for a resource and records the
// attempt. Attempt logging is best effort and never blocks the decision.
func (s *orderService) authorize(ctx context.Context, actor authz.Context, res authz.Resource) error {
	decision := s.policy.Evaluate(actor, res)

	userID := ""
	if actor.UserID != uuid.Nil {
		userID = actor.UserID.String()
	}
	attempt := &models.AccessAttempt{
		UserID:         userID,
		Role:           actor.RawRole,
		OrganizationID: actor.OrgIDString(),
		Resource:       res.Descriptor,
		Method:         actor.Method,
		Path:           actor.Path,
		Allowed:        decision.Allowed,
		Reason:         decision.Reason,
		ClientIP:       actor.ClientIP,
		UserAgent:      actor.UserAgent,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.auditRepo.RecordAttempt(ctx, attempt); err != nil {
		s.logger.WithError(err).WithField("resource", res.Descriptor).Warn("Failed to record access attempt")
	}

	if decision.Allowed {
		return nil
	}
	if decision.Reason == authz.ReasonMissingIdentity {
		return NewAuthenticationError("valid user identity required")
	}
	return NewAuthorizationError("access denied: " + decision.Reason)
}

// loadAuthorized fetches an order and checks the actor against it. The
// lookup is global so a cross-organization request surfaces as an
// authorization failure rather than a missing order.
func (s *orderService) loadAuthorized(ctx context.Context, actor authz.Context, orderID uuid.UUID, descriptor string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewNotFoundError("order %s not found", orderID.String())
		}
		return nil, NewInternalError("failed to load order", err)
	}

	orgID := order.OrganizationID
	if err := s.authorize(ctx, actor, authz.Resource{Descriptor: descriptor, OrganizationID: &orgID}); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns a single order the actor is entitled to see
func (s *orderService) GetOrder(ctx context.Context, actor authz.Context, id uuid.UUID) (*models.Order, error) {
	return s.loadAuthorized(ctx, actor, id, "orders:read")
}

// ListOrders returns orders visible to the actor. Organization users are
// always scoped to their own organization regardless of the filter.
func (s *orderService) ListOrders(ctx context.Context, actor authz.Context, filters repository.OrderFilters) ([]models.Order, int64, error) {
	if err := s.authorize(ctx, actor, authz.Resource{Descriptor: "orders:list"}); err != nil {
		return nil, 0, err
	}

	if !actor.IsStaff() {
		filters.OrganizationID = actor.OrganizationID
	}

	orders, total, err := s.orderRepo.List(filters)
	if err != nil {
		return nil, 0, NewInternalError("failed to list orders", err)
	}
	return orders, total, nil
}

// UpdateStage moves an order forward through the manufacturing sequence
func (s *orderService) UpdateStage(ctx context.Context, actor authz.Context, orderID uuid.UUID, input StageUpdateInput) (*models.Order, error) {
	if input.Reason == "" {
		return nil, NewValidationError("a reason is required for stage changes")
	}

	order, err := s.loadAuthorized(ctx, actor, orderID, "orders:update_stage")
	if err != nil {
		return nil, err
	}

	delta, err := s.validator.Validate(order.CurrentStage, models.OrderStage(input.Stage), actor.Role)
	if err != nil {
		return nil, err
	}

	shipDateBefore := order.CurrentShipDate
	entry := &models.StageHistoryEntry{
		OrderID:        order.ID,
		OrganizationID: order.OrganizationID,
		PreviousStage:  delta.Previous,
		NewStage:       delta.Next,
		ChangedBy:      actor.UserID,
		ChangedByRole:  actor.Role,
		ShipDateBefore: &shipDateBefore,
		ShipDateAfter:  &shipDateBefore,
		Reason:         input.Reason,
		Timestamp:      time.Now().UTC(),
	}
	if input.ShipDate != nil {
		entry.ShipDateAfter = input.ShipDate
	}

	if err := s.orderRepo.ApplyStageChange(ctx, order, delta.Next, input.ShipDate, entry); err != nil {
		return nil, NewInternalError("failed to apply stage change", err)
	}

	s.logger.WithFields(logrus.Fields{
		"orderNumber":   order.OrderNumber,
		"previousStage": string(delta.Previous),
		"newStage":      string(delta.Next),
		"changedBy":     actor.UserID.String(),
	}).Info("Order stage updated")

	if s.notifier != nil {
		_ = s.notifier.PublishStageChanged(ctx, order, delta.Previous, delta.Next, input.Reason)
	}

	return order, nil
}

// UpdateShipDate revises the projected ship date without moving the stage
func (s *orderService) UpdateShipDate(ctx context.Context, actor authz.Context, orderID uuid.UUID, input ShipDateUpdateInput) (*models.Order, error) {
	if input.Reason == "" {
		return nil, NewValidationError("a reason is required for ship date changes")
	}

	order, err := s.loadAuthorized(ctx, actor, orderID, "orders:update_ship_date")
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanMutateOrders() {
		return nil, NewAuthorizationError("only ColorGarb staff can update ship dates")
	}

	before := order.CurrentShipDate
	after := input.ShipDate
	entry := &models.StageHistoryEntry{
		OrderID:        order.ID,
		OrganizationID: order.OrganizationID,
		PreviousStage:  order.CurrentStage,
		NewStage:       order.CurrentStage,
		ChangedBy:      actor.UserID,
		ChangedByRole:  actor.Role,
		ShipDateBefore: &before,
		ShipDateAfter:  &after,
		Reason:         input.Reason,
		Timestamp:      time.Now().UTC(),
	}

	if err := s.orderRepo.ApplyShipDateChange(ctx, order, input.ShipDate, entry); err != nil {
		return nil, NewInternalError("failed to apply ship date change", err)
	}

	if s.notifier != nil {
		_ = s.notifier.PublishShipDateChanged(ctx, order, &before, &after, input.Reason)
	}

	return order, nil
}

// BulkUpdateStage applies the same stage change to many orders. Orders
// are processed independently so one failure never rolls back another.
func (s *orderService) BulkUpdateStage(ctx context.Context, actor authz.Context, input BulkStageUpdateInput) (*BulkOutcome, error) {
	if input.Reason == "" {
		return nil, NewValidationError("a reason is required for stage changes")
	}
	if len(input.OrderIDs) == 0 {
		return nil, NewValidationError("at least one order ID is required")
	}
	if len(input.OrderIDs) > BulkUpdateLimit {
		return nil, NewValidationError("bulk updates are limited to %d orders per request", BulkUpdateLimit)
	}

	outcome := &BulkOutcome{
		Successful: []uuid.UUID{},
		Failed:     []BulkFailure{},
	}

	for _, orderID := range input.OrderIDs {
		if _, err := s.UpdateStage(ctx, actor, orderID, StageUpdateInput{Stage: input.Stage, Reason: input.Reason}); err != nil {
			outcome.Failed = append(outcome.Failed, BulkFailure{OrderID: orderID, Reason: err.Error()})
			continue
		}
		outcome.Successful = append(outcome.Successful, orderID)
	}

	s.logger.WithFields(logrus.Fields{
		"requested":  len(input.OrderIDs),
		"successful": len(outcome.Successful),
		"failed":     len(outcome.Failed),
		"stage":      input.Stage,
	}).Info("Bulk stage update completed")

	return outcome, nil
}

// ValidStages returns the stages an order can still move to
func (s *orderService) ValidStages(ctx context.Context, actor authz.Context, orderID uuid.UUID) ([]models.OrderStage, error) {
	order, err := s.loadAuthorized(ctx, actor, orderID, "orders:valid_stages")
	if err != nil {
		return nil, err
	}
	return models.NextStages(order.CurrentStage), nil
}

// History returns the order's stage history in chronological order
func (s *orderService) History(ctx context.Context, actor authz.Context, orderID uuid.UUID) ([]models.StageHistoryEntry, error) {
	order, err := s.loadAuthorized(ctx, actor, orderID, "orders:history")
	if err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.QueryEntries(ctx, repository.AuditFilters{OrderID: &order.ID})
	if err != nil {
		return nil, NewInternalError("failed to query stage history", err)
	}
	return entries, nil
}

// AuditEntries exposes the stage history log. Organization users only see
// entries for their own organization.
func (s *orderService) AuditEntries(ctx context.Context, actor authz.Context, filters repository.AuditFilters) ([]models.StageHistoryEntry, error) {
	if err := s.authorize(ctx, actor, authz.Resource{Descriptor: "audit:entries"}); err != nil {
		return nil, err
	}

	if !actor.IsStaff() {
		filters.OrganizationID = actor.OrganizationID
	}

	entries, err := s.auditRepo.QueryEntries(ctx, filters)
	if err != nil {
		return nil, NewInternalError("failed to query audit entries", err)
	}
	return entries, nil
}

// AuditAttempts exposes the access attempt log to ColorGarb staff
func (s *orderService) AuditAttempts(ctx context.Context, actor authz.Context, filters repository.AttemptFilters) ([]models.AccessAttempt, error) {
	if !actor.HasIdentity() {
		return nil, NewAuthenticationError("valid user identity required")
	}
	if !actor.IsStaff() {
		return nil, NewAuthorizationError("access attempt logs are restricted to ColorGarb staff")
	}

	attempts, err := s.auditRepo.QueryAttempts(ctx, filters)
	if err != nil {
		return nil, NewInternalError("failed to query access attempts", err)
	}
	return attempts, nil
}
