package events

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"colorgarb-portal/internal/models"
)

// Publisher wraps the go-shared events publisher for order workflow events.
// Downstream notification consumers subscribe to these subjects to email
// organization members about progress on their orders.
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new order events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		// For local development, set NATS_URL=nats://localhost:4222
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "colorgarb-portal"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamOrders, []string{"order.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure orders stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "order-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishStageChanged publishes an order.stage_changed event
func (p *Publisher) PublishStageChanged(ctx context.Context, order *models.Order, previousStage, newStage models.OrderStage, reason string) error {
	event := p.buildOrderEvent("order.stage_changed", order)
	event.Metadata = map[string]interface{}{
		"previousStage": string(previousStage),
		"newStage":      string(newStage),
		"reason":        reason,
	}
	return p.publish(ctx, event)
}

// PublishShipDateChanged publishes an order.ship_date_changed event
func (p *Publisher) PublishShipDateChanged(ctx context.Context, order *models.Order, before, after *time.Time, reason string) error {
	event := p.buildOrderEvent("order.ship_date_changed", order)
	metadata := map[string]interface{}{
		"reason": reason,
	}
	if before != nil {
		metadata["previousShipDate"] = before.Format(time.RFC3339)
	}
	if after != nil {
		metadata["newShipDate"] = after.Format(time.RFC3339)
	}
	event.Metadata = metadata
	return p.publish(ctx, event)
}

// buildOrderEvent creates an OrderEvent from an order model
func (p *Publisher) buildOrderEvent(eventType string, order *models.Order) *events.OrderEvent {
	event := events.NewOrderEvent(eventType, order.OrganizationID.String())
	event.SourceID = uuid.New().String()
	event.OrderID = order.ID.String()
	event.OrderNumber = order.OrderNumber
	event.Status = string(order.CurrentStage)
	return event
}

// publish sends events asynchronously so stage updates never block on NATS
func (p *Publisher) publish(ctx context.Context, event *events.OrderEvent) error {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishOrder(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType":   event.EventType,
				"orderNumber": event.OrderNumber,
				"tenantID":    event.TenantID,
			}).WithError(err).Error("Failed to publish order event")
		} else {
			p.logger.WithFields(logrus.Fields{
				"eventType":   event.EventType,
				"orderNumber": event.OrderNumber,
				"tenantID":    event.TenantID,
			}).Info("Order event published successfully")
		}
	}()

	return nil
}
