package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"colorgarb-portal/internal/models"
)

// OrderCacheTTL bounds how long a cached order may go stale
const OrderCacheTTL = 10 * time.Minute

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uuid.UUID) (*models.Order, error)
	List(filters OrderFilters) ([]models.Order, int64, error)
	ApplyStageChange(ctx context.Context, order *models.Order, newStage models.OrderStage, shipDate *time.Time, entry *models.StageHistoryEntry) error
	ApplyShipDateChange(ctx context.Context, order *models.Order, shipDate time.Time, entry *models.StageHistoryEntry) error
	// Health check methods for Redis
	RedisHealth(ctx context.Context) error
	CacheStats() *cache.CacheStats
}

// OrderFilters represents filters for querying orders
type OrderFilters struct {
	OrganizationID *uuid.UUID
	Stage          *models.OrderStage
	Active         *bool
	Page           int
	Limit          int
}

type orderRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

// NewOrderRepository creates a new order repository with optional Redis caching
func NewOrderRepository(db *gorm.DB, redisClient *redis.Client) OrderRepository {
	repo := &orderRepository{
		db:    db,
		redis: redisClient,
	}

	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: OrderCacheTTL,
			KeyPrefix:  "colorgarb:orders:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

// generateOrderCacheKey creates a cache key for order lookups by ID
func generateOrderCacheKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s", orderID.String())
}

// invalidateOrderCache drops the cached copy of a mutated order. List
// reads are not cached, so the single order key is the only entry to drop.
func (r *orderRepository) invalidateOrderCache(ctx context.Context, orderID uuid.UUID) {
	if r.cache == nil {
		return
	}

	_ = r.cache.Delete(ctx, generateOrderCacheKey(orderID))
}

// RedisHealth returns the health status of Redis connection
func (r *orderRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// CacheStats returns cache statistics
func (r *orderRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}

// Create creates a new order
func (r *orderRepository) Create(order *models.Order) error {
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by ID (with caching). Lookup is global
// rather than organization-scoped so that callers can distinguish a
// missing order from an authorization failure.
func (r *orderRepository) GetByID(id uuid.UUID) (*models.Order, error) {
	ctx := context.Background()
	cacheKey := generateOrderCacheKey(id)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, "colorgarb:orders:"+cacheKey).Result()
		if err == nil {
			var order models.Order
			if err := json.Unmarshal([]byte(val), &order); err == nil {
				return &order, nil
			}
		}
	}

	var order models.Order
	err := r.db.First(&order, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if r.redis != nil {
		data, marshalErr := json.Marshal(order)
		if marshalErr == nil {
			r.redis.Set(ctx, "colorgarb:orders:"+cacheKey, data, OrderCacheTTL)
		}
	}

	return &order, nil
}

// List retrieves orders with filtering and pagination
func (r *orderRepository) List(filters OrderFilters) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.Model(&models.Order{})

	if filters.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filters.OrganizationID)
	}
	if filters.Stage != nil {
		query = query.Where("current_stage = ?", *filters.Stage)
	}
	if filters.Active != nil {
		query = query.Where("is_active = ?", *filters.Active)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.Limit
			query = query.Offset(offset)
		}
	}

	err := query.Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, total, nil
}

// ApplyStageChange moves an order to a new stage and appends the history
// entry in the same transaction. If the history write fails the stage
// update rolls back, so the order never advances without an audit trail.
func (r *orderRepository) ApplyStageChange(ctx context.Context, order *models.Order, newStage models.OrderStage, shipDate *time.Time, entry *models.StageHistoryEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"current_stage": newStage,
		}
		if shipDate != nil {
			updates["current_ship_date"] = *shipDate
		}
		if models.IsTerminalStage(newStage) {
			updates["is_active"] = false
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order stage: %w", err)
		}

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to record stage history: %w", err)
		}

		return nil
	})

	if err == nil {
		order.CurrentStage = newStage
		if shipDate != nil {
			order.CurrentShipDate = *shipDate
		}
		if models.IsTerminalStage(newStage) {
			order.IsActive = false
		}
		r.invalidateOrderCache(ctx, order.ID)
	}

	return err
}

// ApplyShipDateChange updates the projected ship date without touching
// the stage, with the same transactional history guarantee.
func (r *orderRepository) ApplyShipDateChange(ctx context.Context, order *models.Order, shipDate time.Time, entry *models.StageHistoryEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("current_ship_date", shipDate).Error; err != nil {
			return fmt.Errorf("failed to update ship date: %w", err)
		}

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to record ship date history: %w", err)
		}

		return nil
	})

	if err == nil {
		order.CurrentShipDate = shipDate
		r.invalidateOrderCache(ctx, order.ID)
	}

	return err
}
