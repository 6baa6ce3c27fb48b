package handlers

import (
	"net/http"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"

	"colorgarb-portal/internal/repository"
)

// HealthResponse reports service liveness and cache status
type HealthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Cache      string            `json:"cache"`
	CacheStats *cache.CacheStats `json:"cacheStats,omitempty"`
}

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	orderRepo repository.OrderRepository
}

func NewHealthHandler(orderRepo repository.OrderRepository) *HealthHandler {
	return &HealthHandler{orderRepo: orderRepo}
}

// HealthCheck reports service health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	cacheStatus := "disabled"
	if err := h.orderRepo.RedisHealth(c.Request.Context()); err == nil {
		cacheStatus = "up"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		Service:    "colorgarb-portal",
		Cache:      cacheStatus,
		CacheStats: h.orderRepo.CacheStats(),
	})
}
