package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"colorgarb-portal/internal/middleware"
	"colorgarb-portal/internal/repository"
	"colorgarb-portal/internal/services"
)

// AuditHandler exposes the stage history and access attempt logs
type AuditHandler struct {
	orderService services.OrderService
}

func NewAuditHandler(orderService services.OrderService) *AuditHandler {
	return &AuditHandler{
		orderService: orderService,
	}
}

// parseTimeQuery parses an optional RFC3339 query parameter
func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid date filter",
			Message: name + " must be in RFC3339 format",
		})
		return nil, false
	}
	return &parsed, true
}

// ListEntries queries the stage history log
// @Summary Query stage history entries
// @Description List stage history entries with optional order and date filters
// @Tags audit
// @Produce json
// @Param orderId query string false "Order ID filter"
// @Param dateFrom query string false "Start of date range (RFC3339)"
// @Param dateTo query string false "End of date range (RFC3339)"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /audit/entries [get]
func (h *AuditHandler) ListEntries(c *gin.Context) {
	filters := repository.AuditFilters{}

	if orderStr := c.Query("orderId"); orderStr != "" {
		orderID, err := uuid.Parse(orderStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid order ID",
				Message: "orderId must be a valid UUID",
			})
			return
		}
		filters.OrderID = &orderID
	}

	dateFrom, ok := parseTimeQuery(c, "dateFrom")
	if !ok {
		return
	}
	filters.DateFrom = dateFrom

	dateTo, ok := parseTimeQuery(c, "dateTo")
	if !ok {
		return
	}
	filters.DateTo = dateTo

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 1000 {
			filters.Limit = limit
		}
	}

	entries, err := h.orderService.AuditEntries(c.Request.Context(), middleware.GetActor(c), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// ListAttempts queries the access attempt log
// @Summary Query access attempts
// @Description List recorded access attempts, most recent first (ColorGarb staff only)
// @Tags audit
// @Produce json
// @Param userId query string false "User ID filter"
// @Param allowed query bool false "Decision outcome filter"
// @Param dateFrom query string false "Start of date range (RFC3339)"
// @Param dateTo query string false "End of date range (RFC3339)"
// @Param limit query int false "Maximum attempts to return"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /audit/attempts [get]
func (h *AuditHandler) ListAttempts(c *gin.Context) {
	filters := repository.AttemptFilters{
		UserID: c.Query("userId"),
	}

	if allowedStr := c.Query("allowed"); allowedStr != "" {
		allowed, err := strconv.ParseBool(allowedStr)
		if err == nil {
			filters.Allowed = &allowed
		}
	}

	dateFrom, ok := parseTimeQuery(c, "dateFrom")
	if !ok {
		return
	}
	filters.DateFrom = dateFrom

	dateTo, ok := parseTimeQuery(c, "dateTo")
	if !ok {
		return
	}
	filters.DateTo = dateTo

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 1000 {
			filters.Limit = limit
		}
	}

	attempts, err := h.orderService.AuditAttempts(c.Request.Context(), middleware.GetActor(c), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"count":    len(attempts),
	})
}
