package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"colorgarb-portal/internal/middleware"
	"colorgarb-portal/internal/models"
	"colorgarb-portal/internal/repository"
	"colorgarb-portal/internal/services"
)

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// ErrorResponse is the JSON error envelope for all endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Pagination describes the page window of a list response
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// OrderListResponse is the paginated order list envelope
type OrderListResponse struct {
	Orders     []models.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// StageUpdateRequest is the request body for a single-order stage change
type StageUpdateRequest struct {
	Stage    string     `json:"stage" binding:"required"`
	ShipDate *time.Time `json:"shipDate"`
	Reason   string     `json:"reason" binding:"required"`
}

// ShipDateUpdateRequest is the request body for a ship date revision
type ShipDateUpdateRequest struct {
	ShipDate time.Time `json:"shipDate" binding:"required"`
	Reason   string    `json:"reason" binding:"required"`
}

// BulkStageUpdateRequest is the request body for a bulk stage change
type BulkStageUpdateRequest struct {
	OrderIDs []uuid.UUID `json:"orderIds" binding:"required"`
	Stage    string      `json:"stage" binding:"required"`
	Reason   string      `json:"reason" binding:"required"`
}

// respondError maps service error kinds onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	title := "Internal error"

	switch services.KindOf(err) {
	case services.KindAuthentication:
		status = http.StatusUnauthorized
		title = "Authentication required"
	case services.KindAuthorization:
		status = http.StatusForbidden
		title = "Access denied"
	case services.KindValidation:
		status = http.StatusBadRequest
		title = "Validation error"
	case services.KindConflict:
		status = http.StatusConflict
		title = "Conflict"
	case services.KindNotFound:
		status = http.StatusNotFound
		title = "Not found"
	}

	c.JSON(status, ErrorResponse{
		Error:   title,
		Message: err.Error(),
	})
}

// parseOrderID extracts and validates the order ID path parameter
func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid order ID",
			Message: "Order ID must be a valid UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// GetOrder retrieves an order by ID
// @Summary Get order by ID
// @Description Get a specific order, subject to organization boundary checks
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders retrieves orders with filtering and pagination
// @Summary List orders
// @Description Get a paginated list of orders visible to the caller
// @Tags orders
// @Produce json
// @Param organizationId query string false "Organization filter (staff only)"
// @Param stage query string false "Current stage filter"
// @Param active query bool false "Active orders filter"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} OrderListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filters := repository.OrderFilters{
		Page:  1,
		Limit: 20,
	}

	if orgStr := c.Query("organizationId"); orgStr != "" {
		orgID, err := uuid.Parse(orgStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid organization ID",
				Message: "organizationId must be a valid UUID",
			})
			return
		}
		filters.OrganizationID = &orgID
	}

	if stageStr := c.Query("stage"); stageStr != "" {
		stage, err := models.ParseStage(stageStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid stage",
				Message: err.Error(),
			})
			return
		}
		filters.Stage = &stage
	}

	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err == nil {
			filters.Active = &active
		}
	}

	if pageStr := c.Query("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filters.Page = page
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filters.Limit = limit
		}
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), middleware.GetActor(c), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := int(total) / filters.Limit
	if int(total)%filters.Limit > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       filters.Page,
			Limit:      filters.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// UpdateStage moves an order to a new manufacturing stage
// @Summary Update order stage
// @Description Move an order forward in the manufacturing sequence (ColorGarb staff only)
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body StageUpdateRequest true "Stage update request"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /orders/{id}/stage [patch]
func (h *OrderHandler) UpdateStage(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req StageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	order, err := h.orderService.UpdateStage(c.Request.Context(), middleware.GetActor(c), id, services.StageUpdateInput{
		Stage:    req.Stage,
		ShipDate: req.ShipDate,
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateShipDate revises the projected ship date of an order
// @Summary Update projected ship date
// @Description Revise the projected ship date without moving the stage (ColorGarb staff only)
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body ShipDateUpdateRequest true "Ship date update request"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id}/ship-date [patch]
func (h *OrderHandler) UpdateShipDate(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req ShipDateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	order, err := h.orderService.UpdateShipDate(c.Request.Context(), middleware.GetActor(c), id, services.ShipDateUpdateInput{
		ShipDate: req.ShipDate,
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// BulkUpdateStage applies the same stage change to many orders
// @Summary Bulk update order stages
// @Description Apply one stage change to up to 100 orders with per-order results
// @Tags orders
// @Accept json
// @Produce json
// @Param request body BulkStageUpdateRequest true "Bulk stage update request"
// @Success 200 {object} services.BulkOutcome
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /orders/bulk/stage [post]
func (h *OrderHandler) BulkUpdateStage(c *gin.Context) {
	var req BulkStageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	outcome, err := h.orderService.BulkUpdateStage(c.Request.Context(), middleware.GetActor(c), services.BulkStageUpdateInput{
		OrderIDs: req.OrderIDs,
		Stage:    req.Stage,
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// Partial failure is still a completed request.
	c.JSON(http.StatusOK, outcome)
}

// ValidStages lists the stages an order can still move to
// @Summary List valid next stages
// @Description Get the stages an order can legally move to from its current stage
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id}/valid-stages [get]
func (h *OrderHandler) ValidStages(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	stages, err := h.orderService.ValidStages(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId":     id.String(),
		"validStages": stages,
	})
}

// History returns the stage history of an order
// @Summary Get order stage history
// @Description Get the append-only stage history of an order in chronological order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id}/history [get]
func (h *OrderHandler) History(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	entries, err := h.orderService.History(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId": id.String(),
		"history": entries,
	})
}
