package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"colorgarb-portal/internal/authz"
	"colorgarb-portal/internal/middleware"
	"colorgarb-portal/internal/models"
	"colorgarb-portal/internal/repository"
	"colorgarb-portal/internal/services"
)

type MockOrderService struct {
	mock.Mock
}

var _ services.OrderService = (*MockOrderService)(nil)

func (m *MockOrderService) GetOrder(ctx context.Context, actor authz.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, actor authz.Context, filters repository.OrderFilters) ([]models.Order, int64, error) {
	args := m.Called(ctx, actor, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) UpdateStage(ctx context.Context, actor authz.Context, orderID uuid.UUID, input services.StageUpdateInput) (*models.Order, error) {
	args := m.Called(ctx, actor, orderID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) UpdateShipDate(ctx context.Context, actor authz.Context, orderID uuid.UUID, input services.ShipDateUpdateInput) (*models.Order, error) {
	args := m.Called(ctx, actor, orderID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) BulkUpdateStage(ctx context.Context, actor authz.Context, input services.BulkStageUpdateInput) (*services.BulkOutcome, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BulkOutcome), args.Error(1)
}

func (m *MockOrderService) ValidStages(ctx context.Context, actor authz.Context, orderID uuid.UUID) ([]models.OrderStage, error) {
	args := m.Called(ctx, actor, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderStage), args.Error(1)
}

func (m *MockOrderService) History(ctx context.Context, actor authz.Context, orderID uuid.UUID) ([]models.StageHistoryEntry, error) {
	args := m.Called(ctx, actor, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StageHistoryEntry), args.Error(1)
}

func (m *MockOrderService) AuditEntries(ctx context.Context, actor authz.Context, filters repository.AuditFilters) ([]models.StageHistoryEntry, error) {
	args := m.Called(ctx, actor, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StageHistoryEntry), args.Error(1)
}

func (m *MockOrderService) AuditAttempts(ctx context.Context, actor authz.Context, filters repository.AttemptFilters) ([]models.AccessAttempt, error) {
	args := m.Called(ctx, actor, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessAttempt), args.Error(1)
}

func setupRouter(service services.OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ActorContext())

	orderHandler := NewOrderHandler(service)
	auditHandler := NewAuditHandler(service)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/orders", orderHandler.ListOrders)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.PATCH("/orders/:id/stage", orderHandler.UpdateStage)
		v1.PATCH("/orders/:id/ship-date", orderHandler.UpdateShipDate)
		v1.POST("/orders/bulk/stage", orderHandler.BulkUpdateStage)
		v1.GET("/orders/:id/valid-stages", orderHandler.ValidStages)
		v1.GET("/orders/:id/history", orderHandler.History)
		v1.GET("/audit/attempts", auditHandler.ListAttempts)
	}
	return router
}

func withIdentity(req *http.Request, role string) {
	req.Header.Set("x-jwt-claim-sub", uuid.New().String())
	req.Header.Set("x-jwt-claim-role", role)
	req.Header.Set("x-jwt-claim-organization-id", uuid.New().String())
}

func TestGetOrder_OK(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	order := &models.Order{ID: uuid.New(), OrderNumber: "CG-1700000000", CurrentStage: models.StageSewing}
	service.On("GetOrder", mock.Anything, mock.MatchedBy(func(a authz.Context) bool {
		return a.Role == models.RoleDirector
	}), order.ID).Return(order, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	withIdentity(req, "Director")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body models.Order
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, order.OrderNumber, body.OrderNumber)
}

func TestGetOrder_InvalidID(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	withIdentity(req, "Director")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrder_ForbiddenMapsTo403(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	orderID := uuid.New()
	service.On("GetOrder", mock.Anything, mock.Anything, orderID).
		Return(nil, services.NewAuthorizationError("access denied: organization boundary"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	withIdentity(req, "Director")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetOrder_MissingIdentityMapsTo401(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	orderID := uuid.New()
	service.On("GetOrder", mock.Anything, mock.Anything, orderID).
		Return(nil, services.NewAuthenticationError("valid user identity required"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateStage_ConflictMapsTo409(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	orderID := uuid.New()
	service.On("UpdateStage", mock.Anything, mock.Anything, orderID, mock.Anything).
		Return(nil, services.NewConflictError("cannot move order backward from Sewing to Cutting"))

	payload, _ := json.Marshal(StageUpdateRequest{Stage: "Cutting", Reason: "rework"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/stage", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	withIdentity(req, "ColorGarbStaff")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateStage_MissingReasonRejectedByBinding(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	payload := []byte(`{"stage": "Sewing"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.New().String()+"/stage", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	withIdentity(req, "ColorGarbStaff")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "UpdateStage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBulkUpdateStage_PartialFailureStill200(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	okID := uuid.New()
	failedID := uuid.New()
	outcome := &services.BulkOutcome{
		Successful: []uuid.UUID{okID},
		Failed: []services.BulkFailure{
			{OrderID: failedID, Reason: "order is already at stage Sewing"},
		},
	}
	service.On("BulkUpdateStage", mock.Anything, mock.Anything, mock.Anything).Return(outcome, nil)

	payload, _ := json.Marshal(BulkStageUpdateRequest{
		OrderIDs: []uuid.UUID{okID, failedID},
		Stage:    "Sewing",
		Reason:   "batch advance",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/bulk/stage", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	withIdentity(req, "ColorGarbStaff")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body services.BulkOutcome
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Successful, 1)
	assert.Len(t, body.Failed, 1)
}

func TestValidStages_OK(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	orderID := uuid.New()
	service.On("ValidStages", mock.Anything, mock.Anything, orderID).
		Return([]models.OrderStage{models.StageDelivery}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/valid-stages", nil)
	withIdentity(req, "ColorGarbStaff")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Delivery")
}

func TestListAttempts_ForbiddenForOrgUsers(t *testing.T) {
	service := new(MockOrderService)
	router := setupRouter(service)

	service.On("AuditAttempts", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, services.NewAuthorizationError("access attempt logs are restricted to ColorGarb staff"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/attempts", nil)
	withIdentity(req, "Finance")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
