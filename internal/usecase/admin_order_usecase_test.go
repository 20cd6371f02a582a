package usecase_test

import (
	"context"
	"strings"
	"testing"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"
	"autoparts/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminOrderFixture struct {
	tx        *TxManagerMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	inventory *InventoryRepoMock
	audit     *AuditRepoMock
	notifier  *NotifierMock
}

func newAdminOrderFixture() *adminOrderFixture {
	f := &adminOrderFixture{
		tx:        new(TxManagerMock),
		orders:    new(OrderRepoMock),
		items:     new(OrderItemRepoMock),
		inventory: new(InventoryRepoMock),
		audit:     new(AuditRepoMock),
		notifier:  new(NotifierMock),
	}
	f.tx.Repos = &TxReposMock{orders: f.orders, orderItems: f.items, inventory: f.inventory, auditLogs: f.audit}
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	return f
}

func (f *adminOrderFixture) usecase() *usecase.AdminOrderUsecase {
	return usecase.NewAdminOrderUsecase(f.tx, f.orders, f.items, f.notifier)
}

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	f := newAdminOrderFixture()

	_, err := f.usecase().List(context.Background(), repo.AdminOrderListFilter{Page: 0, Limit: 20})

	assertKind(t, err, usecase.KindValidation)
	f.orders.AssertNotCalled(t, "ListAdmin", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_List_InvalidStatus(t *testing.T) {
	f := newAdminOrderFixture()
	_, err := f.usecase().List(context.Background(), repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "lost"})
	assertKind(t, err, usecase.KindValidation)
}

func TestAdminOrderUsecase_List_OK(t *testing.T) {
	f := newAdminOrderFixture()
	filter := repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "pending"}
	f.orders.On("ListAdmin", mock.Anything, filter).Return([]model.Order{{ID: 1, Status: model.OrderStatusPending}}, int64(1), nil)
	f.items.On("ListByOrderIDs", mock.Anything, []int64{1}).Return(map[int64][]model.OrderItem{}, nil)

	out, err := f.usecase().List(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	require.Len(t, out.Items, 1)
}

func TestAdminOrderUsecase_CancelPendingRestocks(t *testing.T) {
	f := newAdminOrderFixture()
	actor := uuid.New()
	f.orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, OrderNumber: "ORD-A-AAAAAA", Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending,
	}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(1), int64(2)).Return(nil).Once()
	f.inventory.On("IncreaseStock", mock.Anything, int64(2), int64(1)).Return(nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, int64(10), repo.OrderStatusUpdate{Status: model.OrderStatusCancelled}).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == actor &&
			l.Action == model.AuditActionUpdateOrderStatus &&
			l.ResourceID == 10 &&
			strings.Contains(l.BeforeJSON, `"status":"pending"`) &&
			strings.Contains(l.AfterJSON, `"status":"cancelled"`)
	})).Return(nil)
	f.notifier.On("Publish", mock.Anything, mock.MatchedBy(func(ev usecase.OrderEvent) bool {
		return ev.Type == usecase.EventOrderStatusChanged &&
			ev.Status == model.OrderStatusCancelled &&
			ev.PreviousStatus == model.OrderStatusPending
	})).Return(nil)

	out, err := f.usecase().UpdateStatus(context.Background(), actor, usecase.AdminUpdateOrderStatusInput{OrderID: 10, Status: "cancelled"})

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, out.Status)
	f.inventory.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestAdminOrderUsecase_CancelShippedDoesNotRestock(t *testing.T) {
	f := newAdminOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{ID: 10, Status: model.OrderStatusShipped}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{{ProductID: 1, Quantity: 2}}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(10), mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.usecase().UpdateStatus(context.Background(), uuid.New(), usecase.AdminUpdateOrderStatusInput{OrderID: 10, Status: "cancelled"})

	require.NoError(t, err)
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_CancelDeliveredIsRejected(t *testing.T) {
	f := newAdminOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{ID: 10, Status: model.OrderStatusDelivered}, nil)

	_, err := f.usecase().UpdateStatus(context.Background(), uuid.New(), usecase.AdminUpdateOrderStatusInput{OrderID: 10, Status: "cancelled"})

	assertKind(t, err, usecase.KindBusinessRule)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_BackwardsIsRejected(t *testing.T) {
	f := newAdminOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{ID: 10, Status: model.OrderStatusShipped}, nil)

	_, err := f.usecase().UpdateStatus(context.Background(), uuid.New(), usecase.AdminUpdateOrderStatusInput{OrderID: 10, Status: "processing"})

	assertKind(t, err, usecase.KindBusinessRule)
}

func TestAdminOrderUsecase_SameStatusIsRejected(t *testing.T) {
	f := newAdminOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{ID: 10, Status: model.OrderStatusProcessing}, nil)

	_, err := f.usecase().UpdateStatus(context.Background(), uuid.New(), usecase.AdminUpdateOrderStatusInput{OrderID: 10, Status: "processing"})

	assertKind(t, err, usecase.KindBusinessRule)
	assert.Contains(t, err.Error(), "already processing")
}

func TestAdminOrderUsecase_ShipStoresTrackingNumber(t *testing.T) {
	f := newAdminOrderFixture()
	tracking := "1Z999"
	f.orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{ID: 10, Status: model.OrderStatusProcessing}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(10), mock.MatchedBy(func(u repo.OrderStatusUpdate) bool {
		return u.Status == model.OrderStatusShipped && u.TrackingNumber != nil && *u.TrackingNumber == tracking && u.PaymentStatus == nil
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Publish", mock.Anything, mock.MatchedBy(func(ev usecase.OrderEvent) bool {
		return ev.TrackingNumber == tracking
	})).Return(nil)

	padded := "  " + tracking + " "
	out, err := f.usecase().UpdateStatus(context.Background(), uuid.New(), usecase.AdminUpdateOrderStatusInput{OrderID: 10, Status: "SHIPPED", TrackingNumber: &padded})

	require.NoError(t, err)
	require.NotNil(t, out.TrackingNumber)
	assert.Equal(t, tracking, *out.TrackingNumber)
	f.orders.AssertExpectations(t)
}

func TestAdminOrderUsecase_RefundMarksPayment(t *testing.T) {
	f := newAdminOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{ID: 10, Status: model.OrderStatusShipped, PaymentStatus: model.PaymentStatusPaid}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{{ProductID: 1, Quantity: 1}}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(10), mock.MatchedBy(func(u repo.OrderStatusUpdate) bool {
		return u.Status == model.OrderStatusRefunded && u.PaymentStatus != nil && *u.PaymentStatus == model.PaymentStatusRefunded
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Publish", mock.Anything, mock.Anything).Return(nil)

	out, err := f.usecase().UpdateStatus(context.Background(), uuid.New(), usecase.AdminUpdateOrderStatusInput{OrderID: 10, Status: "refunded"})

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, out.PaymentStatus)
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UnknownOrder(t *testing.T) {
	f := newAdminOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(99)).Return(nil, repo.ErrNotFound)

	_, err := f.usecase().UpdateStatus(context.Background(), uuid.New(), usecase.AdminUpdateOrderStatusInput{OrderID: 99, Status: "shipped"})

	assertKind(t, err, usecase.KindNotFound)
}

func TestAdminOrderUsecase_InvalidStatus(t *testing.T) {
	f := newAdminOrderFixture()
	_, err := f.usecase().UpdateStatus(context.Background(), uuid.New(), usecase.AdminUpdateOrderStatusInput{OrderID: 1, Status: "teleported"})
	assertKind(t, err, usecase.KindValidation)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestParseDateTimeRFC3339(t *testing.T) {
	v, ok := usecase.ParseDateTimeRFC3339("")
	assert.True(t, ok)
	assert.Nil(t, v)

	v, ok = usecase.ParseDateTimeRFC3339("2026-01-02T03:04:05Z")
	assert.True(t, ok)
	require.NotNil(t, v)
	assert.Equal(t, 2026, v.Year())

	_, ok = usecase.ParseDateTimeRFC3339("yesterday")
	assert.False(t, ok)
}
