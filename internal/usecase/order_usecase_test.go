package usecase_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"autoparts/internal/domain/checkout"
	"autoparts/internal/domain/model"
	"autoparts/internal/domain/pricing"
	"autoparts/internal/usecase"
	"autoparts/internal/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	tx        *TxManagerMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	cart      *CartItemRepoMock
	inventory *InventoryRepoMock
	products  *ProductRepoMock
	addresses *AddressRepoMock
	payments  *PaymentProviderMock
	notifier  *NotifierMock
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		tx:        new(TxManagerMock),
		orders:    new(OrderRepoMock),
		items:     new(OrderItemRepoMock),
		cart:      new(CartItemRepoMock),
		inventory: new(InventoryRepoMock),
		products:  new(ProductRepoMock),
		addresses: new(AddressRepoMock),
		payments:  new(PaymentProviderMock),
		notifier:  new(NotifierMock),
	}
	f.tx.Repos = &TxReposMock{
		orders:     f.orders,
		orderItems: f.items,
		cartItems:  f.cart,
		inventory:  f.inventory,
		products:   f.products,
		addresses:  f.addresses,
	}
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	return f
}

func (f *orderFixture) usecase(withPayments bool) *usecase.OrderUsecase {
	var p usecase.PaymentProvider
	if withPayments {
		p = f.payments
	}
	return usecase.NewOrderUsecase(f.tx, f.orders, f.items, p, f.notifier, validator.New(), pricing.DefaultPolicy())
}

func shippingInfo() *checkout.ShippingInfo {
	return &checkout.ShippingInfo{
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane@example.com",
		Phone:      "555-0100",
		Address:    "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
	}
}

func brakePad() model.Product {
	return model.Product{ID: 10, SKU: "BP-1", Name: "Brake Pad", Price: decimal.NewFromInt(60), Quantity: 5, IsActive: true}
}

// カート: Brake Pad x2 (60.00)
func (f *orderFixture) cartWithBrakePads(userID uuid.UUID) {
	p := brakePad()
	f.cart.On("ListByUserID", mock.Anything, userID).Return([]model.CartItem{
		{ID: 1, UserID: userID, ProductID: p.ID, Quantity: 2, Product: &p},
	}, nil)
	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
}

var orderNumberRe = regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestCreateOrder_CashOnDeliveryComputesTotalsAndClearsCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	f := newOrderFixture()
	f.cartWithBrakePads(userID)

	f.addresses.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.Type == model.AddressTypeShipping && a.Country == "US" && a.UserID == userID
	})).Return(model.Address{ID: 7}, nil).Once()

	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.Status == model.OrderStatusPending &&
			o.PaymentStatus == model.PaymentStatusPending &&
			o.Subtotal.Equal(decimal.NewFromInt(120)) &&
			o.Shipping.IsZero() &&
			o.Tax.Equal(decimal.RequireFromString("9.6")) &&
			o.Total.Equal(decimal.RequireFromString("129.6")) &&
			o.ShippingAddressID == 7 && o.BillingAddressID == 7 &&
			orderNumberRe.MatchString(o.OrderNumber)
	})).Return(model.Order{ID: 100, OrderNumber: "ORD-ABC-123456", UserID: userID, Status: model.OrderStatusPending,
		Total: decimal.RequireFromString("129.6")}, nil)

	f.items.On("CreateBulk", mock.Anything, int64(100), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].TotalPrice.Equal(decimal.NewFromInt(120)) && items[0].ProductName == "Brake Pad"
	})).Return(nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).Return(true, nil)
	f.cart.On("ClearByUserID", mock.Anything, userID).Return(nil)
	f.notifier.On("Publish", mock.Anything, mock.MatchedBy(func(ev usecase.OrderEvent) bool {
		return ev.Type == usecase.EventOrderCreated && ev.OrderID == 100 && ev.Email == "jane@example.com"
	})).Return(nil)

	res, err := f.usecase(false).CreateOrder(ctx, userID, usecase.CreateOrderInput{
		Shipping: shippingInfo(),
		Payment:  &checkout.PaymentInfo{Method: model.PaymentMethodCashOnDelivery},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Order.ID)
	assert.Empty(t, res.RedirectURL)
	assert.False(t, res.Replayed)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, int64(2), res.Order.Items[0].Quantity)
	f.cart.AssertExpectations(t)
	f.inventory.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.addresses.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreateOrder_SeparateBillingCreatesSecondAddress(t *testing.T) {
	userID := uuid.New()
	f := newOrderFixture()
	f.cartWithBrakePads(userID)

	f.addresses.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.Type == model.AddressTypeShipping
	})).Return(model.Address{ID: 7}, nil)
	f.addresses.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.Type == model.AddressTypeBilling && a.City == "Chicago" && a.Phone == "555-0100"
	})).Return(model.Address{ID: 8}, nil)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.ShippingAddressID == 7 && o.BillingAddressID == 8
	})).Return(model.Order{ID: 101, OrderNumber: "ORD-X-AAAAAA", UserID: userID}, nil)
	f.items.On("CreateBulk", mock.Anything, int64(101), mock.Anything).Return(nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).Return(true, nil)
	f.cart.On("ClearByUserID", mock.Anything, userID).Return(nil)
	f.notifier.On("Publish", mock.Anything, mock.Anything).Return(nil)

	separate := false
	_, err := f.usecase(false).CreateOrder(context.Background(), userID, usecase.CreateOrderInput{
		Shipping: shippingInfo(),
		Billing: &checkout.BillingInfo{SameAsShipping: &separate, BillingAddress: checkout.BillingAddress{
			FirstName: "Jane", LastName: "Doe", Address: "9 Lake Dr", City: "Chicago", State: "IL", PostalCode: "60601",
		}},
		Payment: &checkout.PaymentInfo{Method: model.PaymentMethodCashOnDelivery},
	})

	require.NoError(t, err)
	f.addresses.AssertNumberOfCalls(t, "Create", 2)
	f.orders.AssertExpectations(t)
}

func TestCreateOrder_InsufficientStockRollsBack(t *testing.T) {
	userID := uuid.New()
	f := newOrderFixture()
	f.cartWithBrakePads(userID)
	f.addresses.On("Create", mock.Anything, mock.Anything).Return(model.Address{ID: 7}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(model.Order{ID: 100}, nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).Return(false, nil)

	_, err := f.usecase(true).CreateOrder(context.Background(), userID, usecase.CreateOrderInput{Shipping: shippingInfo()})

	assertKind(t, err, usecase.KindBusinessRule)
	ae, _ := usecase.AsAppError(err)
	assert.Equal(t, usecase.IssueInsufficientInventory, ae.Message)
	f.cart.AssertNotCalled(t, "ClearByUserID", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	userID := uuid.New()
	f := newOrderFixture()
	f.cart.On("ListByUserID", mock.Anything, userID).Return([]model.CartItem{}, nil)

	_, err := f.usecase(true).CreateOrder(context.Background(), userID, usecase.CreateOrderInput{Shipping: shippingInfo()})

	assertKind(t, err, usecase.KindBusinessRule)
	assert.Contains(t, err.Error(), "cart is empty")
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_InactiveProductRejected(t *testing.T) {
	userID := uuid.New()
	f := newOrderFixture()
	p := brakePad()
	p.IsActive = false
	f.cart.On("ListByUserID", mock.Anything, userID).Return([]model.CartItem{{ID: 1, ProductID: p.ID, Quantity: 1, Product: &p}}, nil)
	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	_, err := f.usecase(true).CreateOrder(context.Background(), userID, usecase.CreateOrderInput{Shipping: shippingInfo()})

	assertKind(t, err, usecase.KindBusinessRule)
	ae, _ := usecase.AsAppError(err)
	assert.Equal(t, usecase.IssueProductUnavailable, ae.Message)
}

func TestCreateOrder_CardRedirectsToPaymentSession(t *testing.T) {
	userID := uuid.New()
	f := newOrderFixture()
	f.cartWithBrakePads(userID)
	f.addresses.On("Create", mock.Anything, mock.Anything).Return(model.Address{ID: 7}, nil)
	created := model.Order{
		ID: 100, OrderNumber: "ORD-ABC-123456", UserID: userID,
		Subtotal: decimal.NewFromInt(120), Tax: decimal.RequireFromString("9.6"),
		Shipping: decimal.Zero, Total: decimal.RequireFromString("129.6"),
		PaymentMethod: model.PaymentMethod{Type: model.PaymentMethodCard},
	}
	f.orders.On("Create", mock.Anything, mock.Anything).Return(created, nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).Return(true, nil)
	f.cart.On("ClearByUserID", mock.Anything, userID).Return(nil)
	f.notifier.On("Publish", mock.Anything, mock.Anything).Return(nil)

	f.payments.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(in usecase.PaymentSessionInput) bool {
		return in.OrderNumber == "ORD-ABC-123456" &&
			in.Currency == "usd" &&
			len(in.Lines) == 1 && in.Lines[0].UnitAmount == 6000 && in.Lines[0].Quantity == 2 &&
			in.TaxAmount == 960 && in.ShippingAmount == 0
	})).Return(usecase.PaymentSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil)
	wantPM := model.PaymentMethod{Type: model.PaymentMethodCard, Provider: "stripe", SessionID: "cs_test_1"}
	f.orders.On("UpdatePaymentMethod", mock.Anything, int64(100), wantPM).Return(nil)

	res, err := f.usecase(true).CreateOrder(context.Background(), userID, usecase.CreateOrderInput{Shipping: shippingInfo()})

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_1", res.RedirectURL)
	assert.Equal(t, wantPM, res.Order.PaymentMethod)
	f.payments.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestCreateOrder_PaymentFailureKeepsOrderNumber(t *testing.T) {
	userID := uuid.New()
	f := newOrderFixture()
	f.cartWithBrakePads(userID)
	f.addresses.On("Create", mock.Anything, mock.Anything).Return(model.Address{ID: 7}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(model.Order{ID: 100, OrderNumber: "ORD-ABC-123456"}, nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).Return(true, nil)
	f.cart.On("ClearByUserID", mock.Anything, userID).Return(nil)
	f.notifier.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.payments.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("card_declined"))

	_, err := f.usecase(true).CreateOrder(context.Background(), userID, usecase.CreateOrderInput{Shipping: shippingInfo()})

	assertKind(t, err, usecase.KindProvider)
	ae, _ := usecase.AsAppError(err)
	assert.Equal(t, map[string]string{"order_number": "ORD-ABC-123456"}, ae.Details)
	f.orders.AssertNotCalled(t, "UpdatePaymentMethod", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_CardWithoutProvider(t *testing.T) {
	f := newOrderFixture()

	_, err := f.usecase(false).CreateOrder(context.Background(), uuid.New(), usecase.CreateOrderInput{Shipping: shippingInfo()})

	assertKind(t, err, usecase.KindProvider)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestCreateOrder_SameIdempotencyKeyReturnsExistingOrder(t *testing.T) {
	userID := uuid.New()
	f := newOrderFixture()
	existing := model.Order{ID: 55, OrderNumber: "ORD-OLD-AAAAAA", UserID: userID}
	f.orders.On("FindByIdempotencyKey", mock.Anything, userID, "key-1").Return(existing, true, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(55)).Return([]model.OrderItem{{ProductID: 10, Quantity: 1}}, nil)

	res, err := f.usecase(true).CreateOrder(context.Background(), userID, usecase.CreateOrderInput{
		Shipping:       shippingInfo(),
		IdempotencyKey: " key-1 ",
	})

	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, int64(55), res.Order.ID)
	f.cart.AssertNotCalled(t, "ListByUserID", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateOrder_InvalidShippingReportsFields(t *testing.T) {
	f := newOrderFixture()
	sh := shippingInfo()
	sh.Email = "not-an-email"
	sh.City = " "

	_, err := f.usecase(true).CreateOrder(context.Background(), uuid.New(), usecase.CreateOrderInput{Shipping: sh})

	assertKind(t, err, usecase.KindValidation)
	ae, _ := usecase.AsAppError(err)
	fields, ok := ae.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "shipping.email")
	assert.Contains(t, fields, "shipping.city")
}

func TestCreateOrder_Unauthenticated(t *testing.T) {
	f := newOrderFixture()
	_, err := f.usecase(true).CreateOrder(context.Background(), uuid.Nil, usecase.CreateOrderInput{Shipping: shippingInfo()})
	assertKind(t, err, usecase.KindUnauthorized)
}

func TestGetMyOrderDetail_OtherUsersOrderIsNotFound(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{ID: 9, UserID: uuid.New()}, nil)

	_, err := f.usecase(true).GetMyOrderDetail(context.Background(), uuid.New(), 9)

	assertKind(t, err, usecase.KindNotFound)
	f.items.AssertNotCalled(t, "ListByOrderID", mock.Anything, mock.Anything)
}

func TestListMyOrders_AttachesItems(t *testing.T) {
	userID := uuid.New()
	f := newOrderFixture()
	f.orders.On("ListByUserID", mock.Anything, userID, 1, 20).Return([]model.Order{{ID: 1}, {ID: 2}}, int64(2), nil)
	f.items.On("ListByOrderIDs", mock.Anything, []int64{1, 2}).Return(map[int64][]model.OrderItem{
		1: {{OrderID: 1, ProductID: 10, Quantity: 1}},
	}, nil)

	out, err := f.usecase(true).ListMyOrders(context.Background(), userID, 1, 20)

	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)
	require.Len(t, out.Items, 2)
	assert.Len(t, out.Items[0].Items, 1)
	assert.Empty(t, out.Items[1].Items)
}

func TestListMyOrders_InvalidLimit(t *testing.T) {
	f := newOrderFixture()
	_, err := f.usecase(true).ListMyOrders(context.Background(), uuid.New(), 1, 101)
	assertKind(t, err, usecase.KindValidation)
}
