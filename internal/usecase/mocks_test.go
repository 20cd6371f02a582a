package usecase_test

import (
	"context"
	"io"
	"testing"

	"autoparts/internal/domain/checkout"
	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"
	"autoparts/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cartItems  repo.CartItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	addresses  repo.AddressRepository
	images     repo.ProductImageRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *TxReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }
func (r *TxReposMock) Addresses() repo.AddressRepository    { return r.addresses }
func (r *TxReposMock) Images() repo.ProductImageRepository  { return r.images }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID uuid.UUID, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	list, _ := args.Get(0).([]model.Order)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (model.Order, error) {
	args := m.Called(ctx, order)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, in repo.OrderStatusUpdate) error {
	return m.Called(ctx, orderID, in).Error(0)
}

func (m *OrderRepoMock) UpdatePaymentMethod(ctx context.Context, orderID int64, pm model.PaymentMethod) error {
	return m.Called(ctx, orderID, pm).Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.Order)
	return list, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	args := m.Called(ctx, orderIDs)
	items, _ := args.Get(0).(map[int64][]model.OrderItem)
	return items, args.Error(1)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) Upsert(ctx context.Context, userID uuid.UUID, productID int64, addQty int64) error {
	return m.Called(ctx, userID, productID, addQty).Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	return m.Called(ctx, cartItemID, qty).Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	return m.Called(ctx, cartItemID).Error(0)
}

func (m *CartItemRepoMock) ClearByUserID(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) (int64, error) {
	args := m.Called(ctx, productID, newStock)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	return m.Called(ctx, productID, qty).Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	return m.Called(ctx, adjustment).Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, f repo.ProductFilter) ([]model.Product, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) Search(ctx context.Context, q string, f repo.ProductFilter, limit int) ([]model.Product, error) {
	args := m.Called(ctx, q, f, limit)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Error(1)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	args := m.Called(ctx, threshold)
	list, _ := args.Get(0).([]model.Product)
	return list, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepoMock) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type CategoryRepoMock struct{ mock.Mock }

func (m *CategoryRepoMock) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Category)
	return list, args.Error(1)
}

func (m *CategoryRepoMock) FindByID(ctx context.Context, id int64) (model.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *CategoryRepoMock) Create(ctx context.Context, c model.Category) (model.Category, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(model.Category)
	return out, args.Error(1)
}

type ImageRepoMock struct{ mock.Mock }

func (m *ImageRepoMock) ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	args := m.Called(ctx, productID)
	list, _ := args.Get(0).([]model.ProductImage)
	return list, args.Error(1)
}

func (m *ImageRepoMock) FindByID(ctx context.Context, imageID int64) (model.ProductImage, error) {
	args := m.Called(ctx, imageID)
	img, _ := args.Get(0).(model.ProductImage)
	return img, args.Error(1)
}

func (m *ImageRepoMock) Create(ctx context.Context, img model.ProductImage) (model.ProductImage, error) {
	args := m.Called(ctx, img)
	out, _ := args.Get(0).(model.ProductImage)
	return out, args.Error(1)
}

func (m *ImageRepoMock) Update(ctx context.Context, img model.ProductImage) error {
	return m.Called(ctx, img).Error(0)
}

func (m *ImageRepoMock) Delete(ctx context.Context, imageID int64) error {
	return m.Called(ctx, imageID).Error(0)
}

func (m *ImageRepoMock) ClearPrimary(ctx context.Context, productID int64, exceptImageID int64) error {
	return m.Called(ctx, productID, exceptImageID).Error(0)
}

type CompatibilityRepoMock struct{ mock.Mock }

func (m *CompatibilityRepoMock) ListByProductID(ctx context.Context, productID int64) ([]model.VehicleCompatibility, error) {
	args := m.Called(ctx, productID)
	list, _ := args.Get(0).([]model.VehicleCompatibility)
	return list, args.Error(1)
}

func (m *CompatibilityRepoMock) Create(ctx context.Context, v model.VehicleCompatibility) (model.VehicleCompatibility, error) {
	args := m.Called(ctx, v)
	out, _ := args.Get(0).(model.VehicleCompatibility)
	return out, args.Error(1)
}

type AddressRepoMock struct{ mock.Mock }

func (m *AddressRepoMock) Create(ctx context.Context, a model.Address) (model.Address, error) {
	args := m.Called(ctx, a)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

func (m *AddressRepoMock) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Address)
	return list, args.Error(1)
}

func (m *AddressRepoMock) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressRepoMock) Update(ctx context.Context, a model.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *AddressRepoMock) Delete(ctx context.Context, addressID int64) error {
	return m.Called(ctx, addressID).Error(0)
}

func (m *AddressRepoMock) SetDefault(ctx context.Context, userID uuid.UUID, addressID int64) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]model.AuditLog)
	return list, args.Error(1)
}

// =====================
// Port mocks
// =====================

type PaymentProviderMock struct{ mock.Mock }

func (m *PaymentProviderMock) Name() string { return "stripe" }

func (m *PaymentProviderMock) CreateCheckoutSession(ctx context.Context, in usecase.PaymentSessionInput) (usecase.PaymentSession, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(usecase.PaymentSession)
	return s, args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type DraftStoreMock struct{ mock.Mock }

func (m *DraftStoreMock) Load(ctx context.Context, userID uuid.UUID) (*checkout.State, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*checkout.State)
	return s, args.Error(1)
}

func (m *DraftStoreMock) Save(ctx context.Context, userID uuid.UUID, state *checkout.State) error {
	return m.Called(ctx, userID, state).Error(0)
}

func (m *DraftStoreMock) Delete(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type OrderCreatorMock struct{ mock.Mock }

func (m *OrderCreatorMock) CreateOrder(ctx context.Context, userID uuid.UUID, in usecase.CreateOrderInput) (usecase.CreateOrderResult, error) {
	args := m.Called(ctx, userID, in)
	r, _ := args.Get(0).(usecase.CreateOrderResult)
	return r, args.Error(1)
}

type ObjectStoreMock struct{ mock.Mock }

func (m *ObjectStoreMock) Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

func (m *ObjectStoreMock) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// =====================
// Helper
// =====================

func assertKind(t *testing.T, err error, kind usecase.ErrorKind) {
	t.Helper()
	if !usecase.IsKind(err, kind) {
		t.Errorf("want %s error, got %v", kind, err)
	}
}
