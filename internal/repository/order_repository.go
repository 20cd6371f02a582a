package repository

import (
	"context"
	"time"

	"autoparts/internal/domain/model"

	"github.com/google/uuid"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
}

// 管理画面からの更新内容。nilは変更しない
type OrderStatusUpdate struct {
	Status         model.OrderStatus
	TrackingNumber *string
	PaymentStatus  *model.PaymentStatus
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, in OrderStatusUpdate) error
	// 決済セッション作成後にsession_idを残す
	UpdatePaymentMethod(ctx context.Context, orderID int64, pm model.PaymentMethod) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
