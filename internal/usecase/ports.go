package usecase

import (
	"context"
	"io"
	"time"

	"autoparts/internal/domain/checkout"
	"autoparts/internal/domain/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// チェックアウト途中の状態をユーザー単位で保存する
type DraftStore interface {
	// 無ければ (nil, nil)
	Load(ctx context.Context, userID uuid.UUID) (*checkout.State, error)
	Save(ctx context.Context, userID uuid.UUID, state *checkout.State) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type PaymentLine struct {
	Name       string
	UnitAmount int64 // 最小通貨単位
	Quantity   int64
}

type PaymentSessionInput struct {
	OrderID        int64
	OrderNumber    string
	CustomerEmail  string
	Currency       string
	Lines          []PaymentLine
	TaxAmount      int64
	ShippingAmount int64
}

type PaymentSession struct {
	ID  string
	URL string
}

// 外部決済（リダイレクト型）
type PaymentProvider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, in PaymentSessionInput) (PaymentSession, error)
}

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// メール送信サービスへ流すイベント
type OrderEvent struct {
	Type           string            `json:"type"`
	OrderID        int64             `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	UserID         uuid.UUID         `json:"user_id"`
	Email          string            `json:"email,omitempty"`
	Status         model.OrderStatus `json:"status"`
	PreviousStatus model.OrderStatus `json:"previous_status,omitempty"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
	Total          decimal.Decimal   `json:"total"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// 通知は投げっぱなし（失敗はログだけ）
type OrderNotifier interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// 商品画像の保存先
type ObjectStore interface {
	// 公開URLを返す
	Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

type FieldValidator = checkout.FieldValidator
