package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethodType string

const (
	// Stripe Checkoutへリダイレクトする
	PaymentMethodCard PaymentMethodType = "card"
	// 代引き（リダイレクトなし）
	PaymentMethodCashOnDelivery PaymentMethodType = "cod"
)

func (t PaymentMethodType) Valid() bool {
	return t == PaymentMethodCard || t == PaymentMethodCashOnDelivery
}

func (t PaymentMethodType) Redirects() bool {
	return t == PaymentMethodCard
}

// 支払い方法。ordersにはJSONで保存
type PaymentMethod struct {
	Type      PaymentMethodType `json:"type"`
	Provider  string            `json:"provider,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
}

func (p PaymentMethod) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PaymentMethod) Scan(src any) error {
	*p = PaymentMethod{}
	b, err := jsonBytes(src)
	if err != nil || len(b) == 0 {
		return err
	}
	return json.Unmarshal(b, p)
}

type Order struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string      `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_order_user_idem" json:"user_id"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Shipping decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`

	ShippingAddressID int64 `gorm:"not null" json:"shipping_address_id"`
	BillingAddressID  int64 `gorm:"not null" json:"billing_address_id"`

	PaymentMethod  PaymentMethod `gorm:"type:jsonb;not null" json:"payment_method"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	TrackingNumber *string       `gorm:"type:varchar(100)" json:"tracking_number"`
	Notes          string        `gorm:"type:text" json:"notes"`

	//ユーザーごとに同じキーなら同じ注文を返す（NULLは重複可）
	IdempotencyKey *string `gorm:"type:varchar(255);uniqueIndex:idx_order_user_idem" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
