package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductCondition string

const (
	ConditionNew         ProductCondition = "new"
	ConditionUsed        ProductCondition = "used"
	ConditionRefurbished ProductCondition = "refurbished"
)

func (c ProductCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

// 商品（部品）
// quantityは注文作成で減り、キャンセルで戻る。
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU         string `gorm:"type:varchar(64);not null;uniqueIndex" json:"sku"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CategoryID  *int64 `gorm:"index" json:"category_id"`

	//車両情報
	Make       string `gorm:"type:varchar(100);index" json:"make"`
	Model      string `gorm:"type:varchar(100);index" json:"model"`
	Year       int    `gorm:"index" json:"year"`
	PartNumber string `gorm:"type:varchar(100);index" json:"part_number"`

	Condition     ProductCondition `gorm:"type:varchar(20);not null;default:'new'" json:"condition"`
	Price         decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	OriginalPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"original_price"`
	Quantity      int64            `gorm:"not null;default:0" json:"quantity"`
	Weight        decimal.Decimal  `gorm:"type:decimal(10,3);not null;default:0" json:"weight"`

	Dimensions     Dimensions     `gorm:"type:jsonb" json:"dimensions"`
	Specifications Specifications `gorm:"type:jsonb" json:"specifications"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (p Product) InStock() bool {
	return p.Quantity > 0
}
