package model

import (
	"time"

	"github.com/google/uuid"
)

// 在庫を管理者が直接設定した記録。Delta = QuantityAfter - QuantityBefore
// 注文による増減はここに残さない
type InventoryAdjustment struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID      int64     `gorm:"not null;index" json:"product_id"`
	AdminUserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"admin_user_id"`
	QuantityBefore int64     `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int64     `gorm:"not null" json:"quantity_after"`
	Delta          int64     `gorm:"not null" json:"delta"`
	Reason         string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func NewInventoryAdjustment(productID int64, admin uuid.UUID, before, after int64, reason string) InventoryAdjustment {
	return InventoryAdjustment{
		ProductID:      productID,
		AdminUserID:    admin,
		QuantityBefore: before,
		QuantityAfter:  after,
		Delta:          after - before,
		Reason:         reason,
	}
}
