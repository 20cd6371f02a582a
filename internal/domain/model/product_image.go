package model

import "time"

// 商品画像。実体はオブジェクトストレージ、DBには参照だけ
type ProductImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	ObjectKey string    `gorm:"type:varchar(512);not null" json:"-"`
	AltText   string    `gorm:"type:varchar(255)" json:"alt_text"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
