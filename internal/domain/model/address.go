package model

import (
	"time"

	"github.com/google/uuid"
)

type AddressType string

const (
	AddressTypeBilling  AddressType = "billing"
	AddressTypeShipping AddressType = "shipping"
)

func (t AddressType) Valid() bool {
	return t == AddressTypeBilling || t == AddressTypeShipping
}

// 住所（請求先・配送先）
type Address struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Type   AddressType `gorm:"type:varchar(20);not null" json:"type"`

	FirstName    string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string `gorm:"type:varchar(100);not null" json:"last_name"`
	Company      string `gorm:"type:varchar(255)" json:"company"`
	AddressLine1 string `gorm:"type:varchar(255);not null" json:"address_line1"`
	AddressLine2 string `gorm:"type:varchar(255)" json:"address_line2"`
	City         string `gorm:"type:varchar(100);not null" json:"city"`
	State        string `gorm:"type:varchar(100);not null" json:"state"`
	PostalCode   string `gorm:"type:varchar(20);not null" json:"postal_code"`
	Country      string `gorm:"type:varchar(2);not null;default:'US'" json:"country"`
	Phone        string `gorm:"type:varchar(30)" json:"phone"`

	//ユーザーごとにtrueは1件だけ
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
