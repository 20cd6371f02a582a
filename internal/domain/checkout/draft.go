package checkout

import "autoparts/internal/domain/model"

// 配送先。住所系の必須チェックはNextで行う
type ShippingInfo struct {
	FirstName  string `json:"first_name" validate:"notblank"`
	LastName   string `json:"last_name" validate:"notblank"`
	Email      string `json:"email" validate:"notblank,loose_email"`
	Phone      string `json:"phone" validate:"notblank"`
	Company    string `json:"company,omitempty"`
	Address    string `json:"address" validate:"notblank"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city" validate:"notblank"`
	State      string `json:"state" validate:"notblank"`
	PostalCode string `json:"postal_code" validate:"notblank"`
	Country    string `json:"country,omitempty" validate:"omitempty,len=2"`
}

// 請求先の住所欄（same_as_shipping=falseのときだけ検証）
type BillingAddress struct {
	FirstName  string `json:"first_name" validate:"notblank"`
	LastName   string `json:"last_name" validate:"notblank"`
	Company    string `json:"company,omitempty"`
	Address    string `json:"address" validate:"notblank"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city" validate:"notblank"`
	State      string `json:"state" validate:"notblank"`
	PostalCode string `json:"postal_code" validate:"notblank"`
	Country    string `json:"country,omitempty" validate:"omitempty,len=2"`
}

type BillingInfo struct {
	// 未指定は「配送先と同じ」扱い
	SameAsShipping *bool `json:"same_as_shipping,omitempty"`
	BillingAddress
}

func (b *BillingInfo) UsesShipping() bool {
	return b == nil || b.SameAsShipping == nil || *b.SameAsShipping
}

type PaymentInfo struct {
	Method model.PaymentMethodType `json:"method,omitempty"`
	Notes  string                  `json:"notes,omitempty"`
}

// 未指定はカード決済
func (p *PaymentInfo) MethodOrDefault() model.PaymentMethodType {
	if p == nil || p.Method == "" {
		return model.PaymentMethodCard
	}
	return p.Method
}

// 入力途中のチェックアウト内容
type Draft struct {
	Shipping *ShippingInfo `json:"shipping,omitempty"`
	Billing  *BillingInfo  `json:"billing,omitempty"`
	Payment  *PaymentInfo  `json:"payment,omitempty"`
}

// トップレベルのキー単位で上書き（浅いマージ）
func (d *Draft) Merge(patch Draft) {
	if patch.Shipping != nil {
		d.Shipping = patch.Shipping
	}
	if patch.Billing != nil {
		d.Billing = patch.Billing
	}
	if patch.Payment != nil {
		d.Payment = patch.Payment
	}
}
