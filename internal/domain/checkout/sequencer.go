// Package checkout models the linear shipping, payment, review and success
// flow a customer walks through before an order is created.
package checkout

import (
	"errors"
	"fmt"
)

type Step int

const (
	StepShipping Step = iota
	StepPayment
	StepReview
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepSuccess:
		return "success"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var (
	ErrCannotAdvance = errors.New("checkout: cannot advance from this step")
	ErrCannotGoBack  = errors.New("checkout: cannot go back from this step")
	ErrNotReviewing  = errors.New("checkout: order can only be placed from review")
	ErrTermsRequired = errors.New("checkout: terms must be accepted")
	ErrAlreadyPlaced = errors.New("checkout: order already placed")
)

type FieldValidator interface {
	Fields(s any) map[string]string
}

// ユーザーごとのチェックアウト状態
type State struct {
	Step        Step              `json:"step"`
	Data        Draft             `json:"data"`
	Errors      map[string]string `json:"errors,omitempty"`
	OrderNumber string            `json:"order_number,omitempty"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
}

func NewState() *State {
	return &State{Step: StepShipping}
}

func (s *State) UpdateData(patch Draft) error {
	if s.Step == StepSuccess {
		return ErrAlreadyPlaced
	}
	s.Data.Merge(patch)
	return nil
}

// Next は現在ステップを検証し、通れば1つ進む
// 検証NGならステップはそのままでErrorsが埋まり、falseを返す
func (s *State) Next(v FieldValidator) (bool, error) {
	var errs map[string]string
	switch s.Step {
	case StepShipping:
		errs = validateShipping(v, s.Data.Shipping)
	case StepPayment:
		errs = validateBilling(v, s.Data.Billing)
	default:
		return false, ErrCannotAdvance
	}

	if len(errs) > 0 {
		s.Errors = errs
		return false, nil
	}
	s.Errors = nil
	s.Step++
	return true, nil
}

func (s *State) Prev() error {
	if s.Step == StepShipping || s.Step == StepSuccess {
		return ErrCannotGoBack
	}
	s.Errors = nil
	s.Step--
	return nil
}

// 注文確定前のチェック
func (s *State) CanSubmit(acceptTerms bool) error {
	if s.Step != StepReview {
		return ErrNotReviewing
	}
	if !acceptTerms {
		return ErrTermsRequired
	}
	return nil
}

func (s *State) Complete(orderNumber, redirectURL string) {
	s.Step = StepSuccess
	s.OrderNumber = orderNumber
	s.RedirectURL = redirectURL
	s.LastError = ""
	s.Errors = nil
}

// 失敗時はReviewのまま
// 注文は作れたが決済に進めなかった場合はorderNumberも残す
func (s *State) Fail(msg, orderNumber string) {
	s.LastError = msg
	if orderNumber != "" {
		s.OrderNumber = orderNumber
	}
}

func validateShipping(v FieldValidator, in *ShippingInfo) map[string]string {
	if in == nil {
		in = &ShippingInfo{}
	}
	return prefixed("shipping.", v.Fields(in))
}

func validateBilling(v FieldValidator, in *BillingInfo) map[string]string {
	if in.UsesShipping() {
		return nil
	}
	return prefixed("billing.", v.Fields(in.BillingAddress))
}

func prefixed(prefix string, errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for k, msg := range errs {
		out[prefix+k] = msg
	}
	return out
}
