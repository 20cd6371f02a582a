package usecase

import (
	"context"
	"errors"

	"autoparts/internal/domain/checkout"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (CreateOrderResult, error)
}

// CheckoutUsecase は配送先→支払い→確認→完了の状態をユーザーごとに保存して進める
type CheckoutUsecase struct {
	drafts    DraftStore
	validator FieldValidator
	orders    OrderCreator
}

func NewCheckoutUsecase(drafts DraftStore, validator FieldValidator, orders OrderCreator) *CheckoutUsecase {
	return &CheckoutUsecase{drafts: drafts, validator: validator, orders: orders}
}

// stepは名前で返す（数値はstep_index）
type CheckoutView struct {
	Step      string `json:"step"`
	StepIndex int    `json:"step_index"`
	*checkout.State
}

type SubmitCheckoutInput struct {
	AcceptTerms    bool   `json:"accept_terms"`
	IdempotencyKey string `json:"-"`
}

func NewCheckoutView(s *checkout.State) CheckoutView {
	return CheckoutView{Step: s.Step.String(), StepIndex: int(s.Step), State: s}
}

func (u *CheckoutUsecase) Get(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	s, err := u.load(ctx, userID)
	if err != nil {
		return CheckoutView{}, err
	}
	return NewCheckoutView(s), nil
}

// トップレベルのキー単位で上書き
func (u *CheckoutUsecase) UpdateData(ctx context.Context, userID uuid.UUID, patch checkout.Draft) (CheckoutView, error) {
	s, err := u.load(ctx, userID)
	if err != nil {
		return CheckoutView{}, err
	}
	if err := s.UpdateData(patch); err != nil {
		return CheckoutView{}, NewBusinessRuleError("order already placed, reset checkout to start again", nil)
	}
	if err := u.save(ctx, userID, s); err != nil {
		return CheckoutView{}, err
	}
	return NewCheckoutView(s), nil
}

// 検証NGならステップはそのまま、errorsを保存してValidationErrorを返す
func (u *CheckoutUsecase) Next(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	s, err := u.load(ctx, userID)
	if err != nil {
		return CheckoutView{}, err
	}

	advanced, err := s.Next(u.validator)
	if errors.Is(err, checkout.ErrCannotAdvance) {
		return CheckoutView{}, NewBusinessRuleError("cannot advance from "+s.Step.String(), nil)
	}
	if err != nil {
		return CheckoutView{}, NewProviderError("checkout", err)
	}
	if err := u.save(ctx, userID, s); err != nil {
		return CheckoutView{}, err
	}
	if !advanced {
		return NewCheckoutView(s), NewValidationError("validation failed", s.Errors)
	}
	return NewCheckoutView(s), nil
}

func (u *CheckoutUsecase) Prev(ctx context.Context, userID uuid.UUID) (CheckoutView, error) {
	s, err := u.load(ctx, userID)
	if err != nil {
		return CheckoutView{}, err
	}
	if err := s.Prev(); err != nil {
		return CheckoutView{}, NewBusinessRuleError("cannot go back from "+s.Step.String(), nil)
	}
	if err := u.save(ctx, userID, s); err != nil {
		return CheckoutView{}, err
	}
	return NewCheckoutView(s), nil
}

// Submit はReviewからだけ注文を作る。失敗したらReviewのままlast_errorを残す
func (u *CheckoutUsecase) Submit(ctx context.Context, userID uuid.UUID, in SubmitCheckoutInput) (CheckoutView, error) {
	s, err := u.load(ctx, userID)
	if err != nil {
		return CheckoutView{}, err
	}

	switch err := s.CanSubmit(in.AcceptTerms); {
	case errors.Is(err, checkout.ErrTermsRequired):
		return CheckoutView{}, NewValidationError("terms must be accepted", map[string]string{"accept_terms": "terms must be accepted"})
	case err != nil:
		return CheckoutView{}, NewBusinessRuleError("order can only be placed from review", nil)
	}

	res, err := u.orders.CreateOrder(ctx, userID, CreateOrderInputFromDraft(s.Data, in.IdempotencyKey))
	if err != nil {
		msg, orderNumber := err.Error(), ""
		if ae, ok := AsAppError(err); ok {
			msg = ae.Message
			// 決済セッション作成の失敗でも注文自体は残っている
			if d, ok := ae.Details.(map[string]string); ok {
				orderNumber = d["order_number"]
			}
		}
		s.Fail(msg, orderNumber)
		if saveErr := u.save(ctx, userID, s); saveErr != nil {
			zerolog.Ctx(ctx).Warn().Err(saveErr).Msg("checkout state not saved after failed submit")
		}
		return NewCheckoutView(s), err
	}

	s.Complete(res.Order.OrderNumber, res.RedirectURL)
	if err := u.save(ctx, userID, s); err != nil {
		// 注文は作成済み。状態保存の失敗で注文結果を隠さない
		zerolog.Ctx(ctx).Warn().Err(err).Str("order_number", res.Order.OrderNumber).Msg("checkout state not saved")
	}
	return NewCheckoutView(s), nil
}

func (u *CheckoutUsecase) Reset(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return NewUnauthorizedError()
	}
	if err := u.drafts.Delete(ctx, userID); err != nil {
		return NewProviderError("checkout store error", err)
	}
	return nil
}

func (u *CheckoutUsecase) load(ctx context.Context, userID uuid.UUID) (*checkout.State, error) {
	if userID == uuid.Nil {
		return nil, NewUnauthorizedError()
	}
	s, err := u.drafts.Load(ctx, userID)
	if err != nil {
		return nil, NewProviderError("checkout store error", err)
	}
	if s == nil {
		s = checkout.NewState()
	}
	return s, nil
}

func (u *CheckoutUsecase) save(ctx context.Context, userID uuid.UUID, s *checkout.State) error {
	if err := u.drafts.Save(ctx, userID, s); err != nil {
		return NewProviderError("checkout store error", err)
	}
	return nil
}
