package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"autoparts/internal/domain/checkout"
	"autoparts/internal/domain/model"
	"autoparts/internal/domain/ordernum"
	"autoparts/internal/domain/pricing"
	repo "autoparts/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	payments   PaymentProvider
	notifier   OrderNotifier
	validator  FieldValidator
	policy     pricing.Policy
	now        func() time.Time
}

// paymentsはnil可（カード決済はエラーになる）
func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	payments PaymentProvider,
	notifier OrderNotifier,
	validator FieldValidator,
	policy pricing.Policy,
) *OrderUsecase {
	return &OrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		payments:   payments,
		notifier:   notifier,
		validator:  validator,
		policy:     policy,
		now:        time.Now,
	}
}

// 注文作成の入力（チェックアウトのドラフトと同じ形）
type CreateOrderInput struct {
	Shipping       *checkout.ShippingInfo `json:"shipping"`
	Billing        *checkout.BillingInfo  `json:"billing"`
	Payment        *checkout.PaymentInfo  `json:"payment"`
	IdempotencyKey string                 `json:"-"`
}

func CreateOrderInputFromDraft(d checkout.Draft, idempotencyKey string) CreateOrderInput {
	return CreateOrderInput{
		Shipping:       d.Shipping,
		Billing:        d.Billing,
		Payment:        d.Payment,
		IdempotencyKey: idempotencyKey,
	}
}

type OrderItemOutput struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int64           `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderOutput struct {
	model.Order
	Items []OrderItemOutput `json:"items"`
}

type CreateOrderResult struct {
	Order       OrderOutput `json:"order"`
	RedirectURL string      `json:"redirect_url,omitempty"`
	// 同じidempotency keyの再送で既存注文を返した
	Replayed bool `json:"replayed,omitempty"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// CreateOrder はカートから注文を作る。
// 住所・注文・明細・在庫減算・カート削除は1トランザクション。決済セッションはcommit後
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (CreateOrderResult, error) {
	if userID == uuid.Nil {
		return CreateOrderResult{}, NewUnauthorizedError()
	}
	if err := u.validateInput(in); err != nil {
		return CreateOrderResult{}, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return CreateOrderResult{}, NewValidationError("invalid idempotency key", nil)
	}
	method := in.Payment.MethodOrDefault()
	if method.Redirects() && u.payments == nil {
		return CreateOrderResult{}, NewProviderError("payment provider not configured", nil)
	}

	log := zerolog.Ctx(ctx)
	var (
		created  model.Order
		items    []model.OrderItem
		replayed bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return dbError(err)
			}
			if found {
				list, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return dbError(err)
				}
				created, items, replayed = existing, list, true
				return nil
			}
		}

		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return dbError(err)
		}
		if len(cartItems) == 0 {
			return NewBusinessRuleError("cart is empty", nil)
		}

		//価格は注文時点の商品から読み直す
		items = make([]model.OrderItem, 0, len(cartItems))
		lines := make([]pricing.Line, 0, len(cartItems))
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewBusinessRuleError(IssueProductUnavailable, map[string]int64{"product_id": ci.ProductID})
			}
			if err != nil {
				return dbError(err)
			}
			if !p.IsActive {
				return NewBusinessRuleError(IssueProductUnavailable, map[string]int64{"product_id": p.ID})
			}

			items = append(items, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    ci.Quantity,
				UnitPrice:   p.Price,
				TotalPrice:  pricing.LineTotal(p.Price, ci.Quantity),
			})
			lines = append(lines, pricing.Line{UnitPrice: p.Price, Quantity: ci.Quantity})
		}
		totals := u.policy.ComputeLines(lines)

		shippingAddr, err := r.Addresses().Create(ctx, shippingAddress(userID, in.Shipping))
		if err != nil {
			return dbError(err)
		}
		billingAddrID := shippingAddr.ID
		if !in.Billing.UsesShipping() {
			billingAddr, err := r.Addresses().Create(ctx, billingAddress(userID, in.Billing, in.Shipping))
			if err != nil {
				return dbError(err)
			}
			billingAddrID = billingAddr.ID
		}

		order := model.Order{
			OrderNumber:       ordernum.Generate(u.now()),
			UserID:            userID,
			Status:            model.OrderStatusPending,
			Subtotal:          totals.Subtotal,
			Tax:               totals.Tax,
			Shipping:          totals.Shipping,
			Total:             totals.Total,
			ShippingAddressID: shippingAddr.ID,
			BillingAddressID:  billingAddrID,
			PaymentMethod:     model.PaymentMethod{Type: method},
			PaymentStatus:     model.PaymentStatusPending,
		}
		if in.Payment != nil {
			order.Notes = strings.TrimSpace(in.Payment.Notes)
		}
		if key != "" {
			order.IdempotencyKey = &key
		}
		created, err = r.Orders().Create(ctx, order)
		if err != nil {
			return dbError(err)
		}

		if err := r.OrderItems().CreateBulk(ctx, created.ID, items); err != nil {
			return dbError(err)
		}

		//在庫が足りるときだけ減らす。足りなければ全部ロールバック
		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return dbError(err)
			}
			if !ok {
				return NewBusinessRuleError(IssueInsufficientInventory, map[string]any{
					"product_id": it.ProductID,
					"name":       it.ProductName,
				})
			}
		}

		if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			return dbError(err)
		}
		return nil
	})
	if err != nil {
		return CreateOrderResult{}, err
	}

	out := CreateOrderResult{Order: toOrderOutput(created, items), Replayed: replayed}
	if replayed {
		return out, nil
	}

	log.Info().Int64("order_id", created.ID).Str("order_number", created.OrderNumber).
		Str("total", created.Total.StringFixed(2)).Msg("order created")

	u.publish(ctx, OrderEvent{
		Type:        EventOrderCreated,
		OrderID:     created.ID,
		OrderNumber: created.OrderNumber,
		UserID:      userID,
		Email:       in.Shipping.Email,
		Status:      created.Status,
		Total:       created.Total,
		OccurredAt:  u.now(),
	})

	if !method.Redirects() {
		return out, nil
	}

	session, err := u.payments.CreateCheckoutSession(ctx, u.paymentSessionInput(created, items, in.Shipping.Email))
	if err != nil {
		// 注文はpending/pendingのまま残る
		log.Error().Err(err).Str("order_number", created.OrderNumber).Msg("payment session failed")
		return CreateOrderResult{}, &AppError{
			Kind:    KindProvider,
			Message: "payment session could not be created",
			Details: map[string]string{"order_number": created.OrderNumber},
			Err:     err,
		}
	}

	pm := model.PaymentMethod{Type: method, Provider: u.payments.Name(), SessionID: session.ID}
	if err := u.orders.UpdatePaymentMethod(ctx, created.ID, pm); err != nil {
		log.Warn().Err(err).Str("order_number", created.OrderNumber).Msg("store payment session id")
	} else {
		out.Order.PaymentMethod = pm
	}
	out.RedirectURL = session.URL
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID uuid.UUID, page, limit int) (OrderListOutput, error) {
	if userID == uuid.Nil {
		return OrderListOutput{}, NewUnauthorizedError()
	}
	if page < 1 {
		return OrderListOutput{}, NewValidationError("invalid page", nil)
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewValidationError("invalid limit", nil)
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, dbError(err)
	}

	outs, err := withItems(ctx, u.orderItems, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID uuid.UUID, orderID int64) (OrderOutput, error) {
	if userID == uuid.Nil {
		return OrderOutput{}, NewUnauthorizedError()
	}
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid id", nil)
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewNotFoundError("order not found")
	}
	if err != nil {
		return OrderOutput{}, dbError(err)
	}
	if o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return OrderOutput{}, NewNotFoundError("order not found")
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, dbError(err)
	}
	return toOrderOutput(o, items), nil
}

// 直接POSTされた場合もチェックアウトと同じ検証をする
func (u *OrderUsecase) validateInput(in CreateOrderInput) error {
	fields := map[string]string{}
	shipping := in.Shipping
	if shipping == nil {
		shipping = &checkout.ShippingInfo{}
	}
	for k, v := range u.validator.Fields(shipping) {
		fields["shipping."+k] = v
	}
	if !in.Billing.UsesShipping() {
		for k, v := range u.validator.Fields(in.Billing.BillingAddress) {
			fields["billing."+k] = v
		}
	}
	if in.Payment != nil && in.Payment.Method != "" && !in.Payment.Method.Valid() {
		fields["payment.method"] = "payment.method must be one of card cod"
	}
	if len(fields) > 0 {
		return NewValidationError("validation failed", fields)
	}
	return nil
}

func (u *OrderUsecase) paymentSessionInput(o model.Order, items []model.OrderItem, email string) PaymentSessionInput {
	lines := make([]PaymentLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, PaymentLine{
			Name:       it.ProductName,
			UnitAmount: pricing.MinorUnits(it.UnitPrice),
			Quantity:   it.Quantity,
		})
	}
	return PaymentSessionInput{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerEmail:  email,
		Currency:       u.policy.Currency,
		Lines:          lines,
		TaxAmount:      pricing.MinorUnits(o.Tax),
		ShippingAmount: pricing.MinorUnits(o.Shipping),
	}
}

func (u *OrderUsecase) publish(ctx context.Context, ev OrderEvent) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", ev.Type).Str("order_number", ev.OrderNumber).Msg("order event not published")
	}
}

func shippingAddress(userID uuid.UUID, s *checkout.ShippingInfo) model.Address {
	return model.Address{
		UserID:       userID,
		Type:         model.AddressTypeShipping,
		FirstName:    strings.TrimSpace(s.FirstName),
		LastName:     strings.TrimSpace(s.LastName),
		Company:      strings.TrimSpace(s.Company),
		AddressLine1: strings.TrimSpace(s.Address),
		AddressLine2: strings.TrimSpace(s.Address2),
		City:         strings.TrimSpace(s.City),
		State:        strings.TrimSpace(s.State),
		PostalCode:   strings.TrimSpace(s.PostalCode),
		Country:      countryOrDefault(s.Country),
		Phone:        strings.TrimSpace(s.Phone),
	}
}

// 請求先に電話番号欄は無いので配送先のものを使う
func billingAddress(userID uuid.UUID, b *checkout.BillingInfo, s *checkout.ShippingInfo) model.Address {
	return model.Address{
		UserID:       userID,
		Type:         model.AddressTypeBilling,
		FirstName:    strings.TrimSpace(b.FirstName),
		LastName:     strings.TrimSpace(b.LastName),
		Company:      strings.TrimSpace(b.Company),
		AddressLine1: strings.TrimSpace(b.Address),
		AddressLine2: strings.TrimSpace(b.Address2),
		City:         strings.TrimSpace(b.City),
		State:        strings.TrimSpace(b.State),
		PostalCode:   strings.TrimSpace(b.PostalCode),
		Country:      countryOrDefault(b.Country),
		Phone:        strings.TrimSpace(s.Phone),
	}
}

func countryOrDefault(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "US"
	}
	return c
}

// 一覧の各注文に明細を付ける
func withItems(ctx context.Context, items repo.OrderItemRepository, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	if len(orders) == 0 {
		return outs, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := items.ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, dbError(err)
	}

	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:  it.ProductID,
			Name:       it.ProductName,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			TotalPrice: it.TotalPrice,
		})
	}
	return OrderOutput{Order: o, Items: outItems}
}
