package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"autoparts/internal/usecase"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeConfig struct {
	APIKey     string
	SuccessURL string
	CancelURL  string
}

// StripeProvider はStripe Checkoutのセッションを作る
type StripeProvider struct {
	sessions   stripeSessionAPI
	successURL string
	cancelURL  string
}

func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("stripe: api key is required")
	}
	sc := client.New(key, nil)
	return newStripeProvider(sc.CheckoutSessions, cfg), nil
}

func newStripeProvider(sessions stripeSessionAPI, cfg StripeConfig) *StripeProvider {
	return &StripeProvider{
		sessions:   sessions,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func (p *StripeProvider) Name() string { return "stripe" }

// 税と送料は別の明細として載せる
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in usecase.PaymentSessionInput) (usecase.PaymentSession, error) {
	currency := strings.ToLower(in.Currency)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(withOrderNumber(p.successURL, in.OrderNumber)),
		CancelURL:         stripe.String(withOrderNumber(p.cancelURL, in.OrderNumber)),
		ClientReferenceID: stripe.String(in.OrderNumber),
		Metadata: map[string]string{
			"order_id":     strconv.FormatInt(in.OrderID, 10),
			"order_number": in.OrderNumber,
		},
	}
	params.Context = ctx
	// 同じ注文で二重にセッションを作らない
	params.SetIdempotencyKey("order-" + in.OrderNumber)
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.Lines)+2)
	for _, l := range in.Lines {
		lines = append(lines, lineItem(currency, l.Name, l.UnitAmount, l.Quantity))
	}
	if in.TaxAmount > 0 {
		lines = append(lines, lineItem(currency, "Tax", in.TaxAmount, 1))
	}
	if in.ShippingAmount > 0 {
		lines = append(lines, lineItem(currency, "Shipping", in.ShippingAmount, 1))
	}
	params.LineItems = lines

	s, err := p.sessions.New(params)
	if err != nil {
		return usecase.PaymentSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return usecase.PaymentSession{ID: s.ID, URL: s.URL}, nil
}

func lineItem(currency, name string, unitAmount, qty int64) *stripe.CheckoutSessionLineItemParams {
	if qty < 1 {
		qty = 1
	}
	return &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(qty),
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(unitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
		},
	}
}

// {ORDER_NUMBER} を置き換える
func withOrderNumber(url, orderNumber string) string {
	return strings.ReplaceAll(url, "{ORDER_NUMBER}", orderNumber)
}

var _ usecase.PaymentProvider = (*StripeProvider)(nil)
