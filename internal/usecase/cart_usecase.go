package usecase

import (
	"context"
	"errors"

	"autoparts/internal/domain/model"
	"autoparts/internal/domain/pricing"
	repo "autoparts/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	IssueInsufficientInventory = "Insufficient inventory"
	IssueProductUnavailable    = "Product is no longer available"
)

// CartUsecase は /cart の業務ロジックです。
// 金額は毎回商品の現在価格から計算し直す（保存しない）
type CartUsecase struct {
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
}

func NewCartUsecase(cartItems repo.CartItemRepository, products repo.ProductRepository) *CartUsecase {
	return &CartUsecase{cartItems: cartItems, products: products}
}

type CartItemView struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	// 非公開になった商品はfalse（小計には入れない）
	Available bool  `json:"available"`
	Stock     int64 `json:"stock"`
}

// totalはsubtotalと同じ（税・送料は注文確認で足す）
type CartView struct {
	Items     []CartItemView  `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int64           `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

type AddCartInput struct {
	ProductID int64  `json:"product_id"`
	Quantity  *int64 `json:"quantity"`
}

type CartIssue struct {
	ItemID      int64  `json:"item_id"`
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	Issue       string `json:"issue"`
	MaxQuantity *int64 `json:"max_quantity,omitempty"`
}

type CartValidation struct {
	Valid  bool        `json:"valid"`
	Issues []CartIssue `json:"issues"`
}

// BuildCartView は明細から表示用カートを組み立てる
func BuildCartView(items []model.CartItem) CartView {
	view := CartView{Items: make([]CartItemView, 0, len(items)), Subtotal: decimal.Zero}

	for _, it := range items {
		p := it.Product
		if p == nil {
			continue
		}
		line := pricing.LineTotal(p.Price, it.Quantity)
		view.Items = append(view.Items, CartItemView{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			SKU:       p.SKU,
			Price:     p.Price,
			Quantity:  it.Quantity,
			LineTotal: line,
			Available: p.IsActive,
			Stock:     p.Quantity,
		})
		if !p.IsActive {
			continue
		}
		view.Subtotal = view.Subtotal.Add(line)
		view.ItemCount += it.Quantity
	}

	view.Total = view.Subtotal
	return view
}

// 1明細につき最初に当てはまった問題だけ返す（在庫不足→非公開の順）
func CheckCartItems(items []model.CartItem) CartValidation {
	out := CartValidation{Valid: true, Issues: []CartIssue{}}

	for _, it := range items {
		p := it.Product
		if p == nil {
			continue
		}
		issue := CartIssue{ItemID: it.ID, ProductID: it.ProductID, Name: p.Name}
		switch {
		case it.Quantity > p.Quantity:
			maxQty := p.Quantity
			issue.Issue = IssueInsufficientInventory
			issue.MaxQuantity = &maxQty
		case !p.IsActive:
			issue.Issue = IssueProductUnavailable
		default:
			continue
		}
		out.Issues = append(out.Issues, issue)
	}

	out.Valid = len(out.Issues) == 0
	return out
}

func (u *CartUsecase) GetCart(ctx context.Context, userID uuid.UUID) (CartView, error) {
	if userID == uuid.Nil {
		return CartView{}, NewUnauthorizedError()
	}
	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartView{}, dbError(err)
	}
	return BuildCartView(items), nil
}

// 同一商品は数量加算。quantity省略時は1
func (u *CartUsecase) AddToCart(ctx context.Context, userID uuid.UUID, in AddCartInput) (CartView, error) {
	if userID == uuid.Nil {
		return CartView{}, NewUnauthorizedError()
	}
	if in.ProductID <= 0 {
		return CartView{}, NewValidationError("product_id is required", map[string]string{"product_id": "product_id is required"})
	}
	qty := int64(1)
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if qty < 1 {
		return CartView{}, NewValidationError("invalid quantity", map[string]string{"quantity": "quantity must be at least 1"})
	}

	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return CartView{}, dbError(err)
	}
	if !p.IsActive {
		return CartView{}, NewBusinessRuleError(IssueProductUnavailable, map[string]int64{"product_id": p.ID})
	}

	if err := u.cartItems.Upsert(ctx, userID, in.ProductID, qty); err != nil {
		return CartView{}, dbError(err)
	}

	zerolog.Ctx(ctx).Debug().Int64("product_id", in.ProductID).Int64("quantity", qty).Msg("cart item added")
	return u.GetCart(ctx, userID)
}

// 数量変更（所有チェック）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID uuid.UUID, cartItemID int64, qty int64) (CartView, error) {
	if userID == uuid.Nil {
		return CartView{}, NewUnauthorizedError()
	}
	if qty < 1 {
		return CartView{}, NewValidationError("invalid quantity", map[string]string{"quantity": "quantity must be at least 1"})
	}
	if err := u.ensureOwned(ctx, userID, cartItemID); err != nil {
		return CartView{}, err
	}

	if err := u.cartItems.UpdateQuantity(ctx, cartItemID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartView{}, NewNotFoundError("cart item not found")
		}
		return CartView{}, dbError(err)
	}
	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID uuid.UUID, cartItemID int64) (CartView, error) {
	if userID == uuid.Nil {
		return CartView{}, NewUnauthorizedError()
	}
	if err := u.ensureOwned(ctx, userID, cartItemID); err != nil {
		return CartView{}, err
	}

	if err := u.cartItems.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartView{}, NewNotFoundError("cart item not found")
		}
		return CartView{}, dbError(err)
	}
	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return NewUnauthorizedError()
	}
	if err := u.cartItems.ClearByUserID(ctx, userID); err != nil {
		return dbError(err)
	}
	return nil
}

func (u *CartUsecase) ValidateCart(ctx context.Context, userID uuid.UUID) (CartValidation, error) {
	if userID == uuid.Nil {
		return CartValidation{}, NewUnauthorizedError()
	}
	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartValidation{}, dbError(err)
	}
	return CheckCartItems(items), nil
}

// 他人の明細は「存在しない扱い」にする
func (u *CartUsecase) ensureOwned(ctx context.Context, userID uuid.UUID, cartItemID int64) error {
	if cartItemID <= 0 {
		return NewValidationError("invalid id", nil)
	}
	item, err := u.cartItems.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewNotFoundError("cart item not found")
	}
	if err != nil {
		return dbError(err)
	}
	if item.UserID != userID {
		return NewNotFoundError("cart item not found")
	}
	return nil
}
