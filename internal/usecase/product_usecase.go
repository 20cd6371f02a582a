package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// 検索はまず最大500件取り、ページングはメモリ上で行う
const SearchResultCap = 500

type ProductUsecase struct {
	tx            repo.TransactionManager
	products      repo.ProductRepository
	images        repo.ProductImageRepository
	compatibility repo.CompatibilityRepository
	validator     FieldValidator
	sanitizer     *bluemonday.Policy
	lowStock      int64
	now           func() time.Time
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	images repo.ProductImageRepository,
	compatibility repo.CompatibilityRepository,
	validator FieldValidator,
	lowStockThreshold int64,
) *ProductUsecase {
	return &ProductUsecase{
		tx:            tx,
		products:      products,
		images:        images,
		compatibility: compatibility,
		validator:     validator,
		sanitizer:     bluemonday.UGCPolicy(),
		lowStock:      lowStockThreshold,
		now:           time.Now,
	}
}

// GET /productsの入力
type ListProductsInput struct {
	Page       int
	Limit      int
	Make       string
	Model      string
	Year       *int
	CategoryID *int64
	Condition  string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

type ProductListOutput struct {
	Data       []model.Product `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

type ProductDetail struct {
	model.Product
	Images        []model.ProductImage         `json:"images"`
	Compatibility []model.VehicleCompatibility `json:"compatibility"`
}

// 管理画面からの作成・更新入力
type ProductInput struct {
	SKU            string                 `json:"sku" validate:"notblank,max=64"`
	Name           string                 `json:"name" validate:"notblank,max=255"`
	Description    string                 `json:"description"`
	CategoryID     *int64                 `json:"category_id" validate:"omitempty,gt=0"`
	Make           string                 `json:"make" validate:"max=100"`
	Model          string                 `json:"model" validate:"max=100"`
	Year           int                    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	PartNumber     string                 `json:"part_number" validate:"max=100"`
	Condition      model.ProductCondition `json:"condition" validate:"omitempty,oneof=new used refurbished"`
	Price          decimal.Decimal        `json:"price"`
	OriginalPrice  *decimal.Decimal       `json:"original_price"`
	Quantity       int64                  `json:"quantity" validate:"gte=0"`
	Weight         decimal.Decimal        `json:"weight"`
	Dimensions     model.Dimensions       `json:"dimensions"`
	Specifications model.Specifications   `json:"specifications"`
	IsActive       *bool                  `json:"is_active"`
}

type CompatibilityInput struct {
	Make      string `json:"make" validate:"notblank,max=100"`
	Model     string `json:"model" validate:"notblank,max=100"`
	YearStart int    `json:"year_start" validate:"gte=1900,lte=2100"`
	YearEnd   int    `json:"year_end" validate:"gte=1900,lte=2100,gtefield=YearStart"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if err := validatePage(in.Page, in.Limit); err != nil {
		return ProductListOutput{}, err
	}
	f, err := in.filter()
	if err != nil {
		return ProductListOutput{}, err
	}
	f.Page, f.Limit = in.Page, in.Limit

	items, total, err := u.products.List(ctx, f)
	if err != nil {
		return ProductListOutput{}, dbError(err)
	}

	return ProductListOutput{Data: items, Pagination: NewPagination(in.Page, in.Limit, total)}, nil
}

// キーワード検索。一覧と同じ絞り込みを重ねる
func (u *ProductUsecase) SearchProducts(ctx context.Context, q string, in ListProductsInput) (ProductListOutput, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return ProductListOutput{}, NewValidationError("q is required", map[string]string{"q": "q is required"})
	}
	if len(q) > 100 {
		return ProductListOutput{}, NewValidationError("q too long", map[string]string{"q": "q must be at most 100"})
	}
	if err := validatePage(in.Page, in.Limit); err != nil {
		return ProductListOutput{}, err
	}
	f, err := in.filter()
	if err != nil {
		return ProductListOutput{}, err
	}

	all, err := u.products.Search(ctx, q, f, SearchResultCap)
	if err != nil {
		return ProductListOutput{}, dbError(err)
	}

	return ProductListOutput{Data: paginate(all, in.Page, in.Limit), Pagination: NewPagination(in.Page, in.Limit, int64(len(all)))}, nil
}

func validatePage(page, limit int) error {
	if page < 1 {
		return NewValidationError("invalid page", map[string]string{"page": "page must be at least 1"})
	}
	if limit < 1 || limit > 100 {
		return NewValidationError("invalid limit", map[string]string{"limit": "limit must be between 1 and 100"})
	}
	return nil
}

// ページング以外の絞り込み条件を検証して組み立てる
func (in ListProductsInput) filter() (repo.ProductFilter, error) {
	cond := model.ProductCondition(strings.ToLower(strings.TrimSpace(in.Condition)))
	if cond != "" && !cond.Valid() {
		return repo.ProductFilter{}, NewValidationError("invalid condition", map[string]string{"condition": "condition must be one of new used refurbished"})
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return repo.ProductFilter{}, NewValidationError("min_price must be >= 0", nil)
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return repo.ProductFilter{}, NewValidationError("min_price must be <= max_price", nil)
	}

	return repo.ProductFilter{
		Make:       in.Make,
		Model:      in.Model,
		Year:       in.Year,
		CategoryID: in.CategoryID,
		Condition:  cond,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		InStock:    in.InStock,
	}, nil
}

func paginate(all []model.Product, page, limit int) []model.Product {
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.Product{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// 非公開の商品は404
func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (ProductDetail, error) {
	p, err := u.findActive(ctx, productID)
	if err != nil {
		return ProductDetail{}, err
	}

	imgs, err := u.images.ListByProductID(ctx, productID)
	if err != nil {
		return ProductDetail{}, dbError(err)
	}
	compat, err := u.compatibility.ListByProductID(ctx, productID)
	if err != nil {
		return ProductDetail{}, dbError(err)
	}
	return ProductDetail{Product: p, Images: imgs, Compatibility: compat}, nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, actor uuid.UUID, in ProductInput) (model.Product, error) {
	if actor == uuid.Nil {
		return model.Product{}, NewUnauthorizedError()
	}
	p, err := u.productFromInput(in)
	if err != nil {
		return model.Product{}, err
	}
	if in.IsActive == nil {
		p.IsActive = true
	}

	var created model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Products().Create(ctx, p)
		if errors.Is(err, repo.ErrConflict) {
			return NewBusinessRuleError("sku already exists", map[string]string{"sku": p.SKU})
		}
		if err != nil {
			return dbError(err)
		}
		created = c
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   c.ID,
			AfterJSON:    auditJSON(c),
			CreatedAt:    u.now(),
		})
	})
	if err != nil {
		if _, ok := AsAppError(err); !ok {
			err = dbError(err)
		}
		return model.Product{}, err
	}
	return created, nil
}

// quantityは在庫調整APIで変える（ここでは無視）
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, actor uuid.UUID, productID int64, in ProductInput) (model.Product, error) {
	if actor == uuid.Nil {
		return model.Product{}, NewUnauthorizedError()
	}
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id", nil)
	}
	p, err := u.productFromInput(in)
	if err != nil {
		return model.Product{}, err
	}
	p.ID = productID

	var updated model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return dbError(err)
		}
		if in.IsActive == nil {
			p.IsActive = before.IsActive
		}
		p.Quantity = before.Quantity
		p.CreatedAt = before.CreatedAt

		err = r.Products().Update(ctx, p)
		if errors.Is(err, repo.ErrConflict) {
			return NewBusinessRuleError("sku already exists", map[string]string{"sku": p.SKU})
		}
		if err != nil {
			return dbError(err)
		}
		updated = p
		updated.UpdatedAt = u.now()

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   auditJSON(before),
			AfterJSON:    auditJSON(updated),
			CreatedAt:    u.now(),
		}); err != nil {
			return dbError(err)
		}
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return updated, nil
}

// 論理削除（is_active=false）
func (u *ProductUsecase) AdminDeactivateProduct(ctx context.Context, actor uuid.UUID, productID int64) error {
	if actor == uuid.Nil {
		return NewUnauthorizedError()
	}
	if productID <= 0 {
		return NewValidationError("invalid product id", nil)
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Products().Deactivate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return dbError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor,
			Action:       model.AuditActionDeactivateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   `{"is_active":true}`,
			AfterJSON:    `{"is_active":false}`,
			CreatedAt:    u.now(),
		}); err != nil {
			return dbError(err)
		}
		return nil
	})
}

type InventoryUpdateInput struct {
	Quantity *int64 `json:"quantity"`
	Reason   string `json:"reason"`
}

type InventoryUpdateOutput struct {
	ProductID int64 `json:"product_id"`
	Before    int64 `json:"before"`
	After     int64 `json:"after"`
}

// 在庫を「現在値」に更新し、調整履歴と監査ログも残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, actor uuid.UUID, productID int64, in InventoryUpdateInput) (InventoryUpdateOutput, error) {
	if actor == uuid.Nil {
		return InventoryUpdateOutput{}, NewUnauthorizedError()
	}
	fields := map[string]string{}
	if productID <= 0 {
		fields["product_id"] = "invalid product id"
	}
	if in.Quantity == nil || *in.Quantity < 0 {
		fields["quantity"] = "quantity must be >= 0"
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		fields["reason"] = "reason is required"
	}
	if len(fields) > 0 {
		return InventoryUpdateOutput{}, NewValidationError("validation failed", fields)
	}
	newStock := *in.Quantity

	var out InventoryUpdateOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Inventory().SetStock(ctx, productID, newStock)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return dbError(err)
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.NewInventoryAdjustment(productID, actor, before, newStock, reason)); err != nil {
			return dbError(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"quantity":%d}`, before),
			AfterJSON:    fmt.Sprintf(`{"quantity":%d}`, newStock),
			CreatedAt:    u.now(),
		}); err != nil {
			return dbError(err)
		}

		out = InventoryUpdateOutput{ProductID: productID, Before: before, After: newStock}
		return nil
	})
	if err != nil {
		return InventoryUpdateOutput{}, err
	}

	zerolog.Ctx(ctx).Info().Int64("product_id", productID).Int64("before", out.Before).Int64("after", out.After).Msg("inventory updated")
	return out, nil
}

// 在庫がthreshold以下の公開商品。nilなら設定値
func (u *ProductUsecase) LowStock(ctx context.Context, threshold *int64) ([]model.Product, error) {
	t := u.lowStock
	if threshold != nil {
		if *threshold < 0 {
			return nil, NewValidationError("threshold must be >= 0", nil)
		}
		t = *threshold
	}
	list, err := u.products.ListLowStock(ctx, t)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *ProductUsecase) ListCompatibility(ctx context.Context, productID int64) ([]model.VehicleCompatibility, error) {
	if _, err := u.findActive(ctx, productID); err != nil {
		return nil, err
	}
	list, err := u.compatibility.ListByProductID(ctx, productID)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *ProductUsecase) AdminAddCompatibility(ctx context.Context, productID int64, in CompatibilityInput) (model.VehicleCompatibility, error) {
	if productID <= 0 {
		return model.VehicleCompatibility{}, NewValidationError("invalid product id", nil)
	}
	if errs := u.validator.Fields(in); len(errs) > 0 {
		return model.VehicleCompatibility{}, NewValidationError("validation failed", errs)
	}
	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.VehicleCompatibility{}, NewNotFoundError("product not found")
		}
		return model.VehicleCompatibility{}, dbError(err)
	}

	v, err := u.compatibility.Create(ctx, model.VehicleCompatibility{
		ProductID: productID,
		Make:      strings.TrimSpace(in.Make),
		Model:     strings.TrimSpace(in.Model),
		YearStart: in.YearStart,
		YearEnd:   in.YearEnd,
	})
	if err != nil {
		return model.VehicleCompatibility{}, dbError(err)
	}
	return v, nil
}

func (u *ProductUsecase) findActive(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id", nil)
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return model.Product{}, dbError(err)
	}
	if !p.IsActive {
		return model.Product{}, NewNotFoundError("product not found")
	}
	return p, nil
}

// 入力チェック＋説明文のHTMLサニタイズ
func (u *ProductUsecase) productFromInput(in ProductInput) (model.Product, error) {
	fields := map[string]string{}
	for k, v := range u.validator.Fields(in) {
		fields[k] = v
	}
	if in.Price.IsNegative() {
		fields["price"] = "price must be >= 0"
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		fields["original_price"] = "original_price must be >= 0"
	}
	if in.Weight.IsNegative() {
		fields["weight"] = "weight must be >= 0"
	}
	if len(fields) > 0 {
		return model.Product{}, NewValidationError("validation failed", fields)
	}

	cond := in.Condition
	if cond == "" {
		cond = model.ConditionNew
	}
	p := model.Product{
		SKU:            strings.TrimSpace(in.SKU),
		Name:           strings.TrimSpace(in.Name),
		Description:    u.sanitizer.Sanitize(in.Description),
		CategoryID:     in.CategoryID,
		Make:           strings.TrimSpace(in.Make),
		Model:          strings.TrimSpace(in.Model),
		Year:           in.Year,
		PartNumber:     strings.TrimSpace(in.PartNumber),
		Condition:      cond,
		Price:          in.Price.Round(2),
		OriginalPrice:  in.OriginalPrice,
		Quantity:       in.Quantity,
		Weight:         in.Weight,
		Dimensions:     in.Dimensions,
		Specifications: in.Specifications,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return p, nil
}
