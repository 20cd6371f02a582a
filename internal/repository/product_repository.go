package repository

import (
	"context"

	"autoparts/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧・検索の絞り込み（検索ではPage/Limitは使わない）
type ProductFilter struct {
	Page       int
	Limit      int
	Make       string
	Model      string
	Year       *int
	CategoryID *int64
	Condition  model.ProductCondition
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, f ProductFilter) ([]model.Product, int64, error)
	// 名前・説明・SKU・品番・メーカー・車種の部分一致にfを重ねる。最大limit件
	Search(ctx context.Context, q string, f ProductFilter, limit int) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 公開中で在庫がthreshold以下
	ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	// is_active=false にするだけ
	Deactivate(ctx context.Context, id int64) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
}

type ProductImageRepository interface {
	ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error)
	FindByID(ctx context.Context, imageID int64) (model.ProductImage, error)
	Create(ctx context.Context, img model.ProductImage) (model.ProductImage, error)
	Update(ctx context.Context, img model.ProductImage) error
	Delete(ctx context.Context, imageID int64) error
	// 同じ商品の他の画像のis_primaryを落とす
	ClearPrimary(ctx context.Context, productID int64, exceptImageID int64) error
}

type CompatibilityRepository interface {
	ListByProductID(ctx context.Context, productID int64) ([]model.VehicleCompatibility, error)
	Create(ctx context.Context, v model.VehicleCompatibility) (model.VehicleCompatibility, error)
}
