package repository

import (
	"context"
	"strings"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開商品のみを、絞り込み/ページング付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, f repo.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := applyProductFilter(r.db.WithContext(ctx).Model(&model.Product{}), f)

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	if err := tx.Order("created_at desc").Order("id desc").
		Offset(offset).Limit(f.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// 部分一致検索（ページングは呼び出し側）
func (r *ProductGormRepository) Search(ctx context.Context, q string, f repo.ProductFilter, limit int) ([]model.Product, error) {
	like := "%" + escapeLike(strings.TrimSpace(q)) + "%"

	var products []model.Product
	err := applyProductFilter(r.db.WithContext(ctx).Model(&model.Product{}), f).
		Where(
			"name ILIKE @q OR description ILIKE @q OR sku ILIKE @q OR part_number ILIKE @q OR make ILIKE @q OR model ILIKE @q",
			map[string]interface{}{"q": like},
		).
		Order("name asc").Order("id asc").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// 公開中 + 一覧/検索共通の絞り込み
func applyProductFilter(tx *gorm.DB, f repo.ProductFilter) *gorm.DB {
	tx = tx.Where("is_active = ?", true)

	if s := strings.TrimSpace(f.Make); s != "" {
		tx = tx.Where("make ILIKE ?", s)
	}
	if s := strings.TrimSpace(f.Model); s != "" {
		tx = tx.Where("model ILIKE ?", s)
	}
	// 年式は商品の年式か、適合車種の範囲に入っていればOK
	if f.Year != nil {
		tx = tx.Where(
			"year = ? OR EXISTS (SELECT 1 FROM vehicle_compatibilities vc WHERE vc.product_id = products.id AND ? BETWEEN vc.year_start AND vc.year_end)",
			*f.Year, *f.Year,
		)
	}
	if f.CategoryID != nil {
		tx = tx.Where("category_id = ?", *f.CategoryID)
	}
	if f.Condition != "" {
		tx = tx.Where("condition = ?", f.Condition)
	}

	//価格帯
	if f.MinPrice != nil {
		tx = tx.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		tx = tx.Where("price <= ?", *f.MaxPrice)
	}
	if f.InStock {
		tx = tx.Where("quantity > 0")
	}
	return tx
}

// IDで商品を取得（非公開も返す。判定はusecase）
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, mapError(err)
	}
	return p, nil
}

func (r *ProductGormRepository) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND quantity <= ?", true, threshold).
		Order("quantity asc").Order("id asc").
		Find(&products).Error
	if err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, mapError(err)
	}
	return p, nil
}

// 在庫(quantity)は在庫調整APIでだけ変える
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"sku":            p.SKU,
		"name":           p.Name,
		"description":    p.Description,
		"category_id":    p.CategoryID,
		"make":           p.Make,
		"model":          p.Model,
		"year":           p.Year,
		"part_number":    p.PartNumber,
		"condition":      p.Condition,
		"price":          p.Price,
		"original_price": p.OriginalPrice,
		"weight":         p.Weight,
		"dimensions":     p.Dimensions,
		"specifications": p.Specifications,
		"is_active":      p.IsActive,
	}))
}

// 論理削除（注文明細から参照されるので行は残す）
func (r *ProductGormRepository) Deactivate(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("is_active", false))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ repo.ProductRepository = (*ProductGormRepository)(nil)
