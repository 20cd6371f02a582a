package repository

import (
	"context"
	"errors"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errInvalidQuantity = errors.New("invalid quantity")

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// カート明細を商品付きで一覧取得
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 同一商品は数量加算。(user_id, product_id) の一意制約で1回のSQLにまとめる
func (r *CartGormRepository) Upsert(ctx context.Context, userID uuid.UUID, productID int64, addQty int64) error {
	if addQty <= 0 {
		return errInvalidQuantity
	}

	item := model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  addQty,
	}

	return mapError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).
		Create(&item).Error)
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	if qty <= 0 {
		return errInvalidQuantity
	}
	return affected(r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty))
}

func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID))
}

func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Where("id = ?", cartItemID).
		First(&item).Error
	if err != nil {
		return model.CartItem{}, mapError(err)
	}
	return item, nil
}

// ユーザーの明細を全削除（0件でもエラーにしない）
func (r *CartGormRepository) ClearByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}

var _ repo.CartItemRepository = (*CartGormRepository)(nil)
