package repository

import (
	"context"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"

	"gorm.io/gorm"
)

type ProductImageGormRepository struct {
	db *gorm.DB
}

func NewProductImageGormRepository(db *gorm.DB) *ProductImageGormRepository {
	return &ProductImageGormRepository{db: db}
}

// メイン画像が先頭、あとはsort_order順
func (r *ProductImageGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	var list []model.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_primary desc, sort_order asc, id asc").
		Find(&list).Error
	if err != nil {
		return []model.ProductImage{}, err
	}
	return list, nil
}

func (r *ProductImageGormRepository) FindByID(ctx context.Context, imageID int64) (model.ProductImage, error) {
	var img model.ProductImage
	if err := r.db.WithContext(ctx).First(&img, imageID).Error; err != nil {
		return model.ProductImage{}, mapError(err)
	}
	return img, nil
}

func (r *ProductImageGormRepository) Create(ctx context.Context, img model.ProductImage) (model.ProductImage, error) {
	if err := r.db.WithContext(ctx).Create(&img).Error; err != nil {
		return model.ProductImage{}, mapError(err)
	}
	return img, nil
}

func (r *ProductImageGormRepository) Update(ctx context.Context, img model.ProductImage) error {
	return affected(r.db.WithContext(ctx).Model(&model.ProductImage{}).
		Where("id = ?", img.ID).
		Updates(map[string]interface{}{
			"alt_text":   img.AltText,
			"sort_order": img.SortOrder,
			"is_primary": img.IsPrimary,
		}))
}

func (r *ProductImageGormRepository) Delete(ctx context.Context, imageID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.ProductImage{}, imageID))
}

func (r *ProductImageGormRepository) ClearPrimary(ctx context.Context, productID int64, exceptImageID int64) error {
	return r.db.WithContext(ctx).Model(&model.ProductImage{}).
		Where("product_id = ? AND id <> ? AND is_primary = TRUE", productID, exceptImageID).
		Update("is_primary", false).Error
}

var _ repo.ProductImageRepository = (*ProductImageGormRepository)(nil)
