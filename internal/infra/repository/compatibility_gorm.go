package repository

import (
	"context"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"

	"gorm.io/gorm"
)

type compatibilityGormRepository struct {
	db *gorm.DB
}

func NewCompatibilityGormRepository(db *gorm.DB) repo.CompatibilityRepository {
	return &compatibilityGormRepository{db: db}
}

func (r *compatibilityGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.VehicleCompatibility, error) {
	var list []model.VehicleCompatibility
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("make asc, model asc, year_start asc").
		Find(&list).Error
	if err != nil {
		return []model.VehicleCompatibility{}, err
	}
	return list, nil
}

func (r *compatibilityGormRepository) Create(ctx context.Context, v model.VehicleCompatibility) (model.VehicleCompatibility, error) {
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return model.VehicleCompatibility{}, mapError(err)
	}
	return v, nil
}
