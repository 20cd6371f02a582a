package repository

import (
	"context"

	"autoparts/internal/domain/model"
	domainrepo "autoparts/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてmiddlewareに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// IDでプロフィールを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return model.User{}, mapError(err)
	}
	return u, nil
}
