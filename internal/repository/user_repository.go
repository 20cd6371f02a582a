package repository

import (
	"context"

	"autoparts/internal/domain/model"

	"github.com/google/uuid"
)

// 認証プロバイダ側ユーザーのプロフィール
type UserRepository interface {
	FindByID(ctx context.Context, userID uuid.UUID) (model.User, error)
}
