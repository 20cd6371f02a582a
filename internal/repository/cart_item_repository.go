package repository

import (
	"context"

	"autoparts/internal/domain/model"

	"github.com/google/uuid"
)

type CartItemRepository interface {
	// Productをpreloadして返す（商品が消えた行はProduct=nil）
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	// 同一商品は数量を加算
	Upsert(ctx context.Context, userID uuid.UUID, productID int64, addQty int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	ClearByUserID(ctx context.Context, userID uuid.UUID) error
}
