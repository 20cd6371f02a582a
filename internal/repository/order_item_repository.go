package repository

import (
	"context"

	"autoparts/internal/domain/model"
)

// 注文明細。作成は注文と同じトランザクションで行う
type OrderItemRepository interface {
	// order_idを埋めてまとめてINSERT
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// 一覧表示用。明細の無い注文はキーが無い
	ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error)
}
