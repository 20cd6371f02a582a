package repository

import (
	"context"

	"autoparts/internal/domain/model"
)

// 商品の在庫数だけを扱う。注文とキャンセルはTx内で呼ぶ
type InventoryRepository interface {
	// 行ロックして上書き。戻り値は上書き前の数。商品が無ければErrNotFound
	SetStock(ctx context.Context, productID int64, quantity int64) (before int64, err error)

	// quantity >= qty のときだけ減らす。falseなら在庫不足で何も変えていない
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// キャンセル時の戻し
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error
}
