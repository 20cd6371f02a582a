package repository

import (
	"context"

	"autoparts/internal/domain/model"

	"github.com/google/uuid"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//住所を新規作成し、IDが埋まったものを返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//ユーザーが持つ住所一覧（デフォルトが先頭）
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Address, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	Update(ctx context.Context, address model.Address) error

	Delete(ctx context.Context, addressID int64) error

	//デフォルト住所を切り替える（他は全部false）
	SetDefault(ctx context.Context, userID uuid.UUID, addressID int64) error
}
