package repository

import (
	"context"
	"time"

	"autoparts/internal/domain/model"

	"github.com/google/uuid"
)

const (
	DefaultAuditLogLimit = 50
	MaxAuditLogLimit     = 200
)

// 監査ログの絞り込み。nilの項目は条件にしない
type AuditLogFilter struct {
	ActorUserID  *uuid.UUID
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// limit/offsetを範囲内に丸める
func (f AuditLogFilter) Window() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 || limit > MaxAuditLogLimit {
		limit = DefaultAuditLogLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// 書き込みは各更新と同じTxで行う。一覧は新しい順
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
