package usecase

import (
	"context"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"
)

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

func (u *AuditLogUsecase) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit <= 0 {
		f.Limit = repo.DefaultAuditLogLimit
	}
	if f.Limit > repo.MaxAuditLogLimit {
		return nil, NewValidationError("invalid limit", map[string]string{"limit": "limit must be at most 200"})
	}
	if f.Offset < 0 {
		return nil, NewValidationError("invalid offset", map[string]string{"offset": "offset must be >= 0"})
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, NewValidationError("from must be before to", nil)
	}

	list, err := u.logs.List(ctx, f)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}
