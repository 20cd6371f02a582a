package usecase_test

import (
	"context"
	"testing"
	"time"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"
	"autoparts/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditLogList_DefaultLimit(t *testing.T) {
	logs := new(AuditRepoMock)
	logs.On("List", mock.Anything, repo.AuditLogFilter{Limit: 50}).Return([]model.AuditLog{{ID: 1}}, nil)

	list, err := usecase.NewAuditLogUsecase(logs).List(context.Background(), repo.AuditLogFilter{})

	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAuditLogList_Validation(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	cases := map[string]repo.AuditLogFilter{
		"limit":  {Limit: 500},
		"offset": {Offset: -1},
		"range":  {CreatedFrom: &from, CreatedTo: &to},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			logs := new(AuditRepoMock)
			_, err := usecase.NewAuditLogUsecase(logs).List(context.Background(), f)
			assertKind(t, err, usecase.KindValidation)
			logs.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}
