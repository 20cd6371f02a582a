package handler

import (
	"strings"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"
	"autoparts/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// 管理者向け 注文一覧/ステータス更新/監査ログ
type AdminOrderHandler struct {
	uc    *usecase.AdminOrderUsecase
	audit *usecase.AuditLogUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, audit *usecase.AuditLogUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, audit: audit}
}

func (h *AdminOrderHandler) RegisterRoutes(api *echo.Group, admin ...echo.MiddlewareFunc) {
	g := api.Group("/admin", admin...)

	g.GET("/orders", h.list)
	g.PUT("/orders", h.updateStatus)
	g.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	f := repo.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: strings.TrimSpace(c.QueryParam("status")),
	}

	if s := strings.TrimSpace(c.QueryParam("user_id")); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return badRequest(c, "invalid user_id")
		}
		f.UserID = &id
	}
	if s := strings.TrimSpace(c.QueryParam("from")); s != "" {
		t, ok := usecase.ParseDateTimeRFC3339(s)
		if !ok {
			return badRequest(c, "invalid from")
		}
		f.From = t
	}
	if s := strings.TrimSpace(c.QueryParam("to")); s != "" {
		t, ok := usecase.ParseDateTimeRFC3339(s)
		if !ok {
			return badRequest(c, "invalid to")
		}
		f.To = t
	}

	out, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	actor, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var in usecase.AdminUpdateOrderStatusInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return badRequest(c, "invalid offset")
	}

	f := repo.AuditLogFilter{Limit: limit, Offset: offset}

	if s := strings.TrimSpace(c.QueryParam("actor_user_id")); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return badRequest(c, "invalid actor_user_id")
		}
		f.ActorUserID = &id
	}
	if s := strings.TrimSpace(c.QueryParam("action")); s != "" {
		a := model.AuditAction(s)
		f.Action = &a
	}
	if s := strings.TrimSpace(c.QueryParam("resource_type")); s != "" {
		rt := model.AuditResourceType(s)
		f.ResourceType = &rt
	}
	if _, present := c.QueryParams()["resource_id"]; present {
		id, ok := paramInt64(c.QueryParam("resource_id"))
		if !ok {
			return badRequest(c, "invalid resource_id")
		}
		f.ResourceID = &id
	}
	if s := strings.TrimSpace(c.QueryParam("from")); s != "" {
		t, ok := usecase.ParseDateTimeRFC3339(s)
		if !ok {
			return badRequest(c, "invalid from")
		}
		f.CreatedFrom = t
	}
	if s := strings.TrimSpace(c.QueryParam("to")); s != "" {
		t, ok := usecase.ParseDateTimeRFC3339(s)
		if !ok {
			return badRequest(c, "invalid to")
		}
		f.CreatedTo = t
	}

	out, err := h.audit.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}
