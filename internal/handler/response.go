package handler

import (
	"net/http"
	"strconv"

	"autoparts/internal/middleware"
	"autoparts/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// 全APIの共通レスポンス
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func respondCreated(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: msg})
}

// AppErrorはKindからステータスへ。それ以外は500（中身は出さずにログだけ）
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsAppError(err); ok {
		if ae.Kind == usecase.KindProvider {
			zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg(ae.Message)
		}
		return c.JSON(ae.Status(), Envelope{Success: false, Error: ae.Message, Details: ae.Details})
	}

	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("unhandled error")
	return c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, Envelope{Success: false, Error: "unauthorized"})
}

func paramID(c echo.Context, name string) (int64, bool) {
	return paramInt64(c.Param(name))
}

func paramInt64(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 未指定ならdef
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
