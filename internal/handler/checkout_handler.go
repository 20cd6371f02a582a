package handler

import (
	"net/http"
	"strings"

	"autoparts/internal/domain/checkout"
	"autoparts/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 二重送信防止キー
const headerIdempotencyKey = "X-Idempotency-Key"

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(api *echo.Group, auth ...echo.MiddlewareFunc) {
	g := api.Group("/checkout", auth...)

	g.GET("", h.get)
	g.DELETE("", h.reset)
	g.PUT("/data", h.updateData)
	g.POST("/next", h.next)
	g.POST("/prev", h.prev)
	g.POST("/submit", h.submit)
}

func (h *CheckoutHandler) get(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	v, err := h.uc.Get(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, v)
}

func (h *CheckoutHandler) updateData(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var patch checkout.Draft
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}

	v, err := h.uc.UpdateData(c.Request().Context(), userID, patch)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, v)
}

// 検証NGでも現在の状態を返す（errorsに各項目）
func (h *CheckoutHandler) next(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	v, err := h.uc.Next(c.Request().Context(), userID)
	return h.respondState(c, v, err)
}

func (h *CheckoutHandler) prev(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	v, err := h.uc.Prev(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, v)
}

func (h *CheckoutHandler) submit(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var in usecase.SubmitCheckoutInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	in.IdempotencyKey = strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))

	v, err := h.uc.Submit(c.Request().Context(), userID, in)
	if err != nil {
		return h.respondState(c, v, err)
	}
	return respondCreated(c, v)
}

func (h *CheckoutHandler) reset(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.Reset(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, Envelope{Success: true})
}

// 状態付きのエラー応答（dataに現在の状態を載せる）
func (h *CheckoutHandler) respondState(c echo.Context, v usecase.CheckoutView, err error) error {
	if err == nil {
		return respondOK(c, v)
	}
	ae, ok := usecase.AsAppError(err)
	if !ok || v.State == nil {
		return writeError(c, err)
	}
	if ae.Kind == usecase.KindProvider {
		return writeError(c, err)
	}
	return c.JSON(ae.Status(), Envelope{Success: false, Data: v, Error: ae.Message, Details: ae.Details})
}
