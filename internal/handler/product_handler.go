package handler

import (
	"strconv"
	"strings"

	"autoparts/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products の公開API
type ProductHandler struct {
	uc     *usecase.ProductUsecase
	images *usecase.ProductImageUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, images *usecase.ProductImageUsecase) *ProductHandler {
	return &ProductHandler{uc: uc, images: images}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/products", h.list)
	api.GET("/products/search", h.search)
	api.GET("/products/:id", h.detail)
	api.GET("/products/:id/images", h.listImages)
	api.GET("/products/:id/compatibility", h.listCompatibility)
}

func (h *ProductHandler) list(c echo.Context) error {
	in, msg := parseProductQuery(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	out, err := h.uc.ListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

// q + 一覧と同じ絞り込み
func (h *ProductHandler) search(c echo.Context) error {
	in, msg := parseProductQuery(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	out, err := h.uc.SearchProducts(c.Request().Context(), c.QueryParam("q"), in)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

// 一覧/検索の共通クエリ。失敗時はエラーメッセージを返す
func parseProductQuery(c echo.Context) (usecase.ListProductsInput, string) {
	// page（default 1）
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return usecase.ListProductsInput{}, "invalid page"
	}
	// limit（default 20）
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return usecase.ListProductsInput{}, "invalid limit"
	}

	in := usecase.ListProductsInput{
		Page:      page,
		Limit:     limit,
		Make:      strings.TrimSpace(c.QueryParam("make")),
		Model:     strings.TrimSpace(c.QueryParam("model")),
		Condition: c.QueryParam("condition"),
	}

	if v := c.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return usecase.ListProductsInput{}, "invalid year"
		}
		in.Year = &y
	}
	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return usecase.ListProductsInput{}, "invalid category_id"
		}
		in.CategoryID = &id
	}
	if v := c.QueryParam("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return usecase.ListProductsInput{}, "invalid min_price"
		}
		in.MinPrice = &d
	}
	if v := c.QueryParam("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return usecase.ListProductsInput{}, "invalid max_price"
		}
		in.MaxPrice = &d
	}
	if v := c.QueryParam("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return usecase.ListProductsInput{}, "invalid in_stock"
		}
		in.InStock = b
	}
	return in, ""
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, p)
}

func (h *ProductHandler) listImages(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid id")
	}

	list, err := h.images.List(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, list)
}

func (h *ProductHandler) listCompatibility(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid id")
	}

	list, err := h.uc.ListCompatibility(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, list)
}
