package handler

import (
	"net/http"
	"strconv"

	"autoparts/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 商品・画像・適合車種・在庫の管理API
type AdminProductHandler struct {
	uc     *usecase.ProductUsecase
	images *usecase.ProductImageUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase, images *usecase.ProductImageUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc, images: images}
}

// adminを登録（商品系は公開APIと同じパス）
func (h *AdminProductHandler) RegisterRoutes(api *echo.Group, admin ...echo.MiddlewareFunc) {
	api.POST("/products", h.createProduct, admin...)
	api.PUT("/products/:id", h.updateProduct, admin...)
	api.DELETE("/products/:id", h.deleteProduct, admin...)

	api.POST("/products/:id/images", h.uploadImage, admin...)
	api.PUT("/products/:id/images/:imageId", h.updateImage, admin...)
	api.DELETE("/products/:id/images/:imageId", h.deleteImage, admin...)

	api.POST("/products/:id/compatibility", h.addCompatibility, admin...)

	g := api.Group("/admin/inventory", admin...)
	g.GET("/low-stock", h.lowStock)
	g.PUT("/:product_id", h.updateInventory)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return respondCreated(c, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, p)
}

// 論理削除
func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.AdminDeactivateProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, Envelope{Success: true})
}

// multipartの"file"
func (h *AdminProductHandler) uploadImage(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	if fh.Size > usecase.MaxImageBytes {
		return writeError(c, usecase.NewValidationError("invalid image size", map[string]string{"file": "must be at most 5MB"}))
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "invalid file")
	}
	defer f.Close()

	primary, _ := strconv.ParseBool(c.FormValue("is_primary"))
	img, err := h.images.Upload(c.Request().Context(), usecase.UploadImageInput{
		ProductID:   id,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
		AltText:     c.FormValue("alt_text"),
		IsPrimary:   primary,
	})
	if err != nil {
		return writeError(c, err)
	}
	return respondCreated(c, img)
}

func (h *AdminProductHandler) updateImage(c echo.Context) error {
	id, ok1 := paramID(c, "id")
	imageID, ok2 := paramID(c, "imageId")
	if !ok1 || !ok2 {
		return badRequest(c, "invalid id")
	}

	var req usecase.UpdateImageInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	img, err := h.images.Update(c.Request().Context(), id, imageID, req)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, img)
}

func (h *AdminProductHandler) deleteImage(c echo.Context) error {
	id, ok1 := paramID(c, "id")
	imageID, ok2 := paramID(c, "imageId")
	if !ok1 || !ok2 {
		return badRequest(c, "invalid id")
	}

	if err := h.images.Delete(c.Request().Context(), id, imageID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, Envelope{Success: true})
}

func (h *AdminProductHandler) addCompatibility(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.CompatibilityInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	v, err := h.uc.AdminAddCompatibility(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return respondCreated(c, v)
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return badRequest(c, "invalid product_id")
	}

	var req usecase.InventoryUpdateInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.AdminUpdateInventory(c.Request().Context(), adminID, productID, req)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, out)
}

// 在庫しきい値以下の一覧（?threshold= で上書き）
func (h *AdminProductHandler) lowStock(c echo.Context) error {
	var threshold *int64
	if v := c.QueryParam("threshold"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid threshold")
		}
		threshold = &n
	}

	list, err := h.uc.LowStock(c.Request().Context(), threshold)
	if err != nil {
		return writeError(c, err)
	}
	return respondOK(c, list)
}
