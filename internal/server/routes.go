package server

import (
	"autoparts/internal/handler"

	"github.com/labstack/echo/v4"
)

// 画面ごとのハンドラ一式
type Handlers struct {
	Health       *handler.HealthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Category     *handler.CategoryHandler
	Cart         *handler.CartHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	Address      *handler.AddressHandler
	AdminOrder   *handler.AdminOrderHandler
}

// /api 配下にルートを登録する。
// userはログイン必須、adminはログイン+管理者ロール
func RegisterRoutes(e *echo.Echo, h Handlers, user, admin []echo.MiddlewareFunc) {
	if h.Health != nil {
		h.Health.RegisterRoutes(e)
	}

	api := e.Group("/api")

	//公開
	h.Product.RegisterRoutes(api)

	//管理者（公開ルートと同じパスはルート単位でmiddlewareを付ける）
	h.AdminProduct.RegisterRoutes(api, admin...)
	h.Category.RegisterRoutes(api, admin...)
	h.AdminOrder.RegisterRoutes(api, admin...)

	//ログイン必須
	h.Cart.RegisterRoutes(api, user...)
	h.Checkout.RegisterRoutes(api, user...)
	h.Order.RegisterRoutes(api, user...)
	h.Address.RegisterRoutes(api, user...)
}
