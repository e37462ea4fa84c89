package server

import (
	"net/http"

	"grocery/internal/handler"

	"github.com/labstack/echo/v4"
)

// 全ハンドラ
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Cart         *handler.CartHandler
	Address      *handler.AddressHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminUser    *handler.AdminUserHandler
	Delivery     *handler.DeliveryHandler
	Notification *handler.NotificationHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, guards handler.Guards) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	//公開
	h.Product.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e, guards)

	//顧客
	h.Cart.RegisterRoutes(e, guards)
	h.Address.RegisterRoutes(e, guards)
	h.Order.RegisterRoutes(e, guards)
	h.Notification.RegisterRoutes(e, guards)

	//管理者
	h.AdminProduct.RegisterRoutes(e, guards)
	h.AdminOrder.RegisterRoutes(e, guards)
	h.AdminUser.RegisterRoutes(e, guards)

	//配達員
	h.Delivery.RegisterRoutes(e, guards)
}
