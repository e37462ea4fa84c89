package middleware

import (
	"net/http"

	"grocery/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextに入っているroleが許可されたものか確認します。
func RoleGuard(allowed ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			for _, r := range allowed {
				if model.Role(role) == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
		}
	}
}

// ADMINだけ許可
func AdminRoleGuard() echo.MiddlewareFunc {
	return RoleGuard(model.RoleAdmin)
}

// COURIERだけ許可
func CourierRoleGuard() echo.MiddlewareFunc {
	return RoleGuard(model.RoleCourier)
}
