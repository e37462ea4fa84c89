package handler

import (
	"net/http"
	"strconv"

	"grocery/internal/domain/model"
	"grocery/internal/middleware"
	"grocery/internal/repository"
	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// 認証系ミドルウェアの組み合わせ
type Guards struct {
	Secret string
	Users  repository.UserRepository
}

// ログイン済み（ロール問わず）
func (g Guards) Authed() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.AuthJWT(g.Secret),
		middleware.TokenVersionGuard(g.Users),
	}
}

func (g Guards) Customer() []echo.MiddlewareFunc {
	return append(g.Authed(), middleware.RoleGuard(model.RoleUser))
}

func (g Guards) Admin() []echo.MiddlewareFunc {
	return append(g.Authed(), middleware.AdminRoleGuard())
}

func (g Guards) Courier() []echo.MiddlewareFunc {
	return append(g.Authed(), middleware.CourierRoleGuard())
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// :id などのパスパラメータ
func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 数値クエリ（空ならdef）
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func queryInt64Ptr(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &i, true
}

func invalid(c echo.Context, what string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + what})
}

func unauthorizedJSON(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}
