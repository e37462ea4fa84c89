package handler

import (
	"net/http"

	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 配達スタッフ管理
type AdminUserHandler struct {
	uc *usecase.CourierUsecase
}

func NewAdminUserHandler(uc *usecase.CourierUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

type CourierActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	admin := e.Group("/admin", guards.Admin()...)

	admin.GET("/couriers", h.list)
	admin.POST("/couriers", h.create)
	admin.PUT("/couriers/:id/active", h.setActive)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminUserHandler) create(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	var req usecase.CreateCourierRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	out, err := h.uc.Create(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminUserHandler) setActive(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	courierID, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	var req CourierActiveRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}
	if req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "is_active required"})
	}

	out, err := h.uc.SetActive(c.Request().Context(), adminID, courierID, *req.IsActive)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
