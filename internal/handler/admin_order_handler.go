package handler

import (
	"net/http"

	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	admin := e.Group("/admin", guards.Admin()...)

	admin.GET("/orders", h.list)
	admin.GET("/orders/:id", h.detail)
	admin.PUT("/orders/:id/status", h.updateStatus)
	admin.DELETE("/orders/:id", h.delete)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return invalid(c, "page")
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return invalid(c, "limit")
	}
	userID, ok := queryInt64Ptr(c, "user_id")
	if !ok {
		return invalid(c, "user_id")
	}
	courierID, ok := queryInt64Ptr(c, "courier_id")
	if !ok {
		return invalid(c, "courier_id")
	}

	// from/to の形式チェックは usecase 側
	out, err := h.uc.List(c.Request().Context(), usecase.AdminOrderListInput{
		Page:           page,
		Limit:          limit,
		Status:         c.QueryParam("status"),
		DeliveryStatus: c.QueryParam("delivery_status"),
		UserID:         userID,
		CourierID:      courierID,
		From:           c.QueryParam("from"),
		To:             c.QueryParam("to"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	out, err := h.uc.Get(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	//操作した管理者IDを取得（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), adminID, orderID, usecase.AdminUpdateOrderStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) delete(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	if err := h.uc.Delete(c.Request().Context(), adminID, orderID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	actorID, ok := queryInt64Ptr(c, "actor_user_id")
	if !ok {
		return invalid(c, "actor_user_id")
	}
	resourceID, ok := queryInt64Ptr(c, "resource_id")
	if !ok {
		return invalid(c, "resource_id")
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return invalid(c, "limit")
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return invalid(c, "offset")
	}

	list, err := h.uc.ListAuditLogs(c.Request().Context(), usecase.AuditLogListInput{
		ActorUserID:  actorID,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   resourceID,
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
