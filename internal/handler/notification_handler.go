package handler

import (
	"net/http"

	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/notifications", guards.Customer()...)

	g.GET("", h.list)
	g.POST("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return invalid(c, "limit")
	}

	list, err := h.uc.List(c.Request().Context(), userID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) markRead(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	if err := h.uc.MarkRead(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
